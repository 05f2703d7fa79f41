package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZaguanLabs/phrasebook"
)

const (
	// DeepLFreeURL is the translate endpoint for free-tier keys (suffix ":fx").
	DeepLFreeURL = "https://api-free.deepl.com/v2/translate"
	// DeepLProURL is the translate endpoint for paid keys.
	DeepLProURL = "https://api.deepl.com/v2/translate"

	// DeepLAuthKeyEnv is the environment variable holding the DeepL key.
	DeepLAuthKeyEnv = "DEEPL_AUTH_KEY"

	defaultDeepLTimeout = 30 * time.Second
	maxResponseBytes    = 1 << 20
)

// DeepLProvider implements Provider using the DeepL REST API.
type DeepLProvider struct {
	client  *http.Client
	authKey string
	apiURL  string
}

// DeepLConfig holds configuration for the DeepL provider.
type DeepLConfig struct {
	AuthKey    string        // DeepL authentication key (required)
	APIURL     string        // Endpoint override (default: chosen from the key type)
	Timeout    time.Duration // Per-request timeout (default: 30s)
	HTTPClient *http.Client  // Custom client (optional; Timeout is ignored when set)
}

// NewDeepLProvider creates a DeepL provider.
// It fails with *phrasebook.MissingCredentialError when no key is configured.
func NewDeepLProvider(cfg DeepLConfig) (*DeepLProvider, error) {
	key := strings.TrimSpace(cfg.AuthKey)
	if key == "" {
		return nil, &phrasebook.MissingCredentialError{Provider: "deepl", EnvVar: DeepLAuthKeyEnv}
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = DeepLProURL
		if strings.HasSuffix(key, ":fx") {
			apiURL = DeepLFreeURL
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultDeepLTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &DeepLProvider{
		client:  client,
		authKey: key,
		apiURL:  apiURL,
	}, nil
}

// Name identifies the provider in errors and telemetry.
func (p *DeepLProvider) Name() string {
	return "deepl"
}

// APIURL returns the endpoint requests are sent to.
func (p *DeepLProvider) APIURL() string {
	return p.apiURL
}

// Translate sends one form-encoded translate request.
func (p *DeepLProvider) Translate(ctx context.Context, req TranslateRequest) ([]Candidate, error) {
	if p.authKey == "" {
		return nil, &phrasebook.MissingCredentialError{Provider: p.Name(), EnvVar: DeepLAuthKeyEnv}
	}

	form := url.Values{}
	form.Set("text", req.Text)
	form.Set("source_lang", req.SourceLang)
	form.Set("target_lang", req.TargetLang)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &phrasebook.TransportError{Provider: p.Name(), Cause: err}
	}
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.authKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", phrasebook.UserAgent())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &phrasebook.TransportError{Provider: p.Name(), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// The response started but never completed.
		return nil, &phrasebook.TransportError{Provider: p.Name(), Cause: fmt.Errorf("reading response: %w", err)}
	}

	return p.parseResponse(resp.StatusCode, body)
}

// deeplResponse distinguishes a missing "translations" field from an empty one.
type deeplResponse struct {
	Translations *[]Candidate `json:"translations"`
	Message      string       `json:"message"`
}

// parseResponse turns a DeepL reply into candidates.
//
// Any non-2xx status, including 429 and 5xx, is a *phrasebook.DecodeError:
// the body is not a translation result. Such errors carry StatusCode, so a
// caller that wants to retry throttling or outages should check it rather
// than rely on the error kind alone.
func (p *DeepLProvider) parseResponse(status int, body []byte) ([]Candidate, error) {
	var parsed deeplResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if status < 200 || status > 299 {
		cause := fmt.Errorf("unexpected status %s", http.StatusText(status))
		if decodeErr == nil && parsed.Message != "" {
			cause = fmt.Errorf("unexpected status %s: %s", http.StatusText(status), parsed.Message)
		}
		return nil, &phrasebook.DecodeError{Provider: p.Name(), StatusCode: status, Body: snippet(body), Cause: cause}
	}

	if decodeErr != nil {
		return nil, &phrasebook.DecodeError{Provider: p.Name(), StatusCode: status, Body: snippet(body), Cause: decodeErr}
	}
	if parsed.Translations == nil {
		return nil, &phrasebook.DecodeError{
			Provider:   p.Name(),
			StatusCode: status,
			Body:       snippet(body),
			Cause:      errors.New(`response has no "translations" field`),
		}
	}

	return *parsed.Translations, nil
}

// Verify DeepLProvider implements Provider
var _ Provider = (*DeepLProvider)(nil)
