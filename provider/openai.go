package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/phrasebook"
	"github.com/sashabaranov/go-openai"
)

// OpenAIAPIKeyEnv is the environment variable holding the OpenAI key.
const OpenAIAPIKeyEnv = "OPENAI_API_KEY"

// OpenAIProvider implements Provider with an OpenAI chat model.
// The model is asked for the same response shape the DeepL API returns.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key (required)
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.2)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &phrasebook.MissingCredentialError{Provider: "openai", EnvVar: OpenAIAPIKeyEnv}
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}, nil
}

// Name identifies the provider in errors and telemetry.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Translate asks the model for a translation of one phrase.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]Candidate, error) {
	if p.client == nil {
		return nil, &phrasebook.MissingCredentialError{Provider: p.Name(), EnvVar: OpenAIAPIKeyEnv}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return []Candidate{}, nil
	}

	return p.parseResponse(resp.Choices[0].Message.Content)
}

func buildSystemPrompt(req TranslateRequest) string {
	source := phrasebook.GetLanguageName(req.SourceLang)
	target := phrasebook.GetLanguageName(req.TargetLang)

	return fmt.Sprintf(`# Role
You are a professional translator from %s to %s.

# Task
Translate the phrase given by the user into natural, idiomatic %s.
Keep names, numbers, URLs and placeholders unchanged.

# Format
Return a JSON object of exactly this shape:
{"translations": [{"detected_source_language": "<upper-case ISO 639-1 code>", "text": "<translation>"}]}
Return exactly one element. Do NOT wrap the JSON in Markdown.`, source, target, target)
}

func (p *OpenAIProvider) parseResponse(content string) ([]Candidate, error) {
	var parsed struct {
		Translations *[]Candidate `json:"translations"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &phrasebook.DecodeError{Provider: p.Name(), Body: snippet([]byte(content)), Cause: err}
	}
	if parsed.Translations == nil {
		return nil, &phrasebook.DecodeError{
			Provider: p.Name(),
			Body:     snippet([]byte(content)),
			Cause:    errors.New(`response has no "translations" field`),
		}
	}
	return *parsed.Translations, nil
}

// classify separates errors that carry an HTTP response from network failures.
func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &phrasebook.DecodeError{Provider: p.Name(), StatusCode: apiErr.HTTPStatusCode, Cause: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &phrasebook.DecodeError{Provider: p.Name(), StatusCode: reqErr.HTTPStatusCode, Cause: err}
	}

	return &phrasebook.TransportError{Provider: p.Name(), Cause: err}
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
