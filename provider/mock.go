package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/ZaguanLabs/phrasebook"
)

// MockProvider is a deterministic provider for tests and offline runs.
type MockProvider struct {
	Translations map[string]string // Map of source phrase to translation

	mu          sync.Mutex
	callCount   int
	calls       map[string]int
	lastRequest *TranslateRequest
	failure     error
	hooks       map[string]Hook
}

// Hook answers a single phrase in place of the translation table.
type Hook func(ctx context.Context, req TranslateRequest) ([]Candidate, error)

// NewMockProvider creates a mock provider with default English → Japanese translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":        "こんにちは",
			"World":        "世界",
			"Hello World":  "ハローワールド",
			"Good morning": "おはようございます",
			"Thank you":    "ありがとう",
		},
		calls: make(map[string]int),
	}
}

// Name identifies the provider in errors and telemetry.
func (m *MockProvider) Name() string {
	return "mock"
}

// Translate returns the configured translation as a single candidate.
// Unknown phrases produce an empty candidate list. A hook registered for the
// phrase takes precedence over both the table and FailWith.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]Candidate, error) {
	m.mu.Lock()
	m.callCount++
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[req.Text]++
	m.lastRequest = &req
	failure := m.failure
	hook := m.hooks[req.Text]
	translation, ok := m.Translations[req.Text]
	m.mu.Unlock()

	if hook != nil {
		return hook(ctx, req)
	}
	if failure != nil {
		return nil, failure
	}
	if err := ctx.Err(); err != nil {
		return nil, &phrasebook.TransportError{Provider: m.Name(), Cause: err}
	}
	if !ok {
		return []Candidate{}, nil
	}

	return []Candidate{{DetectedSourceLanguage: req.SourceLang, Text: translation}}, nil
}

// Disable makes every following call fail at the transport level.
func (m *MockProvider) Disable() {
	m.FailWith(&phrasebook.TransportError{Provider: m.Name(), Cause: errors.New("provider disabled")})
}

// FailWith makes every following call return err. A nil err restores normal behavior.
func (m *MockProvider) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// OnPhrase registers fn to answer every following call for phrase. A nil fn
// removes the hook.
func (m *MockProvider) OnPhrase(phrase string, fn Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.hooks, phrase)
		return
	}
	if m.hooks == nil {
		m.hooks = make(map[string]Hook)
	}
	m.hooks[phrase] = fn
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// CallsFor returns the number of Translate calls for phrase.
func (m *MockProvider) CallsFor(phrase string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[phrase]
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset clears call counters, the last request, hooks and any configured failure.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.calls = make(map[string]int)
	m.lastRequest = nil
	m.failure = nil
	m.hooks = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
