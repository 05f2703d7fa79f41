package phrasebook

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProcessor returns a fixed phrase list.
type fakeProcessor struct {
	phrases []string
	err     error
}

func (p *fakeProcessor) Extract(string) ([]MarkedPhrase, error) {
	if p.err != nil {
		return nil, p.err
	}
	marked := make([]MarkedPhrase, len(p.phrases))
	for i, text := range p.phrases {
		marked[i] = MarkedPhrase{Text: text, Hash: HashPhrase(text)}
	}
	return marked, nil
}

func (p *fakeProcessor) ContentType() string { return "fake" }

// countingProvider tracks how many calls are in flight at once.
type countingProvider struct {
	*stubProvider
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (p *countingProvider) Translate(ctx context.Context, req TranslateRequest) ([]Candidate, error) {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return p.stubProvider.Translate(ctx, req)
}

func TestTranslatePhrases_Basic(t *testing.T) {
	p := newStubProvider()
	tr := NewTranslator("JA", p)

	result, err := tr.TranslatePhrases(context.Background(), []string{"Hello", "World", "Missing"})
	if err != nil {
		t.Fatalf("TranslatePhrases failed: %v", err)
	}

	if result.TotalPhrases != 3 {
		t.Errorf("Expected 3 phrases, got %d", result.TotalPhrases)
	}
	if result.TranslatedCount != 2 {
		t.Errorf("Expected 2 translated, got %d", result.TranslatedCount)
	}
	if result.Translations["Hello"] != "こんにちは" || result.Translations["World"] != "世界" {
		t.Errorf("Unexpected translations: %v", result.Translations)
	}

	var emptyErr *EmptyResultError
	if !errors.As(result.Failures["Missing"], &emptyErr) {
		t.Errorf("Expected EmptyResultError for Missing, got %v", result.Failures["Missing"])
	}
}

func TestTranslatePhrases_Deduplication(t *testing.T) {
	p := newStubProvider()
	tr := NewTranslator("JA", p)

	result, err := tr.TranslatePhrases(context.Background(), []string{"Hello", "Hello", " ", "Hello"})
	if err != nil {
		t.Fatalf("TranslatePhrases failed: %v", err)
	}
	if result.TotalPhrases != 1 {
		t.Errorf("Expected 1 distinct phrase, got %d", result.TotalPhrases)
	}
	if p.callsFor("Hello") != 1 {
		t.Errorf("Expected 1 call, got %d", p.callsFor("Hello"))
	}
}

func TestTranslatePhrases_UsesCache(t *testing.T) {
	p := newStubProvider()
	tr := NewTranslator("JA", p)

	if _, err := tr.Translate(context.Background(), "Hello"); err != nil {
		t.Fatal(err)
	}

	result, err := tr.TranslatePhrases(context.Background(), []string{"Hello", "World"})
	if err != nil {
		t.Fatalf("TranslatePhrases failed: %v", err)
	}
	if result.CachedCount != 1 || result.TranslatedCount != 1 {
		t.Errorf("Expected 1 cached and 1 translated, got %d and %d", result.CachedCount, result.TranslatedCount)
	}
}

func TestTranslatePhrases_SkippedNotCountedAsTranslated(t *testing.T) {
	p := newStubProvider()
	tr := NewTranslator("JA", p, WithSourceDetection(0.5))

	japanese := "これは日本語で書かれた文章です。翻訳する必要はありません。"
	result, err := tr.TranslatePhrases(context.Background(), []string{japanese, "Hello"})
	if err != nil {
		t.Fatalf("TranslatePhrases failed: %v", err)
	}
	if result.SkippedCount != 1 || result.TranslatedCount != 1 || result.CachedCount != 0 {
		t.Errorf("Expected 1 skipped and 1 translated, got skipped=%d translated=%d cached=%d",
			result.SkippedCount, result.TranslatedCount, result.CachedCount)
	}
	if result.Translations[japanese] != japanese {
		t.Errorf("Skipped phrase should map to itself, got %q", result.Translations[japanese])
	}
	if p.callsFor(japanese) != 0 {
		t.Error("Skipped phrase should not reach the provider")
	}
}

func TestTranslatePhrases_Empty(t *testing.T) {
	tr := NewTranslator("JA", newStubProvider())

	result, err := tr.TranslatePhrases(context.Background(), nil)
	if err != nil {
		t.Fatalf("TranslatePhrases failed: %v", err)
	}
	if result.TotalPhrases != 0 || len(result.Translations) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestTranslatePhrases_BoundedConcurrency(t *testing.T) {
	p := &countingProvider{stubProvider: newStubProvider()}
	tr := NewTranslator("JA", p, WithConcurrency(2))

	phrases := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	if _, err := tr.TranslatePhrases(context.Background(), phrases); err != nil {
		t.Fatalf("TranslatePhrases failed: %v", err)
	}
	if peak := p.peak.Load(); peak > 2 {
		t.Errorf("Expected at most 2 concurrent calls, got %d", peak)
	}
}

func TestTranslatePhrases_Cancelled(t *testing.T) {
	tr := NewTranslator("JA", newStubProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := tr.TranslatePhrases(ctx, []string{"Hello"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestTranslateDocument(t *testing.T) {
	tr := NewTranslator("JA", newStubProvider(), WithProcessor(&fakeProcessor{phrases: []string{"Hello", "World"}}))

	result, err := tr.TranslateDocument(context.Background(), "ignored", "fake")
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	if result.TranslatedCount != 2 {
		t.Errorf("Expected 2 translated, got %d", result.TranslatedCount)
	}
}

func TestTranslateDocument_Errors(t *testing.T) {
	parseErr := &ProcessorError{Message: "bad input", ContentType: "fake"}
	tr := NewTranslator("JA", newStubProvider(), WithProcessor(&fakeProcessor{err: parseErr}))

	if _, err := tr.TranslateDocument(context.Background(), "x", "fake"); !errors.Is(err, parseErr) {
		t.Errorf("Expected the processor error, got %v", err)
	}

	_, err := tr.TranslateDocument(context.Background(), "x", "pdf")
	if Kind(err) != KindProcessor {
		t.Errorf("Expected processor error for unknown type, got %v", err)
	}
}
