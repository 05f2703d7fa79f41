package phrasebook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ZaguanLabs/phrasebook"
	"github.com/ZaguanLabs/phrasebook/cache"
	"github.com/ZaguanLabs/phrasebook/processor"
	"github.com/ZaguanLabs/phrasebook/provider"
)

// Integration tests using all real components

// newFakeDeepL serves the DeepL translate endpoint from a table.
func newFakeDeepL(t *testing.T, table map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := phrasebook.TranslationResponse{Translations: []phrasebook.Candidate{}}
		if text, ok := table[r.PostForm.Get("text")]; ok {
			resp.Translations = append(resp.Translations, phrasebook.Candidate{
				DetectedSourceLanguage: r.PostForm.Get("source_lang"),
				Text:                   text,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestIntegration_DeepLEndToEnd(t *testing.T) {
	srv, calls := newFakeDeepL(t, map[string]string{"Hello": "こんにちは"})

	p, err := provider.NewDeepLProvider(provider.DeepLConfig{AuthKey: "test:fx", APIURL: srv.URL})
	if err != nil {
		t.Fatalf("NewDeepLProvider failed: %v", err)
	}
	translator := phrasebook.NewTranslator("JA", p, phrasebook.WithSourceLang("EN"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := translator.Translate(ctx, "Hello")
		if err != nil {
			t.Fatalf("Translate failed: %v", err)
		}
		if got != "こんにちは" {
			t.Errorf("Expected こんにちは, got %q", got)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 remote call, got %d", calls.Load())
	}

	_, err = translator.Translate(ctx, "Goodbye")
	if phrasebook.Kind(err) != phrasebook.KindEmptyResult {
		t.Errorf("Expected empty result, got %v", err)
	}
	if _, ok := translator.Cache().Lookup("Goodbye"); ok {
		t.Error("Empty result must not be cached")
	}
}

func TestIntegration_DeepLServerDown(t *testing.T) {
	srv, _ := newFakeDeepL(t, nil)
	srv.Close()

	p, _ := provider.NewDeepLProvider(provider.DeepLConfig{AuthKey: "test", APIURL: srv.URL})
	translator := phrasebook.NewTranslator("JA", p)

	_, err := translator.Translate(context.Background(), "Hello")
	if phrasebook.Kind(err) != phrasebook.KindTransport {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestIntegration_DisabledProviderServesCache(t *testing.T) {
	p := provider.NewMockProvider()
	translator := phrasebook.NewTranslator("JA", p, phrasebook.WithCache(cache.NewInMemoryCache()))
	ctx := context.Background()

	if _, err := translator.Translate(ctx, "Hello"); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	p.Disable()

	got, err := translator.Translate(ctx, "Hello")
	if err != nil {
		t.Fatalf("Expected cached translation, got %v", err)
	}
	if got != "こんにちは" {
		t.Errorf("Expected こんにちは, got %q", got)
	}
	if p.CallCount() != 1 {
		t.Errorf("Expected 1 provider call, got %d", p.CallCount())
	}
}

func TestIntegration_RateLimitedProvider(t *testing.T) {
	p := provider.NewMockProvider()
	limited := phrasebook.NewRateLimitedProvider(p, phrasebook.RateLimitConfig{RequestsPerMinute: 600, BurstSize: 2})
	translator := phrasebook.NewTranslator("JA", limited)

	for _, phrase := range []string{"Hello", "World", "Thank you"} {
		if _, err := translator.Translate(context.Background(), phrase); err != nil {
			t.Fatalf("Translate(%q) failed: %v", phrase, err)
		}
	}
	if p.CallCount() != 3 {
		t.Errorf("Expected 3 calls, got %d", p.CallCount())
	}
}

func TestIntegration_DraftDocument(t *testing.T) {
	p := provider.NewMockProvider()
	translator := phrasebook.NewTranslator("JA", p,
		phrasebook.WithProcessor(processor.NewDraftProcessor()),
		phrasebook.WithConcurrency(2),
	)

	doc := `{"blocks":[
		{"key":"a","text":"Hello World","entityRanges":[{"offset":0,"length":5,"key":0},{"offset":6,"length":5,"key":0}]},
		{"key":"b","text":"Hello again","entityRanges":[{"offset":0,"length":5,"key":0}]}
	],"entityMap":{"0":{"type":"TRANSLATE_BLOCK_ENTITY","mutability":"MUTABLE","data":{}}}}`

	result, err := translator.TranslateDocument(context.Background(), doc, phrasebook.ContentTypeDraft)
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	if result.TotalPhrases != 2 || result.TranslatedCount != 2 {
		t.Errorf("Expected 2 phrases translated, got %+v", result)
	}
	if result.Translations["World"] != "世界" {
		t.Errorf("Expected 世界, got %q", result.Translations["World"])
	}

	// A second pass is served entirely from cache.
	result, err = translator.TranslateDocument(context.Background(), doc, phrasebook.ContentTypeDraft)
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	if result.CachedCount != 2 || result.TranslatedCount != 0 {
		t.Errorf("Expected 2 cached, got %+v", result)
	}
	if p.CallCount() != 2 {
		t.Errorf("Expected 2 provider calls in total, got %d", p.CallCount())
	}
}

func TestIntegration_HTMLDocument(t *testing.T) {
	p := provider.NewMockProvider()
	proc := processor.NewHTMLProcessor()
	translator := phrasebook.NewTranslator("JA", p, phrasebook.WithProcessor(proc))

	html := `<p>Say <span class="translate-phrase">Good morning</span> and <span class="translate-phrase">Thank you</span></p>`

	result, err := translator.TranslateDocument(context.Background(), html, phrasebook.ContentTypeHTML)
	if err != nil {
		t.Fatalf("TranslateDocument failed: %v", err)
	}
	if len(result.Failures) != 0 {
		t.Fatalf("Unexpected failures: %v", result.Failures)
	}

	out, err := proc.Annotate(html, result.Translations)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	want := `<p>Say <span class="translate-phrase" data-translation="おはようございます">Good morning</span> and <span class="translate-phrase" data-translation="ありがとう">Thank you</span></p>`
	if out != want {
		t.Errorf("Unexpected annotated HTML:\n got: %s\nwant: %s", out, want)
	}
}
