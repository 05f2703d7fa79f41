package phrasebook

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TranslateDocument translates every marked phrase of content.
//
// Phrases go through Translate, so the cache is consulted and populated as
// usual. A failing phrase is recorded in DocumentResult.Failures and does not
// stop the others; only a parse error or a cancelled context fails the call.
func (t *Translator) TranslateDocument(ctx context.Context, content, contentType string) (*DocumentResult, error) {
	processor, ok := t.processors[contentType]
	if !ok {
		return nil, &ProcessorError{
			Message:     "no processor registered for content type",
			ContentType: contentType,
		}
	}

	marked, err := processor.Extract(content)
	if err != nil {
		return nil, err
	}

	phrases := make([]string, len(marked))
	for i, m := range marked {
		phrases[i] = m.Text
	}

	return t.TranslatePhrases(ctx, phrases)
}

// TranslatePhrases translates a batch of phrases concurrently, at most
// WithConcurrency at a time. Duplicate and blank phrases are skipped.
func (t *Translator) TranslatePhrases(ctx context.Context, phrases []string) (*DocumentResult, error) {
	unique := make([]string, 0, len(phrases))
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		if strings.TrimSpace(p) == "" || seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}

	result := &DocumentResult{
		Translations: make(map[string]string, len(unique)),
		Failures:     make(map[string]error),
		TotalPhrases: len(unique),
	}
	if len(unique) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for _, phrase := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			translation, from, err := t.translate(gctx, phrase)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures[phrase] = err
				return nil
			}
			result.Translations[phrase] = translation
			switch from {
			case fromCache:
				result.CachedCount++
			case fromSource:
				result.SkippedCount++
			default:
				result.TranslatedCount++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
