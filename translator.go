package phrasebook

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ZaguanLabs/phrasebook/cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds a deduplicated provider call, which no longer
// inherits a caller's deadline.
const sharedFetchTimeout = time.Minute

// Translator resolves phrases to translations, using its cache as the fast
// path and the provider as the source of truth on a miss.
type Translator struct {
	targetLang     string
	sourceLang     string
	provider       Provider
	cache          PhraseCache
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tel            *telemetry
	dedup          bool
	inflight       singleflight.Group
	detectMin      float64 // 0 disables source detection
	processors     map[string]ContentProcessor
	concurrency    int
}

// Provider is the interface for remote translation backends.
//
// Implementations must classify failures as *TransportError, *DecodeError or
// *MissingCredentialError. Any other error is treated as a transport failure.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]Candidate, error)
}

// PhraseCache is the interface for phrase caching.
type PhraseCache interface {
	Lookup(phrase string) (string, bool)
	Insert(phrase, translation string) error
}

// ContentProcessor extracts marked phrases from a document.
type ContentProcessor interface {
	Extract(content string) ([]MarkedPhrase, error)
	ContentType() string
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLang sets the source language code sent to the provider.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the phrase cache. The translator owns it from then on.
func WithCache(c PhraseCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = c
	}
}

// WithLogger sets the logger. By default the translator does not log.
func WithLogger(logger *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider (default: global).
func WithTracerProvider(tp trace.TracerProvider) TranslatorOption {
	return func(t *Translator) {
		t.tracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider (default: global).
func WithMeterProvider(mp metric.MeterProvider) TranslatorOption {
	return func(t *Translator) {
		t.meterProvider = mp
	}
}

// WithInFlightDedup makes concurrent misses for the same phrase share one
// provider call. The shared call runs with the context of the first caller.
func WithInFlightDedup() TranslatorOption {
	return func(t *Translator) {
		t.dedup = true
	}
}

// WithSourceDetection skips the provider when a phrase is detected to already
// be in the target language with at least minConfidence (0 < minConfidence <= 1).
// Such phrases are returned unchanged and are not cached.
func WithSourceDetection(minConfidence float64) TranslatorOption {
	return func(t *Translator) {
		t.detectMin = minConfidence
	}
}

// WithProcessor registers a document processor.
func WithProcessor(processor ContentProcessor) TranslatorOption {
	return func(t *Translator) {
		t.processors[processor.ContentType()] = processor
	}
}

// WithConcurrency bounds how many phrases of a document are translated at once.
func WithConcurrency(n int) TranslatorOption {
	return func(t *Translator) {
		t.concurrency = n
	}
}

// NewTranslator creates a Translator for the given target language.
// Without WithCache it gets its own unbounded in-memory cache.
func NewTranslator(targetLang string, provider Provider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		targetLang:  targetLang,
		sourceLang:  "EN",
		provider:    provider,
		processors:  make(map[string]ContentProcessor),
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.cache == nil {
		t.cache = cache.NewInMemoryCache()
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	if t.concurrency <= 0 {
		t.concurrency = 1
	}
	t.tel = newTelemetry(t.tracerProvider, t.meterProvider)

	return t
}

// Translate returns the translation of phrase.
//
// A cached translation is returned without contacting the provider. On a
// miss the provider is called once; a successful result is cached before it
// is returned. Failures are never cached.
func (t *Translator) Translate(ctx context.Context, phrase string) (string, error) {
	translation, _, err := t.translate(ctx, phrase)
	return translation, err
}

// origin records where a translation came from.
type origin int

const (
	fromProvider origin = iota
	fromCache
	// fromSource marks a phrase returned unchanged because it is already in
	// the target language.
	fromSource
)

// translate also reports where the result came from.
func (t *Translator) translate(ctx context.Context, phrase string) (string, origin, error) {
	if strings.TrimSpace(phrase) == "" {
		return "", fromProvider, ErrEmptyPhrase
	}

	ctx, span := t.tel.startTranslate(ctx, phrase, t.sourceLang, t.targetLang)
	defer span.End()

	if cached, ok := t.cache.Lookup(phrase); ok {
		t.tel.recordLookup(ctx, span, true)
		t.logger.DebugContext(ctx, "cache hit", "phrase", phrase, "translation", cached)
		return cached, fromCache, nil
	}
	t.tel.recordLookup(ctx, span, false)

	if t.alreadyInTarget(phrase) {
		span.SetAttributes(attribute.Bool("source.detected_target", true))
		t.logger.DebugContext(ctx, "phrase already in target language", "phrase", phrase, "target", t.targetLang)
		return phrase, fromSource, nil
	}

	var (
		translation string
		err         error
	)
	if t.dedup {
		translation, err = t.fetchShared(ctx, span, phrase)
	} else {
		translation, err = t.fetch(ctx, phrase)
	}

	if err != nil {
		t.tel.recordFailure(ctx, span, err)
		t.logger.InfoContext(ctx, "translation failed", "phrase", phrase, "kind", string(Kind(err)), "error", err)
		return "", fromProvider, err
	}
	return translation, fromProvider, nil
}

// fetchShared joins an in-flight call for phrase or starts one. The shared
// call runs detached from any single caller's cancellation; each caller
// stops waiting only when its own context is done.
func (t *Translator) fetchShared(ctx context.Context, span trace.Span, phrase string) (string, error) {
	detached := context.WithoutCancel(ctx)
	ch := t.inflight.DoChan(phrase, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(detached, sharedFetchTimeout)
		defer cancel()
		return t.fetch(fetchCtx, phrase)
	})

	select {
	case res := <-ch:
		span.SetAttributes(attribute.Bool("inflight.shared", res.Shared))
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &TransportError{Provider: providerName(t.provider), Cause: ctx.Err()}
	}
}

// fetch performs the remote call and populates the cache on success.
func (t *Translator) fetch(ctx context.Context, phrase string) (string, error) {
	name := providerName(t.provider)
	if t.provider == nil {
		return "", &MissingCredentialError{Provider: "none"}
	}

	start := time.Now()
	candidates, err := t.provider.Translate(ctx, TranslateRequest{
		Text:       phrase,
		SourceLang: t.sourceLang,
		TargetLang: t.targetLang,
	})
	t.tel.recordCall(ctx, name, time.Since(start))
	if err != nil {
		return "", classify(name, err)
	}

	if len(candidates) == 0 || candidates[0].Text == "" {
		return "", &EmptyResultError{Phrase: phrase}
	}
	if len(candidates) > 1 {
		t.logger.DebugContext(ctx, "ignoring extra candidates", "phrase", phrase, "count", len(candidates))
	}

	translation := candidates[0].Text
	if err := t.cache.Insert(phrase, translation); err != nil {
		t.logger.WarnContext(ctx, "cache insert failed", "phrase", phrase, "error", err)
	}
	return translation, nil
}

// alreadyInTarget reports whether source detection says phrase needs no translation.
func (t *Translator) alreadyInTarget(phrase string) bool {
	if t.detectMin <= 0 {
		return false
	}
	lang, confidence := DetectLanguage(phrase)
	return lang != "" && confidence >= t.detectMin && lang == BaseLang(t.targetLang)
}

// Cache returns the translator's phrase cache.
func (t *Translator) Cache() PhraseCache {
	return t.cache
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// classify maps an arbitrary provider error into the error taxonomy.
func classify(provider string, err error) error {
	switch Kind(err) {
	case KindTransport, KindDecode, KindMissingCredential, KindEmptyResult:
		return err
	default:
		return &TransportError{Provider: provider, Cause: err}
	}
}

// providerName returns p.Name() when the provider has one.
func providerName(p Provider) string {
	if named, ok := p.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "provider"
}
