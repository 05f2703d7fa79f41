package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/phrasebook"
	"github.com/ZaguanLabs/phrasebook/cache"
	"github.com/ZaguanLabs/phrasebook/command"
	"github.com/ZaguanLabs/phrasebook/config"
	"github.com/ZaguanLabs/phrasebook/processor"
	"github.com/ZaguanLabs/phrasebook/provider"
	"github.com/ZaguanLabs/phrasebook/store"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// app is everything a command needs, built once at startup.
type app struct {
	commands   *command.Commands
	translator *phrasebook.Translator
	html       *processor.HTMLProcessor
	logger     *slog.Logger
	addr       string
	closers    []func(context.Context) error
}

// newApp wires the configured provider, cache and store into one executor.
// On error everything built so far is released.
func newApp(cfg *config.Config, logger *slog.Logger, traceOut io.Writer) (_ *app, err error) {
	a := &app{logger: logger, addr: cfg.Addr, html: processor.NewHTMLProcessor()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// A store-only app keeps a provider-less translator, which reports a
	// missing credential if it is ever asked to translate.
	var p phrasebook.Provider
	if !cfg.StoreOnly {
		if p, err = newProvider(cfg); err != nil {
			return nil, err
		}
		if rpm := cfg.Translate.RequestsPerMinute; rpm > 0 {
			p = phrasebook.NewRateLimitedProvider(p, phrasebook.RateLimitConfig{RequestsPerMinute: rpm})
		}
	}

	opts := []phrasebook.TranslatorOption{
		phrasebook.WithSourceLang(cfg.Translate.SourceLang),
		phrasebook.WithLogger(logger),
		phrasebook.WithConcurrency(cfg.Translate.Workers),
		phrasebook.WithProcessor(processor.NewDraftProcessor()),
		phrasebook.WithProcessor(a.html),
	}
	if cfg.Translate.Dedup {
		opts = append(opts, phrasebook.WithInFlightDedup())
	}
	if cfg.Translate.DetectConfidence > 0 {
		opts = append(opts, phrasebook.WithSourceDetection(cfg.Translate.DetectConfidence))
	}

	if traceOut != nil {
		tp, err := newTracerProvider(traceOut)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, tp.Shutdown)
		opts = append(opts, phrasebook.WithTracerProvider(tp))
	}

	phraseCache, err := newCache(cfg, a)
	if err != nil {
		return nil, err
	}
	opts = append(opts, phrasebook.WithCache(phraseCache))

	st, err := newStore(cfg, a)
	if err != nil {
		return nil, err
	}

	a.translator = phrasebook.NewTranslator(cfg.Translate.TargetLang, p, opts...)

	exec := command.NewExecutor(cfg.Translate.Workers)
	a.closers = append(a.closers, func(context.Context) error {
		exec.Close()
		return nil
	})
	a.commands = command.New(exec, a.translator, st, logger)

	logger.Debug("startup complete",
		"provider", cfg.Provider,
		"source", cfg.Translate.SourceLang,
		"target", cfg.Translate.TargetLang,
		"cache", cfg.Cache.Backend,
		"store", cfg.Store.Backend,
	)
	return a, nil
}

func newProvider(cfg *config.Config) (phrasebook.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
	default:
		return provider.NewDeepLProvider(provider.DeepLConfig{
			AuthKey: cfg.DeepL.AuthKey,
			APIURL:  cfg.DeepL.APIURL,
			Timeout: cfg.DeepL.Timeout,
		})
	}
}

func newCache(cfg *config.Config, a *app) (phrasebook.PhraseCache, error) {
	if cfg.StoreOnly || cfg.Cache.Backend != config.CacheRedis {
		return cache.NewInMemoryCache(), nil
	}

	rc, err := cache.NewRedisCache(cache.RedisConfig{
		URL:       cfg.Cache.RedisURL,
		KeyPrefix: cfg.Cache.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	// Run-scoped entries are removed on exit so nothing outlives the process.
	a.closers = append(a.closers, func(ctx context.Context) error {
		return errors.Join(rc.Purge(ctx), rc.Close())
	})
	a.logger.Debug("redis cache ready", "run_id", rc.RunID())
	return rc, nil
}

func newStore(cfg *config.Config, a *app) (store.Store, error) {
	if cfg.Store.Backend != config.StoreSQLite {
		return store.NewFileStore(cfg.Store.Dir)
	}

	s, err := store.NewSQLiteStore(cfg.Store.DBPath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return s.Close() })
	return s, nil
}

func newTracerProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)), nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
	a.closers = nil
}
