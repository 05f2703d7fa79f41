package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ZaguanLabs/phrasebook"
	"github.com/ZaguanLabs/phrasebook/store"
)

// Commands is the operation surface offered to the host.
type Commands struct {
	exec       *Executor
	translator *phrasebook.Translator
	store      store.Store
	logger     *slog.Logger
}

// New wires the commands to a shared executor, translator and store.
func New(exec *Executor, translator *phrasebook.Translator, st store.Store, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Commands{
		exec:       exec,
		translator: translator,
		store:      st,
		logger:     logger,
	}
}

// Translate returns the translation of phrase. Errors are those of
// phrasebook.Translator.Translate.
func (c *Commands) Translate(ctx context.Context, phrase string) (string, error) {
	return Run(ctx, c.exec, func(ctx context.Context) (string, error) {
		return c.translator.Translate(ctx, phrase)
	})
}

// Save stores content under name. Failures are logged and not reported to
// the caller.
func (c *Commands) Save(ctx context.Context, name, content string) {
	_, err := Run(ctx, c.exec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.store.Save(ctx, name, content)
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "save failed", "name", name, "error", err)
		return
	}
	c.logger.DebugContext(ctx, "saved", "name", name, "bytes", len(content))
}

// Load returns the content stored under name. A missing document matches
// store.ErrNotFound.
func (c *Commands) Load(ctx context.Context, name string) (string, error) {
	content, err := Run(ctx, c.exec, func(ctx context.Context) (string, error) {
		return c.store.Load(ctx, name)
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "load failed", "name", name, "error", err)
		return "", fmt.Errorf("could not load %q: %w", name, err)
	}
	return content, nil
}

// List returns the names of stored documents, most recently saved first.
func (c *Commands) List(ctx context.Context) ([]string, error) {
	names, err := Run(ctx, c.exec, func(ctx context.Context) ([]string, error) {
		return c.store.Names(ctx)
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "list failed", "error", err)
		return nil, fmt.Errorf("could not list documents: %w", err)
	}
	return names, nil
}

// TranslateDocument translates every marked phrase of a document.
func (c *Commands) TranslateDocument(ctx context.Context, content, contentType string) (*phrasebook.DocumentResult, error) {
	return Run(ctx, c.exec, func(ctx context.Context) (*phrasebook.DocumentResult, error) {
		return c.translator.TranslateDocument(ctx, content, contentType)
	})
}
