// Command phrasebook translates phrases and marked documents from the
// command line or over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/ZaguanLabs/phrasebook"
	"github.com/ZaguanLabs/phrasebook/command"
	"github.com/ZaguanLabs/phrasebook/config"
	"github.com/ZaguanLabs/phrasebook/processor"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = phrasebook.Version
	commit    = phrasebook.GitCommit
	buildDate = phrasebook.BuildDate
)

const usage = `usage: phrasebook [flags] <command> [args]

commands:
  translate <phrase>...          translate each phrase
  save <name>                    save stdin under name
  load <name>                    print the document saved under name
  list                           list saved documents, newest first
  doc [--type T] [--annotate] [--dry-run] <file|->
                                 translate the marked phrases of a document
  serve [--addr A]               serve the commands as JSON over HTTP

flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are accepted before the command name.
type globalFlags struct {
	provider   string
	sourceLang string
	targetLang string
	logLevel   string
	trace      bool
	jsonOutput bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("phrasebook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var g globalFlags
	fs.StringVar(&g.provider, "provider", "", "Translation provider: deepl or openai (default: PHRASEBOOK_PROVIDER or deepl)")
	fs.StringVar(&g.sourceLang, "source", "", "Source language (default: PHRASEBOOK_SOURCE_LANG or EN)")
	fs.StringVar(&g.targetLang, "target", "", "Target language (default: PHRASEBOOK_TARGET_LANG or JA)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: PHRASEBOOK_LOG_LEVEL or info)")
	fs.BoolVar(&g.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	fs.BoolVar(&g.jsonOutput, "json", false, "Output results as JSON")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", phrasebook.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("a command is required")
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	switch name {
	case "translate":
		return runTranslate(g, rest, stdout, stderr)
	case "save":
		return runSave(g, rest, stdin, stderr)
	case "load":
		return runLoad(g, rest, stdout, stderr)
	case "list":
		return runList(g, rest, stdout, stderr)
	case "doc":
		return runDoc(g, rest, stdin, stdout, stderr)
	case "serve":
		return runServe(g, rest, stdout, stderr)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", name)
	}
}

// startup loads configuration and builds the app. Unless the app is
// store-only, a missing credential stops the process here, before any
// command runs.
func startup(g globalFlags, stderr io.Writer, opts ...config.Option) (*app, error) {
	opts = append([]config.Option{
		config.WithProvider(g.provider),
		config.WithLanguages(g.sourceLang, g.targetLang),
		config.WithLogLevel(g.logLevel),
	}, opts...)

	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var traceOut io.Writer
	if g.trace {
		traceOut = stderr
	}

	a, err := newApp(cfg, logger, traceOut)
	if err != nil {
		return nil, fmt.Errorf("startup: %w", err)
	}
	return a, nil
}

func runTranslate(g globalFlags, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errors.New("translate: at least one phrase is required")
	}

	a, err := startup(g, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	type translation struct {
		Phrase      string `json:"phrase"`
		Translation string `json:"translation,omitempty"`
		Error       string `json:"error,omitempty"`
		Kind        string `json:"kind,omitempty"`
	}

	var (
		results []translation
		failed  int
	)
	for _, phrase := range args {
		got, err := a.commands.Translate(ctx, phrase)
		r := translation{Phrase: phrase, Translation: got}
		if err != nil {
			failed++
			r.Error = err.Error()
			r.Kind = string(phrasebook.Kind(err))
		}
		results = append(results, r)
	}

	if g.jsonOutput {
		if err := writeJSON(stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Error != "" {
				fmt.Fprintf(stderr, "%s: %s\n", r.Phrase, r.Error)
				continue
			}
			fmt.Fprintln(stdout, r.Translation)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d phrases failed", failed, len(args))
	}
	return nil
}

// runSave never fails once started; store errors are logged.
func runSave(g globalFlags, args []string, stdin io.Reader, stderr io.Writer) error {
	if len(args) != 1 {
		return errors.New("save: exactly one name is required")
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	a, err := startup(g, stderr, config.WithStoreOnly())
	if err != nil {
		return err
	}
	defer a.close()

	a.commands.Save(context.Background(), args[0], string(data))
	return nil
}

func runLoad(g globalFlags, args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return errors.New("load: exactly one name is required")
	}

	a, err := startup(g, stderr, config.WithStoreOnly())
	if err != nil {
		return err
	}
	defer a.close()

	content, err := a.commands.Load(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, content)
	return nil
}

func runList(g globalFlags, args []string, stdout, stderr io.Writer) error {
	if len(args) != 0 {
		return errors.New("list: takes no arguments")
	}

	a, err := startup(g, stderr, config.WithStoreOnly())
	if err != nil {
		return err
	}
	defer a.close()

	names, err := a.commands.List(context.Background())
	if err != nil {
		return err
	}
	if g.jsonOutput {
		if names == nil {
			names = []string{}
		}
		return writeJSON(stdout, names)
	}
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return nil
}

func runDoc(g globalFlags, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("doc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	contentType := fs.String("type", phrasebook.ContentTypeDraft, "Document type: draft or html")
	annotate := fs.Bool("annotate", false, "Print the HTML with data-translation attributes (html only)")
	dryRun := fs.Bool("dry-run", false, "List marked phrases without translating")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("doc: exactly one file is required (- for stdin)")
	}

	content, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	if *dryRun {
		return runDryRun(content, *contentType, g.jsonOutput, stdout)
	}
	if *annotate && *contentType != phrasebook.ContentTypeHTML {
		return errors.New("doc: --annotate requires --type html")
	}

	a, err := startup(g, stderr)
	if err != nil {
		return err
	}
	defer a.close()

	start := time.Now()
	result, err := a.commands.TranslateDocument(context.Background(), content, *contentType)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	switch {
	case *annotate:
		out, err := a.html.Annotate(content, result.Translations)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
	case g.jsonOutput:
		if err := writeJSON(stdout, newDocumentOutput(result, elapsed)); err != nil {
			return err
		}
	default:
		for _, phrase := range sortedKeys(result.Translations) {
			fmt.Fprintf(stdout, "%s\t%s\n", phrase, result.Translations[phrase])
		}
	}

	fmt.Fprintf(stderr, "Done in %v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(stderr, "  Phrases found: %d\n", result.TotalPhrases)
	fmt.Fprintf(stderr, "  Translated:    %d\n", result.TranslatedCount)
	fmt.Fprintf(stderr, "  From cache:    %d\n", result.CachedCount)
	if result.SkippedCount > 0 {
		fmt.Fprintf(stderr, "  Unchanged:     %d\n", result.SkippedCount)
	}
	for _, phrase := range sortedKeys(result.Failures) {
		fmt.Fprintf(stderr, "  Failed:        %q: %v\n", phrase, result.Failures[phrase])
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of %d phrases failed", len(result.Failures), result.TotalPhrases)
	}
	return nil
}

// runDryRun shows what would be translated without calling the provider.
func runDryRun(content, contentType string, jsonOut bool, stdout io.Writer) error {
	proc := processor.New(contentType)
	if proc == nil {
		return fmt.Errorf("unknown document type %q", contentType)
	}
	phrases, err := proc.Extract(content)
	if err != nil {
		return fmt.Errorf("extracting phrases: %w", err)
	}

	if jsonOut {
		type dryRunOutput struct {
			ContentType string   `json:"content_type"`
			PhraseCount int      `json:"phrase_count"`
			Phrases     []string `json:"phrases"`
		}
		out := dryRunOutput{ContentType: contentType, PhraseCount: len(phrases), Phrases: []string{}}
		for _, p := range phrases {
			out.Phrases = append(out.Phrases, p.Text)
		}
		return writeJSON(stdout, out)
	}

	fmt.Fprintf(stdout, "Found %d marked phrases:\n\n", len(phrases))
	for i, p := range phrases {
		fmt.Fprintf(stdout, "%3d. %q\n", i+1, p.Text)
		if p.Context != "" {
			fmt.Fprintf(stdout, "     Context: %s\n", p.Context)
		}
	}
	return nil
}

func runServe(g globalFlags, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "", "Listen address (default: PHRASEBOOK_ADDR or 127.0.0.1:8787)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := startup(g, stderr, config.WithAddr(*addr))
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := command.NewServer(a.commands)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe(a.addr)
	}()
	fmt.Fprintf(stdout, "listening on %s\n", a.addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}

// documentOutput is the JSON form of a translated document.
type documentOutput struct {
	Translations    map[string]string `json:"translations"`
	Failures        map[string]string `json:"failures,omitempty"`
	TotalPhrases    int               `json:"total_phrases"`
	TranslatedCount int               `json:"translated_count"`
	CachedCount     int               `json:"cached_count"`
	SkippedCount    int               `json:"skipped_count"`
	ElapsedMs       int64             `json:"elapsed_ms"`
}

func newDocumentOutput(result *phrasebook.DocumentResult, elapsed time.Duration) documentOutput {
	out := documentOutput{
		Translations:    result.Translations,
		TotalPhrases:    result.TotalPhrases,
		TranslatedCount: result.TranslatedCount,
		CachedCount:     result.CachedCount,
		SkippedCount:    result.SkippedCount,
		ElapsedMs:       elapsed.Milliseconds(),
	}
	if len(result.Failures) > 0 {
		out.Failures = make(map[string]string, len(result.Failures))
		for phrase, err := range result.Failures {
			out.Failures[phrase] = err.Error()
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
