package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"EcoAware/internal/app"
	"EcoAware/internal/config"
	"EcoAware/internal/domain"
	"EcoAware/internal/infrastructure/storage"
	"EcoAware/internal/knowledge"
	"EcoAware/internal/logging"
	"EcoAware/internal/ports"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "score",
		short: "Score product records from a JSON file or stdin",
		usage: "ecoaware score [file.json]",
		long: `Read one product record, or an array of records, as JSON and print the
first-pass assessment of each. Reads stdin when no file is given.

No network access is needed; only the knowledge packs are loaded.
`,
		run: runScore,
	},
	{
		name:  "analyze",
		short: "Scrape, score and narrate product listings",
		usage: "ecoaware analyze <url> [url...] | ecoaware analyze --html <file> <url>",
		long: `Download each listing, score it, narrate the result and print the reports
as JSON. Several URLs are analyzed in parallel (batch.concurrency).

With --html, the listing is read from a saved page instead of downloaded;
<url> selects the site scanner and is recorded on the report.

A narrator API key enables narrated verdicts; without it the deterministic
fallback narration is used. Telegram digests are sent when configured.
`,
		run: runAnalyze,
	},
	{
		name:  "serve",
		short: "Run the HTTP API",
		usage: "ecoaware serve",
		long: `Serve the scoring API on http.addr until interrupted. When a watchlist is
configured it is also re-analyzed every scheduler.interval.
`,
		run: runServe,
	},
	{
		name:  "watch",
		short: "Re-analyze the watchlist on an interval",
		usage: "ecoaware watch",
		long: `Analyze every watchlist URL now and then every scheduler.interval until
interrupted.
`,
		run: runWatch,
	},
	{
		name:  "packs",
		short: "Show or publish knowledge packs",
		usage: "ecoaware packs [publish <dir> <version>]",
		long: `Without arguments, print how many rules, certifications and categories the
configured knowledge source provides.

With publish, validate the pack documents in <dir> as a complete set and
store each of them in Postgres (database.dsn) under <version>.
`,
		run: runPacks,
	},
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ecoaware: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "ecoaware: product sustainability and greenwashing scoring\n\n")
	fmt.Fprintf(w, "Usage:\n  ecoaware <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'ecoaware help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "ecoaware: unknown command %q\n\nRun 'ecoaware help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'ecoaware help' for usage.", args[0])
}

// bootstrap loads config and builds the application. Logs go to stderr so
// stdout stays valid JSON.
func bootstrap(ctx context.Context) (*app.Application, *slog.Logger, error) {
	cfg := config.Load()
	logger := logging.NewWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return application, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ---------------------------------------------------------------------------
// score
// ---------------------------------------------------------------------------

func runScore(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: ecoaware score [file.json]")
	}

	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	application, _, err := bootstrap(context.Background())
	if err != nil {
		return err
	}
	defer application.Close()

	return scoreInput(application.Engine(), in, os.Stdout)
}

// scoreInput accepts a single record object or an array of records and
// writes the matching assessment or array of assessments.
func scoreInput(scorer ports.Scorer, r io.Reader, w io.Writer) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fmt.Errorf("empty input: expected a product record as JSON")
	}

	if raw[0] == '[' {
		var records []domain.ProductRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return fmt.Errorf("decode product records: %w", err)
		}
		out := make([]domain.Assessment, 0, len(records))
		for _, rec := range records {
			out = append(out, scorer.Score(rec))
		}
		return writeJSON(w, out)
	}

	var record domain.ProductRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("decode product record: %w", err)
	}
	return writeJSON(w, scorer.Score(record))
}

// ---------------------------------------------------------------------------
// analyze
// ---------------------------------------------------------------------------

func runAnalyze(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ecoaware analyze <url> [url...]")
	}
	if args[0] == "--html" {
		if len(args) != 3 {
			return fmt.Errorf("usage: ecoaware analyze --html <file> <url>")
		}
		return runAnalyzeSaved(args[1], args[2])
	}

	ctx, cancel := signalContext()
	defer cancel()

	application, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if len(args) == 1 {
		report, err := application.Pipeline().Analyze(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, report)
	}

	batch, err := application.Pipeline().AnalyzeBatch(ctx, args)
	if err != nil {
		return err
	}
	if err := writeJSON(os.Stdout, batch); err != nil {
		return err
	}
	if failed := batch.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d listings failed", failed, len(batch.Reports))
	}
	return nil
}

func runAnalyzeSaved(path, pageURL string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer f.Close()

	ctx, cancel := signalContext()
	defer cancel()

	application, _, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	record, err := application.ParsePage(f, pageURL)
	if err != nil {
		return err
	}
	report, err := application.Pipeline().AnalyzeRecord(ctx, record)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, report)
}

// ---------------------------------------------------------------------------
// serve / watch
// ---------------------------------------------------------------------------

func runServe(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: ecoaware serve")
	}

	ctx, cancel := signalContext()
	defer cancel()

	application, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Serve(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	return nil
}

func runWatch(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: ecoaware watch")
	}

	ctx, cancel := signalContext()
	defer cancel()

	application, logger, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Watch(ctx); err != nil {
		logger.Error("watch stopped", "error", err)
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// packs
// ---------------------------------------------------------------------------

func runPacks(args []string) error {
	if len(args) == 0 {
		application, _, err := bootstrap(context.Background())
		if err != nil {
			return err
		}
		defer application.Close()
		return writeJSON(os.Stdout, application.Packs().Summary())
	}

	if args[0] != "publish" || len(args) != 3 {
		return fmt.Errorf("usage: ecoaware packs [publish <dir> <version>]")
	}
	version, err := strconv.Atoi(args[2])
	if err != nil || version <= 0 {
		return fmt.Errorf("version must be a positive integer, got %q", args[2])
	}

	docs, err := knowledge.ReadDocuments(os.DirFS(args[1]))
	if err != nil {
		return err
	}
	if _, err := knowledge.FromDocuments(docs); err != nil {
		return err
	}

	cfg := config.Load()
	db, err := app.OpenDatabase(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	store := storage.NewPostgresPackStore(db)
	for _, name := range knowledge.PackNames {
		if err := store.Publish(ctx, name, version, docs[name]); err != nil {
			return err
		}
		fmt.Printf("published %s version %d\n", name, version)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
