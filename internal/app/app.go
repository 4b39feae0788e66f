package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"EcoAware/internal/config"
	"EcoAware/internal/domain"
	"EcoAware/internal/engine"
	"EcoAware/internal/infrastructure/httpapi"
	"EcoAware/internal/infrastructure/llm"
	"EcoAware/internal/infrastructure/parser"
	"EcoAware/internal/infrastructure/scheduler"
	"EcoAware/internal/infrastructure/storage"
	"EcoAware/internal/infrastructure/telegram"
	"EcoAware/internal/knowledge"
	"EcoAware/internal/logging"
	"EcoAware/internal/ports"
	"EcoAware/internal/scanner"
	"EcoAware/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *sql.DB
	packs     *knowledge.Packs
	engine    *engine.Engine
	source    *parser.StrategySource
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
}

// New loads the knowledge packs and builds every adapter the config enables.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	packs, err := a.loadPacks(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.packs = packs
	a.engine = engine.New(packs)
	baseLogger.Info("knowledge packs loaded", "source", cfg.Knowledge.Source, "summary", packs.Summary())

	registry := scanner.NewRegistry()
	registry.Register(parser.NewAmazonScanner(
		&http.Client{Timeout: cfg.Scraper.Timeout},
		cfg.Scraper.UserAgent,
		baseLogger.With("component", "scanner.amazon"),
	))
	a.source = parser.NewStrategySource(registry, cfg.Sites, baseLogger.With("component", "source"))

	var narrator ports.Narrator
	if cfg.Narrator.APIKey != "" {
		narrator = llm.NewNarrator(cfg.Narrator, baseLogger.With("component", "narrator"))
	} else {
		baseLogger.Info("narrator api key not set, using fallback narration")
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:      a.source,
		Scorer:      a.engine,
		Narrator:    narrator,
		Notifier:    notifier,
		Concurrency: cfg.Batch.Concurrency,
		Logger:      baseLogger.With("component", "pipeline"),
	})
	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
		a.pipeline,
		cfg.Watchlist,
		baseLogger.With("component", "scheduler"),
	)

	return a, nil
}

// Engine returns the scoring engine built from the loaded packs.
func (a *Application) Engine() *engine.Engine {
	return a.engine
}

// Pipeline returns the analysis use case.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// ParsePage extracts a product record from a saved listing page.
func (a *Application) ParsePage(r io.Reader, pageURL string) (domain.ProductRecord, error) {
	return a.source.ParsePage(r, pageURL)
}

// Packs returns the loaded knowledge packs.
func (a *Application) Packs() *knowledge.Packs {
	return a.packs
}

// Serve runs the HTTP API, and the watchlist scheduler when a watchlist is
// configured, until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.stopScheduler()

	server := httpapi.NewServer(httpapi.ServerDeps{
		Addr:     a.cfg.HTTP.Addr,
		Scorer:   a.engine,
		Analyzer: a.pipeline,
		Packs:    a.packs.Summary(),
		Logger:   a.logger.With("component", "http"),
	})
	return server.Run(ctx)
}

// Watch re-analyzes the watchlist on every scheduler tick until ctx is
// cancelled.
func (a *Application) Watch(ctx context.Context) error {
	if len(a.cfg.Watchlist) == 0 {
		return fmt.Errorf("watchlist is empty")
	}
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	a.stopScheduler()
	return nil
}

// Close releases the database handle, if one was opened.
func (a *Application) Close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

func (a *Application) stopScheduler() {
	if err := a.scheduler.Stop(context.Background()); err != nil {
		a.logger.Warn("scheduler stop failed", "error", err)
	}
}

func (a *Application) loadPacks(ctx context.Context) (*knowledge.Packs, error) {
	switch a.cfg.Knowledge.Source {
	case config.SourceDir:
		packs, err := knowledge.LoadDir(a.cfg.Knowledge.Dir)
		if err != nil {
			return nil, fmt.Errorf("load packs from %s: %w", a.cfg.Knowledge.Dir, err)
		}
		return packs, nil
	case config.SourcePostgres:
		db, err := OpenDatabase(a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		packs, err := storage.NewPostgresPackStore(db).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load packs from postgres: %w", err)
		}
		return packs, nil
	case config.SourceEmbedded, "":
		packs, err := knowledge.LoadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("load embedded packs: %w", err)
		}
		return packs, nil
	default:
		return nil, fmt.Errorf("unknown knowledge source %q", a.cfg.Knowledge.Source)
	}
}

// OpenDatabase opens the Postgres pool used by the pack store.
func OpenDatabase(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
