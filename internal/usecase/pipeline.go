package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"EcoAware/internal/domain"
	"EcoAware/internal/engine"
	"EcoAware/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source      ports.ProductSource
	Scorer      ports.Scorer
	Narrator    ports.Narrator
	Notifier    ports.Notifier
	Concurrency int
	Logger      *slog.Logger
}

// Pipeline implements the listing analysis workflow:
// scrape, score, narrate, blend the opinion and notify.
type Pipeline struct {
	source      ports.ProductSource
	scorer      ports.Scorer
	narrator    ports.Narrator
	notifier    ports.Notifier
	concurrency int
	logger      *slog.Logger
}

// Batch is the outcome of one AnalyzeBatch run.
type Batch struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Reports    []domain.Report `json:"reports"`
}

// Failed counts reports that carry an error.
func (b Batch) Failed() int {
	n := 0
	for _, r := range b.Reports {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		source:      deps.Source,
		scorer:      deps.Scorer,
		narrator:    deps.Narrator,
		notifier:    deps.Notifier,
		concurrency: concurrency,
		logger:      deps.Logger,
	}
}

// Analyze scrapes one listing and analyzes it.
func (p *Pipeline) Analyze(ctx context.Context, url string) (domain.Report, error) {
	if p.source == nil {
		return domain.Report{}, fmt.Errorf("product source is not configured")
	}

	record, err := p.source.Fetch(ctx, url)
	if err != nil {
		return domain.Report{}, fmt.Errorf("fetch listing: %w", err)
	}
	if record.URL == "" {
		record.URL = url
	}

	return p.AnalyzeRecord(ctx, record)
}

// AnalyzeRecord scores a record, narrates it and blends the narrator's
// opinion. Narrator failures fall back to a deterministic narration and
// notifier failures are only logged.
func (p *Pipeline) AnalyzeRecord(ctx context.Context, record domain.ProductRecord) (domain.Report, error) {
	if p.scorer == nil {
		return domain.Report{}, fmt.Errorf("scorer is not configured")
	}

	assessment := p.scorer.Score(record)
	narration := p.narrate(ctx, assessment, record)
	if narration.AIContextScore != nil {
		assessment = engine.ApplyOpinion(assessment, *narration.AIContextScore)
	}

	report := domain.Report{
		URL:        record.URL,
		Product:    record,
		Assessment: assessment,
		Narration:  narration,
	}

	if p.notifier != nil {
		if err := p.notifier.PublishAssessment(ctx, report); err != nil {
			p.warn("notify failed", "url", record.URL, "error", err)
		}
	}

	p.debug("listing analyzed", "url", record.URL, "category", assessment.Category,
		"score", assessment.Score, "state", assessment.State, "fallback", narration.Fallback)
	return report, nil
}

// AnalyzeBatch analyzes urls with bounded parallelism. A failing URL yields a
// report with Error set; only cancellation aborts the batch.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, urls []string) (Batch, error) {
	batch := Batch{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Reports:   make([]domain.Report, len(urls)),
	}
	p.debug("batch started", "run_id", batch.RunID, "urls", len(urls))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for i, url := range urls {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			report, err := p.Analyze(egCtx, url)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				p.warn("listing failed", "run_id", batch.RunID, "url", url, "error", err)
				report = domain.Report{URL: url, Error: err.Error()}
			}
			batch.Reports[i] = report
			return nil
		})
	}

	err := eg.Wait()
	batch.FinishedAt = time.Now().UTC()
	if err != nil {
		return batch, fmt.Errorf("batch %s: %w", batch.RunID, err)
	}

	p.debug("batch finished", "run_id", batch.RunID, "failed", batch.Failed())
	return batch, nil
}

func (p *Pipeline) narrate(ctx context.Context, a domain.Assessment, record domain.ProductRecord) domain.Narration {
	if p.narrator == nil {
		return FallbackNarration(a)
	}

	narration, err := p.narrator.Narrate(ctx, a, record)
	if err != nil {
		p.warn("narrator unavailable, using fallback", "url", record.URL, "error", err)
		return FallbackNarration(a)
	}
	return narration
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
