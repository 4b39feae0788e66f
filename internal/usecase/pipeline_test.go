package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"EcoAware/internal/domain"
	"EcoAware/internal/engine"
	"EcoAware/internal/knowledge"
)

type fakeSource struct {
	records map[string]domain.ProductRecord
}

func (f fakeSource) Fetch(_ context.Context, url string) (domain.ProductRecord, error) {
	record, ok := f.records[url]
	if !ok {
		return domain.ProductRecord{}, errors.New("listing not found")
	}
	return record, nil
}

type fakeNarrator struct {
	mu      sync.Mutex
	calls   int
	opinion *int
	err     error
}

func (f *fakeNarrator) Narrate(_ context.Context, _ domain.Assessment, _ domain.ProductRecord) (domain.Narration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Narration{}, f.err
	}
	return domain.Narration{Verdict: "narrated", AIContextScore: f.opinion}, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	reports []domain.Report
	err     error
}

func (f *fakeNotifier) PublishAssessment(_ context.Context, report domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return f.err
}

func newTestScorer(t *testing.T) *engine.Engine {
	t.Helper()
	packs, err := knowledge.LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded packs: %v", err)
	}
	return engine.New(packs)
}

func intPtr(v int) *int { return &v }

func TestAnalyzeRecordWithoutNarratorUsesFallback(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{Scorer: newTestScorer(t)})
	report, err := p.AnalyzeRecord(context.Background(), domain.ProductRecord{})
	if err != nil {
		t.Fatalf("AnalyzeRecord returned error: %v", err)
	}

	if !report.Narration.Fallback {
		t.Fatalf("expected fallback narration")
	}
	if report.Assessment.AIContextScore == nil || *report.Assessment.AIContextScore != neutralOpinion {
		t.Fatalf("expected neutral opinion to be blended, got %v", report.Assessment.AIContextScore)
	}
	if report.Assessment.State != domain.StateUnknown {
		t.Fatalf("neutral opinion must keep an unknown assessment unknown, got %s", report.Assessment.State)
	}
}

func TestAnalyzeRecordBlendsNarratorOpinion(t *testing.T) {
	t.Parallel()

	narrator := &fakeNarrator{opinion: intPtr(85)}
	p := NewPipeline(PipelineDeps{Scorer: newTestScorer(t), Narrator: narrator})

	report, err := p.AnalyzeRecord(context.Background(), domain.ProductRecord{})
	if err != nil {
		t.Fatalf("AnalyzeRecord returned error: %v", err)
	}

	if report.Narration.Verdict != "narrated" || report.Narration.Fallback {
		t.Fatalf("expected narrator output, got %+v", report.Narration)
	}
	if report.Assessment.State != domain.StateKnown {
		t.Fatalf("decisive opinion should resolve the unknown state, got %s", report.Assessment.State)
	}
	if report.Assessment.Buckets.AIContext != 85 {
		t.Fatalf("expected ai_context bucket 85, got %d", report.Assessment.Buckets.AIContext)
	}
	if !report.Assessment.FirstPassUnknown {
		t.Fatalf("first pass flag must survive blending")
	}
}

func TestAnalyzeRecordSkipsBlendWithoutOpinion(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	p := NewPipeline(PipelineDeps{Scorer: scorer, Narrator: &fakeNarrator{}})

	record := domain.ProductRecord{Title: "Stainless steel water bottle"}
	report, err := p.AnalyzeRecord(context.Background(), record)
	if err != nil {
		t.Fatalf("AnalyzeRecord returned error: %v", err)
	}

	want := scorer.Score(record)
	if report.Assessment.Score != want.Score || report.Assessment.AIContextScore != nil {
		t.Fatalf("assessment changed without an opinion: got %d/%v, want %d", report.Assessment.Score, report.Assessment.AIContextScore, want.Score)
	}
}

func TestAnalyzeRecordFallsBackOnNarratorError(t *testing.T) {
	t.Parallel()

	narrator := &fakeNarrator{err: errors.New("upstream down")}
	p := NewPipeline(PipelineDeps{Scorer: newTestScorer(t), Narrator: narrator})

	report, err := p.AnalyzeRecord(context.Background(), domain.ProductRecord{Title: "Bamboo toothbrush"})
	if err != nil {
		t.Fatalf("AnalyzeRecord returned error: %v", err)
	}
	if narrator.calls != 1 {
		t.Fatalf("expected one narrator call, got %d", narrator.calls)
	}
	if !report.Narration.Fallback {
		t.Fatalf("expected fallback narration after narrator error")
	}
}

func TestAnalyzeRecordIgnoresNotifierError(t *testing.T) {
	t.Parallel()

	notifier := &fakeNotifier{err: errors.New("telegram down")}
	p := NewPipeline(PipelineDeps{Scorer: newTestScorer(t), Notifier: notifier})

	record := domain.ProductRecord{Title: "Organic cotton tee", URL: "https://www.amazon.com/dp/X"}
	report, err := p.AnalyzeRecord(context.Background(), record)
	if err != nil {
		t.Fatalf("notifier failure must not fail the analysis: %v", err)
	}
	if len(notifier.reports) != 1 || notifier.reports[0].URL != record.URL {
		t.Fatalf("expected report to be published, got %+v", notifier.reports)
	}
	if report.URL != record.URL {
		t.Fatalf("unexpected report url %q", report.URL)
	}
}

func TestAnalyzeWrapsSourceError(t *testing.T) {
	t.Parallel()

	p := NewPipeline(PipelineDeps{Source: fakeSource{}, Scorer: newTestScorer(t)})
	_, err := p.Analyze(context.Background(), "https://www.amazon.com/dp/missing")
	if err == nil || !strings.Contains(err.Error(), "fetch listing") {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
}

func TestAnalyzeBatchCollectsFailures(t *testing.T) {
	t.Parallel()

	source := fakeSource{records: map[string]domain.ProductRecord{
		"https://a.example/1": {Title: "Bamboo toothbrush"},
		"https://a.example/3": {Title: "Energy Star laptop"},
	}}
	p := NewPipeline(PipelineDeps{Source: source, Scorer: newTestScorer(t), Concurrency: 2})

	urls := []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}
	batch, err := p.AnalyzeBatch(context.Background(), urls)
	if err != nil {
		t.Fatalf("AnalyzeBatch returned error: %v", err)
	}

	if batch.RunID == "" {
		t.Fatalf("expected run id")
	}
	if len(batch.Reports) != len(urls) {
		t.Fatalf("expected %d reports, got %d", len(urls), len(batch.Reports))
	}
	for i, url := range urls {
		if batch.Reports[i].URL != url {
			t.Fatalf("report %d: expected url %s, got %s", i, url, batch.Reports[i].URL)
		}
	}
	if batch.Reports[1].Error == "" || batch.Reports[0].Error != "" || batch.Reports[2].Error != "" {
		t.Fatalf("expected only the second listing to fail: %+v", batch.Reports)
	}
	if batch.Failed() != 1 {
		t.Fatalf("expected one failure, got %d", batch.Failed())
	}
	if batch.FinishedAt.Before(batch.StartedAt) {
		t.Fatalf("finish time precedes start time")
	}
}

func TestAnalyzeBatchStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(PipelineDeps{Source: fakeSource{}, Scorer: newTestScorer(t)})
	if _, err := p.AnalyzeBatch(ctx, []string{"https://a.example/1", "https://a.example/2"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
