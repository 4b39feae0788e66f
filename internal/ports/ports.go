package ports

import (
	"context"
	"time"

	"EcoAware/internal/domain"
	"EcoAware/internal/knowledge"
)

// ProductSource turns a listing URL into a product record.
type ProductSource interface {
	Fetch(ctx context.Context, url string) (domain.ProductRecord, error)
}

// Scorer produces the deterministic first-pass assessment.
type Scorer interface {
	Score(product domain.ProductRecord) domain.Assessment
}

// Narrator explains an assessment in prose and offers a 0-100 opinion.
type Narrator interface {
	Narrate(ctx context.Context, assessment domain.Assessment, product domain.ProductRecord) (domain.Narration, error)
}

// Notifier streams finished reports to Telegram or other channels.
type Notifier interface {
	PublishAssessment(ctx context.Context, report domain.Report) error
}

// PackStore loads knowledge packs from an external store.
type PackStore interface {
	Load(ctx context.Context) (*knowledge.Packs, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
