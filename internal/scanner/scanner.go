package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"EcoAware/internal/domain"
)

// ErrUnsupportedSite is returned when no scanner handles a listing host.
var ErrUnsupportedSite = errors.New("unsupported site")

// Request carries all parameters required to scrape one listing.
type Request struct {
	URL      string
	SiteName string
}

// Scanner captures a single site strategy (Amazon, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) (domain.ProductRecord, error)
	Parse(r io.Reader, pageURL string) (domain.ProductRecord, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered: %w", name, ErrUnsupportedSite)
}
