package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"EcoAware/internal/config"
	"EcoAware/internal/domain"
	"EcoAware/internal/ports"
	"EcoAware/internal/scanner"
)

// StrategySource implements ProductSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ProductSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sites:    sites,
		logger:   log,
	}
}

// Fetch resolves the site owning the URL host and runs its scanner.
func (s *StrategySource) Fetch(ctx context.Context, rawURL string) (domain.ProductRecord, error) {
	site, strategy, err := s.resolve(rawURL)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	record, err := strategy.Scan(ctx, scanner.Request{URL: rawURL, SiteName: site.Name})
	if err != nil {
		return domain.ProductRecord{}, fmt.Errorf("scan site %s: %w", site.Name, err)
	}
	if record.Site == "" {
		record.Site = site.Name
	}

	s.debug("site produced record", "site", site.Name, "title", record.Title)
	return record, nil
}

// ParsePage extracts a record from a saved copy of the listing at rawURL,
// using the scanner configured for its host.
func (s *StrategySource) ParsePage(r io.Reader, rawURL string) (domain.ProductRecord, error) {
	site, strategy, err := s.resolve(rawURL)
	if err != nil {
		return domain.ProductRecord{}, err
	}

	record, err := strategy.Parse(r, rawURL)
	if err != nil {
		return domain.ProductRecord{}, fmt.Errorf("parse page for site %s: %w", site.Name, err)
	}
	record.Site = site.Name
	if record.ScrapedAt.IsZero() {
		record.ScrapedAt = time.Now().UTC()
	}

	s.debug("saved page parsed", "site", site.Name, "title", record.Title)
	return record, nil
}

func (s *StrategySource) resolve(rawURL string) (config.SiteConfig, scanner.Scanner, error) {
	if s.registry == nil {
		return config.SiteConfig{}, nil, fmt.Errorf("scanner registry is not configured")
	}

	site, err := s.siteFor(rawURL)
	if err != nil {
		s.warn("no site for url", "url", rawURL, "error", err)
		return config.SiteConfig{}, nil, err
	}

	s.debug("process site", "site", site.Name, "scanner", site.Scanner, "url", rawURL)
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return config.SiteConfig{}, nil, fmt.Errorf("site %s: %w", site.Name, err)
	}
	return site, strategy, nil
}

// siteFor matches the URL host, or any parent domain of it, against the
// configured hosts.
func (s *StrategySource) siteFor(rawURL string) (config.SiteConfig, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return config.SiteConfig{}, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return config.SiteConfig{}, fmt.Errorf("url %q: %w", rawURL, scanner.ErrUnsupportedSite)
	}

	host := strings.ToLower(parsed.Hostname())
	for _, site := range s.sites {
		for _, h := range site.Hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h != "" && (host == h || strings.HasSuffix(host, "."+h)) {
				return site, nil
			}
		}
	}
	return config.SiteConfig{}, fmt.Errorf("host %q: %w", host, scanner.ErrUnsupportedSite)
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
