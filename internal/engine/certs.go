package engine

import (
	"EcoAware/internal/domain"
	"EcoAware/internal/knowledge"
)

type compiledCert struct {
	cert     knowledge.Certification
	kind     string
	patterns terms
}

// CertResult summarizes certification matches.
type CertResult struct {
	Matched     []domain.CertMatch
	HasStrong   bool
	StrengthSum int
}

func compileCerts(catalog knowledge.CertCatalog) []compiledCert {
	out := make([]compiledCert, 0, len(catalog.Certifications))
	for _, c := range catalog.Certifications {
		out = append(out, compiledCert{cert: c, kind: c.EffectiveKind(), patterns: compileTerms(c.Patterns)})
	}
	return out
}

// matchCerts reports each catalog certification at most once, listing every
// pattern that hit.
func (e *Engine) matchCerts(ev Evidence) CertResult {
	var res CertResult
	for _, c := range e.certs {
		var found []string
		for _, p := range c.patterns {
			if p.in(ev.Text) {
				found = append(found, p.text)
			}
		}
		if len(found) == 0 {
			continue
		}

		res.Matched = append(res.Matched, domain.CertMatch{
			ID:              c.cert.ID,
			DisplayName:     c.cert.DisplayName,
			Strength:        c.cert.Strength,
			Kind:            c.kind,
			WhatItMeans:     c.cert.WhatItMeans,
			Limitations:     c.cert.Limitations,
			MatchedPatterns: found,
		})
		if c.cert.Strength >= 5 {
			res.HasStrong = true
		}
		res.StrengthSum += c.cert.Strength
	}
	return res
}

func (r CertResult) hasKind(kind string) bool {
	for _, c := range r.Matched {
		if c.Kind == kind {
			return true
		}
	}
	return false
}
