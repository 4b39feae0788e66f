package engine

import (
	"regexp"

	"EcoAware/internal/domain"
	"EcoAware/internal/knowledge"
)

var (
	materialVocabulary  = regexp.MustCompile(`\b(recycled|organic cotton|bamboo|hemp|post-consumer)\b`)
	recyclingGuidance   = regexp.MustCompile(`\b(check locally|where facilities exist|how2recycle)\b`)
	extendedWarranty    = regexp.MustCompile(`\b(2 year|two year|3 year|5 year|lifetime)\b`)
	repairVocabulary    = regexp.MustCompile(`\b(repairable|replaceable battery|spare parts)\b`)
	unqualifiedClaimIDs = map[string]struct{}{RuleBiodegradable: {}, RuleCompostable: {}, RuleRecyclable: {}}
)

var (
	ecoPositiveReviews = compileTerms([]string{
		"plastic-free", "plastic free", "no plastic", "eco", "sustainable", "green choice", "environmentally",
		"renewable", "compostable", "biodegradable", "recyclable", "no waste", "zero waste", "less waste",
		"reduce waste", "natural material", "organic", "microplastic", "earth friendly", "ecofriendly",
	})
	ecoNegativeReviews = compileTerms([]string{
		"greenwashing", "misleading", "not eco", "not sustainable", "false claim", "fake", "plastic inside",
		"wrapped in plastic", "too much packaging", "wasteful",
	})
)

// computeBuckets applies every adjustment to neutral buckets and clamps each
// bucket once at the end.
func computeBuckets(ev Evidence, certs CertResult, fired []domain.RuleFiring, dur *domain.Durability) domain.Buckets {
	b := domain.NeutralBuckets()

	s5, s4, s3 := 0, 0, 0
	for _, c := range certs.Matched {
		switch {
		case c.Strength >= 5:
			s5++
		case c.Strength == 4:
			s4++
		case c.Strength == 3:
			s3++
		}
	}
	b.Certifications += min(35, 20*s5) + min(25, 12*s4) + min(12, 6*s3)

	if certs.hasKind(knowledge.KindEnergy) {
		b.Energy += 25
	}
	if ev.Signals.HasEnergyMetrics {
		b.Energy += 10
	}

	if ev.Signals.HasPercent {
		b.Materials += 10
	}
	if materialVocabulary.MatchString(ev.Text) {
		b.Materials += 10
	}

	if recyclingGuidance.MatchString(ev.Text) {
		b.Packaging += 10
	}

	if dur != nil {
		b.Durability += min(20, 5*dur.Count)
	}
	if extendedWarranty.MatchString(ev.Text) {
		b.Durability += 10
	}
	if repairVocabulary.MatchString(ev.Text) {
		b.Durability += 8
	}

	if ev.Signals.HasStandardWords {
		b.Transparency += 10
	}

	if certs.hasKind(knowledge.KindFairTrade) {
		b.Ethics += 10
	}
	if certs.hasKind(knowledge.KindBCorp) {
		b.Ethics += 6
	}

	unqualified := false
	for _, f := range fired {
		switch {
		case f.Severity >= 4:
			b.Transparency -= 8
		case f.Severity == 3:
			b.Transparency -= 5
		}
		if _, ok := unqualifiedClaimIDs[f.ID]; ok {
			unqualified = true
		}
	}
	if unqualified {
		b.Packaging -= 10
	}

	pos := ecoPositiveReviews.hits(ev.ReviewText)
	neg := ecoNegativeReviews.hits(ev.ReviewText)
	switch {
	case pos >= 2:
		b.Materials += 6
		b.Transparency += 4
	case pos == 1:
		b.Materials += 3
	}
	switch {
	case neg >= 2:
		b.Materials -= 6
		b.Transparency -= 6
	case neg == 1:
		b.Transparency -= 3
	}

	return clampBuckets(b)
}

func clampBuckets(b domain.Buckets) domain.Buckets {
	for _, name := range domain.BucketNames {
		b = b.Set(name, clampInt(b.Get(name), 0, 100))
	}
	return b
}

// composite is the weighted sum of buckets in canonical order, clamped to
// [0,100]. Weights are used as given.
func composite(b domain.Buckets, w domain.Weights) float64 {
	raw := 0.0
	for _, name := range domain.BucketNames {
		raw += float64(b.Get(name)) * w.Get(name)
	}
	return clampFloat(raw, 0, 100)
}

func clampInt(n, lo, hi int) int {
	return max(lo, min(hi, n))
}

func clampFloat(n, lo, hi float64) float64 {
	return max(lo, min(hi, n))
}
