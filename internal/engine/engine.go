// Package engine scores a product listing for sustainability and
// greenwashing risk from its text alone.
//
// An Engine is built once from a knowledge set and is safe for concurrent
// use: Score only reads the compiled packs and its own input.
package engine

import (
	"EcoAware/internal/domain"
	"EcoAware/internal/knowledge"
)

// Engine holds the compiled, read-only form of a knowledge set.
type Engine struct {
	categories []compiledCategory
	general    compiledCategory
	certs      []compiledCert
	rules      []compiledRule
	carbon     knowledge.CarbonTemplates
}

// New compiles packs into matchers. A nil packs value yields an engine that
// classifies everything as general and matches nothing.
func New(packs *knowledge.Packs) *Engine {
	if packs == nil {
		packs = &knowledge.Packs{}
	}
	categories, general := compileCategories(packs.Categories)
	return &Engine{
		categories: categories,
		general:    general,
		certs:      compileCerts(packs.Certifications),
		rules:      compileRules(packs.Rules),
		carbon:     packs.Carbon.PhrasingTemplates,
	}
}

// Score produces the first-pass assessment of a product. It is
// deterministic and never fails; missing fields count as absent evidence.
func (e *Engine) Score(p domain.ProductRecord) domain.Assessment {
	ev := BuildEvidence(p)
	class := e.classify(p.Title, p.Category)

	certs := e.matchCerts(ev)
	fired := e.evaluateRules(ev, class.Category)
	dur := assessDurability(ev)

	buckets := computeBuckets(ev, certs, fired, dur)
	raw := composite(buckets, class.Profile.Weights)

	conf := confidenceHundredths(ev, certs, fired, class.Profile)
	risk := greenwashingRisk(certs, fired, class.Profile)
	unknown := conf < unknownBelow

	score := displayScore(raw, unknown)
	label, color := Label(score, unknown)
	confLabel, confReason := confidenceLabel(conf, signalCount(ev, certs, dur))

	state := domain.StateKnown
	if unknown {
		state = domain.StateUnknown
	}

	if fired == nil {
		fired = []domain.RuleFiring{}
	}
	matched := certs.Matched
	if matched == nil {
		matched = []domain.CertMatch{}
	}

	return domain.Assessment{
		Category:         class.Category,
		CategoryLabel:    class.Label,
		Score:            score,
		State:            state,
		Label:            label,
		Color:            color,
		Confidence:       float64(conf) / 100,
		ConfidenceLabel:  confLabel,
		ConfidenceReason: confReason,
		Buckets:          buckets,
		MatchedCerts:     matched,
		Greenwashing: domain.Greenwashing{
			Risk:       risk,
			RiskLevel:  RiskLevel(risk),
			RulesFired: fired,
		},
		Durability:       dur,
		Reasons:          buildReasons(certs, buckets, dur, fired),
		MissingSignals:   missingSignals(ev, certs, class.Profile, e.general.category.Profile),
		CarbonNote:       carbonNote(ev, e.carbon),
		Weights:          class.Profile.Weights,
		FirstPassUnknown: unknown,
	}
}
