package domain

// State reports whether the evidence was strong enough for a confident score.
type State string

const (
	StateKnown   State = "Known"
	StateUnknown State = "Unknown"
)

// BucketName identifies one of the eight sustainability dimensions.
type BucketName string

const (
	BucketCertifications BucketName = "certifications"
	BucketMaterials      BucketName = "materials"
	BucketPackaging      BucketName = "packaging"
	BucketDurability     BucketName = "durability"
	BucketEnergy         BucketName = "energy"
	BucketTransparency   BucketName = "transparency"
	BucketEthics         BucketName = "ethics"
	BucketAIContext      BucketName = "ai_context"
)

// BucketNames lists buckets in their canonical order. Composite sums and
// tie-breaks always follow this order.
var BucketNames = []BucketName{
	BucketCertifications,
	BucketMaterials,
	BucketPackaging,
	BucketDurability,
	BucketEnergy,
	BucketTransparency,
	BucketEthics,
	BucketAIContext,
}

// NeutralBucket is the starting value of every bucket.
const NeutralBucket = 50

// Buckets holds the eight sub-scores, each within [0,100].
type Buckets struct {
	Certifications int `json:"certifications"`
	Materials      int `json:"materials"`
	Packaging      int `json:"packaging"`
	Durability     int `json:"durability"`
	Energy         int `json:"energy"`
	Transparency   int `json:"transparency"`
	Ethics         int `json:"ethics"`
	AIContext      int `json:"ai_context"`
}

// NeutralBuckets returns all buckets set to NeutralBucket.
func NeutralBuckets() Buckets {
	return Buckets{
		Certifications: NeutralBucket,
		Materials:      NeutralBucket,
		Packaging:      NeutralBucket,
		Durability:     NeutralBucket,
		Energy:         NeutralBucket,
		Transparency:   NeutralBucket,
		Ethics:         NeutralBucket,
		AIContext:      NeutralBucket,
	}
}

// Get returns the value of the named bucket, or 0 for an unknown name.
func (b Buckets) Get(name BucketName) int {
	if p := b.ref(name); p != nil {
		return *p
	}
	return 0
}

// Set returns a copy of b with the named bucket replaced.
func (b Buckets) Set(name BucketName, v int) Buckets {
	if p := b.ref(name); p != nil {
		*p = v
	}
	return b
}

func (b *Buckets) ref(name BucketName) *int {
	switch name {
	case BucketCertifications:
		return &b.Certifications
	case BucketMaterials:
		return &b.Materials
	case BucketPackaging:
		return &b.Packaging
	case BucketDurability:
		return &b.Durability
	case BucketEnergy:
		return &b.Energy
	case BucketTransparency:
		return &b.Transparency
	case BucketEthics:
		return &b.Ethics
	case BucketAIContext:
		return &b.AIContext
	}
	return nil
}

// Weights maps each bucket to its contribution in the composite score.
// Weights are not renormalized.
type Weights struct {
	Certifications float64 `json:"certifications" yaml:"certifications"`
	Materials      float64 `json:"materials" yaml:"materials"`
	Packaging      float64 `json:"packaging" yaml:"packaging"`
	Durability     float64 `json:"durability" yaml:"durability"`
	Energy         float64 `json:"energy" yaml:"energy"`
	Transparency   float64 `json:"transparency" yaml:"transparency"`
	Ethics         float64 `json:"ethics" yaml:"ethics"`
	AIContext      float64 `json:"ai_context" yaml:"ai_context"`
}

// Get returns the weight of the named bucket.
func (w Weights) Get(name BucketName) float64 {
	switch name {
	case BucketCertifications:
		return w.Certifications
	case BucketMaterials:
		return w.Materials
	case BucketPackaging:
		return w.Packaging
	case BucketDurability:
		return w.Durability
	case BucketEnergy:
		return w.Energy
	case BucketTransparency:
		return w.Transparency
	case BucketEthics:
		return w.Ethics
	case BucketAIContext:
		return w.AIContext
	}
	return 0
}

// CertMatch is a catalog certification found in the evidence.
type CertMatch struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	Strength        int      `json:"strength"`
	Kind            string   `json:"kind,omitempty"`
	WhatItMeans     string   `json:"what_it_means,omitempty"`
	Limitations     string   `json:"limitations,omitempty"`
	MatchedPatterns []string `json:"matched_patterns"`
}

// RuleFiring is a greenwashing rule whose predicate held and was not suppressed.
type RuleFiring struct {
	ID              string   `json:"id"`
	Name            string   `json:"name,omitempty"`
	Severity        int      `json:"severity"`
	UserMessage     string   `json:"user_message"`
	SourceRefs      []string `json:"source_refs,omitempty"`
	EvidenceSnippet string   `json:"evidence_snippet,omitempty"`
}

// Greenwashing groups the risk value with the firings that produced it.
type Greenwashing struct {
	Risk       int          `json:"risk"`
	RiskLevel  string       `json:"risk_level"`
	RulesFired []RuleFiring `json:"rules_fired"`
}

// Durability lists durability findings. A nil *Durability means no signal.
type Durability struct {
	Signals []string `json:"signals"`
	Count   int      `json:"count"`
}

// ReasonType classifies a reason line.
type ReasonType string

const (
	ReasonPositive ReasonType = "positive"
	ReasonWarning  ReasonType = "warning"
)

// Reason explains one contribution to the score.
type Reason struct {
	Type   ReasonType `json:"type"`
	Text   string     `json:"text"`
	Detail string     `json:"detail,omitempty"`
	Source []string   `json:"source,omitempty"`
}

// Assessment is the engine output for one product.
type Assessment struct {
	Category         string       `json:"category"`
	CategoryLabel    string       `json:"category_label"`
	Score            int          `json:"score"`
	State            State        `json:"state"`
	Label            string       `json:"label"`
	Color            string       `json:"color"`
	Confidence       float64      `json:"confidence"`
	ConfidenceLabel  string       `json:"confidence_label"`
	ConfidenceReason string       `json:"confidence_reason"`
	Buckets          Buckets      `json:"buckets"`
	MatchedCerts     []CertMatch  `json:"matched_certs"`
	Greenwashing     Greenwashing `json:"greenwashing"`
	Durability       *Durability  `json:"durability"`
	Reasons          []Reason     `json:"reasons"`
	MissingSignals   []string     `json:"missing_signals"`
	CarbonNote       string       `json:"carbon_note"`
	Weights          Weights      `json:"weights"`
	FirstPassUnknown bool         `json:"first_pass_unknown"`
	AIContextScore   *int         `json:"ai_context_score,omitempty"`
}

// Narration is the free-text explanation produced for an assessment together
// with the opinion score that is blended back into it.
type Narration struct {
	Verdict               string   `json:"verdict"`
	SustainabilitySummary string   `json:"sustainability_summary"`
	ConfidenceExplanation string   `json:"confidence_explanation"`
	DurabilityInsight     string   `json:"durability_insight"`
	GreenwashingSummary   string   `json:"greenwashing_summary"`
	GreenwashingFlags     []string `json:"greenwashing_flags"`
	CredibleClaims        []string `json:"credible_claims"`
	ReviewInsight         string   `json:"review_insight"`
	AIContextScore        *int     `json:"ai_context_score,omitempty"`
	Fallback              bool     `json:"fallback"`
}

// Report bundles everything produced for one analyzed listing.
type Report struct {
	URL        string        `json:"url,omitempty"`
	Product    ProductRecord `json:"product"`
	Assessment Assessment    `json:"assessment"`
	Narration  Narration     `json:"narration"`
	Error      string        `json:"error,omitempty"`
}
