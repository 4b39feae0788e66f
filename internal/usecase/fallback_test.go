package usecase

import (
	"reflect"
	"testing"

	"EcoAware/internal/domain"
)

func TestFallbackVerdict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    domain.Assessment
		want string
	}{
		{
			name: "unknown average",
			a:    domain.Assessment{State: domain.StateUnknown, Score: 50, Label: "Insufficient Data"},
			want: "Limited data available for this product. Sustainability score: 50/100 (Insufficient Data). Average, greener alternatives may exist.",
		},
		{
			name: "good with qualified claims",
			a: domain.Assessment{State: domain.StateKnown, Score: 72, Label: "Good",
				Greenwashing: domain.Greenwashing{Risk: 30}},
			want: "Sustainability score: 72/100 (Good). Good signals detected. Some claims could be better qualified.",
		},
		{
			name: "poor with elevated risk",
			a: domain.Assessment{State: domain.StateKnown, Score: 20, Label: "Poor",
				Greenwashing: domain.Greenwashing{Risk: 60}},
			want: "Sustainability score: 20/100 (Poor). Few sustainability signals. Consider alternatives. Greenwashing risk is elevated and some claims appear misleading.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := fallbackVerdict(tt.a); got != tt.want {
				t.Fatalf("verdict mismatch\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestFallbackSummary(t *testing.T) {
	t.Parallel()

	gots := domain.CertMatch{ID: "GOTS", DisplayName: "GOTS"}
	tests := []struct {
		name string
		a    domain.Assessment
		want string
	}{
		{
			name: "nothing found",
			want: "No strong sustainability signals detected on this listing.",
		},
		{
			name: "certs and positives",
			a: domain.Assessment{
				MatchedCerts: []domain.CertMatch{gots},
				Reasons: []domain.Reason{
					{Type: domain.ReasonPositive, Text: "GOTS detected"},
					{Type: domain.ReasonPositive, Text: "Strong materials signal"},
				},
			},
			want: "GOTS verified. Strong materials signal.",
		},
		{
			name: "certs only",
			a:    domain.Assessment{MatchedCerts: []domain.CertMatch{gots}},
			want: "GOTS certified.",
		},
		{
			name: "positives with warning under high risk",
			a: domain.Assessment{
				Greenwashing: domain.Greenwashing{Risk: 55},
				Reasons: []domain.Reason{
					{Type: domain.ReasonPositive, Text: "Durability signals"},
					{Type: domain.ReasonPositive, Text: "Recycled content"},
					{Type: domain.ReasonPositive, Text: "Ignored third"},
					{Type: domain.ReasonWarning, Text: "Vague eco claim"},
				},
			},
			want: "Durability signals. Recycled content. Note: Vague eco claim.",
		},
		{
			name: "warning hidden under low risk",
			a: domain.Assessment{
				Greenwashing: domain.Greenwashing{Risk: 49},
				Reasons: []domain.Reason{
					{Type: domain.ReasonPositive, Text: "Recycled content"},
					{Type: domain.ReasonWarning, Text: "Vague eco claim"},
				},
			},
			want: "Recycled content.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := fallbackSummary(tt.a); got != tt.want {
				t.Fatalf("summary mismatch\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestFallbackNarration(t *testing.T) {
	t.Parallel()

	a := domain.Assessment{
		State:            domain.StateKnown,
		Score:            61,
		Label:            "Fair",
		ConfidenceReason: "3 signals found",
		MatchedCerts: []domain.CertMatch{
			{DisplayName: "GOTS"}, {DisplayName: "Fairtrade"}, {DisplayName: "OEKO-TEX"},
		},
		Greenwashing: domain.Greenwashing{
			Risk: 45,
			RulesFired: []domain.RuleFiring{
				{ID: "A", UserMessage: "first"},
				{ID: "B", UserMessage: "second"},
				{ID: "C", UserMessage: "third"},
			},
		},
		Durability: &domain.Durability{
			Signals: []string{"Warranty: 2 year warranty", "Reviews: durable", "Stainless steel", "Repairability signals", "Review concerns: broke"},
			Count:   5,
		},
	}

	n := FallbackNarration(a)
	if !n.Fallback || n.AIContextScore == nil || *n.AIContextScore != 50 {
		t.Fatalf("fallback must carry a neutral opinion: %+v", n)
	}
	if n.ConfidenceExplanation != "3 signals found" {
		t.Fatalf("unexpected confidence explanation %q", n.ConfidenceExplanation)
	}
	if n.DurabilityInsight != "Warranty: 2 year warranty, Stainless steel" {
		t.Fatalf("unexpected durability insight %q", n.DurabilityInsight)
	}
	if n.ReviewInsight != "Reviews: durable. Review concerns: broke." {
		t.Fatalf("unexpected review insight %q", n.ReviewInsight)
	}
	if n.GreenwashingSummary != "first" {
		t.Fatalf("unexpected greenwashing summary %q", n.GreenwashingSummary)
	}
	if !reflect.DeepEqual(n.GreenwashingFlags, []string{"first", "second"}) {
		t.Fatalf("unexpected flags %v", n.GreenwashingFlags)
	}
	if !reflect.DeepEqual(n.CredibleClaims, []string{"GOTS verified", "Fairtrade verified"}) {
		t.Fatalf("unexpected credible claims %v", n.CredibleClaims)
	}
}

func TestFallbackNarrationLowRisk(t *testing.T) {
	t.Parallel()

	a := domain.Assessment{
		Greenwashing: domain.Greenwashing{
			Risk:       39,
			RulesFired: []domain.RuleFiring{{ID: "A", UserMessage: "first"}},
		},
	}

	n := FallbackNarration(a)
	if n.GreenwashingSummary != "" || len(n.GreenwashingFlags) != 0 {
		t.Fatalf("low risk must not produce greenwashing output: %+v", n)
	}
	if n.DurabilityInsight != "" || n.ReviewInsight != "" {
		t.Fatalf("missing durability must give empty insights: %+v", n)
	}
	if n.CredibleClaims == nil || n.GreenwashingFlags == nil {
		t.Fatalf("lists must be empty, not nil, for stable JSON")
	}
}
