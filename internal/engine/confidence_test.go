package engine

import (
	"testing"

	"EcoAware/internal/domain"
)

func TestConfidence(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	tests := []struct {
		name       string
		record     domain.ProductRecord
		confidence float64
		label      string
		reason     string
		state      domain.State
	}{
		{
			name:       "cert dependent category without cert is penalized",
			record:     domain.ProductRecord{Title: "USB charger"},
			confidence: 0.10,
			label:      "INSUFFICIENT",
			reason:     "No meaningful signals. Baseline estimate.",
			state:      domain.StateUnknown,
		},
		{
			name:       "low cert dependency skips the penalty",
			record:     domain.ProductRecord{Title: "Ground coffee"},
			confidence: 0.25,
			label:      "LOW",
			reason:     "Only 0 signal(s). Assessment limited.",
			state:      domain.StateUnknown,
		},
		{
			name: "bullets and specs reach the known gate exactly",
			record: domain.ProductRecord{
				Title:   "USB charger",
				Bullets: []string{"Charges two devices at once"},
				Details: map[string]string{"color": "black"},
			},
			confidence: 0.40,
			label:      "MEDIUM",
			reason:     "0 signals found, some data missing.",
			state:      domain.StateKnown,
		},
		{
			name: "fully evidenced",
			record: domain.ProductRecord{
				Title:       "USB charger",
				Bullets:     []string{"Charges two devices at once"},
				Details:     map[string]string{"color": "black", "power": "20 watts"},
				Badges:      []string{"ENERGY STAR"},
				Description: "Compact travel design.",
			},
			confidence: 0.95,
			label:      "HIGH",
			reason:     "1 evidence signals. Assessment well-supported.",
			state:      domain.StateKnown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := e.Score(tt.record)
			if a.Confidence != tt.confidence {
				t.Fatalf("confidence %v, want %v (fired %v)", a.Confidence, tt.confidence, firedIDs(a))
			}
			if a.ConfidenceLabel != tt.label || a.ConfidenceReason != tt.reason {
				t.Fatalf("label %q / %q, want %q / %q", a.ConfidenceLabel, a.ConfidenceReason, tt.label, tt.reason)
			}
			if a.State != tt.state {
				t.Fatalf("state %s, want %s", a.State, tt.state)
			}
		})
	}
}

func TestConfidenceSeverePenaltyIsCapped(t *testing.T) {
	t.Parallel()

	a := newTestEngine(t).Score(domain.ProductRecord{
		Title:       "Eco-friendly biodegradable compostable carbon neutral plastic-free polyester tote made with ocean plastic",
		Bullets:     []string{"Roomy main pocket"},
		Details:     map[string]string{"color": "green"},
		Badges:      []string{"Best Seller"},
		Description: "Daily carry.",
	})

	severe := 0
	for _, f := range a.Greenwashing.RulesFired {
		if f.Severity >= 3 {
			severe++
		}
	}
	if severe != 6 {
		t.Fatalf("expected 6 severe firings, got %d (%v)", severe, firedIDs(a))
	}

	// 0.75 from sections, minus the 0.25 cap rather than 6 x 0.05.
	if a.Confidence != 0.50 || a.ConfidenceLabel != "MEDIUM" || a.State != domain.StateKnown {
		t.Fatalf("confidence %v %s %s, want 0.5 MEDIUM Known", a.Confidence, a.ConfidenceLabel, a.State)
	}
}
