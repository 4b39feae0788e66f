package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"EcoAware/internal/domain"
)

// Opinions at or beyond these bounds count as a real stance; the band in
// between is treated as no opinion.
const (
	opinionFavorable   = 60
	opinionUnfavorable = 40
)

// ApplyOpinion blends an external 0-100 opinion into the ai_context bucket
// and reclassifies. Out-of-range opinions return a unchanged.
//
// The Unknown gate reads FirstPassUnknown, never the current State, so
// re-applying the same opinion gives the same result. Chaining different
// opinions does not commute: a neutral opinion after a decisive one will
// put an originally Unknown assessment back to Unknown.
func ApplyOpinion(a domain.Assessment, opinion int) domain.Assessment {
	if opinion < 0 || opinion > 100 {
		return a
	}

	out := a
	out.Buckets = a.Buckets.Set(domain.BucketAIContext, opinion)
	raw := composite(out.Buckets, a.Weights)

	hasStance := opinion >= opinionFavorable || opinion <= opinionUnfavorable
	stillUnknown := a.FirstPassUnknown && !hasStance

	out.Score = displayScore(raw, stillUnknown)
	out.State = domain.StateKnown
	if stillUnknown {
		out.State = domain.StateUnknown
	}
	out.Label, out.Color = Label(out.Score, stillUnknown)

	op := opinion
	out.AIContextScore = &op
	return out
}

// ParseOpinion extracts an opinion from a loosely typed payload value such
// as a JSON number or a numeric string. Fractional values are rounded.
func ParseOpinion(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > 100 {
		return 0, false
	}
	return int(math.Round(f)), true
}
