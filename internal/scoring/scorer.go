// internal/scoring/scorer.go

// Package scoring turns a settled set of stage outcomes into a bounded risk
// score with ordered explanations. The scorer is pure: no hidden state, no
// I/O, identical input always yields an identical score and reason order.
package scoring

import "kyc-verifier/internal/models"

const (
	baseScore = 500
	minScore  = 0
	maxScore  = 1000

	lowBandFloor    = 800
	mediumBandFloor = 500
)

// Scorer applies a fixed ordered rule table over stage results.
type Scorer struct {
	rules []Rule
}

// NewScorer returns a scorer with the default production rule table.
func NewScorer() *Scorer {
	return &Scorer{rules: defaultRules}
}

// NewScorerWithRules returns a scorer over a custom table. Used in tests.
func NewScorerWithRules(rules []Rule) *Scorer {
	return &Scorer{rules: rules}
}

// Score computes the risk score for a completed set of stage results.
// Each rule whose predicate matches its stage fires exactly once, appending
// its delta and reason in table order. The final value is clamped to
// [0,1000].
func (s *Scorer) Score(results *models.StageResults) models.RiskScore {
	score := baseScore
	reasons := []string{}

	for _, rule := range s.rules {
		res, ok := results.Get(rule.Stage)
		if !ok || !res.Status.Settled() {
			continue
		}
		if !rule.When(res) {
			continue
		}
		score += rule.Delta
		reasons = append(reasons, rule.Reason(res))
	}

	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}

	return models.RiskScore{
		Value:   score,
		Band:    bandFor(score),
		Reasons: reasons,
	}
}

// bandFor maps a clamped score to its band. Boundaries are inclusive on the
// lower bound of each band.
func bandFor(score int) models.RiskBand {
	switch {
	case score >= lowBandFloor:
		return models.BandLow
	case score >= mediumBandFloor:
		return models.BandMedium
	default:
		return models.BandHigh
	}
}
