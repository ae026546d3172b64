// internal/scoring/rules.go
package scoring

import (
	"fmt"

	"kyc-verifier/internal/models"
)

// Rule is one entry in the ordered scoring table. Rules fire in table order,
// never in stage-map iteration order. A rule only sees stages that actually
// settled: absent or NOT_EXECUTED stages match no outcome rule.
type Rule struct {
	Stage  models.StageName
	When   func(res models.StageResult) bool
	Delta  int
	Reason func(res models.StageResult) string
}

const highSimilarityThreshold = 0.98

// defaultRules carries the production scoring table. Deltas mirror the risk
// policy for the three-image individual flow; company flows share the
// background-check rows.
var defaultRules = []Rule{
	{
		Stage: models.StageFaceMatchLiveness,
		When: func(res models.StageResult) bool {
			return res.Status == models.StatusApproved && similarity(res) > highSimilarityThreshold
		},
		Delta: +150,
		Reason: func(res models.StageResult) string {
			return fmt.Sprintf("+150: face match similarity %.2f above high-confidence threshold", similarity(res))
		},
	},
	{
		Stage: models.StageFaceMatchLiveness,
		When: func(res models.StageResult) bool {
			return res.Status == models.StatusApproved && similarity(res) <= highSimilarityThreshold
		},
		Delta: +75,
		Reason: func(res models.StageResult) string {
			return fmt.Sprintf("+75: good face match similarity %.2f", similarity(res))
		},
	},
	{
		Stage: models.StageFaceMatchLiveness,
		When:  settledNotApproved,
		Delta: -200,
		Reason: func(models.StageResult) string {
			return "-200: primary face match failed"
		},
	},
	{
		Stage: models.StageLiveness,
		When:  approved,
		Delta: +100,
		Reason: func(models.StageResult) string {
			return "+100: passive liveness approved, selfie is genuine"
		},
	},
	{
		Stage: models.StageLiveness,
		When:  settledNotApproved,
		Delta: -150,
		Reason: func(models.StageResult) string {
			return "-150: suspected fraud in passive liveness check"
		},
	},
	{
		Stage: models.StageBackgroundCheck,
		When: func(res models.StageResult) bool {
			return res.Status == models.StatusPending
		},
		Delta: -250,
		Reason: func(models.StageResult) string {
			return "-250: findings reported by background check"
		},
	},
	{
		Stage: models.StageBackgroundCheck,
		When:  approved,
		Delta: +50,
		Reason: func(models.StageResult) string {
			return "+50: background check clean"
		},
	},
	{
		Stage: models.StageDocumentValidation,
		When:  approved,
		Delta: +100,
		Reason: func(models.StageResult) string {
			return "+100: document authenticity validated"
		},
	},
	{
		Stage: models.StageDocumentValidation,
		When:  settledNotApproved,
		Delta: -150,
		Reason: func(models.StageResult) string {
			return "-150: document flagged during authenticity analysis"
		},
	},
}

func approved(res models.StageResult) bool {
	return res.Status == models.StatusApproved
}

// settledNotApproved matches stages that ran to an outcome other than
// approval. NOT_EXECUTED never reaches the rule predicates.
func settledNotApproved(res models.StageResult) bool {
	return res.Status != models.StatusApproved
}

// similarity reads the face-match similarity from the stage payload,
// defaulting to zero when absent.
func similarity(res models.StageResult) float64 {
	if res.Payload == nil {
		return 0
	}
	switch v := res.Payload["similarity"].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	default:
		return 0
	}
}
