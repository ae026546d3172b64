// internal/scoring/scorer_test.go
package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-verifier/internal/models"
)

func resultSet(results ...models.StageResult) *models.StageResults {
	set := models.NewStageResults()
	for _, res := range results {
		set.Set(res)
	}
	return set
}

func approvedStage(name models.StageName) models.StageResult {
	return models.StageResult{Stage: name, Status: models.StatusApproved}
}

func faceMatch(status models.StageStatus, similarity float64) models.StageResult {
	return models.StageResult{
		Stage:   models.StageFaceMatchLiveness,
		Status:  status,
		Payload: map[string]interface{}{"similarity": similarity},
	}
}

func TestScore_AllApproved(t *testing.T) {
	scorer := NewScorer()

	score := scorer.Score(resultSet(
		faceMatch(models.StatusApproved, 0.97),
		approvedStage(models.StageLiveness),
		approvedStage(models.StageBackgroundCheck),
		approvedStage(models.StageDocumentValidation),
	))

	// 500 + 75 + 100 + 50 + 100
	assert.Equal(t, 825, score.Value)
	assert.Equal(t, models.BandLow, score.Band)
	require.Len(t, score.Reasons, 4)
	assert.Contains(t, score.Reasons[0], "+75")
	assert.Contains(t, score.Reasons[1], "+100")
	assert.Contains(t, score.Reasons[2], "+50")
	assert.Contains(t, score.Reasons[3], "+100")
}

func TestScore_HighSimilarityBonus(t *testing.T) {
	scorer := NewScorer()

	score := scorer.Score(resultSet(faceMatch(models.StatusApproved, 0.99)))

	assert.Equal(t, 650, score.Value)
	require.Len(t, score.Reasons, 1)
	assert.Contains(t, score.Reasons[0], "+150")
}

func TestScore_EverythingFailedClampsAtZero(t *testing.T) {
	scorer := NewScorer()

	score := scorer.Score(resultSet(
		faceMatch(models.StatusRejected, 0.12),
		models.StageResult{Stage: models.StageLiveness, Status: models.StatusRejected},
		models.StageResult{Stage: models.StageBackgroundCheck, Status: models.StatusPending},
		models.StageResult{Stage: models.StageDocumentValidation, Status: models.StatusError},
	))

	// 500 - 200 - 150 - 250 - 150 would be -250
	assert.Equal(t, 0, score.Value)
	assert.Equal(t, models.BandHigh, score.Band)
}

func TestScore_BandBoundaries(t *testing.T) {
	tests := []struct {
		value int
		band  models.RiskBand
	}{
		{800, models.BandLow},
		{799, models.BandMedium},
		{500, models.BandMedium},
		{499, models.BandHigh},
		{0, models.BandHigh},
		{1000, models.BandLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.band, bandFor(tt.value), "score %d", tt.value)
	}
}

func TestScore_NotExecutedMatchesNoOutcomeRule(t *testing.T) {
	scorer := NewScorer()

	score := scorer.Score(resultSet(
		models.StageResult{Stage: models.StageLiveness, Status: models.StatusNotExecuted},
		models.StageResult{Stage: models.StageBackgroundCheck, Status: models.StatusNotExecuted},
	))

	assert.Equal(t, 500, score.Value)
	assert.Empty(t, score.Reasons)
	assert.Equal(t, models.BandMedium, score.Band)
}

func TestScore_AbsentStagesMatchNothing(t *testing.T) {
	scorer := NewScorer()

	score := scorer.Score(models.NewStageResults())

	assert.Equal(t, 500, score.Value)
	assert.Empty(t, score.Reasons)
}

func TestScore_ErrorAndTimeoutCountAsNotApproved(t *testing.T) {
	scorer := NewScorer()

	score := scorer.Score(resultSet(
		models.StageResult{Stage: models.StageLiveness, Status: models.StatusTimeout},
	))

	assert.Equal(t, 350, score.Value)
	require.Len(t, score.Reasons, 1)
	assert.Contains(t, score.Reasons[0], "-150")
}

func TestScore_ReasonsFollowTableOrderNotMapOrder(t *testing.T) {
	scorer := NewScorer()

	// Insert stages in reverse table order; reasons must still follow the
	// table: face match, liveness, background check, document validation.
	score := scorer.Score(resultSet(
		approvedStage(models.StageDocumentValidation),
		approvedStage(models.StageBackgroundCheck),
		approvedStage(models.StageLiveness),
		faceMatch(models.StatusApproved, 0.95),
	))

	require.Len(t, score.Reasons, 4)
	assert.Contains(t, score.Reasons[0], "face match")
	assert.Contains(t, score.Reasons[1], "liveness")
	assert.Contains(t, score.Reasons[2], "background check")
	assert.Contains(t, score.Reasons[3], "document")
}

func TestScore_Idempotent(t *testing.T) {
	scorer := NewScorer()
	input := resultSet(
		faceMatch(models.StatusApproved, 0.97),
		approvedStage(models.StageLiveness),
		models.StageResult{Stage: models.StageBackgroundCheck, Status: models.StatusPending},
	)

	first := scorer.Score(input)
	second := scorer.Score(input)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Band, second.Band)
	assert.Equal(t, first.Reasons, second.Reasons)
}

func TestScore_ClampsAtThousand(t *testing.T) {
	boost := []Rule{
		{
			Stage: models.StageLiveness,
			When:  approved,
			Delta: +700,
			Reason: func(models.StageResult) string {
				return "+700: test boost"
			},
		},
	}
	scorer := NewScorerWithRules(boost)

	score := scorer.Score(resultSet(approvedStage(models.StageLiveness)))

	assert.Equal(t, 1000, score.Value)
	assert.Equal(t, models.BandLow, score.Band)
}
