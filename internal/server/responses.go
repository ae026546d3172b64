// internal/server/responses.go
package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/models"
)

// riskScoreResponse is the wire form of a computed risk score.
type riskScoreResponse struct {
	Score   int      `json:"score"`
	Rating  string   `json:"rating"`
	Reasons []string `json:"reasons"`
}

// verificationResponse is the wire form of a completed run. The key names
// are the platform's established contract and do not follow Go naming.
type verificationResponse struct {
	ID          string               `json:"id"`
	SubjectType string               `json:"subject_type"`
	StatusGeral string               `json:"status_geral"`
	Workflow    *models.StageResults `json:"workflow_executado"`
	RiskScore   *riskScoreResponse   `json:"risk_score,omitempty"`
	Evidence    map[string]string    `json:"evidence_refs,omitempty"`
	CreatedAt   string               `json:"created_at"`
}

// statusGeralWire maps the aggregate status onto the established wire
// vocabulary.
func statusGeralWire(status models.OverallStatus) string {
	if status == models.OverallApproved {
		return "APROVADO"
	}
	return "PENDENCIA"
}

func toVerificationResponse(record *models.VerificationRecord) verificationResponse {
	resp := verificationResponse{
		ID:          record.ID,
		SubjectType: string(record.SubjectType),
		StatusGeral: statusGeralWire(record.OverallStatus),
		Workflow:    record.StageResults,
		Evidence:    record.EvidenceRefs,
		CreatedAt:   record.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if record.RiskScore != nil {
		resp.RiskScore = &riskScoreResponse{
			Score:   record.RiskScore.Value,
			Rating:  string(record.RiskScore.Band),
			Reasons: record.RiskScore.Reasons,
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError renders a StandardError with its mapped HTTP status; anything
// else becomes an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		writeJSON(w, errors.HTTPStatus(stdErr.Code), map[string]interface{}{"error": stdErr})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "INTERNAL_ERROR",
			"message": "internal server error",
		},
	})
}
