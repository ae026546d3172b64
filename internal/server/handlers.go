// internal/server/handlers.go
package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/extraction"
	"kyc-verifier/internal/models"
	"kyc-verifier/internal/pipeline"
	"kyc-verifier/internal/store/verification"
)

// companyRequestSchema validates the company verification JSON body.
const companyRequestSchema = `{
	"type": "object",
	"required": ["taxId"],
	"properties": {
		"taxId": {"type": "string", "minLength": 14, "maxLength": 18},
		"legalName": {"type": "string"},
		"email": {"type": "string"},
		"phone": {"type": "string"}
	},
	"additionalProperties": false
}`

// Handler exposes the verification pipeline over HTTP.
type Handler struct {
	orchestrator   *pipeline.Orchestrator
	store          verification.Store
	maxUploadBytes int64
	companySchema  *gojsonschema.Schema
	logger         logger.Logger
}

// NewHandler builds the HTTP handler set.
func NewHandler(orch *pipeline.Orchestrator, store verification.Store, maxUploadBytes int64, log logger.Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(companyRequestSchema))
	if err != nil {
		return nil, err
	}
	return &Handler{
		orchestrator:   orch,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		companySchema:  schema,
		logger:         log.WithFields(map[string]interface{}{"component": "http"}),
	}, nil
}

// VerifyIndividual handles the multipart individual verification request.
func (h *Handler) VerifyIndividual(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, errors.NewValidationError("request body must be multipart/form-data"))
		return
	}

	subject := models.Subject{
		Type:      models.SubjectIndividual,
		Name:      r.FormValue("name"),
		TaxID:     r.FormValue("taxId"),
		BirthDate: r.FormValue("birthDate"),
		Email:     r.FormValue("email"),
		Phone:     r.FormValue("phone"),
	}

	evidence := models.EvidenceSet{}
	for _, name := range []models.EvidenceName{
		models.EvidenceDocumentFront,
		models.EvidenceSelfieLiveness,
		models.EvidenceSelfieWithDocument,
	} {
		payload, err := h.formFile(r, string(name))
		if err != nil {
			continue
		}
		evidence[name] = payload
	}

	record, err := h.orchestrator.Run(r.Context(), subject, evidence)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationResponse(record))
}

// ExtractOCR handles standalone document field extraction.
func (h *Handler) ExtractOCR(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, errors.NewValidationError("request body must be multipart/form-data"))
		return
	}

	document, err := h.formFile(r, string(models.EvidenceDocumentFront))
	if err != nil {
		writeError(w, errors.NewEvidenceMissingError([]string{string(models.EvidenceDocumentFront)}))
		return
	}

	result, err := h.orchestrator.ExtractFields(r.Context(), document)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.Status == extraction.StatusRejected {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

// VerifyCompany handles the JSON company verification request.
func (h *Handler) VerifyCompany(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxUploadBytes))
	if err != nil {
		writeError(w, errors.NewValidationError("failed to read request body"))
		return
	}

	validation, err := h.companySchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		writeError(w, errors.NewValidationError("request body is not valid JSON"))
		return
	}
	if !validation.Valid() {
		details := ""
		for _, desc := range validation.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		writeError(w, errors.NewValidationError(details))
		return
	}

	var req struct {
		TaxID     string `json:"taxId"`
		LegalName string `json:"legalName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, errors.NewValidationError("request body is not valid JSON"))
		return
	}

	subject := models.Subject{
		Type:      models.SubjectCompany,
		TaxID:     digitsOnly(req.TaxID),
		LegalName: req.LegalName,
		Email:     req.Email,
		Phone:     req.Phone,
	}

	record, err := h.orchestrator.Run(r.Context(), subject, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationResponse(record))
}

// GetVerification returns a persisted record by id.
func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVerificationResponse(record))
}

// Healthz is the liveness endpoint.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) formFile(r *http.Request, name string) ([]byte, error) {
	file, _, err := r.FormFile(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, h.maxUploadBytes))
}

func digitsOnly(value string) string {
	out := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			out = append(out, value[i])
		}
	}
	return string(out)
}
