// internal/server/handlers_test.go
package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/pipeline"
	"kyc-verifier/internal/providers/stub"
	"kyc-verifier/internal/scoring"
	"kyc-verifier/internal/store/verification"
)

const testAPIKey = "test-api-key"

func newTestServer(t *testing.T) (*httptest.Server, *verification.MemoryStore) {
	t.Helper()

	store := verification.NewMemoryStore()
	orch := pipeline.NewOrchestrator(pipeline.Dependencies{
		Gateways: stub.Gateways(),
		Scorer:   scoring.NewScorer(),
		Store:    store,
		Logger:   logger.Nop(),
	}, pipeline.Config{StageTimeout: 2 * time.Second})

	handler, err := NewHandler(orch, store, 10<<20, logger.Nop())
	require.NoError(t, err)

	server := httptest.NewServer(NewRouter(handler, testAPIKey, logger.Nop()))
	t.Cleanup(server.Close)
	return server, store
}

func buildMultipart(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for name, payload := range files {
		part, err := writer.CreateFormFile(name, name+".jpg")
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func doRequest(t *testing.T, method, url string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func allFiles() map[string][]byte {
	return map[string][]byte{
		"document_front":       []byte("document-front-bytes"),
		"selfie_liveness":      []byte("selfie-liveness-bytes"),
		"selfie_with_document": []byte("selfie-with-document-bytes"),
	}
}

func TestVerifyIndividual(t *testing.T) {
	server, store := newTestServer(t)

	body, contentType := buildMultipart(t, map[string]string{
		"name":      "MARIA SOUZA SILVA",
		"taxId":     "11122233344",
		"birthDate": "12/05/1991",
	}, allFiles())

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/individual/verifications", body, contentType)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed struct {
		ID          string `json:"id"`
		StatusGeral string `json:"status_geral"`
		RiskScore   struct {
			Score   int      `json:"score"`
			Rating  string   `json:"rating"`
			Reasons []string `json:"reasons"`
		} `json:"risk_score"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))

	assert.Equal(t, "APROVADO", parsed.StatusGeral)
	assert.Equal(t, 825, parsed.RiskScore.Score)
	assert.Equal(t, "LOW", parsed.RiskScore.Rating)
	assert.NotEmpty(t, parsed.RiskScore.Reasons)

	// The workflow object preserves execution order on the wire.
	bodyStr := string(raw)
	assert.Less(t,
		strings.Index(bodyStr, `"document_ocr"`),
		strings.Index(bodyStr, `"background_check"`))

	assert.Equal(t, 1, store.Len())
}

func TestVerifyIndividual_MissingEvidence(t *testing.T) {
	server, _ := newTestServer(t)

	files := allFiles()
	delete(files, "selfie_liveness")
	body, contentType := buildMultipart(t, map[string]string{"name": "MARIA", "taxId": "11122233344"}, files)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/individual/verifications", body, contentType)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var parsed map[string]map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "EVIDENCE_MISSING", parsed["error"]["code"])
}

func TestVerifyIndividual_RequiresAPIKey(t *testing.T) {
	server, _ := newTestServer(t)

	body, contentType := buildMultipart(t, nil, allFiles())
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/v1/individual/verifications", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", "wrong-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExtractOCR(t *testing.T) {
	server, _ := newTestServer(t)

	body, contentType := buildMultipart(t, nil, map[string][]byte{
		"document_front": []byte("document-front-bytes"),
	})

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/individual/ocr", body, contentType)

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Status string            `json:"status"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "SUCCESS", parsed.Status)
	assert.Equal(t, "MARIA SOUZA SILVA", parsed.Fields["name"])
}

func TestExtractOCR_MissingFile(t *testing.T) {
	server, _ := newTestServer(t)

	body, contentType := buildMultipart(t, map[string]string{"name": "x"}, nil)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/individual/ocr", body, contentType)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyCompany(t *testing.T) {
	server, _ := newTestServer(t)

	payload := `{"taxId": "19.131.243/0001-97", "legalName": "OPEN KNOWLEDGE BRASIL"}`
	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/company/verifications",
		strings.NewReader(payload), "application/json")

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		StatusGeral string `json:"status_geral"`
		SubjectType string `json:"subject_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "APROVADO", parsed.StatusGeral)
	assert.Equal(t, "company", parsed.SubjectType)
}

func TestVerifyCompany_SchemaRejectsMissingTaxID(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, http.MethodPost, server.URL+"/api/v1/company/verifications",
		strings.NewReader(`{"legalName": "EMPRESA SEM CNPJ"}`), "application/json")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetVerification(t *testing.T) {
	server, _ := newTestServer(t)

	body, contentType := buildMultipart(t, map[string]string{
		"name":  "MARIA SOUZA SILVA",
		"taxId": "11122233344",
	}, allFiles())
	created := doRequest(t, http.MethodPost, server.URL+"/api/v1/individual/verifications", body, contentType)
	require.Equal(t, http.StatusOK, created.StatusCode)

	var run struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(created.Body).Decode(&run))
	require.NotEmpty(t, run.ID)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/v1/verifications/"+run.ID, nil, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var parsed struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, run.ID, parsed.ID)
}

func TestGetVerification_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, http.MethodGet, server.URL+"/api/v1/verifications/does-not-exist", nil, "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthzIsUnauthenticated(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
