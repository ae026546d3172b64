// internal/pipeline/orchestrator_test.go
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/models"
	"kyc-verifier/internal/providers"
	"kyc-verifier/internal/providers/stub"
	"kyc-verifier/internal/scoring"
	"kyc-verifier/internal/storage"
	"kyc-verifier/internal/store/verification"
)

func fullEvidence() models.EvidenceSet {
	return models.EvidenceSet{
		models.EvidenceDocumentFront:      []byte("document-front-bytes"),
		models.EvidenceSelfieLiveness:     []byte("selfie-liveness-bytes"),
		models.EvidenceSelfieWithDocument: []byte("selfie-with-document-bytes"),
	}
}

func individualSubject() models.Subject {
	return models.Subject{
		Type:      models.SubjectIndividual,
		Name:      "MARIA SOUZA SILVA",
		TaxID:     "11122233344",
		BirthDate: "12/05/1991",
	}
}

func newTestOrchestrator(gateways *providers.Gateways, store verification.Store) *Orchestrator {
	return NewOrchestrator(Dependencies{
		Gateways: gateways,
		Scorer:   scoring.NewScorer(),
		Store:    store,
		Logger:   logger.Nop(),
	}, Config{StageTimeout: 2 * time.Second})
}

func TestRun_AllApprovedIndividual(t *testing.T) {
	store := verification.NewMemoryStore()
	orch := newTestOrchestrator(stub.Gateways(), store)

	record, err := orch.Run(context.Background(), individualSubject(), fullEvidence())

	require.NoError(t, err)
	assert.Equal(t, models.StateComplete, record.State)
	assert.Equal(t, models.OverallApproved, record.OverallStatus)

	// Stub face match reports 0.97 similarity: 500+75+100+50+100.
	require.NotNil(t, record.RiskScore)
	assert.Equal(t, 825, record.RiskScore.Value)
	assert.Equal(t, models.BandLow, record.RiskScore.Band)

	assert.Equal(t, []models.StageName{
		models.StageDocumentOCR,
		models.StageDocumentValidation,
		models.StageLiveness,
		models.StageFaceMatchLiveness,
		models.StageFaceMatchDocument,
		models.StageBackgroundCheck,
	}, record.StageResults.Names())

	ocr, _ := record.StageResults.Get(models.StageDocumentOCR)
	assert.Equal(t, models.StatusNotExecuted, ocr.Status)
	assert.Equal(t, "fields supplied by caller", ocr.Reason)

	assert.Equal(t, 1, store.Len())
}

func TestRun_FieldsResolvedFromDocument(t *testing.T) {
	orch := newTestOrchestrator(stub.Gateways(), verification.NewMemoryStore())

	subject := models.Subject{Type: models.SubjectIndividual}
	record, err := orch.Run(context.Background(), subject, fullEvidence())

	require.NoError(t, err)

	ocr, ok := record.StageResults.Get(models.StageDocumentOCR)
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, ocr.Status)
	assert.Equal(t, "MARIA SOUZA SILVA", ocr.Payload["name"])
	assert.Equal(t, "111.222.333-44", ocr.Payload["taxId"])

	bgc, _ := record.StageResults.Get(models.StageBackgroundCheck)
	assert.Equal(t, models.StatusApproved, bgc.Status, "extracted fields feed the background check")

	assert.Equal(t, models.OverallApproved, record.OverallStatus)
}

func TestRun_BackgroundCheckFailureIsolated(t *testing.T) {
	gateways := stub.Gateways()
	gateways.BackgroundCheck = &stub.BackgroundCheck{Err: fmt.Errorf("screening cluster unavailable")}
	orch := newTestOrchestrator(gateways, verification.NewMemoryStore())

	record, err := orch.Run(context.Background(), individualSubject(), fullEvidence())

	require.NoError(t, err, "a stage failure never fails the run")

	bgc, _ := record.StageResults.Get(models.StageBackgroundCheck)
	assert.Equal(t, models.StatusError, bgc.Status)

	liveness, _ := record.StageResults.Get(models.StageLiveness)
	assert.Equal(t, models.StatusApproved, liveness.Status, "sibling stages are unaffected")

	assert.Equal(t, models.OverallPending, record.OverallStatus)
}

type slowFaceMatch struct{}

func (slowFaceMatch) Compare(ctx context.Context, _, _ []byte) (providers.Comparison, error) {
	<-ctx.Done()
	return providers.Comparison{}, ctx.Err()
}

func TestRun_SlowProviderTimesOut(t *testing.T) {
	gateways := stub.Gateways()
	gateways.FaceMatch = slowFaceMatch{}

	orch := NewOrchestrator(Dependencies{
		Gateways: gateways,
		Scorer:   scoring.NewScorer(),
		Store:    verification.NewMemoryStore(),
		Logger:   logger.Nop(),
	}, Config{StageTimeout: 30 * time.Millisecond})

	record, err := orch.Run(context.Background(), individualSubject(), fullEvidence())

	require.NoError(t, err)

	fm, _ := record.StageResults.Get(models.StageFaceMatchLiveness)
	assert.Equal(t, models.StatusTimeout, fm.Status)
	assert.Equal(t, models.OverallPending, record.OverallStatus)
}

func TestRun_OCRFailureLeavesDependentsNotExecuted(t *testing.T) {
	gateways := stub.Gateways()
	gateways.OCR = &stub.OCR{Err: fmt.Errorf("vision unavailable")}
	orch := newTestOrchestrator(gateways, verification.NewMemoryStore())

	subject := models.Subject{Type: models.SubjectIndividual}
	record, err := orch.Run(context.Background(), subject, fullEvidence())

	require.NoError(t, err)

	ocr, _ := record.StageResults.Get(models.StageDocumentOCR)
	assert.Equal(t, models.StatusError, ocr.Status)

	bgc, _ := record.StageResults.Get(models.StageBackgroundCheck)
	assert.Equal(t, models.StatusNotExecuted, bgc.Status)
	assert.Equal(t, "missing prerequisite field", bgc.Reason)
}

func TestRun_MissingEvidenceShortCircuits(t *testing.T) {
	store := verification.NewMemoryStore()
	orch := newTestOrchestrator(stub.Gateways(), store)

	evidence := fullEvidence()
	delete(evidence, models.EvidenceSelfieLiveness)

	_, err := orch.Run(context.Background(), individualSubject(), evidence)

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeEvidenceMissing, stdErr.Code)
	assert.Zero(t, store.Len(), "no partial record on validation failure")
}

func TestRun_CompanyWithoutTaxIDShortCircuits(t *testing.T) {
	orch := newTestOrchestrator(stub.Gateways(), verification.NewMemoryStore())

	_, err := orch.Run(context.Background(), models.Subject{Type: models.SubjectCompany}, nil)

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
}

type failingStore struct{}

func (failingStore) Save(context.Context, *models.VerificationRecord, models.Subject) error {
	return errors.NewPersistenceError(fmt.Errorf("database down"))
}

func (failingStore) Get(context.Context, string) (*models.VerificationRecord, error) {
	return nil, errors.NewRecordNotFoundError("none")
}

func TestRun_PersistenceFailureIsNonFatal(t *testing.T) {
	orch := newTestOrchestrator(stub.Gateways(), failingStore{})

	record, err := orch.Run(context.Background(), individualSubject(), fullEvidence())

	require.NoError(t, err)
	assert.Equal(t, models.OverallApproved, record.OverallStatus)
}

type capturingBGC struct {
	taxID    string
	fullName string
}

func (c *capturingBGC) Check(_ context.Context, taxID, fullName string) (providers.Report, error) {
	c.taxID = taxID
	c.fullName = fullName
	return providers.Report{Outcome: providers.OutcomeApproved, Reason: "clean"}, nil
}

func TestRun_CompanyFlow(t *testing.T) {
	bgc := &capturingBGC{}
	gateways := stub.Gateways()
	gateways.BackgroundCheck = bgc
	orch := newTestOrchestrator(gateways, verification.NewMemoryStore())

	subject := models.Subject{Type: models.SubjectCompany, TaxID: "19131243000197"}
	record, err := orch.Run(context.Background(), subject, nil)

	require.NoError(t, err)
	assert.Equal(t, []models.StageName{
		models.StageCompanyRegistry,
		models.StageBackgroundCheck,
	}, record.StageResults.Names())

	registry, _ := record.StageResults.Get(models.StageCompanyRegistry)
	assert.Equal(t, models.StatusApproved, registry.Status)

	assert.Equal(t, "19131243000197", bgc.taxID)
	assert.Equal(t, "EMPRESA EXEMPLO LTDA", bgc.fullName, "registry legal name feeds the background check")

	assert.Equal(t, models.OverallApproved, record.OverallStatus)
}

func TestRun_CompanyNotInRegistry(t *testing.T) {
	gateways := stub.Gateways()
	gateways.Registry = &stub.Registry{Err: fmt.Errorf("lookup: %w", providers.ErrRegistryNotFound)}
	orch := newTestOrchestrator(gateways, verification.NewMemoryStore())

	subject := models.Subject{Type: models.SubjectCompany, TaxID: "99999999999999", LegalName: "EMPRESA FANTASMA"}
	record, err := orch.Run(context.Background(), subject, nil)

	require.NoError(t, err)

	registry, _ := record.StageResults.Get(models.StageCompanyRegistry)
	assert.Equal(t, models.StatusRejected, registry.Status)
	assert.Equal(t, models.OverallPending, record.OverallStatus)
}

func TestRun_EvidenceRefsLandOnRecord(t *testing.T) {
	orch := NewOrchestrator(Dependencies{
		Gateways: stub.Gateways(),
		Scorer:   scoring.NewScorer(),
		Store:    verification.NewMemoryStore(),
		Evidence: storage.NewMemoryStore(),
		Logger:   logger.Nop(),
	}, Config{StageTimeout: 2 * time.Second})

	record, err := orch.Run(context.Background(), individualSubject(), fullEvidence())

	require.NoError(t, err)
	require.Len(t, record.EvidenceRefs, 3)
	assert.Contains(t, record.EvidenceRefs["document_front"], record.ID)
}

func TestExtractFields(t *testing.T) {
	orch := newTestOrchestrator(stub.Gateways(), verification.NewMemoryStore())

	result, err := orch.ExtractFields(context.Background(), []byte("document-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "MARIA SOUZA SILVA", result.Fields["name"])
	assert.Equal(t, "111.222.333-44", result.Fields["taxId"])
	assert.Equal(t, "12/05/1991", result.Fields["birthDate"])
}
