// internal/store/verification/postgres_test.go
package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/models"
)

func testRecord() *models.VerificationRecord {
	results := models.NewStageResults()
	results.Set(models.StageResult{Stage: models.StageLiveness, Status: models.StatusApproved})

	return &models.VerificationRecord{
		ID:            "f7a3e9d0-1111-2222-3333-444455556666",
		SubjectType:   models.SubjectIndividual,
		State:         models.StateComplete,
		StageResults:  results,
		OverallStatus: models.OverallApproved,
		RiskScore:     &models.RiskScore{Value: 825, Band: models.BandLow, Reasons: []string{"+100: passive liveness approved"}},
		CreatedAt:     time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		EvidenceRefs:  map[string]string{"document_front": "gs://bucket/doc.jpg"},
	}
}

func TestPostgresStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := testRecord()
	subject := models.Subject{Type: models.SubjectIndividual, Name: "MARIA SOUZA SILVA", TaxID: "11122233344"}

	mock.ExpectExec("INSERT INTO verification_records").
		WithArgs(
			record.ID,
			"individual",
			"APPROVED",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			record.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresStore(db, logger.Nop())
	err = store.Save(context.Background(), record, subject)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveFailureIsPersistenceError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO verification_records").
		WillReturnError(sql.ErrConnDone)

	store := NewPostgresStore(db, logger.Nop())
	err = store.Save(context.Background(), testRecord(), models.Subject{Type: models.SubjectIndividual})

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodePersistenceFailed, stdErr.Code)
}

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	record := testRecord()
	raw, err := json.Marshal(record)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT result FROM verification_records").
		WithArgs(record.ID).
		WillReturnRows(sqlmock.NewRows([]string{"result"}).AddRow(raw))

	store := NewPostgresStore(db, logger.Nop())
	got, err := store.Get(context.Background(), record.ID)

	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, models.OverallApproved, got.OverallStatus)
	require.NotNil(t, got.RiskScore)
	assert.Equal(t, 825, got.RiskScore.Value)

	res, ok := got.StageResults.Get(models.StageLiveness)
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, res.Status)
}

func TestPostgresStore_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT result FROM verification_records").
		WillReturnError(sql.ErrNoRows)

	store := NewPostgresStore(db, logger.Nop())
	_, err = store.Get(context.Background(), "does-not-exist")

	require.Error(t, err)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeRecordNotFound, stdErr.Code)
}
