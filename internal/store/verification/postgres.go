// internal/store/verification/postgres.go
package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/models"
)

// PostgresStore keeps verification records in a postgres table.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewPostgresStore builds a postgres-backed record store.
func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "verification_store"}),
	}
}

const insertRecordSQL = `
INSERT INTO verification_records
	(id, subject_type, overall_status, risk_score, input_fields, result, evidence_refs, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectRecordSQL = `
SELECT result FROM verification_records WHERE id = $1`

// Save appends one completed record.
func (s *PostgresStore) Save(ctx context.Context, record *models.VerificationRecord, subject models.Subject) error {
	inputFields, err := json.Marshal(subject)
	if err != nil {
		return errors.NewPersistenceError(fmt.Errorf("marshal subject: %w", err))
	}
	result, err := json.Marshal(record)
	if err != nil {
		return errors.NewPersistenceError(fmt.Errorf("marshal record: %w", err))
	}
	evidenceRefs, err := json.Marshal(record.EvidenceRefs)
	if err != nil {
		return errors.NewPersistenceError(fmt.Errorf("marshal evidence refs: %w", err))
	}

	var score sql.NullInt64
	if record.RiskScore != nil {
		score = sql.NullInt64{Int64: int64(record.RiskScore.Value), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, insertRecordSQL,
		record.ID,
		string(record.SubjectType),
		string(record.OverallStatus),
		score,
		inputFields,
		result,
		evidenceRefs,
		record.CreatedAt,
	)
	if err != nil {
		return errors.NewPersistenceError(fmt.Errorf("insert record %s: %w", record.ID, err))
	}

	s.logger.Debug("verification record persisted", map[string]interface{}{
		"recordId": record.ID,
	})
	return nil
}

// Get returns the record by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.VerificationRecord, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, selectRecordSQL, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, errors.NewRecordNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewPersistenceError(fmt.Errorf("select record %s: %w", id, err))
	}

	var record models.VerificationRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.NewPersistenceError(fmt.Errorf("unmarshal record %s: %w", id, err))
	}
	return &record, nil
}
