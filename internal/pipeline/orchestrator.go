// internal/pipeline/orchestrator.go
// Package pipeline orchestrates verification runs: it validates inputs,
// resolves identity fields from evidence, fans the stage battery out to
// the provider gateways, aggregates the outcome and scores the risk.
package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
	"kyc-verifier/internal/common/metrics"
	"kyc-verifier/internal/extraction"
	"kyc-verifier/internal/models"
	"kyc-verifier/internal/notify"
	"kyc-verifier/internal/providers"
	"kyc-verifier/internal/scoring"
	"kyc-verifier/internal/storage"
	"kyc-verifier/internal/store/verification"
)

// Dependencies carries everything the orchestrator needs. Evidence and
// Notifier are optional; a nil value disables that concern.
type Dependencies struct {
	Gateways *providers.Gateways
	Scorer   *scoring.Scorer
	Store    verification.Store
	Evidence storage.EvidenceStore
	Notifier notify.Notifier
	Logger   logger.Logger
}

// Config holds the orchestration settings.
type Config struct {
	// StageTimeout bounds each individual provider call.
	StageTimeout time.Duration
}

// Orchestrator runs the verification flows.
type Orchestrator struct {
	gateways *providers.Gateways
	scorer   *scoring.Scorer
	store    verification.Store
	evidence storage.EvidenceStore
	notifier notify.Notifier
	logger   logger.Logger

	stageTimeout time.Duration

	individualExtractor *extraction.Extractor
	companyExtractor    *extraction.Extractor
}

// NewOrchestrator builds an orchestrator from its dependencies.
func NewOrchestrator(deps Dependencies, cfg Config) *Orchestrator {
	return &Orchestrator{
		gateways:            deps.Gateways,
		scorer:              deps.Scorer,
		store:               deps.Store,
		evidence:            deps.Evidence,
		notifier:            deps.Notifier,
		logger:              deps.Logger.WithFields(map[string]interface{}{"component": "orchestrator"}),
		stageTimeout:        cfg.StageTimeout,
		individualExtractor: extraction.NewIndividualExtractor(),
		companyExtractor:    extraction.NewCompanyExtractor(),
	}
}

// Run executes the configured flow for the subject type and returns the
// completed record. Only upfront validation produces an error; provider
// failures are contained to their stage and persistence or notification
// problems are logged, never surfaced.
func (o *Orchestrator) Run(ctx context.Context, subject models.Subject, evidence models.EvidenceSet) (*models.VerificationRecord, error) {
	if err := validateInputs(subject, evidence); err != nil {
		return nil, err
	}

	record := &models.VerificationRecord{
		ID:           uuid.New().String(),
		SubjectType:  subject.Type,
		State:        models.StateCreated,
		StageResults: models.NewStageResults(),
		CreatedAt:    time.Now().UTC(),
	}

	log := o.logger.WithFields(map[string]interface{}{
		"runId":       record.ID,
		"subjectType": string(subject.Type),
	})
	log.Info("verification run started", nil)

	record.State = models.StateInProgress
	record.EvidenceRefs = o.archiveEvidence(ctx, record.ID, evidence, log)

	var required []models.StageName
	switch subject.Type {
	case models.SubjectCompany:
		required = o.runCompanyFlow(ctx, record, subject)
	default:
		required = o.runIndividualFlow(ctx, record, subject, evidence)
	}

	record.OverallStatus = models.AggregateStatus(record.StageResults, required)
	score := o.scorer.Score(record.StageResults)
	record.RiskScore = &score
	record.State = models.StateComplete

	metrics.VerificationsTotal.WithLabelValues(string(subject.Type), string(record.OverallStatus)).Inc()
	metrics.RiskScoreDistribution.Observe(float64(score.Value))

	o.persist(ctx, record, subject, log)
	o.notify(ctx, record, subject, log)

	log.Info("verification run complete", map[string]interface{}{
		"overallStatus": string(record.OverallStatus),
		"riskScore":     score.Value,
		"riskBand":      string(score.Band),
	})
	return record, nil
}

// ExtractFields runs standalone OCR extraction on a document image,
// outside of any verification run.
func (o *Orchestrator) ExtractFields(ctx context.Context, image []byte) (extraction.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	text, err := o.gateways.OCR.ExtractText(ctx, image)
	if err != nil {
		return extraction.Result{}, err
	}
	return o.individualExtractor.Extract(text), nil
}

func validateInputs(subject models.Subject, evidence models.EvidenceSet) error {
	switch subject.Type {
	case models.SubjectIndividual:
		missing := evidence.Missing(
			models.EvidenceDocumentFront,
			models.EvidenceSelfieLiveness,
			models.EvidenceSelfieWithDocument,
		)
		if len(missing) > 0 {
			names := make([]string, len(missing))
			for i, m := range missing {
				names[i] = string(m)
			}
			return errors.NewEvidenceMissingError(names)
		}
		return nil
	case models.SubjectCompany:
		if subject.TaxID == "" {
			return errors.NewValidationError("company verification requires a tax id")
		}
		return nil
	default:
		return errors.NewValidationError("unknown subject type: " + string(subject.Type))
	}
}

// archiveEvidence stores attachments best-effort. A storage failure costs
// the references, not the run.
func (o *Orchestrator) archiveEvidence(ctx context.Context, runID string, evidence models.EvidenceSet, log logger.Logger) map[string]string {
	if o.evidence == nil || len(evidence) == 0 {
		return nil
	}
	refs, err := o.evidence.Store(ctx, runID, evidence)
	if err != nil {
		log.Error("evidence archival failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return refs
}

// execStage invokes one provider call under the per-stage timeout and
// normalizes failures: deadline exceeded becomes TIMEOUT, anything else
// ERROR. Sibling stages are never affected.
func (o *Orchestrator) execStage(ctx context.Context, name models.StageName, fn func(context.Context) (models.StageResult, error)) models.StageResult {
	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	start := time.Now()
	result, err := fn(stageCtx)
	elapsed := time.Since(start)

	if err != nil {
		status := models.StatusError
		if stderrors.Is(err, context.DeadlineExceeded) || stageCtx.Err() == context.DeadlineExceeded {
			status = models.StatusTimeout
		}
		result = models.StageResult{
			Stage:  name,
			Status: status,
			Reason: err.Error(),
		}
	}
	result.Stage = name

	metrics.StagesCompleted.WithLabelValues(string(name), string(result.Status)).Inc()
	metrics.StageDuration.WithLabelValues(string(name)).Observe(elapsed.Seconds())
	return result
}

func (o *Orchestrator) persist(ctx context.Context, record *models.VerificationRecord, subject models.Subject, log logger.Logger) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(ctx, record, subject); err != nil {
		metrics.PersistenceFailures.Inc()
		log.Error("record persistence failed", map[string]interface{}{"error": err.Error()})
	}
}

func (o *Orchestrator) notify(ctx context.Context, record *models.VerificationRecord, subject models.Subject, log logger.Logger) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.NotifyCompletion(ctx, record, subject); err != nil {
		log.Warn("completion notification failed", map[string]interface{}{"error": err.Error()})
	}
}

// statusFromOutcome maps a provider verdict onto the stage status set.
func statusFromOutcome(outcome providers.Outcome) models.StageStatus {
	switch outcome {
	case providers.OutcomeApproved:
		return models.StatusApproved
	case providers.OutcomePending:
		return models.StatusPending
	case providers.OutcomeRejected:
		return models.StatusRejected
	default:
		return models.StatusError
	}
}
