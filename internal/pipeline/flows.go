// internal/pipeline/flows.go
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"kyc-verifier/internal/extraction"
	"kyc-verifier/internal/models"
	"kyc-verifier/internal/providers"
)

// resolvedFields is the identity data dependent stages consume, merged
// from caller input and document extraction.
type resolvedFields struct {
	name      string
	taxID     string
	birthDate string
}

type stageJob struct {
	name models.StageName
	fn   func(context.Context) (models.StageResult, error)
}

// runIndividualFlow executes the three-image individual battery and
// returns the stages required for approval.
func (o *Orchestrator) runIndividualFlow(ctx context.Context, record *models.VerificationRecord, subject models.Subject, evidence models.EvidenceSet) []models.StageName {
	fields := resolvedFields{
		name:      subject.Name,
		taxID:     subject.TaxID,
		birthDate: subject.BirthDate,
	}

	document := evidence.Get(models.EvidenceDocumentFront)
	selfie := evidence.Get(models.EvidenceSelfieLiveness)
	selfieWithDoc := evidence.Get(models.EvidenceSelfieWithDocument)

	ocrRequired := !subject.HasIdentityFields()
	if ocrRequired {
		ocrResult := o.execStage(ctx, models.StageDocumentOCR, func(stageCtx context.Context) (models.StageResult, error) {
			text, err := o.gateways.OCR.ExtractText(stageCtx, document)
			if err != nil {
				return models.StageResult{}, err
			}
			extracted := o.individualExtractor.Extract(text)
			fields.merge(extracted)
			return ocrStageResult(extracted), nil
		})
		record.StageResults.Set(ocrResult)
	} else {
		record.StageResults.Set(models.StageResult{
			Stage:  models.StageDocumentOCR,
			Status: models.StatusNotExecuted,
			Reason: "fields supplied by caller",
		})
	}

	jobs := []stageJob{
		{models.StageDocumentValidation, func(stageCtx context.Context) (models.StageResult, error) {
			inspection, err := o.gateways.DocumentAuth.Inspect(stageCtx, document)
			if err != nil {
				return models.StageResult{}, err
			}
			return models.StageResult{
				Status:  statusFromOutcome(inspection.Outcome),
				Payload: map[string]interface{}{"checks": inspection.Checks},
				Reason:  inspection.Reason,
			}, nil
		}},
		{models.StageLiveness, func(stageCtx context.Context) (models.StageResult, error) {
			assessment, err := o.gateways.Liveness.Assess(stageCtx, selfie)
			if err != nil {
				return models.StageResult{}, err
			}
			return models.StageResult{
				Status:  statusFromOutcome(assessment.Outcome),
				Payload: map[string]interface{}{"faceConfidence": assessment.FaceConfidence},
				Reason:  assessment.Reason,
			}, nil
		}},
		{models.StageFaceMatchLiveness, faceMatchJob(o.gateways.FaceMatch, document, selfie)},
		{models.StageFaceMatchDocument, faceMatchJob(o.gateways.FaceMatch, document, selfieWithDoc)},
	}

	results := make([]models.StageResult, len(jobs))
	group := new(errgroup.Group)
	group.SetLimit(len(jobs))
	for i, job := range jobs {
		group.Go(func() error {
			results[i] = o.execStage(ctx, job.name, job.fn)
			return nil
		})
	}
	_ = group.Wait()

	for _, res := range results {
		record.StageResults.Set(res)
	}

	o.runBackgroundCheck(ctx, record, fields.taxID, fields.name)

	required := []models.StageName{
		models.StageDocumentValidation,
		models.StageLiveness,
		models.StageFaceMatchLiveness,
		models.StageFaceMatchDocument,
		models.StageBackgroundCheck,
	}
	if ocrRequired {
		required = append([]models.StageName{models.StageDocumentOCR}, required...)
	}
	return required
}

// runCompanyFlow executes the registry lookup and background check and
// returns the stages required for approval.
func (o *Orchestrator) runCompanyFlow(ctx context.Context, record *models.VerificationRecord, subject models.Subject) []models.StageName {
	legalName := subject.LegalName

	registryResult := o.execStage(ctx, models.StageCompanyRegistry, func(stageCtx context.Context) (models.StageResult, error) {
		registered, err := o.gateways.Registry.Lookup(stageCtx, subject.TaxID)
		if err != nil {
			if stderrors.Is(err, providers.ErrRegistryNotFound) {
				return models.StageResult{
					Status: models.StatusRejected,
					Reason: "company not found in national registry",
				}, nil
			}
			return models.StageResult{}, err
		}

		if registered.LegalName != "" {
			legalName = registered.LegalName
		}

		status := models.StatusPending
		reason := fmt.Sprintf("registration status %s", registered.RegistrationStatus)
		if registered.Active {
			status = models.StatusApproved
			reason = "registration active"
		}
		return models.StageResult{
			Status: status,
			Payload: map[string]interface{}{
				"legalName":          registered.LegalName,
				"tradeName":          registered.TradeName,
				"registrationStatus": registered.RegistrationStatus,
				"openedAt":           registered.OpenedAt,
				"mainActivity":       registered.MainActivity,
			},
			Reason: reason,
		}, nil
	})
	record.StageResults.Set(registryResult)

	o.runBackgroundCheck(ctx, record, subject.TaxID, legalName)

	return []models.StageName{models.StageCompanyRegistry, models.StageBackgroundCheck}
}

// runBackgroundCheck executes the screening stage when its prerequisite
// fields resolved, recording NOT_EXECUTED otherwise.
func (o *Orchestrator) runBackgroundCheck(ctx context.Context, record *models.VerificationRecord, taxID, fullName string) {
	if taxID == "" && fullName == "" {
		record.StageResults.Set(models.StageResult{
			Stage:  models.StageBackgroundCheck,
			Status: models.StatusNotExecuted,
			Reason: "missing prerequisite field",
		})
		return
	}

	result := o.execStage(ctx, models.StageBackgroundCheck, func(stageCtx context.Context) (models.StageResult, error) {
		report, err := o.gateways.BackgroundCheck.Check(stageCtx, taxID, fullName)
		if err != nil {
			return models.StageResult{}, err
		}
		payload := map[string]interface{}{}
		if len(report.Findings) > 0 {
			payload["findings"] = report.Findings
		}
		return models.StageResult{
			Status:  statusFromOutcome(report.Outcome),
			Payload: payload,
			Reason:  report.Reason,
		}, nil
	})
	record.StageResults.Set(result)
}

func faceMatchJob(provider providers.FaceMatchProvider, reference, probe []byte) func(context.Context) (models.StageResult, error) {
	return func(stageCtx context.Context) (models.StageResult, error) {
		comparison, err := provider.Compare(stageCtx, reference, probe)
		if err != nil {
			return models.StageResult{}, err
		}
		return models.StageResult{
			Status: statusFromOutcome(comparison.Outcome),
			Payload: map[string]interface{}{
				"similarity": comparison.Similarity,
				"threshold":  comparison.Threshold,
			},
			Reason: comparison.Reason,
		}, nil
	}
}

// merge fills blanks in the resolved fields from extraction output.
// Caller-supplied values always win.
func (f *resolvedFields) merge(extracted extraction.Result) {
	if f.name == "" {
		f.name = extracted.Fields[extraction.FieldName]
	}
	if f.taxID == "" {
		f.taxID = extracted.Fields[extraction.FieldTaxID]
	}
	if f.birthDate == "" {
		f.birthDate = extracted.Fields[extraction.FieldBirthDate]
	}
}

// ocrStageResult maps an extraction outcome onto the stage status set.
func ocrStageResult(extracted extraction.Result) models.StageResult {
	payload := make(map[string]interface{}, len(extracted.Fields))
	for field, value := range extracted.Fields {
		payload[string(field)] = value
	}

	if extracted.Status == extraction.StatusSuccess {
		return models.StageResult{
			Status:  models.StatusApproved,
			Payload: payload,
			Reason:  "all mandatory fields extracted",
		}
	}

	missing := make([]string, len(extracted.MissingFields))
	for i, field := range extracted.MissingFields {
		missing[i] = string(field)
	}
	payload["missingFields"] = missing
	return models.StageResult{
		Status:  models.StatusRejected,
		Payload: payload,
		Reason:  "mandatory fields missing: " + strings.Join(missing, ", "),
	}
}
