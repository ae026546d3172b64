// internal/providers/stub/stub.go
// Package stub provides deterministic in-process providers. They back the
// "stub" provider mode for local development and serve as configurable
// doubles in pipeline tests.
package stub

import (
	"context"
	"strings"

	"kyc-verifier/internal/providers"
)

// OCR returns a fixed text for every document image.
type OCR struct {
	Text string
	Err  error
}

func (o *OCR) ExtractText(_ context.Context, _ []byte) (string, error) {
	if o.Err != nil {
		return "", o.Err
	}
	return o.Text, nil
}

// Liveness approves every selfie unless configured otherwise.
type Liveness struct {
	Assessment providers.Assessment
	Err        error
}

func (l *Liveness) Assess(_ context.Context, _ []byte) (providers.Assessment, error) {
	if l.Err != nil {
		return providers.Assessment{}, l.Err
	}
	if l.Assessment.Outcome == "" {
		return providers.Assessment{
			Outcome:        providers.OutcomeApproved,
			Reason:         "stub liveness approval",
			FaceConfidence: 0.99,
		}, nil
	}
	return l.Assessment, nil
}

// FaceMatch reports a fixed comparison for every pair of images.
type FaceMatch struct {
	Comparison providers.Comparison
	Err        error
}

func (f *FaceMatch) Compare(_ context.Context, _, _ []byte) (providers.Comparison, error) {
	if f.Err != nil {
		return providers.Comparison{}, f.Err
	}
	if f.Comparison.Outcome == "" {
		return providers.Comparison{
			Outcome:    providers.OutcomeApproved,
			Similarity: 0.97,
			Threshold:  0.90,
			Reason:     "stub face match approval",
		}, nil
	}
	return f.Comparison, nil
}

// BackgroundCheck reports clean for every subject unless configured.
type BackgroundCheck struct {
	Report providers.Report
	Err    error
}

func (b *BackgroundCheck) Check(_ context.Context, _, _ string) (providers.Report, error) {
	if b.Err != nil {
		return providers.Report{}, b.Err
	}
	if b.Report.Outcome == "" {
		return providers.Report{
			Outcome: providers.OutcomeApproved,
			Reason:  "no findings in screening sources",
		}, nil
	}
	return b.Report, nil
}

// Registry resolves every tax id to a fixed active company.
type Registry struct {
	Record providers.RegistryRecord
	Err    error
}

func (r *Registry) Lookup(_ context.Context, taxID string) (providers.RegistryRecord, error) {
	if r.Err != nil {
		return providers.RegistryRecord{}, r.Err
	}
	if r.Record.TaxID == "" {
		return providers.RegistryRecord{
			TaxID:              taxID,
			LegalName:          "EMPRESA EXEMPLO LTDA",
			TradeName:          "EXEMPLO",
			RegistrationStatus: "ATIVA",
			Active:             true,
			OpenedAt:           "2015-03-12",
			MainActivity:       "Desenvolvimento de programas de computador sob encomenda",
		}, nil
	}
	return r.Record, nil
}

// DocumentAuth approves every document unless configured otherwise.
type DocumentAuth struct {
	Inspection providers.Inspection
	Err        error
}

func (d *DocumentAuth) Inspect(_ context.Context, _ []byte) (providers.Inspection, error) {
	if d.Err != nil {
		return providers.Inspection{}, d.Err
	}
	if d.Inspection.Outcome == "" {
		return providers.Inspection{
			Outcome: providers.OutcomeApproved,
			Checks:  []string{"payload_size", "image_signature", "tamper_heuristics"},
			Reason:  "no signs of tampering found",
		}, nil
	}
	return d.Inspection, nil
}

// DefaultOCRText is the document text the stub OCR returns when none is
// configured. It extracts cleanly into a full individual field set.
var DefaultOCRText = strings.Join([]string{
	"REPUBLICA FEDERATIVA DO BRASIL",
	"CARTEIRA NACIONAL DE HABILITACAO",
	"NOME",
	"MARIA SOUZA SILVA",
	"DATA NASCIMENTO",
	"12/05/1991",
	"CPF 111.222.333-44",
}, "\n")

// Gateways returns a fully approving provider set.
func Gateways() *providers.Gateways {
	return &providers.Gateways{
		OCR:             &OCR{Text: DefaultOCRText},
		Liveness:        &Liveness{},
		FaceMatch:       &FaceMatch{},
		BackgroundCheck: &BackgroundCheck{},
		Registry:        &Registry{},
		DocumentAuth:    &DocumentAuth{},
	}
}
