// internal/extraction/extractor.go

// Package extraction turns raw OCR text into structured identity fields
// through an ordered, data-driven rule table. The extractor is a pure
// function of its input text: no I/O, no hidden state.
package extraction

import (
	"regexp"
	"strings"
)

// Field names a target identity field.
type Field string

const (
	FieldName      Field = "name"
	FieldTaxID     Field = "taxId"
	FieldBirthDate Field = "birthDate"
	FieldLegalName Field = "legalName"
)

// Status is the extraction outcome.
type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusRejected Status = "REJECTED"
)

// Result carries the extracted fields and, on rejection, the authoritative
// machine-checkable list of unresolved mandatory fields.
type Result struct {
	Status        Status           `json:"status"`
	Fields        map[Field]string `json:"fields"`
	MissingFields []Field          `json:"missingFields,omitempty"`
}

// Extractor resolves identity fields from document OCR text.
type Extractor struct {
	rules       []Rule
	mandatory   []Field
	validators  map[Field]func(string) bool
	noiseTokens []string
	terminators []string
}

// NewIndividualExtractor builds the extractor for individual identity
// documents (CNH/RG). Mandatory fields: name, taxId, birthDate.
func NewIndividualExtractor() *Extractor {
	return &Extractor{
		rules:     individualRules,
		mandatory: []Field{FieldName, FieldTaxID, FieldBirthDate},
		validators: map[Field]func(string) bool{
			FieldTaxID: validCPF,
		},
		noiseTokens: nameNoiseTokens,
		terminators: nameTerminators,
	}
}

// NewCompanyExtractor builds the extractor for company registry documents.
// Mandatory fields: legalName, taxId (CNPJ).
func NewCompanyExtractor() *Extractor {
	return &Extractor{
		rules:     companyRules,
		mandatory: []Field{FieldLegalName, FieldTaxID},
		validators: map[Field]func(string) bool{
			FieldTaxID: validCNPJ,
		},
		noiseTokens: nameNoiseTokens,
		terminators: nameTerminators,
	}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Extract resolves fields from raw OCR text. Identical input always yields
// an identical result.
func (e *Extractor) Extract(rawText string) Result {
	flatText := flatten(rawText)

	matches := make(map[Field]string)
	for _, rule := range e.rules {
		if _, done := matches[rule.Field]; done {
			continue
		}
		text := rawText
		if rule.Variant == VariantFlat {
			text = flatText
		}
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil || strings.TrimSpace(m[1]) == "" {
			continue
		}
		matches[rule.Field] = e.normalize(rule.Field, m[1])
	}

	fields := make(map[Field]string)
	var missing []Field
	for _, field := range e.mandatory {
		value, ok := matches[field]
		if ok {
			if validate := e.validators[field]; validate != nil && !validate(value) {
				ok = false
			}
		}
		if !ok || value == "" {
			missing = append(missing, field)
			continue
		}
		fields[field] = value
	}

	status := StatusSuccess
	if len(missing) > 0 {
		status = StatusRejected
	}
	return Result{Status: status, Fields: fields, MissingFields: missing}
}

// normalize collapses whitespace runs, strips noise tokens, cuts name
// captures at terminator labels, and trims.
func (e *Extractor) normalize(field Field, value string) string {
	value = strings.ReplaceAll(value, "\n", " ")

	if field == FieldName || field == FieldLegalName {
		upper := strings.ToUpper(value)
		cut := len(value)
		for _, term := range e.terminators {
			if idx := strings.Index(upper, term); idx >= 0 && idx < cut {
				cut = idx
			}
		}
		value = value[:cut]
		for _, tok := range e.noiseTokens {
			value = strings.ReplaceAll(value, tok, "")
		}
	}

	value = whitespaceRun.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// flatten renders the OCR text as a single line with collapsed whitespace.
func flatten(text string) string {
	return whitespaceRun.ReplaceAllString(text, " ")
}

// validCPF accepts an individual tax ID only if exactly 11 digits remain
// after stripping separators.
func validCPF(value string) bool {
	return len(digitsOnly(value)) == 11
}

// validCNPJ accepts a company tax ID only if exactly 14 digits remain.
func validCNPJ(value string) bool {
	return len(digitsOnly(value)) == 14
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
