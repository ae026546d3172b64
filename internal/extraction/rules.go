// internal/extraction/rules.go
package extraction

import "regexp"

// TextVariant selects which rendering of the OCR text a rule matches
// against: the raw newline-preserving form, or a flattened single line.
type TextVariant int

const (
	VariantRaw TextVariant = iota
	VariantFlat
)

// Rule is one entry in the ordered extraction table. Rules for a field are
// tried in declaration order; the first non-empty match wins and the rest
// are skipped. Adding or removing a pattern is a data change here, not a
// control-flow change.
type Rule struct {
	Field   Field
	Pattern *regexp.Regexp
	Variant TextVariant
}

// individualRules covers the Brazilian CNH/RG layout: labelled name line,
// dotted or space-separated CPF, labelled or bare birth date.
var individualRules = []Rule{
	{
		Field:   FieldName,
		Pattern: regexp.MustCompile(`(?i)NOME(?:\s+COMPLETO)?[ \t]*:?\n+([^\n]+)`),
		Variant: VariantRaw,
	},
	{
		Field:   FieldName,
		Pattern: regexp.MustCompile(`(?i)\bNOME(?:\s+COMPLETO)?\b[:\s]+([A-ZÀ-Ú][A-ZÀ-Ú ]{2,})`),
		Variant: VariantFlat,
	},
	{
		Field:   FieldTaxID,
		Pattern: regexp.MustCompile(`(\d{3}\.\d{3}\.\d{3}-\d{2})`),
		Variant: VariantFlat,
	},
	{
		Field:   FieldTaxID,
		Pattern: regexp.MustCompile(`(\d{3} \d{3} \d{3} \d{2})`),
		Variant: VariantFlat,
	},
	{
		Field:   FieldBirthDate,
		Pattern: regexp.MustCompile(`(?i)(?:DATA DE NASC\w*|DATA NASC\w*|NASCIMENTO)[:\s]*(\d{2}/\d{2}/\d{4})`),
		Variant: VariantFlat,
	},
	{
		Field:   FieldBirthDate,
		Pattern: regexp.MustCompile(`\b(\d{2}/\d{2}/(?:19|20)\d{2})\b`),
		Variant: VariantFlat,
	},
}

// companyRules covers registry card layouts: labelled legal name and a
// dotted or bare CNPJ.
var companyRules = []Rule{
	{
		Field:   FieldLegalName,
		Pattern: regexp.MustCompile(`(?i)RAZ[AÃ]O SOCIAL[ \t]*:?\n+([^\n]+)`),
		Variant: VariantRaw,
	},
	{
		Field:   FieldLegalName,
		Pattern: regexp.MustCompile(`(?i)\bRAZ[AÃ]O SOCIAL\b[:\s]+([A-ZÀ-Ú][A-ZÀ-Ú0-9 .&-]{2,})`),
		Variant: VariantFlat,
	},
	{
		Field:   FieldTaxID,
		Pattern: regexp.MustCompile(`(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})`),
		Variant: VariantFlat,
	},
	{
		Field:   FieldTaxID,
		Pattern: regexp.MustCompile(`\b(\d{14})\b`),
		Variant: VariantFlat,
	},
}

// nameNoiseTokens are CNH header fragments the OCR sometimes glues onto the
// captured name; they are stripped wherever they appear in the capture.
var nameNoiseTokens = []string{
	"HABILITAÇÃO",
	"HABILITACAO",
	"HABILITA",
	"CARTEIRA NACIONAL",
}

// nameTerminators end the name capture: RE2 has no lookahead, so the
// original pattern terminators become an explicit post-capture cut list.
var nameTerminators = []string{
	"NASCIMENTO",
	"FILIAÇÃO",
	"FILIACAO",
	"CPF",
	"DOC",
	"REGISTRO",
}
