// Package fieldrules defines the provider-specific identifier fields the
// deposit flow collects, their presentation metadata, and their format
// validators. All functions are pure; validation failures are returned as
// messages, never as panics, so handlers can surface them inline.
package fieldrules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// Field identifies a provider-specific identifier field
type Field string

const (
	FieldPaparaID     Field = "papara_id"
	FieldParatimID    Field = "paratim_id"
	FieldPayCoID      Field = "pay_co_id"
	FieldPepID        Field = "pep_id"
	FieldPayfixNumber Field = "payfix_number"
	FieldTCNumber     Field = "tc_number"
	FieldIBAN         Field = "iban"
	FieldCryptoType   Field = "crypto_type"
)

// Spec carries the presentation metadata for a field
type Spec struct {
	Label       string
	Placeholder string
	MaxLength   int
}

var fieldSpecs = map[Field]Spec{
	FieldPaparaID:     {Label: "Papara Number", Placeholder: "10-digit Papara number", MaxLength: 10},
	FieldParatimID:    {Label: "Paratim ID", Placeholder: "10-digit Paratim ID", MaxLength: 10},
	FieldPayCoID:      {Label: "PayCo ID", Placeholder: "10-digit ID or e-mail address", MaxLength: 64},
	FieldPepID:        {Label: "Pep ID", Placeholder: "9-digit Pep ID", MaxLength: 9},
	FieldPayfixNumber: {Label: "Payfix Number", Placeholder: "11-digit Payfix number", MaxLength: 11},
	FieldTCNumber:     {Label: "TC Identity Number", Placeholder: "11-digit identity number", MaxLength: 11},
	FieldIBAN:         {Label: "IBAN", Placeholder: "TR followed by 24 digits", MaxLength: 26},
	FieldCryptoType:   {Label: "Crypto Currency", Placeholder: "e.g. USDT", MaxLength: 10},
}

var defaultSpec = Spec{Label: "Account ID", Placeholder: "Account identifier", MaxLength: 20}

// methodFields maps each supported method to the identifier field it
// collects. Methods without an entry collect none.
var methodFields = map[entities.MethodID]Field{
	entities.MethodPapara:     FieldPaparaID,
	entities.MethodParatim:    FieldParatimID,
	entities.MethodPayCo:      FieldPayCoID,
	entities.MethodPep:        FieldPepID,
	entities.MethodPayfix:     FieldPayfixNumber,
	entities.MethodKrediKarti: FieldTCNumber,
	entities.MethodHavale:     FieldIBAN,
	entities.MethodCrypto:     FieldCryptoType,
}

// generatableFields are the numeric-id fields a synthetic placeholder
// can stand in for. IBANs and crypto tickers have non-numeric formats
// the generator cannot produce, and the TC identity number is always
// the player's real one.
var generatableFields = map[Field]bool{
	FieldPaparaID:     true,
	FieldParatimID:    true,
	FieldPayCoID:      true,
	FieldPepID:        true,
	FieldPayfixNumber: true,
}

var (
	tenDigits    = regexp.MustCompile(`^[0-9]{10}$`)
	nineDigits   = regexp.MustCompile(`^[0-9]{9}$`)
	elevenDigits = regexp.MustCompile(`^[0-9]{11}$`)
	trIBAN       = regexp.MustCompile(`^TR[0-9]{24}$`)
	emailShape   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cryptoTicker = regexp.MustCompile(`^[A-Z]{3,10}$`)
)

// SpecFor returns the presentation metadata for a field, falling back
// to a generic spec for unknown fields.
func SpecFor(field Field) Spec {
	if spec, ok := fieldSpecs[field]; ok {
		return spec
	}
	return defaultSpec
}

// Generatable reports whether a synthetic identifier may be seeded for
// the field when the player left it blank.
func Generatable(field Field) bool {
	return generatableFields[field]
}

// FieldFor returns the identifier field a method collects, if any
func FieldFor(method entities.MethodID) (Field, bool) {
	f, ok := methodFields[method]
	return f, ok
}

// Validate checks value against the field's format rule and returns a
// user-facing message, or "" when the value is acceptable.
func Validate(field Field, value string) string {
	spec := SpecFor(field)
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Sprintf("%s is required", spec.Label)
	}

	switch field {
	case FieldPaparaID, FieldParatimID:
		if !tenDigits.MatchString(trimmed) {
			return fmt.Sprintf("%s must be exactly 10 digits", spec.Label)
		}
	case FieldPayCoID:
		// Numeric PayCo ids are 10 digits; an e-mail address is also accepted.
		if !tenDigits.MatchString(trimmed) && !emailShape.MatchString(trimmed) {
			return fmt.Sprintf("%s must be a 10-digit number or a valid e-mail address", spec.Label)
		}
	case FieldPepID:
		if !nineDigits.MatchString(trimmed) {
			return fmt.Sprintf("%s must be exactly 9 digits", spec.Label)
		}
	case FieldPayfixNumber, FieldTCNumber:
		if !elevenDigits.MatchString(trimmed) {
			return fmt.Sprintf("%s must be exactly 11 digits", spec.Label)
		}
	case FieldIBAN:
		compact := strings.ToUpper(strings.ReplaceAll(trimmed, " ", ""))
		if !trIBAN.MatchString(compact) {
			return fmt.Sprintf("%s must start with TR followed by 24 digits", spec.Label)
		}
	case FieldCryptoType:
		if !cryptoTicker.MatchString(trimmed) {
			return fmt.Sprintf("%s must be 3-10 uppercase letters", spec.Label)
		}
	}
	return ""
}
