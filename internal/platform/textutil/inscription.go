package textutil

import (
	"errors"
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// ErrDisallowedContent is returned when an inscription contains markup or control characters.
var ErrDisallowedContent = errors.New("inscription contains disallowed content")

// InscriptionPolicy screens free-text values destined for ribbon printing and
// condolence cards. Values are NFC-normalised before inspection so composed and
// decomposed forms of the same text are treated identically.
type InscriptionPolicy struct {
	sanitizer *bluemonday.Policy
}

// NewInscriptionPolicy builds the strict policy used for printable text: no HTML
// of any kind survives sanitisation.
func NewInscriptionPolicy() *InscriptionPolicy {
	return &InscriptionPolicy{sanitizer: bluemonday.StrictPolicy()}
}

// Normalize returns the NFC-normalised form of the value with surrounding
// whitespace removed.
func (p *InscriptionPolicy) Normalize(value string) string {
	return strings.TrimSpace(norm.NFC.String(value))
}

// ValidateText implements the text screening contract used by the validation
// engine. It rejects values carrying HTML markup or non-printable characters.
func (p *InscriptionPolicy) ValidateText(value string) error {
	if p == nil || p.sanitizer == nil {
		return errors.New("inscription policy not initialised")
	}

	normalized := p.Normalize(value)
	if normalized == "" {
		return nil
	}

	for _, r := range normalized {
		if unicode.IsControl(r) {
			return ErrDisallowedContent
		}
	}

	// The sanitizer entity-escapes plain text, so unescape before comparing:
	// inscriptions like "Mum & Dad" survive while markup is stripped.
	if html.UnescapeString(p.sanitizer.Sanitize(normalized)) != normalized {
		return ErrDisallowedContent
	}
	return nil
}
