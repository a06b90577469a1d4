// Package phone normalizes Brazilian phone numbers and builds the WhatsApp
// deep links the pipeline cards use.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "BR"

// NormalizeBR parses a Brazilian phone number in any common notation and
// returns it in E.164 ("+5511999990000").
func NormalizeBR(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}

	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number: %s", raw)
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// IsMobileBR reports whether the number is a Brazilian mobile line, the only
// kind WhatsApp links are useful for.
func IsMobileBR(raw string) bool {
	parsed, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return false
	}

	switch phonenumbers.GetNumberType(parsed) {
	case phonenumbers.MOBILE, phonenumbers.FIXED_LINE_OR_MOBILE:
		return true
	default:
		return false
	}
}

// WhatsAppLink returns the wa.me deep link for the number, or an error when
// the number cannot be normalized.
func WhatsAppLink(raw string) (string, error) {
	e164, err := NormalizeBR(raw)
	if err != nil {
		return "", err
	}
	return "https://wa.me/" + strings.TrimPrefix(e164, "+"), nil
}
