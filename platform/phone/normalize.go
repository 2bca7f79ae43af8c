// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "ES"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	return format(input, phonenumbers.E164)
}

// International formats a phone number for display, e.g. "+34 612 34 56 78".
// Unparseable input is returned trimmed.
func International(input string) string {
	return format(input, phonenumbers.INTERNATIONAL)
}

func format(input string, style phonenumbers.PhoneNumberFormat) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, style)
}
