package otp

import (
	"regexp"
	"strings"

	pkgerrors "github.com/vavipcommerce/vavip-backend/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+[0-9]{10,15}$`)

// NormalizePhone strips formatting characters and canonicalizes the number
// to E.164. Russian numbers written with a leading 8 are rewritten to +7.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return "", pkgerrors.New(pkgerrors.CodePhoneRequired, "phone is required")
	}

	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "8") {
		cleaned = "+7" + cleaned[1:]
	}
	if !strings.HasPrefix(cleaned, "+") && isDigits(cleaned) {
		cleaned = "+" + cleaned
	}

	if !phonePattern.MatchString(cleaned) {
		return "", pkgerrors.New(pkgerrors.CodePhoneInvalid, "phone number is invalid")
	}
	return cleaned, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
