package utils

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	scriptRegex   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	phoneStripper = regexp.MustCompile(`[^\d+]`)
)

// SanitizeInput trims the value and drops script blocks and control characters.
// Line breaks survive so multi-line messages stay readable in mail bodies.
func SanitizeInput(input string) string {
	input = scriptRegex.ReplaceAllString(strings.TrimSpace(input), "")
	return strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

// SanitizePhone keeps digits and a leading plus
func SanitizePhone(phone string) (string, error) {
	phone = phoneStripper.ReplaceAllString(strings.TrimSpace(phone), "")
	if i := strings.LastIndex(phone, "+"); i > 0 {
		return "", errors.New("invalid phone number")
	}
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return "", errors.New("invalid phone number length")
	}
	return phone, nil
}
