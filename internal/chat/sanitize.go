package chat

import (
	"regexp"
	"strings"
)

const (
	MaxMessageLen  = 1000
	sanitizedLimit = 2000
)

var (
	angleRe      = regexp.MustCompile(`[<>]`)
	jsSchemeRe   = regexp.MustCompile(`(?i)javascript:`)
	inlineAttrRe = regexp.MustCompile(`(?i)on\w+=`)

	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	cardRe  = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	ssnRe   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
	phoneRe = regexp.MustCompile(`(\+?1[-.]?)?\(?[0-9]{3}\)?[-.]?[0-9]{3}[-.]?[0-9]{4}`)
)

// SanitizeInput strips markup and inline script vectors, trims, and caps the
// result at 2000 characters.
func SanitizeInput(s string) string {
	s = angleRe.ReplaceAllString(s, "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = inlineAttrRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > sanitizedLimit {
		s = string(r[:sanitizedLimit])
	}
	return s
}

// MaskPII replaces emails, card numbers, SSNs and phone numbers before text
// reaches the logs. Cards and SSNs go first so the phone pattern cannot eat
// part of them.
func MaskPII(s string) string {
	s = emailRe.ReplaceAllString(s, "[EMAIL]")
	s = cardRe.ReplaceAllString(s, "[CC]")
	s = ssnRe.ReplaceAllString(s, "[SSN]")
	s = phoneRe.ReplaceAllString(s, "[PHONE]")
	return s
}

func preview(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
