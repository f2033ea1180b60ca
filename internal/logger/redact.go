package logger

import "strings"

const redactedEmail = "***@***"

// RedactEmail masks the recipient part of an address before it reaches the
// logs: "élodie@example.com" becomes "él***@example.com". Local parts of two
// runes or fewer are masked entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return redactedEmail
	}
	runes := []rune(local)
	if len(runes) <= 2 {
		return "***@" + domain
	}
	return string(runes[:2]) + "***@" + domain
}
