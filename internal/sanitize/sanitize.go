// Package sanitize masks caller PII and credentials before they reach logs
// or metrics labels. Call transcripts and summaries routinely contain phone
// numbers and email addresses spoken by the caller, so free text passes
// through Text before being logged.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	phonePattern  = regexp.MustCompile(`\+?[1-9]\d{6,14}`)
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[\w.-]+`)
	secretPattern = regexp.MustCompile(`(?i)(secret|token|password|api[_-]?key)[=:\s"']*([\w-]{16,})`)
)

// Phone masks a phone number, keeping the prefix and the last two digits.
func Phone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return PartialMask(phone, 3, 2)
}

// Email masks the local part of an email address.
func Email(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "[email]"
	}
	if at <= 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}

// Secret masks a credential, keeping just enough to correlate with a config.
func Secret(key string) string {
	if len(key) <= 8 {
		return "[REDACTED]"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// PartialMask masks the middle of a string, keeping the first keepStart and
// last keepEnd characters.
func PartialMask(s string, keepStart, keepEnd int) string {
	if len(s) <= keepStart+keepEnd {
		return strings.Repeat("*", len(s))
	}
	return s[:keepStart] + strings.Repeat("*", len(s)-keepStart-keepEnd) + s[len(s)-keepEnd:]
}

// ID partially masks an identifier such as a provider call id, showing the
// first and last four characters.
func ID(id string) string {
	return PartialMask(id, 4, 4)
}

// Text scrubs phones, emails, bearer tokens, and credential-looking pairs
// from free-form text such as transcripts and error messages.
func Text(input string) string {
	result := phonePattern.ReplaceAllStringFunc(input, Phone)
	result = emailPattern.ReplaceAllStringFunc(result, Email)
	result = bearerPattern.ReplaceAllString(result, "Bearer [REDACTED]")
	result = secretPattern.ReplaceAllStringFunc(result, func(match string) string {
		parts := secretPattern.FindStringSubmatch(match)
		if len(parts) >= 3 {
			return strings.TrimSuffix(match, parts[2]) + "[REDACTED]"
		}
		return "[REDACTED]"
	})
	return result
}

// Error scrubs an error message the same way as Text.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return Text(err.Error())
}
