// Package validation checks webhook payload fields and normalizes the
// identifiers used for customer matching.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field error codes.
const (
	CodeRequired = "required"
	CodeFormat   = "invalid_format"
	CodeLength   = "too_long"
	CodeValue    = "invalid_value"
	CodeUnsafe   = "unsafe_content"
)

// FieldError describes one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors collects failed checks across a payload.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any check failed.
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Checker accumulates field checks. Failed checks append to the error list
// rather than aborting, so a response can report every bad field at once.
type Checker struct {
	errs Errors
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Errors returns the accumulated failures.
func (c *Checker) Errors() Errors {
	return c.errs
}

// OK reports whether every check so far passed.
func (c *Checker) OK() bool {
	return len(c.errs) == 0
}

func (c *Checker) fail(field, message, code string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: message, Code: code})
}

// Require fails when value is empty or whitespace.
func (c *Checker) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.fail(field, "is required", CodeRequired)
	}
}

// MaxRunes fails when value exceeds limit runes.
func (c *Checker) MaxRunes(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		c.fail(field, fmt.Sprintf("must be at most %d characters", limit), CodeLength)
	}
}

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// Phone fails when a non-empty value is not an E.164 phone number after
// punctuation is stripped.
func (c *Checker) Phone(field, value string) {
	if value == "" {
		return
	}
	stripped := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(value)
	if !phonePattern.MatchString(stripped) {
		c.fail(field, "must be a valid E.164 phone number", CodeFormat)
	}
}

var urlPattern = regexp.MustCompile(`^https?://[^\s/$.?#].\S*$`)

// HTTPURL fails when a non-empty value is not an http or https URL.
func (c *Checker) HTTPURL(field, value string) {
	if value == "" {
		return
	}
	if !urlPattern.MatchString(value) {
		c.fail(field, "must be an http(s) URL", CodeFormat)
	}
}

// PlainText fails on control characters (other than whitespace) and on
// embedded script fragments. Transcripts and names pass through to audit
// notes and email, so they are checked before anything is stored.
func (c *Checker) PlainText(field, value string) {
	lower := strings.ToLower(value)
	if strings.Contains(lower, "<script") || strings.Contains(lower, "javascript:") {
		c.fail(field, "contains script content", CodeUnsafe)
		return
	}
	for _, r := range value {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			c.fail(field, "contains control characters", CodeUnsafe)
			return
		}
	}
}

// WithinRange fails when value falls outside [low, high].
func (c *Checker) WithinRange(field string, value, low, high int) {
	if value < low || value > high {
		c.fail(field, fmt.Sprintf("must be between %d and %d", low, high), CodeValue)
	}
}

// Call payload ceilings.
const (
	maxCallIDRunes     = 256
	maxTranscriptRunes = 1 << 20
	maxURLRunes        = 2048
	maxCallSeconds     = 86400
)

// CallFields is the subset of a webhook call object subject to validation.
type CallFields struct {
	CallID          string
	FromNumber      string
	ToNumber        string
	Transcript      string
	RecordingURL    string
	DurationSeconds int
}

// CheckCall validates a webhook call object. The returned Errors is empty
// when every field passes.
func CheckCall(f CallFields) Errors {
	c := NewChecker()

	c.Require("call_id", f.CallID)
	c.MaxRunes("call_id", f.CallID, maxCallIDRunes)
	c.PlainText("call_id", f.CallID)

	c.Phone("from_number", f.FromNumber)
	c.Phone("to_number", f.ToNumber)

	c.MaxRunes("transcript", f.Transcript, maxTranscriptRunes)
	c.PlainText("transcript", f.Transcript)

	c.HTTPURL("recording_url", f.RecordingURL)
	c.MaxRunes("recording_url", f.RecordingURL, maxURLRunes)

	c.WithinRange("duration", f.DurationSeconds, 0, maxCallSeconds)

	return c.Errors()
}

// CleanText strips null bytes, replaces stray control characters with
// spaces, and trims the result. Used on CSV import fields before they reach
// customer records.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NormalizePhone normalizes a phone number to E.164 format for customer
// lookup. All punctuation and spacing is stripped; bare 10-digit numbers
// are treated as US/Canada. A leading + is preserved so international
// numbers pass through untouched.
func NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return ""
	}

	hasPlus := strings.HasPrefix(trimmed, "+")
	digits := strings.Builder{}
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	result := digits.String()
	if result == "" {
		return ""
	}

	switch {
	case hasPlus:
		return "+" + result
	case len(result) == 10:
		return "+1" + result
	case len(result) == 11 && result[0] == '1':
		return "+" + result
	default:
		return "+1" + result
	}
}
