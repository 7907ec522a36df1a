package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CompanySetting represents a single per-tenant configuration setting.
type CompanySetting struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Setting keys (defined as constants to avoid typos)
const (
	SettingKeySummaryEmailsEnabled   = "call_summary_emails_enabled"
	SettingKeySummaryEmailRecipients = "call_summary_email_recipients"
)

// NotificationSettings holds the notification-related settings for one
// company as typed values.
type NotificationSettings struct {
	SummaryEmailsEnabled   bool
	SummaryEmailRecipients []string
}

// NewNotificationSettingsFromMap creates NotificationSettings from a map of
// setting key -> value. Emails are only sent when the enabled flag is the
// literal string "true" and at least one recipient is configured.
func NewNotificationSettingsFromMap(settings map[string]string) *NotificationSettings {
	ns := &NotificationSettings{}

	if v, ok := settings[SettingKeySummaryEmailsEnabled]; ok {
		ns.SummaryEmailsEnabled = strings.TrimSpace(v) == "true"
	}
	if v, ok := settings[SettingKeySummaryEmailRecipients]; ok {
		ns.SummaryEmailRecipients = parseStringList(v)
	}

	return ns
}

// ShouldSendSummaryEmails reports whether call-summary email dispatch is
// enabled and deliverable for this company.
func (ns *NotificationSettings) ShouldSendSummaryEmails() bool {
	return ns.SummaryEmailsEnabled && len(ns.SummaryEmailRecipients) > 0
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
