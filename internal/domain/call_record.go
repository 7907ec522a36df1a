// Package domain contains the core business entities and interfaces.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CallDirection identifies which pipeline handles a call.
type CallDirection string

const (
	DirectionInbound  CallDirection = "inbound"
	DirectionOutbound CallDirection = "outbound"
)

// CallRecordStatus represents the status of a call record.
// Values match the provider's wire format.
type CallRecordStatus string

const (
	CallRecordStatusInProgress   CallRecordStatus = "in-progress"
	CallRecordStatusCompleted    CallRecordStatus = "completed"
	CallRecordStatusNotConnected CallRecordStatus = "not_connected"
	CallRecordStatusFailed       CallRecordStatus = "failed"
)

// Disconnect reasons that count as a successfully connected conversation.
const (
	DisconnectUserHangup   = "user_hangup"
	DisconnectAgentHangup  = "agent_hangup"
	DisconnectCallTransfer = "call_transfer"
)

// BillableDuration rounds a call duration in seconds up to the next 30-second
// increment. Calls with missing or non-positive duration bill the 30-second
// minimum.
func BillableDuration(durationSeconds *int) int {
	if durationSeconds == nil || *durationSeconds <= 0 {
		return 30
	}
	return ((*durationSeconds + 29) / 30) * 30
}

// IsSuccessfulDisconnect reports whether the disconnect reason indicates a
// conversation actually took place (as opposed to voicemail, dial failure, etc).
func IsSuccessfulDisconnect(reason string) bool {
	switch reason {
	case DisconnectUserHangup, DisconnectAgentHangup, DisconnectCallTransfer:
		return true
	}
	return false
}

// CallRecord represents a single provider call reconciled against the CRM.
// Exactly one of LeadID (inbound) or TicketID (outbound) is set.
type CallRecord struct {
	ID             uuid.UUID     `json:"id"`
	CallID         string        `json:"call_id"` // Provider call ID, unique
	CompanyID      uuid.UUID     `json:"company_id"`
	CustomerID     *uuid.UUID    `json:"customer_id,omitempty"`
	LeadID         *uuid.UUID    `json:"lead_id,omitempty"`
	TicketID       *uuid.UUID    `json:"ticket_id,omitempty"`
	ParentCallID   *string       `json:"parent_call_id,omitempty"` // Provider ID of the first call in a follow-up chain
	Direction      CallDirection `json:"direction"`

	FromNumber string           `json:"from_number"`
	ToNumber   string           `json:"to_number"`
	Status     CallRecordStatus `json:"call_status"`

	StartTimestamp          *time.Time `json:"start_timestamp,omitempty"`
	EndTimestamp            *time.Time `json:"end_timestamp,omitempty"`
	DurationSeconds         *int       `json:"duration_seconds,omitempty"`
	BillableDurationSeconds *int       `json:"billable_duration_seconds,omitempty"`
	DisconnectReason        *string    `json:"disconnect_reason,omitempty"`

	Transcript   *string `json:"transcript,omitempty"`
	RecordingURL *string `json:"recording_url,omitempty"`
	Sentiment    *string `json:"sentiment,omitempty"`
	Summary      *string `json:"summary,omitempty"`

	// Structured fields extracted from the conversation.
	PestIssue               *string `json:"pest_issue,omitempty"`
	StreetAddress           *string `json:"street_address,omitempty"`
	HomeSize                *string `json:"home_size,omitempty"`
	YardSize                *string `json:"yard_size,omitempty"`
	DecisionMaker           *string `json:"decision_maker,omitempty"`
	PreferredServiceTime    *string `json:"preferred_service_time,omitempty"`
	ContactedOtherCompanies bool    `json:"contacted_other_companies"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCallRecord creates a call record in the in-progress state.
func NewCallRecord(callID string, companyID uuid.UUID, direction CallDirection, from, to string) *CallRecord {
	now := time.Now().UTC()
	return &CallRecord{
		ID:         uuid.New(),
		CallID:     callID,
		CompanyID:  companyID,
		Direction:  direction,
		FromNumber: from,
		ToNumber:   to,
		Status:     CallRecordStatusInProgress,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsTerminal returns true if the call has reached a final state.
func (c *CallRecord) IsTerminal() bool {
	return c.Status == CallRecordStatusCompleted ||
		c.Status == CallRecordStatusNotConnected ||
		c.Status == CallRecordStatusFailed
}

// Duration returns the call duration as a time.Duration.
func (c *CallRecord) Duration() time.Duration {
	if c.DurationSeconds == nil {
		return 0
	}
	return time.Duration(*c.DurationSeconds) * time.Second
}

// FormattedDuration returns the duration as a human-readable string.
func (c *CallRecord) FormattedDuration() string {
	d := c.Duration()
	if d == 0 {
		return "-"
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// OutcomeNote renders the audit line appended to a lead's comments or a
// ticket's description when the call ends.
func (c *CallRecord) OutcomeNote(at time.Time) string {
	label := "Inbound"
	if c.Direction == DirectionOutbound {
		label = "Outbound"
	}
	note := fmt.Sprintf("📞 %s call on %s - Status: %s", label, at.Format("2006-01-02"), c.Status)
	if c.DisconnectReason != nil && *c.DisconnectReason != "" {
		note += fmt.Sprintf(" (%s)", *c.DisconnectReason)
	}
	return note
}

// CallRecordListFilter defines optional filters for listing call records.
type CallRecordListFilter struct {
	Status    *CallRecordStatus
	Direction *CallDirection
	Search    string
}

// HasFilters returns true if any filter fields are set.
func (f *CallRecordListFilter) HasFilters() bool {
	if f == nil {
		return false
	}
	if f.Status != nil || f.Direction != nil {
		return true
	}
	return strings.TrimSpace(f.Search) != ""
}
