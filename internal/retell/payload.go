// Package retell parses and verifies Retell AI webhook deliveries.
// See: https://docs.retellai.com/api-references
package retell

import (
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// Webhook event types delivered by Retell.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// KnownEvent reports whether event is one the pipeline handles. Unknown
// events are acknowledged without processing so Retell doesn't retry them.
func KnownEvent(event string) bool {
	switch event {
	case EventCallStarted, EventCallEnded, EventCallAnalyzed:
		return true
	}
	return false
}

// Call is the call object inside a Retell webhook payload.
type Call struct {
	CallID      string `json:"call_id"`
	AgentID     string `json:"agent_id,omitempty"`
	RetellLLMID string `json:"retell_llm_id,omitempty"`
	LLMID       string `json:"llm_id,omitempty"`

	CallType   string `json:"call_type,omitempty"`
	CallStatus string `json:"call_status,omitempty"`
	FromNumber string `json:"from_number,omitempty"`
	ToNumber   string `json:"to_number,omitempty"`

	// Epoch milliseconds.
	StartTimestamp int64 `json:"start_timestamp,omitempty"`
	EndTimestamp   int64 `json:"end_timestamp,omitempty"`
	DurationMs     int64 `json:"duration_ms,omitempty"`

	DisconnectionReason string `json:"disconnection_reason,omitempty"`
	Transcript          string `json:"transcript,omitempty"`
	RecordingURL        string `json:"recording_url,omitempty"`

	RetellLLMDynamicVariables map[string]interface{} `json:"retell_llm_dynamic_variables,omitempty"`
	CallAnalysis              *CallAnalysis          `json:"call_analysis,omitempty"`
}

// CallAnalysis is Retell's post-call analysis block, present only on
// call_analyzed events.
type CallAnalysis struct {
	CallSummary        string                 `json:"call_summary,omitempty"`
	UserSentiment      string                 `json:"user_sentiment,omitempty"`
	CallSuccessful     *bool                  `json:"call_successful,omitempty"`
	CustomAnalysisData map[string]interface{} `json:"custom_analysis_data,omitempty"`
}

// Webhook is a parsed, normalized webhook delivery.
type Webhook struct {
	Event string
	Call  *Call

	// AgentID is the provider agent identifier, normalized from whichever
	// of agent_id, retell_llm_id, or llm_id the payload carried.
	AgentID string
}

// ParsePayload parses a raw webhook body. Some Retell configurations wrap
// the call object in a "call" field, others send it at the top level; both
// shapes are accepted. A missing call_id is a client error.
func ParsePayload(body []byte) (*Webhook, error) {
	var envelope struct {
		Event string          `json:"event"`
		Call  json.RawMessage `json:"call"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.PayloadMalformed(err)
	}

	raw := []byte(envelope.Call)
	if len(raw) == 0 || string(raw) == "null" {
		raw = body
	}

	call := &Call{}
	if err := json.Unmarshal(raw, call); err != nil {
		return nil, apperrors.PayloadMalformed(err)
	}

	if strings.TrimSpace(call.CallID) == "" {
		return nil, apperrors.MissingField("call_id")
	}

	return &Webhook{
		Event:   envelope.Event,
		Call:    call,
		AgentID: normalizeAgentID(call),
	}, nil
}

// normalizeAgentID picks the agent identifier from the field variants
// different Retell agent versions populate.
func normalizeAgentID(call *Call) string {
	for _, id := range []string{call.AgentID, call.RetellLLMID, call.LLMID} {
		if strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

// StartedAt converts the start timestamp to UTC, or nil when absent.
func (c *Call) StartedAt() *time.Time {
	return msToTime(c.StartTimestamp)
}

// EndedAt converts the end timestamp to UTC, or nil when absent.
func (c *Call) EndedAt() *time.Time {
	return msToTime(c.EndTimestamp)
}

// DurationSeconds derives the call duration in seconds, preferring the
// explicit duration_ms field over the timestamp delta. Returns nil when
// neither is available.
func (c *Call) DurationSeconds() *int {
	if c.DurationMs > 0 {
		secs := int((c.DurationMs + 999) / 1000)
		return &secs
	}
	if c.StartTimestamp > 0 && c.EndTimestamp > c.StartTimestamp {
		secs := int((c.EndTimestamp - c.StartTimestamp) / 1000)
		return &secs
	}
	return nil
}

func msToTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
