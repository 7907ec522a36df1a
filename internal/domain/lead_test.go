package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCallLead(t *testing.T) {
	startedAt := time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)
	lead := NewCallLead(uuid.New(), uuid.New(), startedAt)

	if lead.Status != LeadStatusNew {
		t.Errorf("Status = %q, expected new", lead.Status)
	}
	if lead.Source != LeadSourceColdCall {
		t.Errorf("Source = %q", lead.Source)
	}
	if lead.Type != LeadTypePhoneCall {
		t.Errorf("Type = %q", lead.Type)
	}
	if lead.Priority != LeadPriorityMedium {
		t.Errorf("Priority = %q", lead.Priority)
	}
	expected := "📞 Inbound call started at 2025-03-14T15:04:05Z"
	if lead.Comments != expected {
		t.Errorf("Comments = %q, expected %q", lead.Comments, expected)
	}
}

func TestLead_AppendComment(t *testing.T) {
	lead := &Lead{}

	lead.AppendComment("first note")
	lead.AppendComment("  ") // blank, ignored
	lead.AppendComment("second note")

	expected := "first note\nsecond note"
	if lead.Comments != expected {
		t.Errorf("Comments = %q, expected %q", lead.Comments, expected)
	}
}

func TestLead_MarkContacted(t *testing.T) {
	at := time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		callCompleted  bool
		expectedStatus LeadStatus
	}{
		{name: "completed call qualifies", callCompleted: true, expectedStatus: LeadStatusQualified},
		{name: "other terminal call contacts", callCompleted: false, expectedStatus: LeadStatusContacted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := &Lead{Status: LeadStatusNew}
			lead.MarkContacted(at, tt.callCompleted)

			if lead.Status != tt.expectedStatus {
				t.Errorf("Status = %q, expected %q", lead.Status, tt.expectedStatus)
			}
			if lead.LastContactedAt == nil || !lead.LastContactedAt.Equal(at) {
				t.Errorf("LastContactedAt = %v, expected %v", lead.LastContactedAt, at)
			}
		})
	}
}

func TestLead_ApplyQualification(t *testing.T) {
	tests := []struct {
		name           string
		signal         Signal
		initialStatus  LeadStatus
		expectedStatus LeadStatus
		expectedNote   string
	}{
		{
			name:           "qualified resets to new",
			signal:         SignalTrue,
			initialStatus:  LeadStatusContacted,
			expectedStatus: LeadStatusNew,
			expectedNote:   "✅ AI Qualification: QUALIFIED",
		},
		{
			name:           "unqualified",
			signal:         SignalFalse,
			initialStatus:  LeadStatusContacted,
			expectedStatus: LeadStatusUnqualified,
			expectedNote:   "❌ AI Qualification: UNQUALIFIED",
		},
		{
			name:           "unknown leaves status",
			signal:         SignalUnknown,
			initialStatus:  LeadStatusContacted,
			expectedStatus: LeadStatusContacted,
			expectedNote:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := &Lead{Status: tt.initialStatus}
			lead.ApplyQualification(tt.signal)

			if lead.Status != tt.expectedStatus {
				t.Errorf("Status = %q, expected %q", lead.Status, tt.expectedStatus)
			}
			if tt.expectedNote == "" {
				if lead.Comments != "" {
					t.Errorf("Comments = %q, expected no note", lead.Comments)
				}
			} else if !strings.Contains(lead.Comments, tt.expectedNote) {
				t.Errorf("Comments = %q, expected to contain %q", lead.Comments, tt.expectedNote)
			}
		})
	}
}

func TestLead_ApplyLegacyOutcome(t *testing.T) {
	tests := []struct {
		name           string
		callSuccessful Signal
		isFollowUp     bool
		initialStatus  LeadStatus
		expectedStatus LeadStatus
	}{
		{name: "successful call qualifies", callSuccessful: SignalTrue, initialStatus: LeadStatusNew, expectedStatus: LeadStatusQualified},
		{name: "unsuccessful non-followup contacts", callSuccessful: SignalFalse, initialStatus: LeadStatusNew, expectedStatus: LeadStatusContacted},
		{name: "unknown non-followup contacts", callSuccessful: SignalUnknown, initialStatus: LeadStatusNew, expectedStatus: LeadStatusContacted},
		{name: "followup without success untouched", callSuccessful: SignalUnknown, isFollowUp: true, initialStatus: LeadStatusQualified, expectedStatus: LeadStatusQualified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := &Lead{Status: tt.initialStatus}
			lead.ApplyLegacyOutcome(tt.callSuccessful, tt.isFollowUp)
			if lead.Status != tt.expectedStatus {
				t.Errorf("Status = %q, expected %q", lead.Status, tt.expectedStatus)
			}
		})
	}
}

func TestAnalysisNote(t *testing.T) {
	if got := AnalysisNote("Caller has carpenter ants"); got != "📊 Call Analysis: Caller has carpenter ants" {
		t.Errorf("AnalysisNote() = %q", got)
	}
	if got := AnalysisNote("   "); got != "" {
		t.Errorf("AnalysisNote(blank) = %q, expected empty", got)
	}
}

func TestSignal(t *testing.T) {
	if v, known := SignalTrue.Bool(); !known || !v {
		t.Error("SignalTrue should be known true")
	}
	if v, known := SignalFalse.Bool(); !known || v {
		t.Error("SignalFalse should be known false")
	}
	if _, known := SignalUnknown.Bool(); known {
		t.Error("SignalUnknown should not be known")
	}
	if SignalFromBool(true) != SignalTrue || SignalFromBool(false) != SignalFalse {
		t.Error("SignalFromBool roundtrip failed")
	}
}
