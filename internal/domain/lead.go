package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadStatus represents where a lead sits in the sales funnel.
type LeadStatus string

// Funnel order: new, in_process, quoted, scheduling, then won or lost.
// contacted, qualified, and unqualified are call-outcome markers set by
// the pipeline before a human works the lead.
const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusUnqualified LeadStatus = "unqualified"
	LeadStatusInProcess   LeadStatus = "in_process"
	LeadStatusQuoted      LeadStatus = "quoted"
	LeadStatusScheduling  LeadStatus = "scheduling"
	LeadStatusWon         LeadStatus = "won"
	LeadStatusLost        LeadStatus = "lost"
)

// Lead source, type, and priority values used by the call pipeline.
const (
	LeadSourceColdCall  = "cold_call"
	LeadSourceWidget    = "widget"
	LeadSourceCSVImport = "csv_import"
	LeadSourceTicket    = "ticket"

	LeadTypePhoneCall = "phone_call"
	LeadTypeWebForm   = "web_form"

	LeadPriorityLow    = "low"
	LeadPriorityMedium = "medium"
	LeadPriorityHigh   = "high"
)

// Lead represents a sales opportunity tied to a customer.
type Lead struct {
	ID         uuid.UUID  `json:"id"`
	CompanyID  uuid.UUID  `json:"company_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	Source     string     `json:"lead_source"`
	Type       string     `json:"lead_type"`
	Status     LeadStatus `json:"lead_status"`
	Priority   string     `json:"priority"`

	// Comments is an append-only audit trail of call outcomes and
	// qualification decisions.
	Comments string `json:"comments"`

	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewCallLead creates a lead for a freshly started inbound call.
func NewCallLead(companyID, customerID uuid.UUID, startedAt time.Time) *Lead {
	now := time.Now().UTC()
	return &Lead{
		ID:         uuid.New(),
		CompanyID:  companyID,
		CustomerID: customerID,
		Source:     LeadSourceColdCall,
		Type:       LeadTypePhoneCall,
		Status:     LeadStatusNew,
		Priority:   LeadPriorityMedium,
		Comments:   fmt.Sprintf("📞 Inbound call started at %s", startedAt.UTC().Format(time.RFC3339)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AppendComment adds a note to the lead's audit trail.
func (l *Lead) AppendComment(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if l.Comments == "" {
		l.Comments = note
	} else {
		l.Comments = l.Comments + "\n" + note
	}
	l.UpdatedAt = time.Now().UTC()
}

// MarkContacted records a completed conversation. A call that reached the
// completed state promotes the lead straight to qualified.
func (l *Lead) MarkContacted(at time.Time, callCompleted bool) {
	t := at.UTC()
	l.LastContactedAt = &t
	if callCompleted {
		l.Status = LeadStatusQualified
	} else {
		l.Status = LeadStatusContacted
	}
	l.UpdatedAt = time.Now().UTC()
}

// ApplyQualification applies the AI qualification signal from call analysis.
// An unknown signal leaves the status untouched.
func (l *Lead) ApplyQualification(qualified Signal) {
	switch qualified {
	case SignalTrue:
		l.Status = LeadStatusNew
		l.AppendComment("✅ AI Qualification: QUALIFIED - Ready for follow-up")
	case SignalFalse:
		l.Status = LeadStatusUnqualified
		l.AppendComment("❌ AI Qualification: UNQUALIFIED - Not a sales opportunity")
	}
}

// AnalysisNote renders the summary note appended after call analysis.
func AnalysisNote(summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return ""
	}
	return "📊 Call Analysis: " + summary
}

// ApplyLegacyOutcome applies the generic-route qualification rule, which
// keys off call_successful instead of the analysis qualification flag.
func (l *Lead) ApplyLegacyOutcome(callSuccessful Signal, isFollowUp bool) {
	if v, known := callSuccessful.Bool(); known && v {
		l.Status = LeadStatusQualified
		return
	}
	if !isFollowUp {
		l.Status = LeadStatusContacted
	}
}

// LeadListFilter defines optional filters for listing leads.
type LeadListFilter struct {
	Status *LeadStatus
	Search string
}

// HasFilters returns true if any filter fields are set.
func (f *LeadListFilter) HasFilters() bool {
	if f == nil {
		return false
	}
	if f.Status != nil {
		return true
	}
	return strings.TrimSpace(f.Search) != ""
}
