package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the lifecycle state of a support ticket.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// Service types assigned by call analysis.
const (
	ServiceTypeSales           = "Sales"
	ServiceTypeCustomerService = "Customer Service"
)

// Ticket represents a support/outreach case tied to a customer. Outbound
// calls create tickets; inbound calls create leads.
type Ticket struct {
	ID          uuid.UUID    `json:"id"`
	CompanyID   uuid.UUID    `json:"company_id"`
	CustomerID  uuid.UUID    `json:"customer_id"`
	Status      TicketStatus `json:"status"`
	Source      string       `json:"source"`
	Type        string       `json:"type"`
	Direction   CallDirection `json:"call_direction"`
	ServiceType *string      `json:"service_type,omitempty"`
	PestType    *string      `json:"pest_type,omitempty"`

	// Description is an append-only audit trail, mirroring Lead.Comments.
	Description string `json:"description"`

	Archived bool `json:"archived"`

	// Conversion linkage. A ticket converts to at most one lead and at
	// most one support case; the first conversion stamps ConvertedAt.
	ConvertedToLeadID        *uuid.UUID `json:"converted_to_lead_id,omitempty"`
	ConvertedToSupportCaseID *uuid.UUID `json:"converted_to_support_case_id,omitempty"`
	ConvertedAt              *time.Time `json:"converted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOutboundCallTicket creates the ticket opened (already closed) for an
// outbound call campaign touch.
func NewOutboundCallTicket(companyID, customerID uuid.UUID, startedAt time.Time) *Ticket {
	now := time.Now().UTC()
	return &Ticket{
		ID:          uuid.New(),
		CompanyID:   companyID,
		CustomerID:  customerID,
		Status:      TicketStatusClosed,
		Source:      LeadSourceColdCall,
		Type:        LeadTypePhoneCall,
		Direction:   DirectionOutbound,
		Description: fmt.Sprintf("📞 Outbound call started at %s", startedAt.UTC().Format(time.RFC3339)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AppendNote adds a note to the ticket's audit trail.
func (t *Ticket) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if t.Description == "" {
		t.Description = note
	} else {
		t.Description = t.Description + "\n" + note
	}
	t.UpdatedAt = time.Now().UTC()
}

// ApplyServiceType sets the service type from the AI qualification signal.
// Qualified conversations are sales opportunities; unqualified are routed to
// customer service. An unknown signal leaves the field untouched.
func (t *Ticket) ApplyServiceType(qualified Signal) {
	switch qualified {
	case SignalTrue:
		st := ServiceTypeSales
		t.ServiceType = &st
		t.AppendNote("✅ AI Qualification: QUALIFIED - Sales opportunity")
	case SignalFalse:
		st := ServiceTypeCustomerService
		t.ServiceType = &st
		t.AppendNote("❌ AI Qualification: UNQUALIFIED - Routed to customer service")
	}
}

// ResolveFollowUp applies the post-analysis disposition: transferred or
// action-required calls reopen the ticket for a human; everything else is
// closed and archived.
func (t *Ticket) ResolveFollowUp(actionRequired Signal, disconnectReason string) {
	transferred := disconnectReason == DisconnectCallTransfer
	required, known := actionRequired.Bool()

	switch {
	case transferred:
		t.Status = TicketStatusNew
		t.Archived = false
		t.AppendNote("📞 Call Transferred: Ticket reopened for transfer follow-up")
	case known && required:
		t.Status = TicketStatusNew
		t.Archived = false
		t.AppendNote("🔄 Action Required: TRUE - Ticket reopened for follow-up")
	case known && !required:
		t.Status = TicketStatusClosed
		t.Archived = true
		t.AppendNote("🔒 Action Required: FALSE - Ticket closed and archived")
	default:
		t.Status = TicketStatusClosed
		t.Archived = true
		t.AppendNote("📞 Outbound Call: No action required - Ticket closed and archived")
	}
	t.UpdatedAt = time.Now().UTC()
}

// NeedsFollowUp reports whether the ticket was reopened for a human.
func (t *Ticket) NeedsFollowUp() bool {
	return t.Status == TicketStatusNew && !t.Archived
}

// ConvertToLead builds a lead from this ticket and marks the ticket
// converted. The caller persists both within one transaction.
func (t *Ticket) ConvertToLead() *Lead {
	now := time.Now().UTC()
	lead := &Lead{
		ID:         uuid.New(),
		CompanyID:  t.CompanyID,
		CustomerID: t.CustomerID,
		Source:     LeadSourceTicket,
		Type:       t.Type,
		Status:     LeadStatusNew,
		Priority:   LeadPriorityMedium,
		Comments:   t.Description,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.ConvertedToLeadID = &lead.ID
	t.markConverted(now)
	return lead
}

// ConvertToSupportCase builds a support case from this ticket and marks
// the ticket converted. The caller persists both within one transaction.
func (t *Ticket) ConvertToSupportCase() *SupportCase {
	now := time.Now().UTC()
	sc := &SupportCase{
		ID:          uuid.New(),
		CompanyID:   t.CompanyID,
		CustomerID:  t.CustomerID,
		TicketID:    t.ID,
		Status:      SupportCaseStatusNew,
		ServiceType: t.ServiceType,
		PestType:    t.PestType,
		Description: t.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.ConvertedToSupportCaseID = &sc.ID
	t.markConverted(now)
	return sc
}

func (t *Ticket) markConverted(now time.Time) {
	if t.ConvertedAt == nil {
		t.ConvertedAt = &now
	}
	t.Status = TicketStatusClosed
	t.Archived = true
	t.UpdatedAt = now
}

// TicketListFilter defines optional filters for listing tickets.
type TicketListFilter struct {
	Status   *TicketStatus
	Archived *bool
	Search   string
}

// HasFilters returns true if any filter fields are set.
func (f *TicketListFilter) HasFilters() bool {
	if f == nil {
		return false
	}
	if f.Status != nil || f.Archived != nil {
		return true
	}
	return strings.TrimSpace(f.Search) != ""
}
