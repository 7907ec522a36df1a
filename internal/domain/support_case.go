package domain

import (
	"time"

	"github.com/google/uuid"
)

// SupportCaseStatus represents the lifecycle state of a support case.
type SupportCaseStatus string

const (
	SupportCaseStatusNew      SupportCaseStatus = "new"
	SupportCaseStatusOpen     SupportCaseStatus = "open"
	SupportCaseStatusResolved SupportCaseStatus = "resolved"
)

// SupportCase is the customer-service track a ticket converts into when a
// call turns out not to be a sales opportunity. It keeps a back-pointer to
// the originating ticket.
type SupportCase struct {
	ID         uuid.UUID         `json:"id"`
	CompanyID  uuid.UUID         `json:"company_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	TicketID   uuid.UUID         `json:"ticket_id"`
	Status     SupportCaseStatus `json:"status"`

	ServiceType *string `json:"service_type,omitempty"`
	PestType    *string `json:"pest_type,omitempty"`

	// Description carries over the ticket's audit trail.
	Description string `json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
