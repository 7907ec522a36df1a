package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CallRecordRepository defines the interface for call record persistence.
type CallRecordRepository interface {
	// Create inserts a new call record.
	Create(ctx context.Context, record *CallRecord) error

	// GetByID retrieves a record by its internal ID.
	GetByID(ctx context.Context, id uuid.UUID) (*CallRecord, error)

	// GetByCallID retrieves a record by the provider's call ID.
	GetByCallID(ctx context.Context, callID string) (*CallRecord, error)

	// Update updates an existing call record.
	Update(ctx context.Context, record *CallRecord) error

	// List retrieves records for a company with pagination.
	List(ctx context.Context, companyID uuid.UUID, filter *CallRecordListFilter, limit, offset int) ([]*CallRecord, error)

	// Count returns the number of records for a company.
	Count(ctx context.Context, companyID uuid.UUID) (int, error)

	// OldestForLead returns the first call record created for a lead that has
	// no parent, i.e. the root of a follow-up chain.
	OldestForLead(ctx context.Context, leadID uuid.UUID) (*CallRecord, error)
}

// CustomerRepository defines the interface for customer persistence.
type CustomerRepository interface {
	// Create inserts a new customer. A unique violation on (phone, company)
	// surfaces as a conflict error so callers can re-query the winner.
	Create(ctx context.Context, customer *Customer) error

	// GetByID retrieves a customer by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// GetByPhone retrieves a customer by normalized phone within a company.
	GetByPhone(ctx context.Context, companyID uuid.UUID, phone string) (*Customer, error)

	// Update updates an existing customer.
	Update(ctx context.Context, customer *Customer) error

	// List retrieves customers for a company with pagination.
	List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*Customer, error)

	// Count returns the number of customers for a company.
	Count(ctx context.Context, companyID uuid.UUID) (int, error)
}

// LeadRepository defines the interface for lead persistence.
type LeadRepository interface {
	// Create inserts a new lead.
	Create(ctx context.Context, lead *Lead) error

	// GetByID retrieves a lead by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Lead, error)

	// Update updates an existing lead.
	Update(ctx context.Context, lead *Lead) error

	// List retrieves leads for a company with pagination.
	List(ctx context.Context, companyID uuid.UUID, filter *LeadListFilter, limit, offset int) ([]*Lead, error)

	// Count returns the number of leads for a company.
	Count(ctx context.Context, companyID uuid.UUID) (int, error)

	// CreateBatch inserts multiple leads, used by CSV import.
	CreateBatch(ctx context.Context, leads []*Lead) error
}

// TicketRepository defines the interface for ticket persistence.
type TicketRepository interface {
	// Create inserts a new ticket.
	Create(ctx context.Context, ticket *Ticket) error

	// GetByID retrieves a ticket by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)

	// Update updates an existing ticket.
	Update(ctx context.Context, ticket *Ticket) error

	// List retrieves tickets for a company with pagination.
	List(ctx context.Context, companyID uuid.UUID, filter *TicketListFilter, limit, offset int) ([]*Ticket, error)

	// Count returns the number of tickets for a company.
	Count(ctx context.Context, companyID uuid.UUID) (int, error)
}

// SupportCaseRepository defines the interface for support case persistence.
type SupportCaseRepository interface {
	// Create inserts a new support case.
	Create(ctx context.Context, sc *SupportCase) error

	// GetByID retrieves a support case by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*SupportCase, error)
}

// AutomationLogRepository reads the workflow engine's call log. The rows
// are written by the external automation dispatcher; this service only
// checks whether a call was started by a workflow.
type AutomationLogRepository interface {
	// WasAutomated reports whether an automation log row exists for the call.
	WasAutomated(ctx context.Context, callID string) (bool, error)
}

// AgentRepository resolves provider agent IDs to companies.
type AgentRepository interface {
	// GetActiveByAgentID retrieves an active agent by the provider's agent ID.
	GetActiveByAgentID(ctx context.Context, agentID string) (*Agent, error)
}

// CompanySettingsRepository defines the interface for per-tenant settings.
type CompanySettingsRepository interface {
	// GetAll retrieves all settings for a company as a key -> value map.
	GetAll(ctx context.Context, companyID uuid.UUID) (map[string]string, error)

	// Set upserts one setting.
	Set(ctx context.Context, companyID uuid.UUID, key, value string) error
}

// WebhookEventRepository is the duplicate-delivery ledger. Each (call, event)
// pair is recorded on first processing; replays are detected by the unique
// constraint on that pair.
type WebhookEventRepository interface {
	// Record marks the (callID, event) pair as processed. It returns
	// true when this is the first delivery, false on a replay.
	Record(ctx context.Context, callID, event string, receivedAt time.Time) (first bool, err error)

	// CleanupOlderThan removes ledger rows past the retention window.
	CleanupOlderThan(ctx context.Context, cutoff time.Time) error
}
