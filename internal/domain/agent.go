package domain

import (
	"time"

	"github.com/google/uuid"
)

// Agent maps a voice-AI agent to the company and pipeline it serves.
// AgentID is the provider's identifier, which arrives in webhook payloads.
type Agent struct {
	ID          uuid.UUID     `json:"id"`
	AgentID     string        `json:"agent_id"`
	CompanyID   uuid.UUID     `json:"company_id"`
	Direction   CallDirection `json:"direction"`
	PhoneNumber *string       `json:"phone_number,omitempty"`
	IsActive    bool          `json:"is_active"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Company represents a tenant.
type Company struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
