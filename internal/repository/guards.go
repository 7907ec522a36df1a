package repository

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// Input guards shared by the services. They fail fast with typed validation
// errors before anything reaches the database.

// RequireID rejects a zero UUID.
func RequireID(id uuid.UUID, field string) error {
	if id == uuid.Nil {
		return apperrors.MissingField(field)
	}
	return nil
}

// RequireText rejects empty or whitespace-only strings.
func RequireText(s, field string) error {
	if strings.TrimSpace(s) == "" {
		return apperrors.MissingField(field)
	}
	return nil
}

// OneOf rejects values outside the allowed set.
func OneOf(value string, allowed []string, field string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return apperrors.ValidationFailed(fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
}

var (
	leadStatuses = []string{
		string(domain.LeadStatusNew),
		string(domain.LeadStatusContacted),
		string(domain.LeadStatusQualified),
		string(domain.LeadStatusUnqualified),
		string(domain.LeadStatusInProcess),
		string(domain.LeadStatusQuoted),
		string(domain.LeadStatusScheduling),
		string(domain.LeadStatusWon),
		string(domain.LeadStatusLost),
	}
	ticketStatuses = []string{
		string(domain.TicketStatusNew),
		string(domain.TicketStatusOpen),
		string(domain.TicketStatusInProgress),
		string(domain.TicketStatusClosed),
	}
	callStatuses = []string{
		string(domain.CallRecordStatusInProgress),
		string(domain.CallRecordStatusCompleted),
		string(domain.CallRecordStatusNotConnected),
		string(domain.CallRecordStatusFailed),
	}
	callDirections = []string{
		string(domain.DirectionInbound),
		string(domain.DirectionOutbound),
	}
)

// ValidLeadStatus rejects strings that are not a lead funnel status.
func ValidLeadStatus(status string) error {
	return OneOf(status, leadStatuses, "lead_status")
}

// ValidTicketStatus rejects strings that are not a ticket lifecycle status.
func ValidTicketStatus(status string) error {
	return OneOf(status, ticketStatuses, "status")
}

// ValidCallStatus rejects strings that are not a call record status.
func ValidCallStatus(status string) error {
	return OneOf(status, callStatuses, "call_status")
}

// ValidCallDirection rejects strings other than inbound or outbound.
func ValidCallDirection(direction string) error {
	return OneOf(direction, callDirections, "direction")
}
