package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
)

// Transactor runs a function within a database transaction. Satisfied by
// database.TxManager.
type Transactor interface {
	WithTransactionContext(ctx context.Context, fn func(ctx context.Context) error) error
}

// TicketService handles ticket queries and conversion into leads or
// support cases.
type TicketService struct {
	tickets domain.TicketRepository
	leads   domain.LeadRepository
	cases   domain.SupportCaseRepository
	txm     Transactor
	logger  *zap.Logger
	metrics *metrics.Metrics
	events  *metrics.BusinessEventLogger
}

// NewTicketService creates a new TicketService.
func NewTicketService(
	tickets domain.TicketRepository,
	leads domain.LeadRepository,
	cases domain.SupportCaseRepository,
	txm Transactor,
	logger *zap.Logger,
	m *metrics.Metrics,
	events *metrics.BusinessEventLogger,
) *TicketService {
	return &TicketService{
		tickets: tickets,
		leads:   leads,
		cases:   cases,
		txm:     txm,
		logger:  logger,
		metrics: m,
		events:  events,
	}
}

// Get retrieves one ticket.
func (s *TicketService) Get(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("ticket")
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// List retrieves tickets for a company with pagination.
func (s *TicketService) List(ctx context.Context, companyID uuid.UUID, filter *domain.TicketListFilter, limit, offset int) ([]*domain.Ticket, int, error) {
	tickets, err := s.tickets.List(ctx, companyID, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	total, err := s.tickets.Count(ctx, companyID)
	if err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}
	return tickets, total, nil
}

// ConvertToLead turns a ticket into a sales lead. Creating the lead and
// marking the ticket converted happen in one transaction so a failure
// leaves no partial state. Converting twice is a conflict.
func (s *TicketService) ConvertToLead(ctx context.Context, ticketID uuid.UUID) (*domain.Lead, error) {
	var lead *domain.Lead

	err := s.txm.WithTransactionContext(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NotFound("ticket")
			}
			return fmt.Errorf("get ticket: %w", err)
		}
		if ticket.ConvertedToLeadID != nil {
			return apperrors.Conflict("ticket", errors.New("ticket already converted"))
		}

		lead = ticket.ConvertToLead()
		if err := s.leads.Create(ctx, lead); err != nil {
			return fmt.Errorf("create lead: %w", err)
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTicketConverted()
		s.metrics.RecordLeadCreated("ticket")
	}
	if s.events != nil {
		s.events.TicketConverted(ctx, ticketID, lead.ID)
	}
	s.logger.Info("ticket converted to lead",
		zap.String("ticket_id", ticketID.String()),
		zap.String("lead_id", lead.ID.String()),
	)
	return lead, nil
}

// ConvertToSupportCase turns a ticket into a customer-service case, the
// counterpart of ConvertToLead for calls that are not sales opportunities.
// A ticket converts to at most one support case.
func (s *TicketService) ConvertToSupportCase(ctx context.Context, ticketID uuid.UUID) (*domain.SupportCase, error) {
	var sc *domain.SupportCase

	err := s.txm.WithTransactionContext(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NotFound("ticket")
			}
			return fmt.Errorf("get ticket: %w", err)
		}
		if ticket.ConvertedToSupportCaseID != nil {
			return apperrors.Conflict("ticket", errors.New("ticket already converted to a support case"))
		}

		sc = ticket.ConvertToSupportCase()
		if err := s.cases.Create(ctx, sc); err != nil {
			return fmt.Errorf("create support case: %w", err)
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.TicketEscalated(ctx, ticketID, sc.ID)
	}
	s.logger.Info("ticket converted to support case",
		zap.String("ticket_id", ticketID.String()),
		zap.String("support_case_id", sc.ID.String()),
	)
	return sc, nil
}
