package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/notify"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/retell"
)

// OutboundService reconciles outbound campaign call events against customers
// and tickets.
type OutboundService struct {
	customers domain.CustomerRepository
	tickets   domain.TicketRepository
	calls     domain.CallRecordRepository
	settings  domain.CompanySettingsRepository
	notifier  *notify.Service
	logger    *zap.Logger
	metrics   *metrics.Metrics
	events    *metrics.BusinessEventLogger
}

// NewOutboundService creates a new OutboundService.
func NewOutboundService(
	customers domain.CustomerRepository,
	tickets domain.TicketRepository,
	calls domain.CallRecordRepository,
	settings domain.CompanySettingsRepository,
	notifier *notify.Service,
	logger *zap.Logger,
	m *metrics.Metrics,
	events *metrics.BusinessEventLogger,
) *OutboundService {
	return &OutboundService{
		customers: customers,
		tickets:   tickets,
		calls:     calls,
		settings:  settings,
		notifier:  notifier,
		logger:    logger,
		metrics:   m,
		events:    events,
	}
}

// HandleCallStarted resolves the callee to a customer, opens the ticket
// (closed by default), and creates the call record.
func (s *OutboundService) HandleCallStarted(ctx context.Context, agent *domain.Agent, call *retell.Call, first bool) (*Result, error) {
	record, err := s.calls.GetByCallID(ctx, call.CallID)
	if err == nil {
		if ts := call.StartedAt(); ts != nil {
			record.StartTimestamp = ts
		}
		if record.Status == domain.CallRecordStatusNotConnected {
			record.Status = domain.CallRecordStatusInProgress
		}
		record.UpdatedAt = time.Now().UTC()
		if err := s.calls.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("update call record: %w", err)
		}
		return s.result("outbound_ticket_created", record), nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("lookup call record: %w", err)
	}

	record, err = s.createRecordChain(ctx, agent, call, domain.CallRecordStatusInProgress)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.CallReceived(ctx, call.CallID, string(domain.DirectionOutbound), record.FromNumber)
	}
	return s.result("outbound_ticket_created", record), nil
}

// HandleCallEnded finalizes telephony fields and appends the outcome note to
// the ticket. Unanswered outbound calls commonly skip call_started, so the
// fallback creation path runs here often.
func (s *OutboundService) HandleCallEnded(ctx context.Context, agent *domain.Agent, call *retell.Call, first bool) (*Result, error) {
	record, err := s.findOrCreateRecord(ctx, agent, call)
	if err != nil {
		return nil, err
	}

	applyCallEndedFields(record, call)
	if err := s.calls.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update call record: %w", err)
	}

	if first && record.TicketID != nil {
		if err := s.appendTicketOutcome(ctx, record, call); err != nil {
			return nil, err
		}
	}

	if record.BillableDurationSeconds != nil && s.metrics != nil {
		s.metrics.RecordBillableDuration(*record.BillableDurationSeconds)
	}
	if s.events != nil {
		billable := 0
		if record.BillableDurationSeconds != nil {
			billable = *record.BillableDurationSeconds
		}
		s.events.CallCompleted(ctx, call.CallID, string(record.Status), billable)
	}
	return s.result("outbound_call_ended", record), nil
}

// HandleCallAnalyzed merges analysis output, classifies the ticket, applies
// the reopen/close disposition, enriches the customer, and dispatches the
// summary notification for connected calls.
func (s *OutboundService) HandleCallAnalyzed(ctx context.Context, agent *domain.Agent, call *retell.Call, first bool) (*Result, error) {
	record, err := s.findOrCreateRecord(ctx, agent, call)
	if err != nil {
		return nil, err
	}

	data := retell.Extract(call)
	applyCallEndedFields(record, call)
	applyAnalyzedFields(record, call, data)
	if err := s.calls.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update call record: %w", err)
	}

	if first && record.TicketID != nil {
		if err := s.resolveTicket(ctx, *record.TicketID, call, data); err != nil {
			return nil, err
		}
	}

	s.enrichCustomer(ctx, record, data)

	if first {
		s.dispatchSummary(ctx, agent.CompanyID, record, data)
	}
	return s.result("outbound_call_analyzed", record), nil
}

// createRecordChain builds the customer → ticket → call record chain for a
// call with no existing record. The record's from number is the agent's
// outbound line when one is configured.
func (s *OutboundService) createRecordChain(ctx context.Context, agent *domain.Agent, call *retell.Call, status domain.CallRecordStatus) (*domain.CallRecord, error) {
	customer, _, err := resolveCustomer(ctx, s.customers, agent.CompanyID, call.ToNumber, domain.DirectionOutbound, s.metrics, s.events)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now().UTC()
	if ts := call.StartedAt(); ts != nil {
		startedAt = *ts
	}
	ticket := domain.NewOutboundCallTicket(agent.CompanyID, customer.ID, startedAt)
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordTicketCreated()
	}

	from := call.FromNumber
	if agent.PhoneNumber != nil && *agent.PhoneNumber != "" {
		from = *agent.PhoneNumber
	}

	record := domain.NewCallRecord(call.CallID, agent.CompanyID, domain.DirectionOutbound, from, call.ToNumber)
	record.CustomerID = &customer.ID
	record.TicketID = &ticket.ID
	record.Status = status
	record.StartTimestamp = call.StartedAt()

	if err := s.calls.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create call record: %w", err)
	}
	return record, nil
}

// findOrCreateRecord returns the record for the call, synthesizing the
// entire chain with a not_connected status when the started event was lost.
func (s *OutboundService) findOrCreateRecord(ctx context.Context, agent *domain.Agent, call *retell.Call) (*domain.CallRecord, error) {
	record, err := s.calls.GetByCallID(ctx, call.CallID)
	if err == nil {
		return record, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("lookup call record: %w", err)
	}

	s.logger.Info("call record missing, running fallback creation",
		zap.String("call_id", call.CallID),
	)
	return s.createRecordChain(ctx, agent, call, domain.CallRecordStatusNotConnected)
}

func (s *OutboundService) appendTicketOutcome(ctx context.Context, record *domain.CallRecord, call *retell.Call) error {
	ticket, err := s.loadTicket(ctx, *record.TicketID, call.CallID)
	if err != nil || ticket == nil {
		return err
	}

	endedAt := time.Now().UTC()
	if record.EndTimestamp != nil {
		endedAt = *record.EndTimestamp
	}
	ticket.AppendNote(record.OutcomeNote(endedAt))

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	return nil
}

// resolveTicket applies the post-analysis disposition: service type from the
// qualification signal, pest type from the extraction, and the
// reopen-or-archive decision from action_required and the disconnect reason.
func (s *OutboundService) resolveTicket(ctx context.Context, ticketID uuid.UUID, call *retell.Call, data *domain.ExtractedCallData) error {
	ticket, err := s.loadTicket(ctx, ticketID, call.CallID)
	if err != nil || ticket == nil {
		return err
	}

	ticket.ApplyServiceType(data.IsQualified)
	if data.PestIssue != "" {
		pest := data.PestIssue
		ticket.PestType = &pest
	}
	if note := domain.AnalysisNote(data.Summary); note != "" {
		ticket.AppendNote(note)
	}

	wasReopened := ticket.NeedsFollowUp()
	ticket.ResolveFollowUp(data.ActionRequired, call.DisconnectionReason)

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}

	if ticket.NeedsFollowUp() && !wasReopened {
		if s.metrics != nil {
			s.metrics.RecordTicketReopened()
		}
		if s.events != nil {
			s.events.TicketReopened(ctx, ticket.ID, call.CallID)
		}
	}

	if qualified, known := data.IsQualified.Bool(); known && s.metrics != nil {
		s.metrics.RecordLeadQualified(qualified)
	}
	return nil
}

func (s *OutboundService) loadTicket(ctx context.Context, ticketID uuid.UUID, callID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Warn("call record references missing ticket",
				zap.String("ticket_id", ticketID.String()),
				zap.String("call_id", callID),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("load ticket: %w", err)
	}
	return ticket, nil
}

func (s *OutboundService) enrichCustomer(ctx context.Context, record *domain.CallRecord, data *domain.ExtractedCallData) {
	if record.CustomerID == nil {
		return
	}
	customer, err := s.customers.GetByID(ctx, *record.CustomerID)
	if err != nil {
		s.logger.Warn("customer enrichment lookup failed",
			zap.Error(err),
			zap.String("customer_id", record.CustomerID.String()),
		)
		return
	}
	if !customer.Enrich(data) {
		return
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		s.logger.Warn("customer enrichment update failed",
			zap.Error(err),
			zap.String("customer_id", customer.ID.String()),
		)
	}
}

// dispatchSummary sends the call-summary email off the request path. The
// notifier itself suppresses emails for unconnected outbound calls.
func (s *OutboundService) dispatchSummary(ctx context.Context, companyID uuid.UUID, record *domain.CallRecord, data *domain.ExtractedCallData) {
	if s.notifier == nil {
		return
	}
	settingsMap, err := s.settings.GetAll(ctx, companyID)
	if err != nil {
		s.logger.Warn("notification settings lookup failed",
			zap.Error(err),
			zap.String("company_id", companyID.String()),
		)
		return
	}
	ns := domain.NewNotificationSettingsFromMap(settingsMap)

	go func(ctx context.Context) {
		_ = s.notifier.SendCallSummary(ctx, companyID, ns, record, data)
	}(context.WithoutCancel(ctx))
}

func (s *OutboundService) result(action string, record *domain.CallRecord) *Result {
	return &Result{
		Action:       action,
		CallRecordID: record.ID,
		CustomerID:   record.CustomerID,
		TicketID:     record.TicketID,
	}
}
