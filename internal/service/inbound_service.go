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

// InboundService reconciles inbound call events against customers and leads.
type InboundService struct {
	customers domain.CustomerRepository
	leads     domain.LeadRepository
	calls     domain.CallRecordRepository
	settings  domain.CompanySettingsRepository
	notifier  *notify.Service
	logger    *zap.Logger
	metrics   *metrics.Metrics
	events    *metrics.BusinessEventLogger
}

// NewInboundService creates a new InboundService.
func NewInboundService(
	customers domain.CustomerRepository,
	leads domain.LeadRepository,
	calls domain.CallRecordRepository,
	settings domain.CompanySettingsRepository,
	notifier *notify.Service,
	logger *zap.Logger,
	m *metrics.Metrics,
	events *metrics.BusinessEventLogger,
) *InboundService {
	return &InboundService{
		customers: customers,
		leads:     leads,
		calls:     calls,
		settings:  settings,
		notifier:  notifier,
		logger:    logger,
		metrics:   m,
		events:    events,
	}
}

// HandleCallStarted resolves the caller to a customer, creates or reuses a
// lead, and opens the call record.
func (s *InboundService) HandleCallStarted(ctx context.Context, agent *domain.Agent, call *retell.Call, first bool) (*Result, error) {
	record, err := s.calls.GetByCallID(ctx, call.CallID)
	if err == nil {
		// Replayed or out-of-order start: refresh the start fields only.
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
		return s.result("inbound_lead_created", record), nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("lookup call record: %w", err)
	}

	record, err = s.createRecordChain(ctx, agent, call, domain.CallRecordStatusInProgress)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.CallReceived(ctx, call.CallID, string(domain.DirectionInbound), call.FromNumber)
	}
	return s.result("inbound_lead_created", record), nil
}

// HandleCallEnded finalizes telephony fields and records the call outcome on
// the lead. A missing record (started event lost) is synthesized first.
func (s *InboundService) HandleCallEnded(ctx context.Context, agent *domain.Agent, call *retell.Call, first bool) (*Result, error) {
	record, err := s.findOrCreateRecord(ctx, agent, call)
	if err != nil {
		return nil, err
	}

	applyCallEndedFields(record, call)
	if err := s.calls.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update call record: %w", err)
	}

	if first && record.LeadID != nil {
		if err := s.recordLeadOutcome(ctx, record, call); err != nil {
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
	return s.result("inbound_call_ended", record), nil
}

// HandleCallAnalyzed merges analysis output into the record, applies the
// qualification decision to the lead, enriches the customer, and dispatches
// the summary notification.
func (s *InboundService) HandleCallAnalyzed(ctx context.Context, agent *domain.Agent, call *retell.Call, first bool) (*Result, error) {
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

	if first && record.LeadID != nil {
		if err := s.applyQualification(ctx, *record.LeadID, data); err != nil {
			return nil, err
		}
	}

	s.enrichCustomer(ctx, record, data)

	if first {
		s.dispatchSummary(ctx, agent.CompanyID, record, data)
	}
	return s.result("inbound_call_analyzed", record), nil
}

// createRecordChain builds the customer → lead → call record chain for a
// call with no existing record.
func (s *InboundService) createRecordChain(ctx context.Context, agent *domain.Agent, call *retell.Call, status domain.CallRecordStatus) (*domain.CallRecord, error) {
	customer, _, err := resolveCustomer(ctx, s.customers, agent.CompanyID, call.FromNumber, domain.DirectionInbound, s.metrics, s.events)
	if err != nil {
		return nil, err
	}

	lead, parentCallID, err := s.resolveLead(ctx, agent.CompanyID, customer.ID, call)
	if err != nil {
		return nil, err
	}

	record := domain.NewCallRecord(call.CallID, agent.CompanyID, domain.DirectionInbound, call.FromNumber, call.ToNumber)
	record.CustomerID = &customer.ID
	record.LeadID = &lead.ID
	record.ParentCallID = parentCallID
	record.Status = status
	record.StartTimestamp = call.StartedAt()

	if err := s.calls.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create call record: %w", err)
	}
	return record, nil
}

// resolveLead reuses the referenced lead for follow-up calls and links the
// root of the follow-up chain as parent; otherwise every inbound call start
// opens a fresh lead, even for a repeat customer.
func (s *InboundService) resolveLead(ctx context.Context, companyID, customerID uuid.UUID, call *retell.Call) (*domain.Lead, *string, error) {
	if leadID, ok := followUpLeadID(call); ok {
		lead, err := s.leads.GetByID(ctx, leadID)
		if err == nil {
			var parent *string
			oldest, err := s.calls.OldestForLead(ctx, lead.ID)
			if err == nil && oldest.CallID != call.CallID {
				parent = &oldest.CallID
			} else if err != nil && !apperrors.IsNotFound(err) {
				return nil, nil, fmt.Errorf("lookup parent call: %w", err)
			}
			return lead, parent, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, nil, fmt.Errorf("lookup follow-up lead: %w", err)
		}
		s.logger.Warn("follow-up call references missing lead, creating a new one",
			zap.String("lead_id", leadID.String()),
			zap.String("call_id", call.CallID),
		)
	}

	startedAt := time.Now().UTC()
	if ts := call.StartedAt(); ts != nil {
		startedAt = *ts
	}
	lead := domain.NewCallLead(companyID, customerID, startedAt)
	if err := s.leads.Create(ctx, lead); err != nil {
		return nil, nil, fmt.Errorf("create lead: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordLeadCreated("call")
	}
	if s.events != nil {
		s.events.LeadCreated(ctx, lead.ID, "call", call.CallID)
	}
	return lead, nil, nil
}

// findOrCreateRecord returns the record for the call, synthesizing the
// entire chain with a not_connected status when the started event was lost.
func (s *InboundService) findOrCreateRecord(ctx context.Context, agent *domain.Agent, call *retell.Call) (*domain.CallRecord, error) {
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

func (s *InboundService) recordLeadOutcome(ctx context.Context, record *domain.CallRecord, call *retell.Call) error {
	lead, err := s.leads.GetByID(ctx, *record.LeadID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Warn("call record references missing lead",
				zap.String("lead_id", record.LeadID.String()),
				zap.String("call_id", call.CallID),
			)
			return nil
		}
		return fmt.Errorf("load lead: %w", err)
	}

	endedAt := time.Now().UTC()
	if record.EndTimestamp != nil {
		endedAt = *record.EndTimestamp
	}

	_, isFollowUp := followUpLeadID(call)
	completed := record.Status == domain.CallRecordStatusCompleted
	lead.AppendComment(record.OutcomeNote(endedAt))
	if !isFollowUp || completed {
		lead.MarkContacted(endedAt, completed)
	} else {
		t := endedAt
		lead.LastContactedAt = &t
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

func (s *InboundService) applyQualification(ctx context.Context, leadID uuid.UUID, data *domain.ExtractedCallData) error {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("load lead: %w", err)
	}

	lead.ApplyQualification(data.IsQualified)
	if note := domain.AnalysisNote(data.Summary); note != "" {
		lead.AppendComment(note)
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}

	if qualified, known := data.IsQualified.Bool(); known {
		if s.metrics != nil {
			s.metrics.RecordLeadQualified(qualified)
		}
		if s.events != nil {
			s.events.LeadQualified(ctx, lead.ID, qualified, data.PestIssue)
		}
	}
	return nil
}

// enrichCustomer opportunistically fills empty customer fields from the
// extraction. Failures are logged and never fail the webhook.
func (s *InboundService) enrichCustomer(ctx context.Context, record *domain.CallRecord, data *domain.ExtractedCallData) {
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

// dispatchSummary sends the call-summary email off the request path.
func (s *InboundService) dispatchSummary(ctx context.Context, companyID uuid.UUID, record *domain.CallRecord, data *domain.ExtractedCallData) {
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
		// Errors are logged inside the notifier; the webhook response
		// never depends on delivery.
		_ = s.notifier.SendCallSummary(ctx, companyID, ns, record, data)
	}(context.WithoutCancel(ctx))
}

func (s *InboundService) result(action string, record *domain.CallRecord) *Result {
	return &Result{
		Action:       action,
		CallRecordID: record.ID,
		CustomerID:   record.CustomerID,
		LeadID:       record.LeadID,
	}
}
