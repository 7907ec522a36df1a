// Package service contains business logic implementations.
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
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/validation"
)

// Result describes the outcome of processing one webhook event.
type Result struct {
	Action       string     `json:"action"`
	CallRecordID uuid.UUID  `json:"call_record_id"`
	CustomerID   *uuid.UUID `json:"customer_id,omitempty"`
	LeadID       *uuid.UUID `json:"lead_id,omitempty"`
	TicketID     *uuid.UUID `json:"ticket_id,omitempty"`
	Duplicate    bool       `json:"duplicate,omitempty"`
}

// WebhookService routes verified webhook events to the direction-specific
// pipeline for the agent that produced them.
type WebhookService struct {
	agents     domain.AgentRepository
	ledger     domain.WebhookEventRepository
	inbound    *InboundService
	outbound   *OutboundService
	calls      domain.CallRecordRepository
	leads      domain.LeadRepository
	automation domain.AutomationLogRepository
	dispatcher notify.AutomationDispatcher
	logger     *zap.Logger
	metrics    *metrics.Metrics
	events     *metrics.BusinessEventLogger
}

// NewWebhookService creates a new WebhookService. automation and dispatcher
// may be nil, which disables workflow outcome emission.
func NewWebhookService(
	agents domain.AgentRepository,
	ledger domain.WebhookEventRepository,
	inbound *InboundService,
	outbound *OutboundService,
	calls domain.CallRecordRepository,
	leads domain.LeadRepository,
	automation domain.AutomationLogRepository,
	dispatcher notify.AutomationDispatcher,
	logger *zap.Logger,
	m *metrics.Metrics,
	events *metrics.BusinessEventLogger,
) *WebhookService {
	return &WebhookService{
		agents:     agents,
		ledger:     ledger,
		inbound:    inbound,
		outbound:   outbound,
		calls:      calls,
		leads:      leads,
		automation: automation,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		events:     events,
	}
}

// Process handles one verified, parsed webhook delivery. Replayed deliveries
// still run the idempotent record upsert but skip audit-note appends and
// notifications, so provider retries never duplicate human-visible output.
func (s *WebhookService) Process(ctx context.Context, hook *retell.Webhook) (*Result, error) {
	if errs := checkCallPayload(hook.Call); errs.HasErrors() {
		return nil, apperrors.ValidationFailed(errs.Error())
	}

	agent, err := s.agents.GetActiveByAgentID(ctx, hook.AgentID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Warn("webhook for unknown agent",
				zap.String("agent_id", hook.AgentID),
				zap.String("call_id", hook.Call.CallID),
				zap.String("event", hook.Event),
			)
			return nil, apperrors.NotFound("agent")
		}
		return nil, fmt.Errorf("resolve agent: %w", err)
	}

	first, err := s.ledger.Record(ctx, hook.Call.CallID, hook.Event, time.Now().UTC())
	if err != nil {
		return nil, apperrors.DatabaseError("record webhook delivery", err)
	}
	if !first && s.metrics != nil {
		s.metrics.RecordWebhookDuplicate(hook.Event)
	}

	var result *Result
	if agent.Direction == domain.DirectionOutbound {
		result, err = s.processOutbound(ctx, agent, hook, first)
	} else {
		result, err = s.processInbound(ctx, agent, hook, first)
	}
	if err != nil {
		return nil, err
	}

	result.Duplicate = !first
	if first && hook.Event == retell.EventCallAnalyzed {
		s.emitAutomationOutcome(ctx, agent, hook, result)
	}
	if s.metrics != nil {
		s.metrics.RecordCallProcessed(string(agent.Direction), hook.Call.CallStatus)
	}
	return result, nil
}

// emitAutomationOutcome tells the external workflow engine how its call went.
// Only calls the engine itself started have an automation log row. Failures
// are logged and never affect the webhook response.
func (s *WebhookService) emitAutomationOutcome(ctx context.Context, agent *domain.Agent, hook *retell.Webhook, result *Result) {
	if s.automation == nil || s.dispatcher == nil {
		return
	}

	automated, err := s.automation.WasAutomated(ctx, hook.Call.CallID)
	if err != nil {
		s.logger.Warn("automation log lookup failed",
			zap.Error(err),
			zap.String("call_id", hook.Call.CallID),
		)
		return
	}
	if !automated {
		return
	}

	outcome := notify.CallOutcome{
		CallID:    hook.Call.CallID,
		CompanyID: agent.CompanyID,
		Direction: string(agent.Direction),
		Action:    result.Action,
		Status:    hook.Call.CallStatus,
	}
	go func(ctx context.Context) {
		if err := s.dispatcher.EmitCallOutcome(ctx, outcome); err != nil {
			s.logger.Warn("automation outcome emission failed",
				zap.Error(err),
				zap.String("call_id", outcome.CallID),
			)
		}
	}(context.WithoutCancel(ctx))
}

func (s *WebhookService) processInbound(ctx context.Context, agent *domain.Agent, hook *retell.Webhook, first bool) (*Result, error) {
	switch hook.Event {
	case retell.EventCallStarted:
		return s.inbound.HandleCallStarted(ctx, agent, hook.Call, first)
	case retell.EventCallEnded:
		return s.inbound.HandleCallEnded(ctx, agent, hook.Call, first)
	case retell.EventCallAnalyzed:
		return s.inbound.HandleCallAnalyzed(ctx, agent, hook.Call, first)
	}
	return nil, apperrors.ValidationFailed("unsupported event: " + hook.Event)
}

func (s *WebhookService) processOutbound(ctx context.Context, agent *domain.Agent, hook *retell.Webhook, first bool) (*Result, error) {
	switch hook.Event {
	case retell.EventCallStarted:
		return s.outbound.HandleCallStarted(ctx, agent, hook.Call, first)
	case retell.EventCallEnded:
		return s.outbound.HandleCallEnded(ctx, agent, hook.Call, first)
	case retell.EventCallAnalyzed:
		return s.outbound.HandleCallAnalyzed(ctx, agent, hook.Call, first)
	}
	return nil, apperrors.ValidationFailed("unsupported event: " + hook.Event)
}

// ProcessGeneric handles the legacy bearer-token route, which only updates
// call records that already exist. The qualification rule here keys off the
// provider's call_successful flag rather than the analysis signal.
func (s *WebhookService) ProcessGeneric(ctx context.Context, hook *retell.Webhook) (*Result, error) {
	if errs := checkCallPayload(hook.Call); errs.HasErrors() {
		return nil, apperrors.ValidationFailed(errs.Error())
	}

	record, err := s.calls.GetByCallID(ctx, hook.Call.CallID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Warn("generic update for unknown call",
				zap.String("call_id", hook.Call.CallID),
				zap.String("event", hook.Event),
			)
			return nil, apperrors.NotFound("call record")
		}
		return nil, fmt.Errorf("load call record: %w", err)
	}

	switch hook.Event {
	case retell.EventCallStarted:
		if ts := hook.Call.StartedAt(); ts != nil {
			record.StartTimestamp = ts
		}
		record.Status = domain.CallRecordStatusInProgress
		record.UpdatedAt = time.Now().UTC()
	case retell.EventCallEnded:
		applyCallEndedFields(record, hook.Call)
	case retell.EventCallAnalyzed:
		data := retell.Extract(hook.Call)
		applyCallEndedFields(record, hook.Call)
		applyAnalyzedFields(record, hook.Call, data)
	}

	if err := s.calls.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update call record: %w", err)
	}

	if hook.Event == retell.EventCallAnalyzed && record.LeadID != nil {
		if err := s.applyLegacyLeadOutcome(ctx, *record.LeadID, hook.Call); err != nil {
			return nil, err
		}
	}

	return &Result{
		Action:       "call_updated",
		CallRecordID: record.ID,
		CustomerID:   record.CustomerID,
		LeadID:       record.LeadID,
		TicketID:     record.TicketID,
	}, nil
}

func (s *WebhookService) applyLegacyLeadOutcome(ctx context.Context, leadID uuid.UUID, call *retell.Call) error {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Warn("call record references missing lead",
				zap.String("lead_id", leadID.String()),
				zap.String("call_id", call.CallID),
			)
			return nil
		}
		return fmt.Errorf("load lead: %w", err)
	}

	_, isFollowUp := followUpLeadID(call)
	lead.ApplyLegacyOutcome(retell.CallSuccessful(call), isFollowUp)
	if note := domain.AnalysisNote(retell.Extract(call).Summary); note != "" {
		lead.AppendComment(note)
	}

	if err := s.leads.Update(ctx, lead); err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return nil
}

// followUpLeadID extracts the follow-up marker and lead reference from the
// payload's dynamic variables. Values arrive as strings or native types
// depending on how the agent was configured.
func followUpLeadID(call *retell.Call) (uuid.UUID, bool) {
	vars := call.RetellLLMDynamicVariables
	if vars == nil {
		return uuid.Nil, false
	}

	isFollowUp := false
	switch v := vars["is_follow_up"].(type) {
	case bool:
		isFollowUp = v
	case string:
		isFollowUp = v == "true"
	}
	if !isFollowUp {
		return uuid.Nil, false
	}

	raw, _ := vars["lead_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// checkCallPayload runs field checks on the call object shared by every
// webhook route.
func checkCallPayload(call *retell.Call) validation.Errors {
	fields := validation.CallFields{
		CallID:       call.CallID,
		FromNumber:   call.FromNumber,
		ToNumber:     call.ToNumber,
		Transcript:   call.Transcript,
		RecordingURL: call.RecordingURL,
	}
	if d := call.DurationSeconds(); d != nil {
		fields.DurationSeconds = *d
	}
	return validation.CheckCall(fields)
}

// resolveCustomer finds or creates the customer for a call. A create that
// loses the unique (phone, company) race re-queries and returns the winner.
func resolveCustomer(ctx context.Context, repo domain.CustomerRepository, companyID uuid.UUID, phone string, direction domain.CallDirection, m *metrics.Metrics, events *metrics.BusinessEventLogger) (*domain.Customer, bool, error) {
	normalized := validation.NormalizePhone(phone)

	customer, err := repo.GetByPhone(ctx, companyID, normalized)
	if err == nil {
		return customer, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, fmt.Errorf("lookup customer: %w", err)
	}

	customer = domain.NewCustomer(companyID, normalized, direction)
	if err := repo.Create(ctx, customer); err != nil {
		if apperrors.IsConflict(err) {
			winner, qerr := repo.GetByPhone(ctx, companyID, normalized)
			if qerr != nil {
				return nil, false, fmt.Errorf("re-query customer after conflict: %w", qerr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("create customer: %w", err)
	}

	if m != nil {
		m.RecordCustomerCreated()
	}
	if events != nil {
		events.CustomerCreated(ctx, customer.ID, companyID, normalized)
	}
	return customer, true, nil
}

// applyCallEndedFields merges telephony metadata from an ended call into the
// record. Telephony fields always overwrite; start timestamp is only filled
// when the started event never landed.
func applyCallEndedFields(record *domain.CallRecord, call *retell.Call) {
	if ts := call.StartedAt(); ts != nil && record.StartTimestamp == nil {
		record.StartTimestamp = ts
	}
	if ts := call.EndedAt(); ts != nil {
		record.EndTimestamp = ts
	}
	if d := call.DurationSeconds(); d != nil {
		record.DurationSeconds = d
	}
	billable := domain.BillableDuration(record.DurationSeconds)
	record.BillableDurationSeconds = &billable

	if call.DisconnectionReason != "" {
		reason := call.DisconnectionReason
		record.DisconnectReason = &reason
	}
	record.Status = endedStatus(call)
	record.UpdatedAt = time.Now().UTC()
}

// endedStatus maps the provider's call status to a terminal record status,
// defaulting to completed.
func endedStatus(call *retell.Call) domain.CallRecordStatus {
	switch call.CallStatus {
	case string(domain.CallRecordStatusNotConnected):
		return domain.CallRecordStatusNotConnected
	case string(domain.CallRecordStatusFailed), "error":
		return domain.CallRecordStatusFailed
	}
	return domain.CallRecordStatusCompleted
}

// applyAnalyzedFields merges analysis output into the record. Later events
// carry strictly more information, so non-empty incoming fields overwrite.
func applyAnalyzedFields(record *domain.CallRecord, call *retell.Call, data *domain.ExtractedCallData) {
	setIf := func(dst **string, v string) {
		if v != "" {
			v := v
			*dst = &v
		}
	}

	setIf(&record.Transcript, call.Transcript)
	setIf(&record.RecordingURL, call.RecordingURL)
	setIf(&record.Sentiment, data.Sentiment)
	setIf(&record.Summary, data.Summary)
	setIf(&record.PestIssue, data.PestIssue)
	setIf(&record.StreetAddress, data.StreetAddress)
	setIf(&record.HomeSize, data.HomeSize)
	setIf(&record.YardSize, data.YardSize)
	setIf(&record.DecisionMaker, data.DecisionMaker)
	setIf(&record.PreferredServiceTime, data.PreferredServiceTime)

	if v, known := data.ContactedOtherCompanies.Bool(); known {
		record.ContactedOtherCompanies = v
	}
	record.UpdatedAt = time.Now().UTC()
}
