package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
)

type fakeSender struct {
	sent []Message
	errs map[string]error // keyed by recipient
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	if f.errs != nil {
		return f.errs[msg.To]
	}
	return nil
}

func strPtr(s string) *string { return &s }

func testCall(direction domain.CallDirection) *domain.CallRecord {
	call := domain.NewCallRecord("call_abc", uuid.New(), direction, "+14155551234", "+15105559876")
	call.Status = domain.CallRecordStatusCompleted
	call.DisconnectReason = strPtr(domain.DisconnectUserHangup)
	start := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	call.StartTimestamp = &start
	return call
}

func enabledSettings(recipients ...string) *domain.NotificationSettings {
	return &domain.NotificationSettings{
		SummaryEmailsEnabled:   true,
		SummaryEmailRecipients: recipients,
	}
}

func TestSendCallSummary_Disabled(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil, nil, zap.NewNop())

	settings := &domain.NotificationSettings{SummaryEmailsEnabled: false}
	err := svc.SendCallSummary(context.Background(), uuid.New(), settings, testCall(domain.DirectionInbound), &domain.ExtractedCallData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no emails, got %d", len(sender.sent))
	}
}

func TestSendCallSummary_NoRecipients(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil, nil, zap.NewNop())

	settings := &domain.NotificationSettings{SummaryEmailsEnabled: true}
	err := svc.SendCallSummary(context.Background(), uuid.New(), settings, testCall(domain.DirectionInbound), &domain.ExtractedCallData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no emails, got %d", len(sender.sent))
	}
}

func TestSendCallSummary_AllRecipients(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil, nil, zap.NewNop())

	settings := enabledSettings("a@example.com", "b@example.com")
	data := &domain.ExtractedCallData{FirstName: "Pat", LastName: "Jones", PestIssue: "ants"}

	err := svc.SendCallSummary(context.Background(), uuid.New(), settings, testCall(domain.DirectionInbound), data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "a@example.com" || sender.sent[1].To != "b@example.com" {
		t.Errorf("recipients = %q, %q", sender.sent[0].To, sender.sent[1].To)
	}
	if sender.sent[0].Subject != "Inbound call summary: Pat Jones" {
		t.Errorf("subject = %q", sender.sent[0].Subject)
	}
	if !strings.Contains(sender.sent[0].Body, "Pest issue: ants") {
		t.Errorf("body missing pest issue:\n%s", sender.sent[0].Body)
	}
}

func TestSendCallSummary_OutboundUnconnected(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil, nil, zap.NewNop())

	call := testCall(domain.DirectionOutbound)
	call.DisconnectReason = strPtr("voicemail_reached")

	err := svc.SendCallSummary(context.Background(), uuid.New(), enabledSettings("a@example.com"), call, &domain.ExtractedCallData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no emails for unconnected outbound call, got %d", len(sender.sent))
	}
}

func TestSendCallSummary_OutboundConnected(t *testing.T) {
	sender := &fakeSender{}
	svc := NewService(sender, nil, nil, zap.NewNop())

	call := testCall(domain.DirectionOutbound)
	call.DisconnectReason = strPtr(domain.DisconnectCallTransfer)

	err := svc.SendCallSummary(context.Background(), uuid.New(), enabledSettings("a@example.com"), call, &domain.ExtractedCallData{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("expected 1 email, got %d", len(sender.sent))
	}
	if sender.sent[0].Subject != "Outbound call summary: +14155551234" {
		t.Errorf("subject = %q", sender.sent[0].Subject)
	}
}

func TestSendCallSummary_PartialFailure(t *testing.T) {
	sendErr := errors.New("provider unavailable")
	sender := &fakeSender{errs: map[string]error{"a@example.com": sendErr}}
	svc := NewService(sender, nil, nil, zap.NewNop())

	settings := enabledSettings("a@example.com", "b@example.com")
	err := svc.SendCallSummary(context.Background(), uuid.New(), settings, testCall(domain.DirectionInbound), &domain.ExtractedCallData{})
	if !errors.Is(err, sendErr) {
		t.Errorf("expected first error returned, got %v", err)
	}
	// Failure for one recipient must not stop the rest
	if len(sender.sent) != 2 {
		t.Errorf("expected delivery attempted for both recipients, got %d", len(sender.sent))
	}
}

func TestSummaryBody(t *testing.T) {
	call := testCall(domain.DirectionInbound)
	data := &domain.ExtractedCallData{
		FirstName:            "Sam",
		LastName:             "Lee",
		Email:                "sam@example.com",
		PestIssue:            "termites",
		StreetAddress:        "123 Main St",
		City:                 "Oakland",
		State:                "CA",
		ZipCode:              "94607",
		HomeSize:             "2000 sq ft",
		PreferredServiceTime: domain.ServiceTimeAM,
		Sentiment:            "positive",
		Summary:              "Caller reported termites in the garage.",
	}

	body := summaryBody(call, data)

	for _, want := range []string{
		"Call ID: call_abc",
		"Caller: Sam Lee",
		"Address: 123 Main St, Oakland, CA 94607",
		"Preferred service time: AM",
		"Caller reported termites in the garage.",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	// Empty fields are omitted entirely
	if strings.Contains(body, "Yard size") {
		t.Errorf("body should omit empty yard size:\n%s", body)
	}
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(zap.NewNop())
	if err := s.Send(context.Background(), Message{To: "x@example.com", Subject: "hi"}); err != nil {
		t.Fatalf("log sender should never fail: %v", err)
	}
}
