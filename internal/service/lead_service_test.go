package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

type leadFixture struct {
	svc       *LeadService
	leads     *MockLeadRepository
	customers *MockCustomerRepository
}

func newLeadFixture() *leadFixture {
	f := &leadFixture{
		leads:     NewMockLeadRepository(),
		customers: NewMockCustomerRepository(),
	}
	f.svc = NewLeadService(f.leads, f.customers, zap.NewNop(), nil)
	return f
}

func TestLeadService_Get_NotFound(t *testing.T) {
	f := newLeadFixture()

	_, err := f.svc.Get(context.Background(), uuid.New())
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestLeadService_UpdateStatus(t *testing.T) {
	f := newLeadFixture()
	ctx := context.Background()

	lead := domain.NewCallLead(uuid.New(), uuid.New(), time.Now().UTC())
	if err := f.leads.Create(ctx, lead); err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	updated, err := f.svc.UpdateStatus(ctx, lead.ID, "won")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != domain.LeadStatusWon {
		t.Errorf("Status = %q", updated.Status)
	}
	if !strings.Contains(updated.Comments, "Status changed: new → won") {
		t.Errorf("Comments missing audit note: %q", updated.Comments)
	}

	stored, _ := f.leads.GetByID(ctx, lead.ID)
	if stored.Status != domain.LeadStatusWon {
		t.Errorf("stored Status = %q, update not persisted", stored.Status)
	}
}

func TestLeadService_UpdateStatus_Invalid(t *testing.T) {
	f := newLeadFixture()

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), "archived")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	if apperrors.GetHTTPStatus(err) != 400 {
		t.Errorf("status = %d, expected 400", apperrors.GetHTTPStatus(err))
	}
	if f.leads.UpdateCalls != 0 {
		t.Error("invalid status must not reach the repository")
	}
}

func TestLeadService_ImportCSV(t *testing.T) {
	f := newLeadFixture()
	companyID := uuid.New()

	csvBody := strings.Join([]string{
		"first_name,last_name,email,phone,comments",
		"Pat,Jones,pat@example.com,(415) 555-1234,Referred by neighbor",
		"Sam,Lee,,+1 510 555 0000,",
	}, "\n")

	report, err := f.svc.ImportCSV(context.Background(), companyID, strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 0 {
		t.Fatalf("report = %+v", report)
	}
	if f.leads.CreateBatchCalls != 1 {
		t.Errorf("CreateBatchCalls = %d", f.leads.CreateBatchCalls)
	}
	if f.customers.CreateCalls != 2 {
		t.Errorf("customer creates = %d", f.customers.CreateCalls)
	}

	leads, _ := f.leads.List(context.Background(), companyID, nil, 0, 0)
	if len(leads) != 2 {
		t.Fatalf("stored leads = %d", len(leads))
	}
	for _, lead := range leads {
		if lead.Source != domain.LeadSourceCSVImport {
			t.Errorf("Source = %q", lead.Source)
		}
		if lead.Type != domain.LeadTypeWebForm {
			t.Errorf("Type = %q", lead.Type)
		}
	}

	customer, err := f.customers.GetByPhone(context.Background(), companyID, "+14155551234")
	if err != nil {
		t.Fatalf("imported customer not found by normalized phone: %v", err)
	}
	if customer.FirstName != "Pat" || customer.LastName != "Jones" {
		t.Errorf("name = %q", customer.FullName())
	}
	if customer.Email == nil || *customer.Email != "pat@example.com" {
		t.Errorf("Email = %v", customer.Email)
	}
}

func TestLeadService_ImportCSV_ReusesCustomer(t *testing.T) {
	f := newLeadFixture()
	companyID := uuid.New()

	existing := domain.NewCustomer(companyID, "+14155551234", domain.DirectionInbound)
	existing.FirstName = "Pat"
	existing.LastName = "Jones"
	f.customers.seed(existing)

	csvBody := "phone,comments\n415-555-1234,Second touch\n"
	report, err := f.svc.ImportCSV(context.Background(), companyID, strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if report.Imported != 1 {
		t.Fatalf("report = %+v", report)
	}
	if f.customers.CreateCalls != 0 {
		t.Errorf("customer creates = %d, expected reuse", f.customers.CreateCalls)
	}

	leads, _ := f.leads.List(context.Background(), companyID, nil, 0, 0)
	if len(leads) != 1 || leads[0].CustomerID != existing.ID {
		t.Error("imported lead not linked to the existing customer")
	}
	if !strings.Contains(leads[0].Comments, "Second touch") {
		t.Errorf("Comments = %q", leads[0].Comments)
	}
}

func TestLeadService_ImportCSV_SkipsBadRows(t *testing.T) {
	f := newLeadFixture()

	csvBody := strings.Join([]string{
		"first_name,phone",
		"Pat,415-555-1234",
		"NoPhone,",
		"Sam,510-555-0000",
	}, "\n")

	report, err := f.svc.ImportCSV(context.Background(), uuid.New(), strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Errors) != 1 || report.Errors[0].Row != 3 {
		t.Fatalf("Errors = %+v, expected row 3 rejected", report.Errors)
	}
	if report.Errors[0].Message != "missing phone" {
		t.Errorf("Message = %q", report.Errors[0].Message)
	}
}

func TestLeadService_ImportCSV_MissingPhoneHeader(t *testing.T) {
	f := newLeadFixture()

	csvBody := "first_name,last_name\nPat,Jones\n"
	_, err := f.svc.ImportCSV(context.Background(), uuid.New(), strings.NewReader(csvBody))
	if err == nil {
		t.Fatal("expected an error for a missing phone column")
	}
	if apperrors.GetHTTPStatus(err) != 400 {
		t.Errorf("status = %d, expected 400", apperrors.GetHTTPStatus(err))
	}
	if f.leads.CreateBatchCalls != 0 {
		t.Error("no rows should be inserted")
	}
}
