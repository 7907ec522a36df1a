package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/metrics"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/repository"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/validation"
)

// maxImportRows bounds a single CSV import request.
const maxImportRows = 5000

// LeadService handles lead queries, status updates, and CSV import.
type LeadService struct {
	leads     domain.LeadRepository
	customers domain.CustomerRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewLeadService creates a new LeadService.
func NewLeadService(leads domain.LeadRepository, customers domain.CustomerRepository, logger *zap.Logger, m *metrics.Metrics) *LeadService {
	return &LeadService{
		leads:     leads,
		customers: customers,
		logger:    logger,
		metrics:   m,
	}
}

// Get retrieves one lead.
func (s *LeadService) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("lead")
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// List retrieves leads for a company with pagination.
func (s *LeadService) List(ctx context.Context, companyID uuid.UUID, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, int, error) {
	leads, err := s.leads.List(ctx, companyID, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	total, err := s.leads.Count(ctx, companyID)
	if err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}
	return leads, total, nil
}

// UpdateStatus moves a lead to a new funnel status with an audit note.
func (s *LeadService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Lead, error) {
	if err := repository.ValidLeadStatus(status); err != nil {
		return nil, apperrors.ValidationFailed(err.Error())
	}

	lead, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := lead.Status
	lead.Status = domain.LeadStatus(status)
	lead.AppendComment(fmt.Sprintf("Status changed: %s → %s", previous, lead.Status))

	if err := s.leads.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("update lead: %w", err)
	}

	s.logger.Info("lead status updated",
		zap.String("lead_id", id.String()),
		zap.String("from", string(previous)),
		zap.String("to", status),
	)
	return lead, nil
}

// ImportRowError describes one rejected CSV row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportReport summarizes a CSV lead import.
type ImportReport struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ImportCSV bulk-creates leads from a CSV stream. Expected header:
// first_name,last_name,email,phone,comments (order-insensitive, extra
// columns ignored). Each row resolves or creates its customer by phone;
// valid rows are inserted in one batch, invalid rows are reported per-row.
func (s *LeadService) ImportCSV(ctx context.Context, companyID uuid.UUID, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.PayloadMalformed(fmt.Errorf("read csv header: %w", err))
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["phone"]; !ok {
		return nil, apperrors.MissingField("phone")
	}

	report := &ImportReport{}
	var batch []*domain.Lead

	for row := 2; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportRowError{Row: row, Message: "malformed row"})
			continue
		}
		if row-1 > maxImportRows {
			return nil, apperrors.ValidationFailed(fmt.Sprintf("import exceeds %d rows", maxImportRows))
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return validation.CleanText(fields[i])
		}

		phone := validation.NormalizePhone(get("phone"))
		if phone == "" {
			report.Skipped++
			report.Errors = append(report.Errors, ImportRowError{Row: row, Message: "missing phone"})
			continue
		}

		customer, _, err := resolveCustomer(ctx, s.customers, companyID, phone, domain.DirectionInbound, s.metrics, nil)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, ImportRowError{Row: row, Message: "customer resolution failed"})
			s.logger.Warn("csv import customer resolution failed",
				zap.Error(err),
				zap.Int("row", row),
			)
			continue
		}
		s.applyImportedIdentity(ctx, customer, get("first_name"), get("last_name"), get("email"))

		lead := domain.NewCallLead(companyID, customer.ID, time.Now().UTC())
		lead.Source = domain.LeadSourceCSVImport
		lead.Type = domain.LeadTypeWebForm
		lead.Comments = ""
		if comments := get("comments"); comments != "" {
			lead.AppendComment(comments)
		}
		batch = append(batch, lead)
	}

	if len(batch) > 0 {
		if err := s.leads.CreateBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("insert imported leads: %w", err)
		}
		if s.metrics != nil {
			for range batch {
				s.metrics.RecordLeadCreated("import")
			}
		}
	}
	report.Imported = len(batch)

	s.logger.Info("csv lead import finished",
		zap.String("company_id", companyID.String()),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// applyImportedIdentity fills customer identity fields from the CSV row,
// following the same no-clobber rules as call enrichment.
func (s *LeadService) applyImportedIdentity(ctx context.Context, customer *domain.Customer, first, last, email string) {
	changed := customer.Enrich(&domain.ExtractedCallData{
		FirstName: first,
		LastName:  last,
		Email:     email,
	})
	if !changed {
		return
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		s.logger.Warn("csv import customer update failed",
			zap.Error(err),
			zap.String("customer_id", customer.ID.String()),
		)
	}
}
