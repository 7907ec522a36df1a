package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// CustomerService handles read access to customer records.
type CustomerService struct {
	customers domain.CustomerRepository
	logger    *zap.Logger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(customers domain.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{customers: customers, logger: logger}
}

// Get retrieves one customer.
func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("customer")
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

// List retrieves customers for a company with pagination.
func (s *CustomerService) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.Customer, int, error) {
	customers, err := s.customers.List(ctx, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	total, err := s.customers.Count(ctx, companyID)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	return customers, total, nil
}

// CallRecordService handles read access to call records.
type CallRecordService struct {
	calls  domain.CallRecordRepository
	logger *zap.Logger
}

// NewCallRecordService creates a new CallRecordService.
func NewCallRecordService(calls domain.CallRecordRepository, logger *zap.Logger) *CallRecordService {
	return &CallRecordService{calls: calls, logger: logger}
}

// Get retrieves one call record by internal ID.
func (s *CallRecordService) Get(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error) {
	record, err := s.calls.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("call record")
		}
		return nil, fmt.Errorf("get call record: %w", err)
	}
	return record, nil
}

// List retrieves call records for a company with pagination.
func (s *CallRecordService) List(ctx context.Context, companyID uuid.UUID, filter *domain.CallRecordListFilter, limit, offset int) ([]*domain.CallRecord, int, error) {
	records, err := s.calls.List(ctx, companyID, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list call records: %w", err)
	}
	total, err := s.calls.Count(ctx, companyID)
	if err != nil {
		return nil, 0, fmt.Errorf("count call records: %w", err)
	}
	return records, total, nil
}
