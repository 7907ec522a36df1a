package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/notify"
	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/repository"
)

// MockCallRecordRepository is an in-memory domain.CallRecordRepository.
type MockCallRecordRepository struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]*domain.CallRecord
	byCallID map[string]*domain.CallRecord

	CreateCalls int
	UpdateCalls int

	CreateError error
	UpdateError error
	GetError    error
}

func NewMockCallRecordRepository() *MockCallRecordRepository {
	return &MockCallRecordRepository{
		records:  make(map[uuid.UUID]*domain.CallRecord),
		byCallID: make(map[string]*domain.CallRecord),
	}
}

func (m *MockCallRecordRepository) Create(ctx context.Context, record *domain.CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *record
	m.records[record.ID] = &cp
	m.byCallID[record.CallID] = &cp
	return nil
}

func (m *MockCallRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	record, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (m *MockCallRecordRepository) GetByCallID(ctx context.Context, callID string) (*domain.CallRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	record, ok := m.byCallID[callID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (m *MockCallRecordRepository) Update(ctx context.Context, record *domain.CallRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.records[record.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *record
	m.records[record.ID] = &cp
	m.byCallID[record.CallID] = &cp
	return nil
}

func (m *MockCallRecordRepository) List(ctx context.Context, companyID uuid.UUID, filter *domain.CallRecordListFilter, limit, offset int) ([]*domain.CallRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.CallRecord
	for _, r := range m.records {
		if r.CompanyID == companyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockCallRecordRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	records, _ := m.List(ctx, companyID, nil, 0, 0)
	return len(records), nil
}

func (m *MockCallRecordRepository) OldestForLead(ctx context.Context, leadID uuid.UUID) (*domain.CallRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var oldest *domain.CallRecord
	for _, r := range m.records {
		if r.LeadID == nil || *r.LeadID != leadID || r.ParentCallID != nil {
			continue
		}
		if oldest == nil || r.CreatedAt.Before(oldest.CreatedAt) {
			oldest = r
		}
	}
	if oldest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *oldest
	return &cp, nil
}

// MockCustomerRepository is an in-memory domain.CustomerRepository.
type MockCustomerRepository struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]*domain.Customer

	CreateCalls int
	UpdateCalls int

	// CreateError is returned once by the next Create call, modeling the
	// unique-violation race.
	CreateError error
	GetError    error
}

func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{customers: make(map[uuid.UUID]*domain.Customer)}
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		err := m.CreateError
		m.CreateError = nil
		return err
	}
	cp := *customer
	m.customers[customer.ID] = &cp
	return nil
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	customer, ok := m.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *customer
	return &cp, nil
}

func (m *MockCustomerRepository) GetByPhone(ctx context.Context, companyID uuid.UUID, phone string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	for _, c := range m.customers {
		if c.CompanyID == companyID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if _, ok := m.customers[customer.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *customer
	m.customers[customer.ID] = &cp
	return nil
}

func (m *MockCustomerRepository) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Customer
	for _, c := range m.customers {
		if c.CompanyID == companyID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockCustomerRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	customers, _ := m.List(ctx, companyID, 0, 0)
	return len(customers), nil
}

// seed inserts a customer directly, bypassing counters.
func (m *MockCustomerRepository) seed(customer *domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *customer
	m.customers[customer.ID] = &cp
}

// MockLeadRepository is an in-memory domain.LeadRepository.
type MockLeadRepository struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]*domain.Lead

	CreateCalls      int
	UpdateCalls      int
	CreateBatchCalls int

	CreateError error
	UpdateError error
	BatchError  error
}

func NewMockLeadRepository() *MockLeadRepository {
	return &MockLeadRepository{leads: make(map[uuid.UUID]*domain.Lead)}
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *lead
	m.leads[lead.ID] = &cp
	return nil
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lead, ok := m.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *lead
	return &cp, nil
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.leads[lead.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *lead
	m.leads[lead.ID] = &cp
	return nil
}

func (m *MockLeadRepository) List(ctx context.Context, companyID uuid.UUID, filter *domain.LeadListFilter, limit, offset int) ([]*domain.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Lead
	for _, l := range m.leads {
		if l.CompanyID == companyID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockLeadRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	leads, _ := m.List(ctx, companyID, nil, 0, 0)
	return len(leads), nil
}

func (m *MockLeadRepository) CreateBatch(ctx context.Context, leads []*domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateBatchCalls++
	if m.BatchError != nil {
		return m.BatchError
	}
	for _, lead := range leads {
		cp := *lead
		m.leads[lead.ID] = &cp
	}
	return nil
}

// MockTicketRepository is an in-memory domain.TicketRepository.
type MockTicketRepository struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]*domain.Ticket

	CreateCalls int
	UpdateCalls int

	CreateError error
	UpdateError error
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{tickets: make(map[uuid.UUID]*domain.Ticket)}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *ticket
	m.tickets[ticket.ID] = &cp
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ticket
	return &cp, nil
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.tickets[ticket.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *ticket
	m.tickets[ticket.ID] = &cp
	return nil
}

func (m *MockTicketRepository) List(ctx context.Context, companyID uuid.UUID, filter *domain.TicketListFilter, limit, offset int) ([]*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Ticket
	for _, t := range m.tickets {
		if t.CompanyID == companyID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTicketRepository) Count(ctx context.Context, companyID uuid.UUID) (int, error) {
	tickets, _ := m.List(ctx, companyID, nil, 0, 0)
	return len(tickets), nil
}

// MockSupportCaseRepository is an in-memory domain.SupportCaseRepository.
type MockSupportCaseRepository struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]*domain.SupportCase

	CreateCalls int
	CreateError error
}

func NewMockSupportCaseRepository() *MockSupportCaseRepository {
	return &MockSupportCaseRepository{cases: make(map[uuid.UUID]*domain.SupportCase)}
}

func (m *MockSupportCaseRepository) Create(ctx context.Context, sc *domain.SupportCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *sc
	m.cases[sc.ID] = &cp
	return nil
}

func (m *MockSupportCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupportCase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.cases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

// MockAutomationLogRepository is an in-memory domain.AutomationLogRepository.
type MockAutomationLogRepository struct {
	mu        sync.RWMutex
	automated map[string]bool

	CheckError error
}

func NewMockAutomationLogRepository() *MockAutomationLogRepository {
	return &MockAutomationLogRepository{automated: make(map[string]bool)}
}

func (m *MockAutomationLogRepository) mark(callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.automated[callID] = true
}

func (m *MockAutomationLogRepository) WasAutomated(ctx context.Context, callID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CheckError != nil {
		return false, m.CheckError
	}
	return m.automated[callID], nil
}

// MockAutomationDispatcher records emitted call outcomes. Emission happens
// off the request goroutine, so tests receive from Outcomes with a timeout.
type MockAutomationDispatcher struct {
	Outcomes chan notify.CallOutcome
}

func NewMockAutomationDispatcher() *MockAutomationDispatcher {
	return &MockAutomationDispatcher{Outcomes: make(chan notify.CallOutcome, 4)}
}

func (m *MockAutomationDispatcher) EmitCallOutcome(ctx context.Context, outcome notify.CallOutcome) error {
	m.Outcomes <- outcome
	return nil
}

// MockAgentRepository is an in-memory domain.AgentRepository.
type MockAgentRepository struct {
	mu     sync.RWMutex
	agents map[string]*domain.Agent

	GetError error
}

func NewMockAgentRepository() *MockAgentRepository {
	return &MockAgentRepository{agents: make(map[string]*domain.Agent)}
}

func (m *MockAgentRepository) seed(agent *domain.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *agent
	m.agents[agent.AgentID] = &cp
}

func (m *MockAgentRepository) GetActiveByAgentID(ctx context.Context, agentID string) (*domain.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	agent, ok := m.agents[agentID]
	if !ok || !agent.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *agent
	return &cp, nil
}

// MockSettingsRepository is an in-memory domain.CompanySettingsRepository.
type MockSettingsRepository struct {
	mu       sync.RWMutex
	settings map[uuid.UUID]map[string]string

	GetError error
	SetError error
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{settings: make(map[uuid.UUID]map[string]string)}
}

func (m *MockSettingsRepository) GetAll(ctx context.Context, companyID uuid.UUID) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	out := make(map[string]string)
	for k, v := range m.settings[companyID] {
		out[k] = v
	}
	return out, nil
}

func (m *MockSettingsRepository) Set(ctx context.Context, companyID uuid.UUID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetError != nil {
		return m.SetError
	}
	if m.settings[companyID] == nil {
		m.settings[companyID] = make(map[string]string)
	}
	m.settings[companyID][key] = value
	return nil
}

// MockTransactor runs the function directly, with no real transaction.
type MockTransactor struct {
	BeginError error
	Calls      int
}

func (m *MockTransactor) WithTransactionContext(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(ctx)
}

// MockWebhookEventRepository is an in-memory delivery ledger.
type MockWebhookEventRepository struct {
	mu   sync.Mutex
	seen map[string]bool

	RecordCalls int
	RecordError error
}

func NewMockWebhookEventRepository() *MockWebhookEventRepository {
	return &MockWebhookEventRepository{seen: make(map[string]bool)}
}

func (m *MockWebhookEventRepository) Record(ctx context.Context, callID, event string, receivedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordCalls++
	if m.RecordError != nil {
		return false, m.RecordError
	}
	key := callID + "|" + event
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *MockWebhookEventRepository) CleanupOlderThan(ctx context.Context, cutoff time.Time) error {
	return nil
}
