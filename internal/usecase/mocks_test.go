package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/lead-intake/internal/entity"
)

// MockCRM - Mock para CRMClient e DealStore
type MockCRM struct {
	mock.Mock
	configured bool
}

func (m *MockCRM) Configured() bool { return m.configured }

func (m *MockCRM) UpsertContact(ctx context.Context, props map[string]string) (entity.UpsertResult, error) {
	args := m.Called(ctx, props)
	return args.Get(0).(entity.UpsertResult), args.Error(1)
}

func (m *MockCRM) CreateDeal(ctx context.Context, props map[string]string, contactID string) (string, error) {
	args := m.Called(ctx, props, contactID)
	return args.String(0), args.Error(1)
}

func (m *MockCRM) SearchDeals(ctx context.Context, q entity.ReminderQuery) ([]entity.Deal, error) {
	args := m.Called(ctx, q)
	if fn, ok := args.Get(0).(func(context.Context, entity.ReminderQuery) []entity.Deal); ok {
		return fn(ctx, q), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Deal), args.Error(1)
}

func (m *MockCRM) GetDealContact(ctx context.Context, dealID string) (*entity.CRMContact, error) {
	args := m.Called(ctx, dealID)
	if fn, ok := args.Get(0).(func(context.Context, string) *entity.CRMContact); ok {
		return fn(ctx, dealID), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CRMContact), args.Error(1)
}

func (m *MockCRM) UpdateDeal(ctx context.Context, dealID string, props map[string]string) error {
	args := m.Called(ctx, dealID, props)
	return args.Error(0)
}

// MockMessaging - Mock para MessagingClient
type MockMessaging struct {
	mock.Mock
	configured bool
}

func (m *MockMessaging) Configured() bool { return m.configured }

func (m *MockMessaging) SendTemplate(ctx context.Context, to, templateName string, params []string) error {
	args := m.Called(ctx, to, templateName, params)
	return args.Error(0)
}

// MockEmail - Mock para EmailSender
type MockEmail struct {
	mock.Mock
	configured bool
}

func (m *MockEmail) Configured() bool { return m.configured }

func (m *MockEmail) Send(ctx context.Context, msg entity.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockNotifier - Mock para Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Dispatch(ctx context.Context, job entity.NotificationJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockLeadRepository - Mock para o journal de leads
type MockLeadRepository struct {
	mock.Mock
	mu    sync.Mutex
	saved []*entity.Lead
}

func (m *MockLeadRepository) Save(ctx context.Context, lead *entity.Lead) error {
	m.mu.Lock()
	cp := *lead
	m.saved = append(m.saved, &cp)
	m.mu.Unlock()
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) MarkSynced(ctx context.Context, id, contactID, dealID string) error {
	args := m.Called(ctx, id, contactID, dealID)
	return args.Error(0)
}

func (m *MockLeadRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	args := m.Called(ctx, id, cause)
	return args.Error(0)
}

func (m *MockLeadRepository) ListPendingSync(ctx context.Context, maxAttempts, limit int) ([]*entity.Lead, error) {
	args := m.Called(ctx, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}
