package services

import (
	"context"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, s *model.Service) (*model.Service, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockServiceRepository) GetForUpdate(ctx context.Context, id int64) (*model.Service, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, int64) *model.Service); ok {
		return fn(ctx, id), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockServiceRepository) List(ctx context.Context, f model.ServiceFilter) ([]*model.Service, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Service), args.Get(1).(int64), args.Error(2)
}

func (m *MockServiceRepository) Save(ctx context.Context, s *model.Service) (*model.Service, error) {
	args := m.Called(ctx, s)
	if fn, ok := args.Get(0).(func(context.Context, *model.Service) *model.Service); ok {
		return fn(ctx, s), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockServiceRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockServiceRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, c *model.Client) (*model.Client, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, f model.ClientFilter) ([]*model.Client, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientRepository) Update(ctx context.Context, c *model.Client) (*model.Client, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockApplianceRepository struct {
	mock.Mock
}

func (m *MockApplianceRepository) Create(ctx context.Context, a *model.Appliance) (*model.Appliance, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appliance), args.Error(1)
}

func (m *MockApplianceRepository) GetByID(ctx context.Context, id int64) (*model.Appliance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appliance), args.Error(1)
}

func (m *MockApplianceRepository) List(ctx context.Context, f model.ApplianceFilter) ([]*model.Appliance, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Appliance), args.Get(1).(int64), args.Error(2)
}

func (m *MockApplianceRepository) Update(ctx context.Context, a *model.Appliance) (*model.Appliance, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appliance), args.Error(1)
}

func (m *MockApplianceRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, f model.UserFilter) ([]*model.User, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ListActiveByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifications []*model.Notification) error {
	return m.Called(ctx, notifications).Error(0)
}

func (m *MockNotificationRepository) List(ctx context.Context, f model.NotificationFilter) ([]*model.Notification, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID int64, includeAdmin bool) (int64, error) {
	args := m.Called(ctx, userID, includeAdmin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID int64, includeAdmin bool) error {
	return m.Called(ctx, id, userID, includeAdmin).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID int64, includeAdmin bool) (int64, error) {
	args := m.Called(ctx, userID, includeAdmin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id, userID int64, includeAdmin bool) error {
	return m.Called(ctx, id, userID, includeAdmin).Error(0)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) CreateBatch(ctx context.Context, entries []*model.OutboxEntry) error {
	return m.Called(ctx, entries).Error(0)
}
