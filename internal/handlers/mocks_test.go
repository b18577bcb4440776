package handlers

import (
	"context"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/scraper"
	"github.com/stretchr/testify/mock"
)

type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) Create(ctx context.Context, actor *model.Actor, p model.ServiceCreateRequest) (*model.Service, error) {
	args := m.Called(ctx, actor, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockTicketService) List(ctx context.Context, actor *model.Actor, f model.ServiceFilter) ([]*model.Service, int64, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Service), args.Get(1).(int64), args.Error(2)
}

func (m *MockTicketService) PartsRequests(ctx context.Context, actor *model.Actor, limit, offset int) ([]*model.Service, int64, error) {
	args := m.Called(ctx, actor, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Service), args.Get(1).(int64), args.Error(2)
}

func (m *MockTicketService) Get(ctx context.Context, actor *model.Actor, id int64) (*model.Service, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockTicketService) Update(ctx context.Context, actor *model.Actor, id int64, p model.ServiceUpdateRequest) (*model.Service, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockTicketService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockTicketService) Assign(ctx context.Context, actor *model.Actor, id int64, p model.AssignRequest) (*model.Service, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockTicketService) UpdateStatus(ctx context.Context, actor *model.Actor, id int64, p model.StatusUpdateRequest) (*model.Service, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

func (m *MockTicketService) Cancel(ctx context.Context, actor *model.Actor, id int64) (*model.Service, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Service), args.Error(1)
}

type MockIntegrityReporter struct {
	mock.Mock
}

func (m *MockIntegrityReporter) Report(ctx context.Context) (*model.IntegrityReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IntegrityReport), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Login(ctx context.Context, p model.LoginRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginResponse), args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, actor *model.Actor) (*model.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context, actor *model.Actor, f model.UserFilter) ([]*model.User, int64, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) Create(ctx context.Context, actor *model.Actor, p model.UserCreateRequest) (*model.User, error) {
	args := m.Called(ctx, actor, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) ListClients(ctx context.Context, actor *model.Actor, f model.ClientFilter) ([]*model.Client, int64, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientService) CreateClient(ctx context.Context, actor *model.Actor, p model.ClientCreateRequest) (*model.Client, error) {
	args := m.Called(ctx, actor, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientService) GetClient(ctx context.Context, actor *model.Actor, id int64) (*model.Client, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientService) UpdateClient(ctx context.Context, actor *model.Actor, id int64, p model.ClientCreateRequest) (*model.Client, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockClientService) DeleteClient(ctx context.Context, actor *model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockClientService) ListAppliances(ctx context.Context, actor *model.Actor, f model.ApplianceFilter) ([]*model.Appliance, int64, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Appliance), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientService) CreateAppliance(ctx context.Context, actor *model.Actor, p model.ApplianceCreateRequest) (*model.Appliance, error) {
	args := m.Called(ctx, actor, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appliance), args.Error(1)
}

func (m *MockClientService) GetAppliance(ctx context.Context, actor *model.Actor, id int64) (*model.Appliance, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appliance), args.Error(1)
}

func (m *MockClientService) UpdateAppliance(ctx context.Context, actor *model.Actor, id int64, p model.ApplianceCreateRequest) (*model.Appliance, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appliance), args.Error(1)
}

func (m *MockClientService) DeleteAppliance(ctx context.Context, actor *model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockClientService) Categories(ctx context.Context) ([]*model.ApplianceCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ApplianceCategory), args.Error(1)
}

func (m *MockClientService) Manufacturers(ctx context.Context) ([]*model.Manufacturer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Manufacturer), args.Error(1)
}

func (m *MockClientService) CreateCategory(ctx context.Context, actor *model.Actor, name string) (*model.ApplianceCategory, error) {
	args := m.Called(ctx, actor, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApplianceCategory), args.Error(1)
}

func (m *MockClientService) CreateManufacturer(ctx context.Context, actor *model.Actor, name string) (*model.Manufacturer, error) {
	args := m.Called(ctx, actor, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Manufacturer), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, actor *model.Actor, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error) {
	args := m.Called(ctx, actor, unreadOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, actor *model.Actor) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, actor *model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, actor *model.Actor) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockNotificationService) Broadcast(ctx context.Context, actor *model.Actor, p model.BroadcastRequest) (int, error) {
	args := m.Called(ctx, actor, p)
	return args.Int(0), args.Error(1)
}

type MockPushService struct {
	mock.Mock
}

func (m *MockPushService) PublicKey() string {
	return m.Called().String(0)
}

func (m *MockPushService) Subscribe(ctx context.Context, actor *model.Actor, p model.PushSubscribeRequest, userAgent string) (*model.PushSubscription, error) {
	args := m.Called(ctx, actor, p, userAgent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PushSubscription), args.Error(1)
}

func (m *MockPushService) Unsubscribe(ctx context.Context, actor *model.Actor, endpoint string) error {
	return m.Called(ctx, actor, endpoint).Error(0)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Search(ctx context.Context, actor *model.Actor, f model.SparePartFilter) ([]*model.SparePart, int64, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.SparePart), args.Get(1).(int64), args.Error(2)
}

func (m *MockCatalogService) Get(ctx context.Context, actor *model.Actor, id int64) (*model.SparePart, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SparePart), args.Error(1)
}

func (m *MockCatalogService) Create(ctx context.Context, actor *model.Actor, p *model.SparePart) (*model.SparePart, error) {
	args := m.Called(ctx, actor, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SparePart), args.Error(1)
}

func (m *MockCatalogService) Update(ctx context.Context, actor *model.Actor, id int64, p *model.SparePart) (*model.SparePart, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SparePart), args.Error(1)
}

func (m *MockCatalogService) UpdateStock(ctx context.Context, actor *model.Actor, id int64, p model.StockUpdateRequest) (*model.SparePart, error) {
	args := m.Called(ctx, actor, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SparePart), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

type fakeScrapeJob struct {
	running bool
	starts  int
	last    *scraper.Result
}

func (f *fakeScrapeJob) Start() bool {
	if f.running {
		return false
	}
	f.running = true
	f.starts++
	return true
}

func (f *fakeScrapeJob) Running() bool         { return f.running }
func (f *fakeScrapeJob) Last() *scraper.Result { return f.last }
