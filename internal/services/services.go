package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/repair-desk/internal/model"
)

var (
	ErrForbidden          = errors.New("operation not allowed for this role")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrCostRequired       = errors.New("cost is required to complete a service")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInactiveUser       = errors.New("user account is not active")
	ErrNoClientProfile    = errors.New("no client profile linked to this user")
)

// invalid wraps a request validation failure so callers can match ErrValidation.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Transactor runs fn inside one database transaction. Repositories built on
// pg.DB satisfy it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ServiceRepository interface {
	Create(ctx context.Context, s *model.Service) (*model.Service, error)
	GetByID(ctx context.Context, id int64) (*model.Service, error)
	GetForUpdate(ctx context.Context, id int64) (*model.Service, error)
	List(ctx context.Context, f model.ServiceFilter) ([]*model.Service, int64, error) // results, totalCount
	Save(ctx context.Context, s *model.Service) (*model.Service, error)
	Delete(ctx context.Context, id int64) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) (*model.Client, error)
	GetByID(ctx context.Context, id int64) (*model.Client, error)
	List(ctx context.Context, f model.ClientFilter) ([]*model.Client, int64, error)
	Update(ctx context.Context, c *model.Client) (*model.Client, error)
	Delete(ctx context.Context, id int64) error
}

type ApplianceRepository interface {
	Create(ctx context.Context, a *model.Appliance) (*model.Appliance, error)
	GetByID(ctx context.Context, id int64) (*model.Appliance, error)
	List(ctx context.Context, f model.ApplianceFilter) ([]*model.Appliance, int64, error)
	Update(ctx context.Context, a *model.Appliance) (*model.Appliance, error)
	Delete(ctx context.Context, id int64) error
}

type ReferenceRepository interface {
	ListCategories(ctx context.Context) ([]*model.ApplianceCategory, error)
	CreateCategory(ctx context.Context, name string) (*model.ApplianceCategory, error)
	ListManufacturers(ctx context.Context) ([]*model.Manufacturer, error)
	CreateManufacturer(ctx context.Context, name string) (*model.Manufacturer, error)
	GetManufacturer(ctx context.Context, id int64) (*model.Manufacturer, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]*model.User, int64, error)
	ListActiveByRole(ctx context.Context, role model.Role) ([]*model.User, error)
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*model.Notification) error
	List(ctx context.Context, f model.NotificationFilter) ([]*model.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64, includeAdmin bool) (int64, error)
	MarkRead(ctx context.Context, id, userID int64, includeAdmin bool) error
	MarkAllRead(ctx context.Context, userID int64, includeAdmin bool) (int64, error)
	Delete(ctx context.Context, id, userID int64, includeAdmin bool) error
}

type OutboxRepository interface {
	CreateBatch(ctx context.Context, entries []*model.OutboxEntry) error
}

type SparePartRepository interface {
	Create(ctx context.Context, p *model.SparePart) (*model.SparePart, error)
	GetByID(ctx context.Context, id int64) (*model.SparePart, error)
	List(ctx context.Context, f model.SparePartFilter) ([]*model.SparePart, int64, error)
	Update(ctx context.Context, p *model.SparePart) (*model.SparePart, error)
	UpdateStock(ctx context.Context, id int64, quantity int, availability model.Availability) (*model.SparePart, error)
	Delete(ctx context.Context, id int64) error
	Upsert(ctx context.Context, p *model.SparePart) (*model.SparePart, bool, error)
}

type PushSubscriptionRepository interface {
	Upsert(ctx context.Context, s *model.PushSubscription) (*model.PushSubscription, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, userID int64, endpoint string) error
	DeleteStale(ctx context.Context, endpoint string) error
}

func int64Ptr(v int64) *int64 {
	return &v
}

func ownedBy(id *int64, userID int64) bool {
	return id != nil && *id == userID
}
