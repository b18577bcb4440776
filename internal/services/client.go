package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/pkg/logger"
)

// ClientService manages clients, their appliances and the appliance
// reference lists.
type ClientService struct {
	clientRepo    ClientRepository
	applianceRepo ApplianceRepository
	referenceRepo ReferenceRepository
}

func NewClientService(clientRepo ClientRepository, applianceRepo ApplianceRepository, referenceRepo ReferenceRepository) *ClientService {
	return &ClientService{
		clientRepo:    clientRepo,
		applianceRepo: applianceRepo,
		referenceRepo: referenceRepo,
	}
}

func (s *ClientService) ListClients(ctx context.Context, actor *model.Actor, f model.ClientFilter) ([]*model.Client, int64, error) {
	switch {
	case actor.Is(model.RoleAdmin):
	case actor.Is(model.RoleBusinessPartner):
		f.BusinessPartnerID = int64Ptr(actor.UserID)
	case actor.Is(model.RoleCustomer):
		f.UserID = int64Ptr(actor.UserID)
	default:
		return nil, 0, ErrForbidden
	}
	return s.clientRepo.List(ctx, f)
}

func (s *ClientService) CreateClient(ctx context.Context, actor *model.Actor, p model.ClientCreateRequest) (*model.Client, error) {
	if !actor.Is(model.RoleAdmin, model.RoleBusinessPartner) {
		return nil, ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	c := clientFromRequest(p)
	if actor.Is(model.RoleBusinessPartner) {
		// partners cannot link customer logins
		c.UserID = nil
		c.BusinessPartnerID = int64Ptr(actor.UserID)
	}
	created, err := s.clientRepo.Create(ctx, c)
	if err != nil {
		return nil, err
	}
	logger.Info("client created", "client_id", created.ID, "by", actor.Username)
	return created, nil
}

func (s *ClientService) GetClient(ctx context.Context, actor *model.Actor, id int64) (*model.Client, error) {
	c, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccessClient(actor, c) {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *ClientService) UpdateClient(ctx context.Context, actor *model.Actor, id int64, p model.ClientCreateRequest) (*model.Client, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	existing, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c := clientFromRequest(p)
	c.ID = id
	c.BusinessPartnerID = existing.BusinessPartnerID
	return s.clientRepo.Update(ctx, c)
}

func (s *ClientService) DeleteClient(ctx context.Context, actor *model.Actor, id int64) error {
	if !actor.Is(model.RoleAdmin) {
		return ErrForbidden
	}
	return s.clientRepo.Delete(ctx, id)
}

func clientFromRequest(p model.ClientCreateRequest) *model.Client {
	return &model.Client{
		FullName:    strings.TrimSpace(p.FullName),
		Email:       strings.TrimSpace(p.Email),
		Phone:       strings.TrimSpace(p.Phone),
		Address:     p.Address,
		City:        p.City,
		PostalCode:  p.PostalCode,
		CompanyName: p.CompanyName,
		UserID:      p.UserID,
	}
}

func (s *ClientService) ListAppliances(ctx context.Context, actor *model.Actor, f model.ApplianceFilter) ([]*model.Appliance, int64, error) {
	switch {
	case actor.Is(model.RoleAdmin):
	case actor.Is(model.RoleBusinessPartner):
		f.BusinessPartnerID = int64Ptr(actor.UserID)
	case actor.Is(model.RoleCustomer):
		f.ClientUserID = int64Ptr(actor.UserID)
	default:
		return nil, 0, ErrForbidden
	}
	return s.applianceRepo.List(ctx, f)
}

// CreateAppliance registers an appliance for a client the caller may access.
// Customers without a client id get their own client profile.
func (s *ClientService) CreateAppliance(ctx context.Context, actor *model.Actor, p model.ApplianceCreateRequest) (*model.Appliance, error) {
	if actor.Is(model.RoleCustomer) && p.ClientID == 0 {
		clients, _, err := s.clientRepo.List(ctx, model.ClientFilter{UserID: int64Ptr(actor.UserID), Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(clients) == 0 {
			return nil, ErrNoClientProfile
		}
		p.ClientID = clients[0].ID
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}

	client, err := s.clientRepo.GetByID(ctx, p.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return nil, invalidf("client %d does not exist", p.ClientID)
		}
		return nil, err
	}
	if !canAccessClient(actor, client) {
		return nil, ErrForbidden
	}
	if err := s.checkReferences(ctx, p.CategoryID, p.ManufacturerID); err != nil {
		return nil, err
	}

	created, err := s.applianceRepo.Create(ctx, applianceFromRequest(p))
	if err != nil {
		return nil, err
	}
	return s.applianceRepo.GetByID(ctx, created.ID)
}

func (s *ClientService) GetAppliance(ctx context.Context, actor *model.Actor, id int64) (*model.Appliance, error) {
	a, err := s.applianceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Is(model.RoleAdmin) {
		c, err := s.clientRepo.GetByID(ctx, a.ClientID)
		if err != nil {
			return nil, err
		}
		if !canAccessClient(actor, c) {
			return nil, ErrForbidden
		}
	}
	return a, nil
}

func (s *ClientService) UpdateAppliance(ctx context.Context, actor *model.Actor, id int64, p model.ApplianceCreateRequest) (*model.Appliance, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	if err := s.checkReferences(ctx, p.CategoryID, p.ManufacturerID); err != nil {
		return nil, err
	}
	a := applianceFromRequest(p)
	a.ID = id
	return s.applianceRepo.Update(ctx, a)
}

func (s *ClientService) DeleteAppliance(ctx context.Context, actor *model.Actor, id int64) error {
	if !actor.Is(model.RoleAdmin) {
		return ErrForbidden
	}
	return s.applianceRepo.Delete(ctx, id)
}

func (s *ClientService) checkReferences(ctx context.Context, categoryID, manufacturerID int64) error {
	ok, err := s.referenceRepo.CategoryExists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return invalidf("category %d does not exist", categoryID)
	}
	if _, err := s.referenceRepo.GetManufacturer(ctx, manufacturerID); err != nil {
		if errors.Is(err, repository.ErrReferenceNotFound) {
			return invalidf("manufacturer %d does not exist", manufacturerID)
		}
		return err
	}
	return nil
}

func applianceFromRequest(p model.ApplianceCreateRequest) *model.Appliance {
	return &model.Appliance{
		ClientID:       p.ClientID,
		CategoryID:     p.CategoryID,
		ManufacturerID: p.ManufacturerID,
		Model:          strings.TrimSpace(p.Model),
		SerialNumber:   strings.TrimSpace(p.SerialNumber),
		PurchaseDate:   p.PurchaseDate,
		Notes:          p.Notes,
	}
}

func (s *ClientService) Categories(ctx context.Context) ([]*model.ApplianceCategory, error) {
	return s.referenceRepo.ListCategories(ctx)
}

func (s *ClientService) Manufacturers(ctx context.Context) ([]*model.Manufacturer, error) {
	return s.referenceRepo.ListManufacturers(ctx)
}

func (s *ClientService) CreateCategory(ctx context.Context, actor *model.Actor, name string) (*model.ApplianceCategory, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	return s.referenceRepo.CreateCategory(ctx, name)
}

func (s *ClientService) CreateManufacturer(ctx context.Context, actor *model.Actor, name string) (*model.Manufacturer, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name is required")
	}
	return s.referenceRepo.CreateManufacturer(ctx, name)
}
