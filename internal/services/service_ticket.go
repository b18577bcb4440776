package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/prom"
)

// forwardTransitions is enforced only when strict transitions are enabled.
var forwardTransitions = map[model.ServiceStatus][]model.ServiceStatus{
	model.StatusPending:      {model.StatusAssigned, model.StatusScheduled, model.StatusCancelled},
	model.StatusAssigned:     {model.StatusScheduled, model.StatusInProgress, model.StatusCancelled},
	model.StatusScheduled:    {model.StatusInProgress, model.StatusAssigned, model.StatusCancelled},
	model.StatusInProgress:   {model.StatusWaitingParts, model.StatusCompleted, model.StatusCancelled},
	model.StatusWaitingParts: {model.StatusInProgress, model.StatusCompleted, model.StatusCancelled},
}

var technicianStatuses = []model.ServiceStatus{
	model.StatusInProgress,
	model.StatusWaitingParts,
	model.StatusCompleted,
}

func CanTransition(from, to model.ServiceStatus) bool {
	for _, s := range forwardTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ServiceTicketService struct {
	serviceRepo       ServiceRepository
	clientRepo        ClientRepository
	applianceRepo     ApplianceRepository
	userRepo          UserRepository
	notificationRepo  NotificationRepository
	outboxRepo        OutboxRepository
	planner           *Planner
	strictTransitions bool
	now               func() time.Time
}

func NewServiceTicketService(
	serviceRepo ServiceRepository,
	clientRepo ClientRepository,
	applianceRepo ApplianceRepository,
	userRepo UserRepository,
	notificationRepo NotificationRepository,
	outboxRepo OutboxRepository,
	planner *Planner,
	strictTransitions bool,
) *ServiceTicketService {
	return &ServiceTicketService{
		serviceRepo:       serviceRepo,
		clientRepo:        clientRepo,
		applianceRepo:     applianceRepo,
		userRepo:          userRepo,
		notificationRepo:  notificationRepo,
		outboxRepo:        outboxRepo,
		planner:           planner,
		strictTransitions: strictTransitions,
		now:               time.Now,
	}
}

// Create opens a ticket. Admins may assign a technician and date right away;
// partners and customers only open tickets for their own clients.
func (s *ServiceTicketService) Create(ctx context.Context, actor *model.Actor, p model.ServiceCreateRequest) (*model.Service, error) {
	if actor.Is(model.RoleCustomer) && p.ClientID == 0 {
		c, err := s.customerClient(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		p.ClientID = c.ID
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
	appliance, err := s.applianceRepo.GetByID(ctx, p.ApplianceID)
	if err != nil {
		if errors.Is(err, repository.ErrApplianceNotFound) {
			return nil, invalidf("appliance %d does not exist", p.ApplianceID)
		}
		return nil, err
	}
	if appliance.ClientID != client.ID {
		return nil, invalidf("appliance %d does not belong to client %d", appliance.ID, client.ID)
	}

	svc := &model.Service{
		ClientID:    client.ID,
		ApplianceID: appliance.ID,
		Status:      model.StatusPending,
		Description: p.Description,
	}
	if actor.Is(model.RoleBusinessPartner) {
		svc.BusinessPartnerID = int64Ptr(actor.UserID)
	} else if client.BusinessPartnerID != nil {
		svc.BusinessPartnerID = int64Ptr(*client.BusinessPartnerID)
	}

	t := &ticket{client: client, appliance: appliance}
	events := []event{eventCreated}
	if actor.Is(model.RoleAdmin) && p.TechnicianID != nil {
		tech, err := s.technician(ctx, *p.TechnicianID)
		if err != nil {
			return nil, err
		}
		t.technician = tech
		svc.TechnicianID = int64Ptr(tech.ID)
		svc.Status = model.StatusAssigned
		events = append(events, eventAssigned)
		if p.ScheduledDate != nil {
			svc.ScheduledDate = p.ScheduledDate
			svc.Status = model.StatusScheduled
			events = append(events, eventScheduled)
		}
	}

	var created *model.Service
	err = s.serviceRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.serviceRepo.Create(ctx, svc)
		if err != nil {
			return err
		}
		t.service = created
		return s.emit(ctx, t, events...)
	})
	if err != nil {
		return nil, err
	}

	prom.IncStatusTransition(string(created.Status))
	logger.Info("service created", "service_id", created.ID, "client_id", created.ClientID, "by", actor.Username)
	created.Client = client
	created.Appliance = appliance
	return created, nil
}

// List scopes the filter to what the caller may see.
func (s *ServiceTicketService) List(ctx context.Context, actor *model.Actor, f model.ServiceFilter) ([]*model.Service, int64, error) {
	switch {
	case actor.Is(model.RoleAdmin):
	case actor.Is(model.RoleTechnician):
		f.TechnicianID = int64Ptr(actor.UserID)
	case actor.Is(model.RoleBusinessPartner):
		f.BusinessPartnerID = int64Ptr(actor.UserID)
	case actor.Is(model.RoleCustomer):
		f.ClientUserID = int64Ptr(actor.UserID)
	case actor != nil && actor.Role.IsSupplier():
		f.Statuses = []model.ServiceStatus{model.StatusWaitingParts}
	default:
		return nil, 0, ErrForbidden
	}
	return s.serviceRepo.List(ctx, f)
}

// PartsRequests lists tickets waiting for spare parts, for supplier accounts.
func (s *ServiceTicketService) PartsRequests(ctx context.Context, actor *model.Actor, limit, offset int) ([]*model.Service, int64, error) {
	if !actor.Is(model.RoleAdmin) && (actor == nil || !actor.Role.IsSupplier()) {
		return nil, 0, ErrForbidden
	}
	items, total, err := s.serviceRepo.List(ctx, model.ServiceFilter{
		Statuses: []model.ServiceStatus{model.StatusWaitingParts},
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, 0, err
	}
	for _, item := range items {
		if a, err := s.applianceRepo.GetByID(ctx, item.ApplianceID); err == nil {
			item.Appliance = a
		}
	}
	return items, total, nil
}

// Get returns the ticket with its client and appliance.
func (s *ServiceTicketService) Get(ctx context.Context, actor *model.Actor, id int64) (*model.Service, error) {
	t, err := s.load(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !canView(actor, t) {
		return nil, ErrForbidden
	}
	t.service.Client = t.client
	t.service.Appliance = t.appliance
	return t.service, nil
}

// Update is the admin edit of descriptive fields; it never changes status.
func (s *ServiceTicketService) Update(ctx context.Context, actor *model.Actor, id int64, p model.ServiceUpdateRequest) (*model.Service, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	if p.Cost != nil && *p.Cost < 0 {
		return nil, invalidf("cost must not be negative")
	}
	if p.WarrantyMonths != nil && *p.WarrantyMonths < 0 {
		return nil, invalidf("warranty_months must not be negative")
	}

	var updated *model.Service
	err := s.serviceRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		svc, err := s.serviceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.Description != nil {
			svc.Description = *p.Description
		}
		if p.ScheduledDate != nil {
			svc.ScheduledDate = p.ScheduledDate
		}
		if p.Cost != nil {
			svc.Cost = p.Cost
		}
		if p.WarrantyMonths != nil {
			svc.WarrantyMonths = p.WarrantyMonths
		}
		if p.TechnicianNotes != nil {
			svc.TechnicianNotes = *p.TechnicianNotes
		}
		if p.UsedParts != nil {
			svc.UsedParts = *p.UsedParts
		}
		updated, err = s.serviceRepo.Save(ctx, svc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ServiceTicketService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	if !actor.Is(model.RoleAdmin) {
		return ErrForbidden
	}
	if err := s.serviceRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("service deleted", "service_id", id, "by", actor.Username)
	return nil
}

// Assign sets the technician and, optionally, the visit date. A date moves
// the ticket to scheduled, otherwise a pending ticket becomes assigned.
func (s *ServiceTicketService) Assign(ctx context.Context, actor *model.Actor, id int64, p model.AssignRequest) (*model.Service, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	tech, err := s.technician(ctx, p.TechnicianID)
	if err != nil {
		return nil, err
	}

	var result *model.Service
	var from model.ServiceStatus
	err = s.serviceRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.load(ctx, id, true)
		if err != nil {
			return err
		}
		svc := t.service
		from = svc.Status

		var events []event
		if !ownedBy(svc.TechnicianID, tech.ID) {
			events = append(events, eventAssigned)
		}
		next := svc.Status
		if p.ScheduledDate != nil {
			if svc.ScheduledDate == nil || !svc.ScheduledDate.Equal(*p.ScheduledDate) {
				events = append(events, eventScheduled)
			}
			svc.ScheduledDate = p.ScheduledDate
			next = model.StatusScheduled
		} else if svc.Status == model.StatusPending {
			next = model.StatusAssigned
		}
		if next != svc.Status && s.strictTransitions && !CanTransition(svc.Status, next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, svc.Status, next)
		}

		svc.TechnicianID = int64Ptr(tech.ID)
		svc.Status = next
		if next != model.StatusCompleted {
			svc.CompletedDate = nil
		}
		t.technician = tech
		if result, err = s.serviceRepo.Save(ctx, svc); err != nil {
			return err
		}
		t.service = result
		return s.emit(ctx, t, events...)
	})
	if err != nil {
		return nil, err
	}

	if from != result.Status {
		prom.IncStatusTransition(string(result.Status))
	}
	logger.Info("service assigned", "service_id", id, "technician_id", tech.ID, "status", result.Status)
	return result, nil
}

// UpdateStatus applies a status change under the caller's role rules and
// plans the notifications of the new status in the same transaction.
func (s *ServiceTicketService) UpdateStatus(ctx context.Context, actor *model.Actor, id int64, p model.StatusUpdateRequest) (*model.Service, error) {
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	if actor == nil || actor.Role.IsSupplier() {
		return nil, ErrForbidden
	}
	if p.TechnicianID != nil && !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}

	var newTech *model.User
	if p.TechnicianID != nil {
		var err error
		if newTech, err = s.technician(ctx, *p.TechnicianID); err != nil {
			return nil, err
		}
	}

	var result *model.Service
	var changed bool
	err := s.serviceRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.load(ctx, id, true)
		if err != nil {
			return err
		}
		svc := t.service
		if err := s.authorizeStatus(actor, t, p.Status); err != nil {
			return err
		}
		changed = svc.Status != p.Status
		if changed && s.strictTransitions && !CanTransition(svc.Status, p.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, svc.Status, p.Status)
		}

		techChanged := false
		if newTech != nil && !ownedBy(svc.TechnicianID, newTech.ID) {
			svc.TechnicianID = int64Ptr(newTech.ID)
			t.technician = newTech
			techChanged = true
		}

		if actor.Is(model.RoleAdmin, model.RoleTechnician) {
			if p.Notes != nil {
				svc.TechnicianNotes = *p.Notes
			}
			if p.UsedParts != nil {
				svc.UsedParts = *p.UsedParts
			}
			if p.Cost != nil {
				svc.Cost = p.Cost
			}
			if p.WarrantyMonths != nil {
				svc.WarrantyMonths = p.WarrantyMonths
			}
		}

		if p.Status == model.StatusCompleted {
			if svc.Cost == nil {
				return ErrCostRequired
			}
			if changed || svc.CompletedDate == nil {
				now := s.now().UTC()
				svc.CompletedDate = &now
			}
		} else {
			svc.CompletedDate = nil
		}

		svc.Status = p.Status
		var events []event
		if techChanged && (!changed || p.Status != model.StatusAssigned) {
			events = append(events, eventAssigned)
		}
		if ev, ok := statusEvent(p.Status); ok && changed {
			events = append(events, ev)
		}
		if result, err = s.serviceRepo.Save(ctx, svc); err != nil {
			return err
		}
		t.service = result
		return s.emit(ctx, t, events...)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		prom.IncStatusTransition(string(result.Status))
		logger.Info("service status changed", "service_id", id, "status", result.Status, "by", actor.Username, "role", actor.Role)
	}
	return result, nil
}

// Cancel is the customer and partner shortcut for a cancelled status.
func (s *ServiceTicketService) Cancel(ctx context.Context, actor *model.Actor, id int64) (*model.Service, error) {
	return s.UpdateStatus(ctx, actor, id, model.StatusUpdateRequest{Status: model.StatusCancelled})
}

func (s *ServiceTicketService) authorizeStatus(actor *model.Actor, t *ticket, status model.ServiceStatus) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleTechnician:
		if !ownedBy(t.service.TechnicianID, actor.UserID) {
			return ErrForbidden
		}
		for _, allowed := range technicianStatuses {
			if status == allowed {
				return nil
			}
		}
		return ErrForbidden
	case model.RoleBusinessPartner, model.RoleCustomer:
		if !canView(actor, t) {
			return ErrForbidden
		}
		if status != model.StatusCancelled {
			return ErrForbidden
		}
		if !t.service.Status.BeforeWork() {
			return fmt.Errorf("%w: work on service %d already started", ErrInvalidTransition, t.service.ID)
		}
		return nil
	}
	return ErrForbidden
}

// emit writes the in-app rows and outbox jobs of every event.
func (s *ServiceTicketService) emit(ctx context.Context, t *ticket, events ...event) error {
	var all plan
	for _, ev := range events {
		all.merge(s.planner.Plan(ev, t))
	}
	if all.empty() {
		return nil
	}
	if err := s.notificationRepo.CreateBatch(ctx, all.notifications); err != nil {
		return fmt.Errorf("failed to write notifications: %w", err)
	}
	entries, err := all.outboxEntries()
	if err != nil {
		return err
	}
	if err := s.outboxRepo.CreateBatch(ctx, entries); err != nil {
		return fmt.Errorf("failed to enqueue notifications: %w", err)
	}
	return nil
}

// load reads the ticket and every row its notifications need.
func (s *ServiceTicketService) load(ctx context.Context, id int64, lock bool) (*ticket, error) {
	var svc *model.Service
	var err error
	if lock {
		svc, err = s.serviceRepo.GetForUpdate(ctx, id)
	} else {
		svc, err = s.serviceRepo.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	t := &ticket{service: svc}
	if t.client, err = s.clientRepo.GetByID(ctx, svc.ClientID); err != nil {
		return nil, fmt.Errorf("service %d: %w", id, err)
	}
	if t.appliance, err = s.applianceRepo.GetByID(ctx, svc.ApplianceID); err != nil {
		return nil, fmt.Errorf("service %d: %w", id, err)
	}
	if svc.TechnicianID != nil {
		if t.technician, err = s.userRepo.GetByID(ctx, *svc.TechnicianID); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}
	if svc.BusinessPartnerID != nil {
		if t.partner, err = s.userRepo.GetByID(ctx, *svc.BusinessPartnerID); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
	}
	return t, nil
}

func (s *ServiceTicketService) technician(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, invalidf("technician %d does not exist", id)
		}
		return nil, err
	}
	if u.Role != model.RoleTechnician || !u.Active {
		return nil, invalidf("user %d is not an active technician", id)
	}
	return u, nil
}

func (s *ServiceTicketService) customerClient(ctx context.Context, userID int64) (*model.Client, error) {
	clients, _, err := s.clientRepo.List(ctx, model.ClientFilter{UserID: &userID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(clients) == 0 {
		return nil, ErrNoClientProfile
	}
	return clients[0], nil
}

func canAccessClient(actor *model.Actor, c *model.Client) bool {
	switch {
	case actor.Is(model.RoleAdmin):
		return true
	case actor.Is(model.RoleBusinessPartner):
		return ownedBy(c.BusinessPartnerID, actor.UserID)
	case actor.Is(model.RoleCustomer):
		return ownedBy(c.UserID, actor.UserID)
	}
	return false
}

func canView(actor *model.Actor, t *ticket) bool {
	switch {
	case actor.Is(model.RoleAdmin):
		return true
	case actor.Is(model.RoleTechnician):
		return ownedBy(t.service.TechnicianID, actor.UserID)
	case actor.Is(model.RoleBusinessPartner):
		return ownedBy(t.service.BusinessPartnerID, actor.UserID)
	case actor.Is(model.RoleCustomer):
		return t.client != nil && ownedBy(t.client.UserID, actor.UserID)
	case actor != nil && actor.Role.IsSupplier():
		return t.service.Status == model.StatusWaitingParts
	}
	return false
}
