package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceRepository struct {
	*pg.DB
}

func NewServiceRepository(db *pg.DB) *ServiceRepository {
	return &ServiceRepository{
		db,
	}
}

func (r *ServiceRepository) Create(ctx context.Context, s *model.Service) (*model.Service, error) {
	entity := toServiceEntity(s)
	if entity.Status == "" {
		entity.Status = string(model.StatusPending)
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toServiceModel(entity), nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	var entity ServiceEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return toServiceModel(&entity), nil
}

// GetForUpdate locks the row for the rest of the surrounding transaction.
func (r *ServiceRepository) GetForUpdate(ctx context.Context, id int64) (*model.Service, error) {
	var entity ServiceEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return toServiceModel(&entity), nil
}

func (r *ServiceRepository) List(ctx context.Context, f model.ServiceFilter) ([]*model.Service, int64, error) {
	q := r.Read(ctx).Model(&ServiceEntity{})

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("services.status IN ?", statuses)
	}
	if f.TechnicianID != nil {
		q = q.Where("services.technician_id = ?", *f.TechnicianID)
	}
	if f.ClientID != nil {
		q = q.Where("services.client_id = ?", *f.ClientID)
	}
	if f.BusinessPartnerID != nil {
		q = q.Where("services.business_partner_id = ?", *f.BusinessPartnerID)
	}
	if f.ClientUserID != nil {
		q = q.Joins("JOIN clients ON clients.id = services.client_id").
			Where("clients.user_id = ?", *f.ClientUserID)
	}
	if f.From != nil {
		q = q.Where("services.created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("services.created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "services.created_at"
	if f.Desc {
		order += " DESC, services.id DESC"
	} else {
		order += " ASC, services.id ASC"
	}

	limit, offset := paginate(f.Limit, f.Offset)
	var entities []*ServiceEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toServiceModels(entities), total, nil
}

// Save writes every mutable column of the ticket.
func (r *ServiceRepository) Save(ctx context.Context, s *model.Service) (*model.Service, error) {
	entity := toServiceEntity(s)
	result := r.Write(ctx).Model(&ServiceEntity{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"technician_id":    entity.TechnicianID,
		"status":           entity.Status,
		"description":      entity.Description,
		"scheduled_date":   entity.ScheduledDate,
		"completed_date":   entity.CompletedDate,
		"cost":             entity.Cost,
		"warranty_months":  entity.WarrantyMonths,
		"technician_notes": entity.TechnicianNotes,
		"used_parts":       entity.UsedParts,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrServiceNotFound
	}
	return r.GetByID(ctx, s.ID)
}

func (r *ServiceRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).Where("id = ?", id).Delete(&ServiceEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// Orphans lists services pointing at a missing client or appliance.
func (r *ServiceRepository) Orphans(ctx context.Context) ([]model.IntegrityIssue, error) {
	var rows []struct {
		ID               int64
		ClientID         int64
		ApplianceID      int64
		FoundClientID    *int64
		FoundApplianceID *int64
	}
	err := r.Read(ctx).
		Table("services AS s").
		Select(`s.id AS id, s.client_id AS client_id, s.appliance_id AS appliance_id,
			c.id AS found_client_id, a.id AS found_appliance_id`).
		Joins("LEFT JOIN clients AS c ON c.id = s.client_id").
		Joins("LEFT JOIN appliances AS a ON a.id = s.appliance_id").
		Where("c.id IS NULL OR a.id IS NULL").
		Order("s.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var issues []model.IntegrityIssue
	for _, row := range rows {
		if row.FoundClientID == nil {
			issues = append(issues, model.IntegrityIssue{Table: "services", ID: row.ID, Column: "client_id", MissedID: row.ClientID})
		}
		if row.FoundApplianceID == nil {
			issues = append(issues, model.IntegrityIssue{Table: "services", ID: row.ID, Column: "appliance_id", MissedID: row.ApplianceID})
		}
	}
	return issues, nil
}
