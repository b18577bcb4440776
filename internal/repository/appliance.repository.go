package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm"
)

type ApplianceRepository struct {
	*pg.DB
}

func NewApplianceRepository(db *pg.DB) *ApplianceRepository {
	return &ApplianceRepository{
		db,
	}
}

func (r *ApplianceRepository) Create(ctx context.Context, a *model.Appliance) (*model.Appliance, error) {
	entity := toApplianceEntity(a)
	if err := r.Write(ctx).Omit("Category", "Manufacturer").Create(entity).Error; err != nil {
		return nil, err
	}
	return toApplianceModel(entity), nil
}

func (r *ApplianceRepository) GetByID(ctx context.Context, id int64) (*model.Appliance, error) {
	var entity ApplianceEntity
	err := r.Read(ctx).
		Preload("Category").
		Preload("Manufacturer").
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplianceNotFound
		}
		return nil, err
	}
	return toApplianceModel(&entity), nil
}

func (r *ApplianceRepository) List(ctx context.Context, f model.ApplianceFilter) ([]*model.Appliance, int64, error) {
	q := r.Read(ctx).Model(&ApplianceEntity{})
	if f.ClientID != nil {
		q = q.Where("appliances.client_id = ?", *f.ClientID)
	}
	if f.ClientUserID != nil || f.BusinessPartnerID != nil {
		q = q.Joins("JOIN clients ON clients.id = appliances.client_id")
		if f.ClientUserID != nil {
			q = q.Where("clients.user_id = ?", *f.ClientUserID)
		}
		if f.BusinessPartnerID != nil {
			q = q.Where("clients.business_partner_id = ?", *f.BusinessPartnerID)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := paginate(f.Limit, f.Offset)
	var entities []*ApplianceEntity
	err := q.Preload("Category").
		Preload("Manufacturer").
		Order("appliances.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).Error
	if err != nil {
		return nil, 0, err
	}
	return toApplianceModels(entities), total, nil
}

func (r *ApplianceRepository) Update(ctx context.Context, a *model.Appliance) (*model.Appliance, error) {
	result := r.Write(ctx).Model(&ApplianceEntity{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
		"category_id":     a.CategoryID,
		"manufacturer_id": a.ManufacturerID,
		"model":           a.Model,
		"serial_number":   a.SerialNumber,
		"purchase_date":   a.PurchaseDate,
		"notes":           a.Notes,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrApplianceNotFound
	}
	return r.GetByID(ctx, a.ID)
}

func (r *ApplianceRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).Where("id = ?", id).Delete(&ApplianceEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplianceNotFound
	}
	return nil
}

// Orphans lists appliances whose client row is gone.
func (r *ApplianceRepository) Orphans(ctx context.Context) ([]model.IntegrityIssue, error) {
	var rows []struct {
		ID       int64
		ClientID int64
	}
	err := r.Read(ctx).
		Table("appliances AS a").
		Select("a.id AS id, a.client_id AS client_id").
		Joins("LEFT JOIN clients AS c ON c.id = a.client_id").
		Where("c.id IS NULL").
		Order("a.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	issues := make([]model.IntegrityIssue, 0, len(rows))
	for _, row := range rows {
		issues = append(issues, model.IntegrityIssue{Table: "appliances", ID: row.ID, Column: "client_id", MissedID: row.ClientID})
	}
	return issues, nil
}

type ReferenceRepository struct {
	*pg.DB
}

func NewReferenceRepository(db *pg.DB) *ReferenceRepository {
	return &ReferenceRepository{
		db,
	}
}

func (r *ReferenceRepository) ListCategories(ctx context.Context) ([]*model.ApplianceCategory, error) {
	var entities []*ApplianceCategoryEntity
	if err := r.Read(ctx).Order("name ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ApplianceCategory, len(entities))
	for i, e := range entities {
		out[i] = &model.ApplianceCategory{ID: e.ID, Name: e.Name}
	}
	return out, nil
}

func (r *ReferenceRepository) CreateCategory(ctx context.Context, name string) (*model.ApplianceCategory, error) {
	entity := &ApplianceCategoryEntity{Name: name}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &model.ApplianceCategory{ID: entity.ID, Name: entity.Name}, nil
}

func (r *ReferenceRepository) ListManufacturers(ctx context.Context) ([]*model.Manufacturer, error) {
	var entities []*ManufacturerEntity
	if err := r.Read(ctx).Order("name ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Manufacturer, len(entities))
	for i, e := range entities {
		out[i] = &model.Manufacturer{ID: e.ID, Name: e.Name}
	}
	return out, nil
}

func (r *ReferenceRepository) CreateManufacturer(ctx context.Context, name string) (*model.Manufacturer, error) {
	entity := &ManufacturerEntity{Name: name}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return &model.Manufacturer{ID: entity.ID, Name: entity.Name}, nil
}

func (r *ReferenceRepository) GetManufacturer(ctx context.Context, id int64) (*model.Manufacturer, error) {
	var entity ManufacturerEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReferenceNotFound
		}
		return nil, err
	}
	return &model.Manufacturer{ID: entity.ID, Name: entity.Name}, nil
}

func (r *ReferenceRepository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.Read(ctx).Model(&ApplianceCategoryEntity{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
