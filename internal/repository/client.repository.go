package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm"
)

type ClientRepository struct {
	*pg.DB
}

func NewClientRepository(db *pg.DB) *ClientRepository {
	return &ClientRepository{
		db,
	}
}

func (r *ClientRepository) Create(ctx context.Context, c *model.Client) (*model.Client, error) {
	entity := toClientEntity(c)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toClientModel(entity), nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*model.Client, error) {
	var entity ClientEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return toClientModel(&entity), nil
}

func (r *ClientRepository) List(ctx context.Context, f model.ClientFilter) ([]*model.Client, int64, error) {
	q := r.Read(ctx).Model(&ClientEntity{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.BusinessPartnerID != nil {
		q = q.Where("business_partner_id = ?", *f.BusinessPartnerID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("(LOWER(full_name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?)", p, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := paginate(f.Limit, f.Offset)
	var entities []*ClientEntity
	if err := q.Order("full_name ASC, id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toClientModels(entities), total, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *model.Client) (*model.Client, error) {
	entity := toClientEntity(c)
	result := r.Write(ctx).Model(&ClientEntity{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"full_name":    entity.FullName,
		"email":        entity.Email,
		"phone":        entity.Phone,
		"address":      entity.Address,
		"city":         entity.City,
		"postal_code":  entity.PostalCode,
		"company_name": entity.CompanyName,
		"user_id":      entity.UserID,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrClientNotFound
	}
	return r.GetByID(ctx, c.ID)
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).Where("id = ?", id).Delete(&ClientEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}
