package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm"
)

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	entity := toUserEntity(u)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return toUserModel(entity), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).Where("username = ?", username).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) List(ctx context.Context, f model.UserFilter) ([]*model.User, int64, error) {
	q := r.Read(ctx).Model(&UserEntity{})
	if f.Role != nil {
		q = q.Where("role = ?", string(*f.Role))
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := paginate(f.Limit, f.Offset)
	var entities []*UserEntity
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toUserModels(entities), total, nil
}

// ListActiveByRole returns every active user holding the role, unpaginated.
func (r *UserRepository) ListActiveByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	var entities []*UserEntity
	err := r.Read(ctx).
		Where("role = ? AND active = ?", string(role), true).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toUserModels(entities), nil
}
