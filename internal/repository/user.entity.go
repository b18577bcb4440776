package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type UserEntity struct {
	ID           int64     `db:"id"            gorm:"primaryKey;autoIncrement;column:id"`
	Username     string    `db:"username"      gorm:"column:username;not null;uniqueIndex"`
	Email        string    `db:"email"         gorm:"column:email;not null;default:''"`
	Phone        string    `db:"phone"         gorm:"column:phone;not null;default:''"`
	PasswordHash string    `db:"password_hash" gorm:"column:password_hash;not null"`
	Role         string    `db:"role"          gorm:"column:role;not null;index"`
	FullName     string    `db:"full_name"     gorm:"column:full_name;not null;default:''"`
	SupplierName string    `db:"supplier_name" gorm:"column:supplier_name;not null;default:''"`
	Active       bool      `db:"active"        gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time `db:"created_at"    gorm:"column:created_at;autoCreateTime"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		Phone:        m.Phone,
		PasswordHash: m.PasswordHash,
		Role:         string(m.Role),
		FullName:     m.FullName,
		SupplierName: m.SupplierName,
		Active:       m.Active,
		CreatedAt:    m.CreatedAt,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:           e.ID,
		Username:     e.Username,
		Email:        e.Email,
		Phone:        e.Phone,
		PasswordHash: e.PasswordHash,
		Role:         model.Role(e.Role),
		FullName:     e.FullName,
		SupplierName: e.SupplierName,
		Active:       e.Active,
		CreatedAt:    e.CreatedAt,
	}
}

func toUserModels(entities []*UserEntity) []*model.User {
	if entities == nil {
		return nil
	}
	models := make([]*model.User, len(entities))
	for i, e := range entities {
		models[i] = toUserModel(e)
	}
	return models
}
