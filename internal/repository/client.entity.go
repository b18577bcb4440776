package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type ClientEntity struct {
	ID                int64     `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	FullName          string    `db:"full_name"           gorm:"column:full_name;not null"`
	Email             string    `db:"email"               gorm:"column:email;not null;default:''"`
	Phone             string    `db:"phone"               gorm:"column:phone;not null"`
	Address           string    `db:"address"             gorm:"column:address;not null;default:''"`
	City              string    `db:"city"                gorm:"column:city;not null;default:''"`
	PostalCode        string    `db:"postal_code"         gorm:"column:postal_code;not null;default:''"`
	CompanyName       string    `db:"company_name"        gorm:"column:company_name;not null;default:''"`
	UserID            *int64    `db:"user_id"             gorm:"column:user_id;index"`
	BusinessPartnerID *int64    `db:"business_partner_id" gorm:"column:business_partner_id;index"`
	CreatedAt         time.Time `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
}

func (ClientEntity) TableName() string {
	return "clients"
}

func toClientEntity(m *model.Client) *ClientEntity {
	if m == nil {
		return nil
	}
	return &ClientEntity{
		ID:                m.ID,
		FullName:          m.FullName,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           m.Address,
		City:              m.City,
		PostalCode:        m.PostalCode,
		CompanyName:       m.CompanyName,
		UserID:            m.UserID,
		BusinessPartnerID: m.BusinessPartnerID,
		CreatedAt:         m.CreatedAt,
	}
}

func toClientModel(e *ClientEntity) *model.Client {
	if e == nil {
		return nil
	}
	return &model.Client{
		ID:                e.ID,
		FullName:          e.FullName,
		Email:             e.Email,
		Phone:             e.Phone,
		Address:           e.Address,
		City:              e.City,
		PostalCode:        e.PostalCode,
		CompanyName:       e.CompanyName,
		UserID:            e.UserID,
		BusinessPartnerID: e.BusinessPartnerID,
		CreatedAt:         e.CreatedAt,
	}
}

func toClientModels(entities []*ClientEntity) []*model.Client {
	if entities == nil {
		return nil
	}
	models := make([]*model.Client, len(entities))
	for i, e := range entities {
		models[i] = toClientModel(e)
	}
	return models
}
