package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type ApplianceCategoryEntity struct {
	ID   int64  `db:"id"   gorm:"primaryKey;autoIncrement;column:id"`
	Name string `db:"name" gorm:"column:name;not null;uniqueIndex"`
}

func (ApplianceCategoryEntity) TableName() string {
	return "appliance_categories"
}

type ManufacturerEntity struct {
	ID   int64  `db:"id"   gorm:"primaryKey;autoIncrement;column:id"`
	Name string `db:"name" gorm:"column:name;not null;uniqueIndex"`
}

func (ManufacturerEntity) TableName() string {
	return "manufacturers"
}

type ApplianceEntity struct {
	ID             int64      `db:"id"              gorm:"primaryKey;autoIncrement;column:id"`
	ClientID       int64      `db:"client_id"       gorm:"column:client_id;not null;index"`
	CategoryID     int64      `db:"category_id"     gorm:"column:category_id;not null"`
	ManufacturerID int64      `db:"manufacturer_id" gorm:"column:manufacturer_id;not null"`
	Model          string     `db:"model"           gorm:"column:model;not null;default:''"`
	SerialNumber   string     `db:"serial_number"   gorm:"column:serial_number;not null;default:''"`
	PurchaseDate   *time.Time `db:"purchase_date"   gorm:"column:purchase_date"`
	Notes          string     `db:"notes"           gorm:"column:notes;not null;default:''"`
	CreatedAt      time.Time  `db:"created_at"      gorm:"column:created_at;autoCreateTime"`

	Category     *ApplianceCategoryEntity `gorm:"foreignKey:CategoryID;constraint:-"`
	Manufacturer *ManufacturerEntity      `gorm:"foreignKey:ManufacturerID;constraint:-"`
}

func (ApplianceEntity) TableName() string {
	return "appliances"
}

func toApplianceEntity(m *model.Appliance) *ApplianceEntity {
	if m == nil {
		return nil
	}
	return &ApplianceEntity{
		ID:             m.ID,
		ClientID:       m.ClientID,
		CategoryID:     m.CategoryID,
		ManufacturerID: m.ManufacturerID,
		Model:          m.Model,
		SerialNumber:   m.SerialNumber,
		PurchaseDate:   m.PurchaseDate,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

func toApplianceModel(e *ApplianceEntity) *model.Appliance {
	if e == nil {
		return nil
	}
	m := &model.Appliance{
		ID:             e.ID,
		ClientID:       e.ClientID,
		CategoryID:     e.CategoryID,
		ManufacturerID: e.ManufacturerID,
		Model:          e.Model,
		SerialNumber:   e.SerialNumber,
		PurchaseDate:   e.PurchaseDate,
		Notes:          e.Notes,
		CreatedAt:      e.CreatedAt,
	}
	if e.Category != nil {
		m.Category = &model.ApplianceCategory{ID: e.Category.ID, Name: e.Category.Name}
	}
	if e.Manufacturer != nil {
		m.Manufacturer = &model.Manufacturer{ID: e.Manufacturer.ID, Name: e.Manufacturer.Name}
	}
	return m
}

func toApplianceModels(entities []*ApplianceEntity) []*model.Appliance {
	if entities == nil {
		return nil
	}
	models := make([]*model.Appliance, len(entities))
	for i, e := range entities {
		models[i] = toApplianceModel(e)
	}
	return models
}
