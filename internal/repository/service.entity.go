package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type ServiceEntity struct {
	ID                int64      `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	ClientID          int64      `db:"client_id"           gorm:"column:client_id;not null;index"`
	ApplianceID       int64      `db:"appliance_id"        gorm:"column:appliance_id;not null"`
	TechnicianID      *int64     `db:"technician_id"       gorm:"column:technician_id;index"`
	BusinessPartnerID *int64     `db:"business_partner_id" gorm:"column:business_partner_id;index"`
	Status            string     `db:"status"              gorm:"column:status;not null;default:pending;index"`
	Description       string     `db:"description"         gorm:"column:description;not null"`
	ScheduledDate     *time.Time `db:"scheduled_date"      gorm:"column:scheduled_date"`
	CompletedDate     *time.Time `db:"completed_date"      gorm:"column:completed_date"`
	Cost              *float64   `db:"cost"                gorm:"column:cost"`
	WarrantyMonths    *int       `db:"warranty_months"     gorm:"column:warranty_months"`
	TechnicianNotes   string     `db:"technician_notes"    gorm:"column:technician_notes;not null;default:''"`
	UsedParts         string     `db:"used_parts"          gorm:"column:used_parts;not null;default:''"`
	CreatedAt         time.Time  `db:"created_at"          gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `db:"updated_at"          gorm:"column:updated_at;autoUpdateTime"`
}

func (ServiceEntity) TableName() string {
	return "services"
}

func toServiceEntity(m *model.Service) *ServiceEntity {
	if m == nil {
		return nil
	}
	return &ServiceEntity{
		ID:                m.ID,
		ClientID:          m.ClientID,
		ApplianceID:       m.ApplianceID,
		TechnicianID:      m.TechnicianID,
		BusinessPartnerID: m.BusinessPartnerID,
		Status:            string(m.Status),
		Description:       m.Description,
		ScheduledDate:     m.ScheduledDate,
		CompletedDate:     m.CompletedDate,
		Cost:              m.Cost,
		WarrantyMonths:    m.WarrantyMonths,
		TechnicianNotes:   m.TechnicianNotes,
		UsedParts:         m.UsedParts,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toServiceModel(e *ServiceEntity) *model.Service {
	if e == nil {
		return nil
	}
	return &model.Service{
		ID:                e.ID,
		ClientID:          e.ClientID,
		ApplianceID:       e.ApplianceID,
		TechnicianID:      e.TechnicianID,
		BusinessPartnerID: e.BusinessPartnerID,
		Status:            model.ServiceStatus(e.Status),
		Description:       e.Description,
		ScheduledDate:     e.ScheduledDate,
		CompletedDate:     e.CompletedDate,
		Cost:              e.Cost,
		WarrantyMonths:    e.WarrantyMonths,
		TechnicianNotes:   e.TechnicianNotes,
		UsedParts:         e.UsedParts,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func toServiceModels(entities []*ServiceEntity) []*model.Service {
	if entities == nil {
		return nil
	}
	models := make([]*model.Service, len(entities))
	for i, e := range entities {
		models[i] = toServiceModel(e)
	}
	return models
}
