package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type NotificationEntity struct {
	ID               int64     `db:"id"                 gorm:"primaryKey;autoIncrement;column:id"`
	UserID           *int64    `db:"user_id"            gorm:"column:user_id;index"`
	Type             string    `db:"type"               gorm:"column:type;not null"`
	Title            string    `db:"title"              gorm:"column:title;not null"`
	Message          string    `db:"message"            gorm:"column:message;not null"`
	RelatedServiceID *int64    `db:"related_service_id" gorm:"column:related_service_id"`
	IsRead           bool      `db:"is_read"            gorm:"column:is_read;not null;default:false"`
	Priority         string    `db:"priority"           gorm:"column:priority;not null;default:normal"`
	CreatedAt        time.Time `db:"created_at"         gorm:"column:created_at;autoCreateTime"`
}

func (NotificationEntity) TableName() string {
	return "notifications"
}

func toNotificationEntity(m *model.Notification) *NotificationEntity {
	if m == nil {
		return nil
	}
	return &NotificationEntity{
		ID:               m.ID,
		UserID:           m.UserID,
		Type:             m.Type,
		Title:            m.Title,
		Message:          m.Message,
		RelatedServiceID: m.RelatedServiceID,
		IsRead:           m.IsRead,
		Priority:         string(m.Priority),
		CreatedAt:        m.CreatedAt,
	}
}

func toNotificationModel(e *NotificationEntity) *model.Notification {
	if e == nil {
		return nil
	}
	return &model.Notification{
		ID:               e.ID,
		UserID:           e.UserID,
		Type:             e.Type,
		Title:            e.Title,
		Message:          e.Message,
		RelatedServiceID: e.RelatedServiceID,
		IsRead:           e.IsRead,
		Priority:         model.Priority(e.Priority),
		CreatedAt:        e.CreatedAt,
	}
}

func toNotificationModels(entities []*NotificationEntity) []*model.Notification {
	if entities == nil {
		return nil
	}
	models := make([]*model.Notification, len(entities))
	for i, e := range entities {
		models[i] = toNotificationModel(e)
	}
	return models
}

// NotificationReceiptEntity holds one admin's read or dismissed state for an
// admin-wide notification (user_id NULL).
type NotificationReceiptEntity struct {
	NotificationID int64 `db:"notification_id" gorm:"primaryKey;autoIncrement:false;column:notification_id"`
	UserID         int64 `db:"user_id"         gorm:"primaryKey;autoIncrement:false;column:user_id"`
	IsRead         bool  `db:"is_read"         gorm:"column:is_read;not null;default:false"`
	Dismissed      bool  `db:"dismissed"       gorm:"column:dismissed;not null;default:false"`
}

func (NotificationReceiptEntity) TableName() string {
	return "notification_receipts"
}
