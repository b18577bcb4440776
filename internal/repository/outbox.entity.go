package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type OutboxEntity struct {
	ID          int64      `db:"id"           gorm:"primaryKey;autoIncrement;column:id"`
	JobID       string     `db:"job_id"       gorm:"column:job_id;not null;uniqueIndex"`
	Channel     string     `db:"channel"      gorm:"column:channel;not null"`
	Payload     string     `db:"payload"      gorm:"column:payload;not null"`
	Status      string     `db:"status"       gorm:"column:status;not null;default:pending;index"`
	Attempts    int        `db:"attempts"     gorm:"column:attempts;not null;default:0"`
	LastError   string     `db:"last_error"   gorm:"column:last_error;not null;default:''"`
	CreatedAt   time.Time  `db:"created_at"   gorm:"column:created_at;autoCreateTime"`
	PublishedAt *time.Time `db:"published_at" gorm:"column:published_at"`
}

func (OutboxEntity) TableName() string {
	return "notification_outbox"
}

func toOutboxEntity(m *model.OutboxEntry) *OutboxEntity {
	if m == nil {
		return nil
	}
	status := string(m.Status)
	if status == "" {
		status = string(model.OutboxPending)
	}
	return &OutboxEntity{
		ID:          m.ID,
		JobID:       m.JobID,
		Channel:     string(m.Channel),
		Payload:     string(m.Payload),
		Status:      status,
		Attempts:    m.Attempts,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		PublishedAt: m.PublishedAt,
	}
}

func toOutboxModel(e *OutboxEntity) *model.OutboxEntry {
	if e == nil {
		return nil
	}
	return &model.OutboxEntry{
		ID:          e.ID,
		JobID:       e.JobID,
		Channel:     model.Channel(e.Channel),
		Payload:     []byte(e.Payload),
		Status:      model.OutboxStatus(e.Status),
		Attempts:    e.Attempts,
		LastError:   e.LastError,
		CreatedAt:   e.CreatedAt,
		PublishedAt: e.PublishedAt,
	}
}

func toOutboxModels(entities []*OutboxEntity) []*model.OutboxEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.OutboxEntry, len(entities))
	for i, e := range entities {
		models[i] = toOutboxModel(e)
	}
	return models
}

type DeliveryEntity struct {
	ID                int64     `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	JobID             string    `db:"job_id"              gorm:"column:job_id;not null;index"`
	Channel           string    `db:"channel"             gorm:"column:channel;not null"`
	Recipient         string    `db:"recipient"           gorm:"column:recipient;not null"`
	Status            string    `db:"status"              gorm:"column:status;not null"`
	ProviderMessageID string    `db:"provider_message_id" gorm:"column:provider_message_id;not null;default:''"`
	Error             string    `db:"error"               gorm:"column:error;not null;default:''"`
	AttemptedAt       time.Time `db:"attempted_at"        gorm:"column:attempted_at;autoCreateTime"`
}

func (DeliveryEntity) TableName() string {
	return "notification_deliveries"
}

func toDeliveryEntity(m *model.Delivery) *DeliveryEntity {
	if m == nil {
		return nil
	}
	return &DeliveryEntity{
		ID:                m.ID,
		JobID:             m.JobID,
		Channel:           string(m.Channel),
		Recipient:         m.Recipient,
		Status:            string(m.Status),
		ProviderMessageID: m.ProviderMessageID,
		Error:             m.Error,
		AttemptedAt:       m.AttemptedAt,
	}
}

func toDeliveryModel(e *DeliveryEntity) *model.Delivery {
	if e == nil {
		return nil
	}
	return &model.Delivery{
		ID:                e.ID,
		JobID:             e.JobID,
		Channel:           model.Channel(e.Channel),
		Recipient:         e.Recipient,
		Status:            model.DeliveryStatus(e.Status),
		ProviderMessageID: e.ProviderMessageID,
		Error:             e.Error,
		AttemptedAt:       e.AttemptedAt,
	}
}
