package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type PushSubscriptionEntity struct {
	ID        int64     `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	UserID    int64     `db:"user_id"    gorm:"column:user_id;not null;index"`
	Endpoint  string    `db:"endpoint"   gorm:"column:endpoint;not null;uniqueIndex"`
	P256dh    string    `db:"p256dh"     gorm:"column:p256dh;not null"`
	Auth      string    `db:"auth"       gorm:"column:auth;not null"`
	UserAgent string    `db:"user_agent" gorm:"column:user_agent;not null;default:''"`
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (PushSubscriptionEntity) TableName() string {
	return "push_subscriptions"
}

func toPushSubscriptionModel(e *PushSubscriptionEntity) *model.PushSubscription {
	if e == nil {
		return nil
	}
	return &model.PushSubscription{
		ID:        e.ID,
		UserID:    e.UserID,
		Endpoint:  e.Endpoint,
		P256dh:    e.P256dh,
		Auth:      e.Auth,
		UserAgent: e.UserAgent,
		CreatedAt: e.CreatedAt,
	}
}

func toPushSubscriptionModels(entities []*PushSubscriptionEntity) []*model.PushSubscription {
	if entities == nil {
		return nil
	}
	models := make([]*model.PushSubscription, len(entities))
	for i, e := range entities {
		models[i] = toPushSubscriptionModel(e)
	}
	return models
}
