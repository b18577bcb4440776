package repository

import (
	"context"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm/clause"
)

type PushSubscriptionRepository struct {
	*pg.DB
}

func NewPushSubscriptionRepository(db *pg.DB) *PushSubscriptionRepository {
	return &PushSubscriptionRepository{
		db,
	}
}

// Upsert stores the subscription; the same endpoint subscribing again
// moves it to the new user and refreshes the keys.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, s *model.PushSubscription) (*model.PushSubscription, error) {
	entity := &PushSubscriptionEntity{
		UserID:    s.UserID,
		Endpoint:  s.Endpoint,
		P256dh:    s.P256dh,
		Auth:      s.Auth,
		UserAgent: s.UserAgent,
	}
	err := r.Write(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "user_agent"}),
	}).Create(entity).Error
	if err != nil {
		return nil, err
	}

	var stored PushSubscriptionEntity
	if err := r.Write(ctx).Where("endpoint = ?", s.Endpoint).First(&stored).Error; err != nil {
		return nil, err
	}
	return toPushSubscriptionModel(&stored), nil
}

func (r *PushSubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]*model.PushSubscription, error) {
	var entities []*PushSubscriptionEntity
	if err := r.Read(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toPushSubscriptionModels(entities), nil
}

func (r *PushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, userID int64, endpoint string) error {
	result := r.Write(ctx).Where("user_id = ? AND endpoint = ?", userID, endpoint).Delete(&PushSubscriptionEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// DeleteStale drops an endpoint the push service reported as gone.
func (r *PushSubscriptionRepository) DeleteStale(ctx context.Context, endpoint string) error {
	return r.Write(ctx).Where("endpoint = ?", endpoint).Delete(&PushSubscriptionEntity{}).Error
}
