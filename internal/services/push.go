package services

import (
	"context"

	"github.com/nimasrn/repair-desk/internal/model"
)

type PushService struct {
	repo      PushSubscriptionRepository
	publicKey string
}

func NewPushService(repo PushSubscriptionRepository, publicKey string) *PushService {
	return &PushService{repo: repo, publicKey: publicKey}
}

func (s *PushService) PublicKey() string {
	return s.publicKey
}

func (s *PushService) Subscribe(ctx context.Context, actor *model.Actor, p model.PushSubscribeRequest, userAgent string) (*model.PushSubscription, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.repo.Upsert(ctx, &model.PushSubscription{
		UserID:    actor.UserID,
		Endpoint:  p.Endpoint,
		P256dh:    p.Keys.P256dh,
		Auth:      p.Keys.Auth,
		UserAgent: userAgent,
	})
}

func (s *PushService) Unsubscribe(ctx context.Context, actor *model.Actor, endpoint string) error {
	if actor == nil {
		return ErrForbidden
	}
	if endpoint == "" {
		return invalidf("endpoint is required")
	}
	return s.repo.DeleteByEndpoint(ctx, actor.UserID, endpoint)
}

func (s *PushService) List(ctx context.Context, userID int64) ([]*model.PushSubscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *PushService) DeleteStale(ctx context.Context, endpoint string) error {
	return s.repo.DeleteStale(ctx, endpoint)
}
