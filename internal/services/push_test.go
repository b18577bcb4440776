package services

import (
	"context"
	"testing"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushService_SubscribeUpsertsByEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	s := NewPushService(repository.NewPushSubscriptionRepository(env.db), "BPublicKey")
	_, tom := env.user(t, "tom", model.RoleTechnician)
	_, ana := env.user(t, "ana", model.RoleTechnician)

	assert.Equal(t, "BPublicKey", s.PublicKey())

	req := model.PushSubscribeRequest{Endpoint: "https://push.example.com/send/abc"}
	req.Keys.P256dh = "p256"
	req.Keys.Auth = "auth"

	first, err := s.Subscribe(ctx, tom, req, "Firefox")
	require.NoError(t, err)
	assert.Equal(t, tom.UserID, first.UserID)

	// same browser, another login
	req.Keys.Auth = "auth2"
	second, err := s.Subscribe(ctx, ana, req, "Firefox")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, ana.UserID, second.UserID)
	assert.Equal(t, "auth2", second.Auth)

	subs, err := s.List(ctx, tom.UserID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	assert.Error(t, s.Unsubscribe(ctx, tom, req.Endpoint))
	require.NoError(t, s.Unsubscribe(ctx, ana, req.Endpoint))
	subs, err = s.List(ctx, ana.UserID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestPushService_Validation(t *testing.T) {
	s := NewPushService(nil, "")
	actor := &model.Actor{UserID: 1, Role: model.RoleAdmin}

	_, err := s.Subscribe(context.Background(), actor, model.PushSubscribeRequest{Endpoint: "http://insecure.example.com"}, "")
	assert.ErrorIs(t, err, ErrValidation)

	err = s.Unsubscribe(context.Background(), actor, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Subscribe(context.Background(), nil, model.PushSubscribeRequest{}, "")
	assert.ErrorIs(t, err, ErrForbidden)
}
