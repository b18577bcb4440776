package services

import (
	"context"
	"testing"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Broadcast(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	_, techA := env.user(t, "anna", model.RoleTechnician)
	_, techB := env.user(t, "bruno", model.RoleTechnician)
	_, customer := env.user(t, "carla", model.RoleCustomer)

	role := model.RoleTechnician
	n, err := env.notifS.Broadcast(ctx, admin, model.BroadcastRequest{
		Role:     &role,
		Title:    "Team meeting",
		Message:  "Friday 8:00 at the workshop",
		Priority: model.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, actor := range []*model.Actor{techA, techB} {
		rows, total, err := env.notifS.List(ctx, actor, true, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, "Team meeting", rows[0].Title)
		assert.Equal(t, model.PriorityHigh, rows[0].Priority)
	}
	count, err := env.notifS.UnreadCount(ctx, customer)
	require.NoError(t, err)
	assert.Zero(t, count)

	jobs := env.pendingJobs(t)
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.Equal(t, model.ChannelPush, job.Channel)
		assert.Equal(t, templates.KeyBroadcast, job.Template)
		assert.Equal(t, "Team meeting", job.Data["title"])
		require.NotNil(t, job.Recipient.UserID)
	}
}

func TestNotificationService_BroadcastRules(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	_, tech := env.user(t, "tom", model.RoleTechnician)

	_, err := env.notifS.Broadcast(ctx, tech, model.BroadcastRequest{Title: "x", Message: "y", UserIDs: []int64{1}})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.notifS.Broadcast(ctx, admin, model.BroadcastRequest{Title: "x", Message: "y"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.notifS.Broadcast(ctx, admin, model.BroadcastRequest{Title: "x", Message: "y", UserIDs: []int64{999}})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	n, err := env.notifS.Broadcast(ctx, admin, model.BroadcastRequest{Title: "x", Message: "y", UserIDs: []int64{tech.UserID, tech.UserID}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNotificationService_ReadAndDelete(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	_, other := env.user(t, "olga", model.RoleAdmin)
	_, tech := env.user(t, "tom", model.RoleTechnician)

	require.NoError(t, env.notifications.CreateBatch(ctx, []*model.Notification{
		{Type: "service_created", Title: "New service", Message: "a"},
		{Type: "service_created", Title: "New service", Message: "b"},
		{UserID: &tech.UserID, Type: "service_assigned", Title: "New job", Message: "c"},
	}))

	// admin rows are shared by every admin
	count, err := env.notifS.UnreadCount(ctx, other)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	rows, _, err := env.notifS.List(ctx, tech, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// a technician cannot touch admin rows
	adminRows, _, err := env.notifS.List(ctx, admin, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, adminRows, 2)
	assert.Error(t, env.notifS.MarkRead(ctx, tech, adminRows[0].ID))

	require.NoError(t, env.notifS.MarkRead(ctx, tech, rows[0].ID))
	count, err = env.notifS.UnreadCount(ctx, tech)
	require.NoError(t, err)
	assert.Zero(t, count)

	updated, err := env.notifS.MarkAllRead(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	// read state is kept per admin
	count, err = env.notifS.UnreadCount(ctx, other)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, env.notifS.Delete(ctx, admin, adminRows[0].ID))
	_, total, err := env.notifS.List(ctx, admin, false, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = env.notifS.List(ctx, other, false, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
