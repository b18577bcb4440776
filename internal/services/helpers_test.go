package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services on an in-memory sqlite database.
type testEnv struct {
	db            *pg.DB
	users         *repository.UserRepository
	clients       *repository.ClientRepository
	appliances    *repository.ApplianceRepository
	references    *repository.ReferenceRepository
	servicesRepo  *repository.ServiceRepository
	notifications *repository.NotificationRepository
	outbox        *repository.OutboxRepository
	parts         *repository.SparePartRepository

	tickets  *ServiceTicketService
	clientsS *ClientService
	notifS   *NotificationService
	planner  *Planner
}

func newTestEnv(t *testing.T, strict bool) *testEnv {
	t.Helper()
	db := repository.OpenTestDB(t)
	env := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		clients:       repository.NewClientRepository(db),
		appliances:    repository.NewApplianceRepository(db),
		references:    repository.NewReferenceRepository(db),
		servicesRepo:  repository.NewServiceRepository(db),
		notifications: repository.NewNotificationRepository(db),
		outbox:        repository.NewOutboxRepository(db),
		parts:         repository.NewSparePartRepository(db),
	}
	env.planner = NewPlanner("FixIt", "+390200000000", channels.SupplierRouter{
		DefaultName:  "Parts Hub",
		DefaultEmail: "orders@partshub.example",
		ComplusEmail: "orders@complus.example",
	})
	env.planner.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	env.tickets = NewServiceTicketService(env.servicesRepo, env.clients, env.appliances, env.users,
		env.notifications, env.outbox, env.planner, strict)
	env.clientsS = NewClientService(env.clients, env.appliances, env.references)
	env.notifS = NewNotificationService(env.notifications, env.users, env.outbox, db, env.planner)
	return env
}

func (e *testEnv) user(t *testing.T, username string, role model.Role) (*model.User, *model.Actor) {
	t.Helper()
	hash, err := auth.HashPassword("s3cret-password")
	require.NoError(t, err)
	u, err := e.users.Create(context.Background(), &model.User{
		Username:     username,
		Email:        username + "@example.com",
		Phone:        "+39333000" + username[:1],
		PasswordHash: hash,
		Role:         role,
		FullName:     username + " Test",
		Active:       true,
	})
	require.NoError(t, err)
	return u, &model.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *testEnv) seedReferences(t *testing.T, category, manufacturer string) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	c, err := e.references.CreateCategory(ctx, category)
	require.NoError(t, err)
	m, err := e.references.CreateManufacturer(ctx, manufacturer)
	require.NoError(t, err)
	return c.ID, m.ID
}

// pendingJobs decodes every unpublished outbox row.
func (e *testEnv) pendingJobs(t *testing.T) []model.NotificationJob {
	t.Helper()
	entries, err := e.outbox.ClaimPending(context.Background(), 1000)
	require.NoError(t, err)
	jobs := make([]model.NotificationJob, 0, len(entries))
	for _, entry := range entries {
		var job model.NotificationJob
		require.NoError(t, json.Unmarshal(entry.Payload, &job))
		jobs = append(jobs, job)
	}
	return jobs
}

type jobKey struct {
	channel  model.Channel
	template string
}

func jobKeys(jobs []model.NotificationJob) []jobKey {
	keys := make([]jobKey, len(jobs))
	for i, j := range jobs {
		keys[i] = jobKey{j.Channel, j.Template}
	}
	return keys
}

func float64Ptr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
