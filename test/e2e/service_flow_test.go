package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/channels"
	"github.com/nimasrn/repair-desk/internal/dispatch"
	"github.com/nimasrn/repair-desk/internal/handlers"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/queue"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/internal/services"
	"github.com/nimasrn/repair-desk/internal/templates"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"github.com/nimasrn/repair-desk/test/fixtures"
	"github.com/nimasrn/repair-desk/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type TestEnvironment struct {
	DB         *pg.DB
	Handler    fasthttp.RequestHandler
	Dispatcher *dispatch.Service
	Outbox     *repository.OutboxRepository
	Deliveries *repository.DeliveryRepository
	SMS        *helpers.FakeSender
	WhatsApp   *helpers.FakeSender
	Email      *helpers.FakeSender
	Push       *helpers.FakeSender
}

func setupE2EEnvironment(t *testing.T) *TestEnvironment {
	db := helpers.SetupTestDB(t)
	_, adapter := helpers.SetupTestRedis(t)

	tokens, err := auth.NewTokenManager("e2e-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	applianceRepo := repository.NewApplianceRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	planner := services.NewPlanner("FixIt", "+390200000000", channels.SupplierRouter{
		DefaultName:  "Parts Hub",
		DefaultEmail: fixtures.DefaultEmail,
		ComplusEmail: fixtures.ComplusEmail,
	})
	tickets := services.NewServiceTicketService(serviceRepo, clientRepo, applianceRepo, userRepo,
		notificationRepo, outboxRepo, planner, false)
	clientService := services.NewClientService(clientRepo, applianceRepo, repository.NewReferenceRepository(db))
	notificationService := services.NewNotificationService(notificationRepo, userRepo, outboxRepo, db, planner)
	pushService := services.NewPushService(repository.NewPushSubscriptionRepository(db), "")

	router := xhttp.CreateDefaultRouter()
	handlers.RegisterRoutes(router, handlers.NewAuth(tokens), handlers.Handlers{
		Users:         handlers.NewUserHandler(services.NewUserService(userRepo, tokens)),
		Services:      handlers.NewServiceHandler(tickets, services.NewIntegrityService(serviceRepo, applianceRepo)),
		Clients:       handlers.NewClientHandler(clientService),
		Notifications: handlers.NewNotificationHandler(notificationService, pushService),
		Catalog:       handlers.NewCatalogHandler(services.NewCatalogService(repository.NewSparePartRepository(db), notificationRepo, nil), nil),
		Analytics:     handlers.NewAnalyticsHandler(func(string, string, float64) {}),
		Health:        handlers.NewHealthHandler("e2e", map[string]handlers.Pinger{"redis": adapter}),
	})

	env := &TestEnvironment{
		DB:         db,
		Handler:    router.Handler,
		Outbox:     outboxRepo,
		Deliveries: repository.NewDeliveryRepository(db),
		SMS:        helpers.NewFakeSender(model.ChannelSMS),
		WhatsApp:   helpers.NewFakeSender(model.ChannelWhatsApp),
		Email:      helpers.NewFakeSender(model.ChannelEmail),
		Push:       helpers.NewFakeSender(model.ChannelPush),
	}

	qc := queue.QueueConfig{
		Name:              "e2e:notifications",
		ConsumerGroup:     "dispatchers",
		ConsumerName:      "e2e",
		MaxRetries:        2,
		VisibilityTimeout: 5 * time.Second,
		PollInterval:      20 * time.Millisecond,
		BatchSize:         20,
		EnableDLQ:         true,
	}
	publisher, err := queue.NewQueue(adapter, qc)
	require.NoError(t, err)

	registry := channels.NewRegistry(env.SMS, env.WhatsApp, env.Email, env.Push)
	processor := dispatch.NewNotificationProcessor(registry, env.Deliveries,
		dispatch.NewIdempotencyService(adapter, dispatch.DefaultIdempotencyConfig()))
	env.Dispatcher = dispatch.NewService(adapter, dispatch.Config{Queue: qc, Consumers: 1, Workers: 2},
		dispatch.NewRelay(outboxRepo, publisher, 50, 20*time.Millisecond), processor)
	require.NoError(t, env.Dispatcher.Start())
	t.Cleanup(func() {
		env.Dispatcher.Stop()
		_ = publisher.Stop(time.Second)
	})

	return env
}

func (e *TestEnvironment) login(t *testing.T, username string) string {
	ctx := helpers.Do(e.Handler, "POST", "/api/auth/login", "", model.LoginRequest{
		Username: username,
		Password: helpers.TestPassword,
	})
	require.Equal(t, 200, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var resp model.LoginResponse
	helpers.DecodeBody(t, ctx, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *TestEnvironment) templatesSent(s *helpers.FakeSender, address string) []string {
	var keys []string
	for _, m := range s.SentTo(address) {
		keys = append(keys, m.Subject+"|"+m.Body)
	}
	return keys
}

func TestE2E_PartnerServiceLifecycle(t *testing.T) {
	env := setupE2EEnvironment(t)

	helpers.CreateTestUser(t, env.DB, "admin", model.RoleAdmin)
	partner := helpers.CreateTestUser(t, env.DB, "partner", model.RoleBusinessPartner)
	categoryID, manufacturerID := helpers.CreateTestReferences(t, env.DB, "Washing machine", "Candy")

	partnerToken := env.login(t, "partner")
	adminToken := env.login(t, "admin")

	ctx := helpers.Do(env.Handler, "POST", "/api/business/clients", partnerToken, fixtures.NewClientRequest())
	require.Equal(t, 201, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var client model.Client
	helpers.DecodeBody(t, ctx, &client)

	ctx = helpers.Do(env.Handler, "POST", "/api/business/appliances", partnerToken,
		fixtures.NewApplianceRequest(client.ID, categoryID, manufacturerID))
	require.Equal(t, 201, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var appliance model.Appliance
	helpers.DecodeBody(t, ctx, &appliance)

	ctx = helpers.Do(env.Handler, "POST", "/api/business/services", partnerToken,
		fixtures.NewServiceRequest(client.ID, appliance.ID))
	require.Equal(t, 201, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var svc model.Service
	helpers.DecodeBody(t, ctx, &svc)
	assert.Equal(t, model.StatusPending, svc.Status)
	require.NotNil(t, svc.BusinessPartnerID)
	assert.Equal(t, partner.ID, *svc.BusinessPartnerID)

	// creation texts the client through the outbox, relay and stream
	require.Eventually(t, func() bool {
		return len(env.SMS.SentTo(fixtures.ClientPhone)) == 1
	}, 5*time.Second, 20*time.Millisecond)
	created := env.SMS.SentTo(fixtures.ClientPhone)[0]
	assert.Contains(t, created.Body, fmt.Sprintf("%d", svc.ID))
	assert.LessOrEqual(t, len([]rune(created.Body)), templates.SMSLimitGSM)

	rows, err := env.Deliveries.ListByJob(context.Background(), created.JobID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, model.DeliverySent, rows[0].Status)

	// admins see the unaddressed in-app notification
	ctx = helpers.Do(env.Handler, "GET", "/api/notifications/unread-count", adminToken, nil)
	require.Equal(t, 200, ctx.Response.StatusCode())
	var unread struct {
		Count int64 `json:"count"`
	}
	helpers.DecodeBody(t, ctx, &unread)
	assert.GreaterOrEqual(t, unread.Count, int64(1))

	// Candy parts go to Com Plus
	path := fmt.Sprintf("/api/services/%d/status", svc.ID)
	ctx = helpers.Do(env.Handler, "PATCH", path, adminToken, fixtures.Status(model.StatusWaitingParts))
	require.Equal(t, 200, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	require.Eventually(t, func() bool {
		return len(env.Email.SentTo(fixtures.ComplusEmail)) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Empty(t, env.Email.SentTo(fixtures.DefaultEmail))

	ctx = helpers.Do(env.Handler, "GET", "/api/supplier/parts-requests", "", nil)
	assert.Equal(t, 401, ctx.Response.StatusCode())

	// completing without a cost is rejected and sends nothing
	ctx = helpers.Do(env.Handler, "PATCH", path, adminToken, fixtures.Status(model.StatusCompleted))
	assert.Equal(t, 400, ctx.Response.StatusCode())

	ctx = helpers.Do(env.Handler, "PATCH", path, adminToken, fixtures.Completed(120, 12))
	require.Equal(t, 200, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	helpers.DecodeBody(t, ctx, &svc)
	assert.Equal(t, model.StatusCompleted, svc.Status)

	require.Eventually(t, func() bool {
		return len(env.Email.SentTo(partner.Email)) == 1 &&
			len(env.Email.SentTo(fixtures.ClientEmail)) == 1 &&
			len(env.SMS.SentTo(fixtures.ClientPhone)) == 3
	}, 5*time.Second, 20*time.Millisecond, "sms=%v email=%v",
		env.templatesSent(env.SMS, fixtures.ClientPhone), env.templatesSent(env.Email, partner.Email))

	require.Eventually(t, func() bool {
		pending, err := env.Outbox.CountPending(context.Background())
		return err == nil && pending == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestE2E_RejectedRequestsLeaveNoOutbox(t *testing.T) {
	env := setupE2EEnvironment(t)
	helpers.CreateTestUser(t, env.DB, "partner", model.RoleBusinessPartner)
	helpers.CreateTestUser(t, env.DB, "carla", model.RoleCustomer)
	token := env.login(t, "partner")

	for _, phone := range fixtures.InvalidPhones {
		req := fixtures.NewClientRequest()
		req.Phone = phone
		ctx := helpers.Do(env.Handler, "POST", "/api/business/clients", token, req)
		assert.Equal(t, 400, ctx.Response.StatusCode(), phone)
	}
	for _, phone := range fixtures.ValidPhones {
		req := fixtures.NewClientRequest()
		req.Phone = phone
		ctx := helpers.Do(env.Handler, "POST", "/api/business/clients", token, req)
		assert.Equal(t, 201, ctx.Response.StatusCode(), phone)
	}

	ctx := helpers.Do(env.Handler, "POST", "/api/business/services", token, fixtures.NewServiceRequest(999, 999))
	assert.Equal(t, 400, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	customerToken := env.login(t, "carla")
	ctx = helpers.Do(env.Handler, "POST", "/api/business/services", customerToken, fixtures.NewServiceRequest(1, 1))
	assert.Equal(t, 403, ctx.Response.StatusCode())

	pending, err := env.Outbox.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Empty(t, env.SMS.Sent())
}

func TestE2E_Health(t *testing.T) {
	env := setupE2EEnvironment(t)
	ctx := helpers.Do(env.Handler, "GET", "/api/health", "", nil)
	require.Equal(t, 200, ctx.Response.StatusCode())

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	helpers.DecodeBody(t, ctx, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.Checks["redis"])
}
