package services

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessPartnerScheduling_EndsCompleted(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, admin := env.user(t, "admin", model.RoleAdmin)
	tech, techActor := env.user(t, "tom", model.RoleTechnician)
	partner, partnerActor := env.user(t, "partner", model.RoleBusinessPartner)
	categoryID, manufacturerID := env.seedReferences(t, "Washing machine", "Bosch")

	client, err := env.clientsS.CreateClient(ctx, partnerActor, model.ClientCreateRequest{
		FullName: "Ana Horvat",
		Phone:    "+385911234567",
		Email:    "ana@example.com",
		Address:  "Ilica 10",
		City:     "Zagreb",
	})
	require.NoError(t, err)
	require.NotNil(t, client.BusinessPartnerID)
	assert.Equal(t, partner.ID, *client.BusinessPartnerID)

	appliance, err := env.clientsS.CreateAppliance(ctx, partnerActor, model.ApplianceCreateRequest{
		ClientID:       client.ID,
		CategoryID:     categoryID,
		ManufacturerID: manufacturerID,
		Model:          "WAN28",
		SerialNumber:   "SN-1",
	})
	require.NoError(t, err)

	svc, err := env.tickets.Create(ctx, partnerActor, model.ServiceCreateRequest{
		ClientID:    client.ID,
		ApplianceID: appliance.ID,
		Description: "does not drain",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, svc.Status)
	require.NotNil(t, svc.BusinessPartnerID)
	assert.Equal(t, partner.ID, *svc.BusinessPartnerID)

	svc, err = env.tickets.Assign(ctx, admin, svc.ID, model.AssignRequest{TechnicianID: tech.ID})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, svc.Status)

	first := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	svc, err = env.tickets.Assign(ctx, admin, svc.ID, model.AssignRequest{TechnicianID: tech.ID, ScheduledDate: &first})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, svc.Status)

	// reschedule
	second := time.Date(2026, 3, 6, 14, 30, 0, 0, time.UTC)
	svc, err = env.tickets.Assign(ctx, admin, svc.ID, model.AssignRequest{TechnicianID: tech.ID, ScheduledDate: &second})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, svc.Status)
	require.NotNil(t, svc.ScheduledDate)
	assert.True(t, svc.ScheduledDate.Equal(second))

	svc, err = env.tickets.UpdateStatus(ctx, techActor, svc.ID, model.StatusUpdateRequest{Status: model.StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, svc.Status)

	svc, err = env.tickets.UpdateStatus(ctx, techActor, svc.ID, model.StatusUpdateRequest{
		Status:         model.StatusCompleted,
		Cost:           float64Ptr(120),
		WarrantyMonths: intPtr(6),
		Notes:          strPtr("replaced drain pump"),
	})
	require.NoError(t, err)

	got, err := env.tickets.Get(ctx, partnerActor, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedDate)
	require.NotNil(t, got.Cost)
	assert.Equal(t, 120.0, *got.Cost)
	require.NotNil(t, got.WarrantyMonths)
	assert.Equal(t, 6, *got.WarrantyMonths)
	assert.Equal(t, "replaced drain pump", got.TechnicianNotes)

	keys := jobKeys(env.pendingJobs(t))
	assert.Contains(t, keys, jobKey{model.ChannelSMS, templates.KeyServiceCreated})
	assert.Contains(t, keys, jobKey{model.ChannelPush, templates.KeyJobAssigned})
	assert.Contains(t, keys, jobKey{model.ChannelWhatsApp, templates.KeyServiceScheduled})
	assert.Contains(t, keys, jobKey{model.ChannelSMS, templates.KeyTechnicianOnWay})
	assert.Contains(t, keys, jobKey{model.ChannelEmail, templates.KeyServiceCompleted})
	assert.Contains(t, keys, jobKey{model.ChannelEmail, templates.KeyPartnerServiceCompleted})

	// the technician was assigned once, both dates were announced
	assigned, scheduled := 0, 0
	for _, k := range keys {
		if k == (jobKey{model.ChannelSMS, templates.KeyTechnicianAssigned}) {
			assigned++
		}
		if k == (jobKey{model.ChannelSMS, templates.KeyServiceScheduled}) {
			scheduled++
		}
	}
	assert.Equal(t, 1, assigned)
	assert.Equal(t, 2, scheduled)

	partnerRows, _, err := env.notifS.List(ctx, partnerActor, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, partnerRows, 1)
	assert.Equal(t, "service_completed", partnerRows[0].Type)

	adminUnread, err := env.notifS.UnreadCount(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, adminUnread) // created + completed
}

func TestUpdateStatus_WaitingPartsRoutesComplusBrands(t *testing.T) {
	tests := []struct {
		manufacturer string
		supplier     string
		email        string
	}{
		{"Electrolux", "Com Plus", "orders@complus.example"},
		{"Turbo  Air", "Com Plus", "orders@complus.example"},
		{"Miele", "Parts Hub", "orders@partshub.example"},
	}

	for _, tt := range tests {
		t.Run(tt.manufacturer, func(t *testing.T) {
			env := newTestEnv(t, false)
			ctx := context.Background()
			_, admin := env.user(t, "admin", model.RoleAdmin)
			categoryID, manufacturerID := env.seedReferences(t, "Oven", tt.manufacturer)

			client, err := env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "Ivo", Phone: "+385981111111"})
			require.NoError(t, err)
			appliance, err := env.clientsS.CreateAppliance(ctx, admin, model.ApplianceCreateRequest{
				ClientID: client.ID, CategoryID: categoryID, ManufacturerID: manufacturerID, Model: "X1", SerialNumber: "S-9",
			})
			require.NoError(t, err)
			svc, err := env.tickets.Create(ctx, admin, model.ServiceCreateRequest{ClientID: client.ID, ApplianceID: appliance.ID, Description: "no heat"})
			require.NoError(t, err)

			_, err = env.tickets.UpdateStatus(ctx, admin, svc.ID, model.StatusUpdateRequest{
				Status:    model.StatusWaitingParts,
				UsedParts: strPtr("heating element"),
			})
			require.NoError(t, err)

			var found bool
			for _, job := range env.pendingJobs(t) {
				if job.Template != templates.KeyPartsRequest {
					continue
				}
				found = true
				assert.Equal(t, model.ChannelEmail, job.Channel)
				assert.Equal(t, tt.email, job.Recipient.Email)
				assert.Equal(t, tt.supplier, job.Data["supplier_name"])
				assert.Equal(t, "heating element", job.Data["parts"])
				assert.Equal(t, "S-9", job.Data["serial_number"])
			}
			assert.True(t, found, "parts request job expected")

			rows, _, err := env.notifS.List(ctx, admin, true, 10, 0)
			require.NoError(t, err)
			var high bool
			for _, n := range rows {
				if n.Type == "waiting_parts" {
					high = n.Priority == model.PriorityHigh
				}
			}
			assert.True(t, high)
		})
	}
}

func TestCreate_AdminWithTechnicianAndDate(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	tech, _ := env.user(t, "tom", model.RoleTechnician)
	categoryID, manufacturerID := env.seedReferences(t, "Fridge", "Candy")

	client, err := env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "Ivo", Phone: "+385981111111"})
	require.NoError(t, err)
	appliance, err := env.clientsS.CreateAppliance(ctx, admin, model.ApplianceCreateRequest{ClientID: client.ID, CategoryID: categoryID, ManufacturerID: manufacturerID})
	require.NoError(t, err)

	when := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc, err := env.tickets.Create(ctx, admin, model.ServiceCreateRequest{
		ClientID:      client.ID,
		ApplianceID:   appliance.ID,
		TechnicianID:  &tech.ID,
		ScheduledDate: &when,
		Description:   "noisy compressor",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, svc.Status)

	keys := jobKeys(env.pendingJobs(t))
	assert.Contains(t, keys, jobKey{model.ChannelSMS, templates.KeyServiceCreated})
	assert.Contains(t, keys, jobKey{model.ChannelSMS, templates.KeyJobAssigned})
	assert.Contains(t, keys, jobKey{model.ChannelPush, templates.KeyServiceScheduled})
}

func TestCreate_ApplianceOfAnotherClient(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	categoryID, manufacturerID := env.seedReferences(t, "Fridge", "Candy")

	a, err := env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "A", Phone: "1"})
	require.NoError(t, err)
	b, err := env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "B", Phone: "2"})
	require.NoError(t, err)
	appliance, err := env.clientsS.CreateAppliance(ctx, admin, model.ApplianceCreateRequest{ClientID: b.ID, CategoryID: categoryID, ManufacturerID: manufacturerID})
	require.NoError(t, err)

	_, err = env.tickets.Create(ctx, admin, model.ServiceCreateRequest{ClientID: a.ID, ApplianceID: appliance.ID, Description: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, env.pendingJobs(t))
}

func TestCreate_CustomerUsesOwnClientProfile(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	customer, customerActor := env.user(t, "carla", model.RoleCustomer)
	categoryID, manufacturerID := env.seedReferences(t, "Dishwasher", "Hoover")

	_, err := env.tickets.Create(ctx, customerActor, model.ServiceCreateRequest{ApplianceID: 1, Description: "leaks"})
	assert.ErrorIs(t, err, ErrNoClientProfile)

	_, err = env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "Carla", Phone: "+3851", UserID: &customer.ID})
	require.NoError(t, err)
	appliance, err := env.clientsS.CreateAppliance(ctx, customerActor, model.ApplianceCreateRequest{CategoryID: categoryID, ManufacturerID: manufacturerID})
	require.NoError(t, err)

	svc, err := env.tickets.Create(ctx, customerActor, model.ServiceCreateRequest{ApplianceID: appliance.ID, Description: "leaks"})
	require.NoError(t, err)
	assert.Nil(t, svc.BusinessPartnerID)

	list, total, err := env.tickets.List(ctx, customerActor, model.ServiceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, svc.ID, list[0].ID)

	cancelled, err := env.tickets.Cancel(ctx, customerActor, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
}

func TestAssign_ReopeningCompletedClearsCompletedDate(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	tech, _ := env.user(t, "tom", model.RoleTechnician)
	categoryID, manufacturerID := env.seedReferences(t, "Fridge", "Candy")

	client, err := env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "Ivo", Phone: "+385981111111"})
	require.NoError(t, err)
	appliance, err := env.clientsS.CreateAppliance(ctx, admin, model.ApplianceCreateRequest{ClientID: client.ID, CategoryID: categoryID, ManufacturerID: manufacturerID})
	require.NoError(t, err)
	svc, err := env.tickets.Create(ctx, admin, model.ServiceCreateRequest{ClientID: client.ID, ApplianceID: appliance.ID, Description: "warm"})
	require.NoError(t, err)

	svc, err = env.tickets.UpdateStatus(ctx, admin, svc.ID, model.StatusUpdateRequest{Status: model.StatusCompleted, Cost: float64Ptr(80)})
	require.NoError(t, err)
	require.NotNil(t, svc.CompletedDate)

	when := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	svc, err = env.tickets.Assign(ctx, admin, svc.ID, model.AssignRequest{TechnicianID: tech.ID, ScheduledDate: &when})
	require.NoError(t, err)
	assert.Equal(t, model.StatusScheduled, svc.Status)
	assert.Nil(t, svc.CompletedDate)

	got, err := env.tickets.Get(ctx, admin, svc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedDate)
}

func TestCreate_AdminTicketInheritsClientPartner(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	partner, partnerActor := env.user(t, "partner", model.RoleBusinessPartner)
	categoryID, manufacturerID := env.seedReferences(t, "Oven", "Elica")

	client, err := env.clientsS.CreateClient(ctx, partnerActor, model.ClientCreateRequest{FullName: "Ana", Phone: "+385911234567"})
	require.NoError(t, err)
	appliance, err := env.clientsS.CreateAppliance(ctx, admin, model.ApplianceCreateRequest{ClientID: client.ID, CategoryID: categoryID, ManufacturerID: manufacturerID})
	require.NoError(t, err)

	svc, err := env.tickets.Create(ctx, admin, model.ServiceCreateRequest{ClientID: client.ID, ApplianceID: appliance.ID, Description: "no heat"})
	require.NoError(t, err)
	require.NotNil(t, svc.BusinessPartnerID)
	assert.Equal(t, partner.ID, *svc.BusinessPartnerID)

	list, total, err := env.tickets.List(ctx, partnerActor, model.ServiceFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, svc.ID, list[0].ID)

	_, err = env.tickets.UpdateStatus(ctx, admin, svc.ID, model.StatusUpdateRequest{Status: model.StatusCompleted, Cost: float64Ptr(50)})
	require.NoError(t, err)
	assert.Contains(t, jobKeys(env.pendingJobs(t)), jobKey{model.ChannelEmail, templates.KeyPartnerServiceCompleted})
}

func strPtr(s string) *string {
	return &s
}
