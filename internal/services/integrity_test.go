package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orphanFunc func(ctx context.Context) ([]model.IntegrityIssue, error)

func (f orphanFunc) Orphans(ctx context.Context) ([]model.IntegrityIssue, error) {
	return f(ctx)
}

func TestIntegrityService_Report(t *testing.T) {
	none := orphanFunc(func(context.Context) ([]model.IntegrityIssue, error) { return nil, nil })

	t.Run("clean database", func(t *testing.T) {
		report, err := NewIntegrityService(none, none).Report(context.Background())
		require.NoError(t, err)
		assert.True(t, report.OK())
		assert.NotNil(t, report.OrphanedServices)
		assert.NotNil(t, report.OrphanedAppliances)
		assert.False(t, report.CheckedAt.IsZero())
	})

	t.Run("orphans", func(t *testing.T) {
		services := orphanFunc(func(context.Context) ([]model.IntegrityIssue, error) {
			return []model.IntegrityIssue{{Table: "services", ID: 3, Column: "client_id", MissedID: 77}}, nil
		})
		report, err := NewIntegrityService(services, none).Report(context.Background())
		require.NoError(t, err)
		assert.False(t, report.OK())
		require.Len(t, report.OrphanedServices, 1)
		assert.EqualValues(t, 77, report.OrphanedServices[0].MissedID)
	})

	t.Run("query error", func(t *testing.T) {
		broken := orphanFunc(func(context.Context) ([]model.IntegrityIssue, error) { return nil, errors.New("boom") })
		_, err := NewIntegrityService(none, broken).Report(context.Background())
		assert.Error(t, err)
	})
}

func TestIntegrityService_OnDatabase(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	categoryID, manufacturerID := env.seedReferences(t, "Fridge", "Candy")

	client, err := env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "Ivo", Phone: "1"})
	require.NoError(t, err)
	appliance, err := env.clientsS.CreateAppliance(ctx, admin, model.ApplianceCreateRequest{ClientID: client.ID, CategoryID: categoryID, ManufacturerID: manufacturerID})
	require.NoError(t, err)
	_, err = env.tickets.Create(ctx, admin, model.ServiceCreateRequest{ClientID: client.ID, ApplianceID: appliance.ID, Description: "x"})
	require.NoError(t, err)

	s := NewIntegrityService(env.servicesRepo, env.appliances)
	report, err := s.Report(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
}
