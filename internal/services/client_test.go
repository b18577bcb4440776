package services

import (
	"context"
	"testing"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClientService_PartnerScope(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	_, partnerA := env.user(t, "alpha", model.RoleBusinessPartner)
	_, partnerB := env.user(t, "beta", model.RoleBusinessPartner)
	categoryID, manufacturerID := env.seedReferences(t, "Oven", "Elica")

	own, err := env.clientsS.CreateClient(ctx, partnerA, model.ClientCreateRequest{FullName: "Own", Phone: "1", UserID: int64Ptr(999)})
	require.NoError(t, err)
	assert.Nil(t, own.UserID)
	_, err = env.clientsS.CreateClient(ctx, partnerB, model.ClientCreateRequest{FullName: "Theirs", Phone: "2"})
	require.NoError(t, err)
	_, err = env.clientsS.CreateClient(ctx, admin, model.ClientCreateRequest{FullName: "Walk-in", Phone: "3"})
	require.NoError(t, err)

	list, total, err := env.clientsS.ListClients(ctx, partnerA, model.ClientFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Own", list[0].FullName)

	_, total, err = env.clientsS.ListClients(ctx, admin, model.ClientFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	_, err = env.clientsS.GetClient(ctx, partnerB, own.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.clientsS.CreateAppliance(ctx, partnerB, model.ApplianceCreateRequest{ClientID: own.ID, CategoryID: categoryID, ManufacturerID: manufacturerID})
	assert.ErrorIs(t, err, ErrForbidden)

	appliance, err := env.clientsS.CreateAppliance(ctx, partnerA, model.ApplianceCreateRequest{ClientID: own.ID, CategoryID: categoryID, ManufacturerID: manufacturerID, Model: "KR 60"})
	require.NoError(t, err)
	require.NotNil(t, appliance.Manufacturer)
	assert.Equal(t, "Elica", appliance.Manufacturer.Name)

	appliances, _, err := env.clientsS.ListAppliances(ctx, partnerB, model.ApplianceFilter{})
	require.NoError(t, err)
	assert.Empty(t, appliances)

	_, err = env.clientsS.CreateAppliance(ctx, partnerA, model.ApplianceCreateRequest{ClientID: own.ID, CategoryID: 404, ManufacturerID: manufacturerID})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.clientsS.CreateAppliance(ctx, partnerA, model.ApplianceCreateRequest{ClientID: own.ID, CategoryID: categoryID, ManufacturerID: 404})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClientService_AdminOnlyMutations(t *testing.T) {
	clients := new(MockClientRepository)
	appliances := new(MockApplianceRepository)
	s := NewClientService(clients, appliances, nil)
	ctx := context.Background()
	tech := &model.Actor{UserID: 5, Role: model.RoleTechnician}
	customer := &model.Actor{UserID: 6, Role: model.RoleCustomer}

	_, err := s.CreateClient(ctx, tech, model.ClientCreateRequest{FullName: "x", Phone: "1"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.CreateClient(ctx, customer, model.ClientCreateRequest{FullName: "x", Phone: "1"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.UpdateClient(ctx, customer, 1, model.ClientCreateRequest{FullName: "x", Phone: "1"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, s.DeleteClient(ctx, tech, 1), ErrForbidden)
	assert.ErrorIs(t, s.DeleteAppliance(ctx, customer, 1), ErrForbidden)
	_, _, err = s.ListClients(ctx, tech, model.ClientFilter{})
	assert.ErrorIs(t, err, ErrForbidden)

	clients.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	clients.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	appliances.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestClientService_Reference(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	_, admin := env.user(t, "admin", model.RoleAdmin)
	_, tech := env.user(t, "tom", model.RoleTechnician)

	_, err := env.clientsS.CreateCategory(ctx, tech, "Dryer")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.clientsS.CreateCategory(ctx, admin, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.clientsS.CreateCategory(ctx, admin, "Dryer")
	require.NoError(t, err)
	_, err = env.clientsS.CreateManufacturer(ctx, admin, "Hoover")
	require.NoError(t, err)

	cats, err := env.clientsS.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Dryer", cats[0].Name)

	mans, err := env.clientsS.Manufacturers(ctx)
	require.NoError(t, err)
	require.Len(t, mans, 1)
}
