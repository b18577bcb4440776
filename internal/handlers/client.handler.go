package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/validation"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

type ClientService interface {
	ListClients(ctx context.Context, actor *model.Actor, f model.ClientFilter) ([]*model.Client, int64, error)
	CreateClient(ctx context.Context, actor *model.Actor, p model.ClientCreateRequest) (*model.Client, error)
	GetClient(ctx context.Context, actor *model.Actor, id int64) (*model.Client, error)
	UpdateClient(ctx context.Context, actor *model.Actor, id int64, p model.ClientCreateRequest) (*model.Client, error)
	DeleteClient(ctx context.Context, actor *model.Actor, id int64) error

	ListAppliances(ctx context.Context, actor *model.Actor, f model.ApplianceFilter) ([]*model.Appliance, int64, error)
	CreateAppliance(ctx context.Context, actor *model.Actor, p model.ApplianceCreateRequest) (*model.Appliance, error)
	GetAppliance(ctx context.Context, actor *model.Actor, id int64) (*model.Appliance, error)
	UpdateAppliance(ctx context.Context, actor *model.Actor, id int64, p model.ApplianceCreateRequest) (*model.Appliance, error)
	DeleteAppliance(ctx context.Context, actor *model.Actor, id int64) error

	Categories(ctx context.Context) ([]*model.ApplianceCategory, error)
	Manufacturers(ctx context.Context) ([]*model.Manufacturer, error)
	CreateCategory(ctx context.Context, actor *model.Actor, name string) (*model.ApplianceCategory, error)
	CreateManufacturer(ctx context.Context, actor *model.Actor, name string) (*model.Manufacturer, error)
}

type ClientHandler struct {
	clients ClientService
}

func NewClientHandler(clients ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func RegisterClientRoutes(api *router.Group, h *ClientHandler, a *Auth) {
	authed := a.Authenticated()
	api.GET("/categories", authed(h.Categories))
	api.GET("/manufacturers", authed(h.Manufacturers))

	admin := a.Require(model.RoleAdmin)
	api.GET("/admin/clients", admin(h.ListClients))
	api.POST("/admin/clients", admin(h.CreateClient))
	api.GET("/admin/clients/{id}", admin(h.GetClient))
	api.PUT("/admin/clients/{id}", admin(h.UpdateClient))
	api.DELETE("/admin/clients/{id}", admin(h.DeleteClient))
	api.GET("/admin/appliances", admin(h.ListAppliances))
	api.POST("/admin/appliances", admin(h.CreateAppliance))
	api.GET("/admin/appliances/{id}", admin(h.GetAppliance))
	api.PUT("/admin/appliances/{id}", admin(h.UpdateAppliance))
	api.DELETE("/admin/appliances/{id}", admin(h.DeleteAppliance))
	api.GET("/admin/categories", admin(h.Categories))
	api.POST("/admin/categories", admin(h.CreateCategory))
	api.GET("/admin/manufacturers", admin(h.Manufacturers))
	api.POST("/admin/manufacturers", admin(h.CreateManufacturer))

	business := a.Require(model.RoleBusinessPartner)
	api.GET("/business/clients", business(h.ListClients))
	api.POST("/business/clients", business(h.CreateClient))
	api.GET("/business/clients/{id}", business(h.GetClient))
	api.GET("/business/appliances", business(h.ListAppliances))
	api.POST("/business/appliances", business(h.CreateAppliance))

	customer := a.Require(model.RoleCustomer)
	api.GET("/customer/appliances", customer(h.ListAppliances))
	api.POST("/customer/appliances", customer(h.CreateCustomerAppliance))
}

func (h *ClientHandler) ListClients(ctx *xhttp.RequestCtx) {
	f := model.ClientFilter{
		Search: query(ctx, "search"),
		Limit:  queryInt(ctx, "limit"),
		Offset: queryInt(ctx, "offset"),
	}
	items, total, err := h.clients.ListClients(ctx, actorFrom(ctx), f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Client]{Items: items, Total: total})
}

func (h *ClientHandler) CreateClient(ctx *xhttp.RequestCtx) {
	var req model.ClientCreateRequest
	if !decode(ctx, validation.ClientCreate, &req) {
		return
	}
	c, err := h.clients.CreateClient(ctx, actorFrom(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, c)
}

func (h *ClientHandler) GetClient(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	c, err := h.clients.GetClient(ctx, actorFrom(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}

func (h *ClientHandler) UpdateClient(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.ClientCreateRequest
	if !decode(ctx, validation.ClientCreate, &req) {
		return
	}
	c, err := h.clients.UpdateClient(ctx, actorFrom(ctx), id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, c)
}

func (h *ClientHandler) DeleteClient(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.clients.DeleteClient(ctx, actorFrom(ctx), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *ClientHandler) ListAppliances(ctx *xhttp.RequestCtx) {
	f := model.ApplianceFilter{
		ClientID: queryInt64(ctx, "client_id"),
		Limit:    queryInt(ctx, "limit"),
		Offset:   queryInt(ctx, "offset"),
	}
	items, total, err := h.clients.ListAppliances(ctx, actorFrom(ctx), f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Appliance]{Items: items, Total: total})
}

func (h *ClientHandler) CreateAppliance(ctx *xhttp.RequestCtx) {
	h.createAppliance(ctx, validation.ApplianceCreate)
}

func (h *ClientHandler) CreateCustomerAppliance(ctx *xhttp.RequestCtx) {
	h.createAppliance(ctx, validation.CustomerAppliance)
}

func (h *ClientHandler) createAppliance(ctx *xhttp.RequestCtx, schema string) {
	var req model.ApplianceCreateRequest
	if !decode(ctx, schema, &req) {
		return
	}
	a, err := h.clients.CreateAppliance(ctx, actorFrom(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, a)
}

func (h *ClientHandler) GetAppliance(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	a, err := h.clients.GetAppliance(ctx, actorFrom(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, a)
}

func (h *ClientHandler) UpdateAppliance(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.ApplianceCreateRequest
	if !decode(ctx, validation.ApplianceCreate, &req) {
		return
	}
	a, err := h.clients.UpdateAppliance(ctx, actorFrom(ctx), id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, a)
}

func (h *ClientHandler) DeleteAppliance(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.clients.DeleteAppliance(ctx, actorFrom(ctx), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *ClientHandler) Categories(ctx *xhttp.RequestCtx) {
	items, err := h.clients.Categories(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, items)
}

func (h *ClientHandler) Manufacturers(ctx *xhttp.RequestCtx) {
	items, err := h.clients.Manufacturers(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, items)
}

type referenceRequest struct {
	Name string `json:"name"`
}

func (h *ClientHandler) CreateCategory(ctx *xhttp.RequestCtx) {
	var req referenceRequest
	if !decode(ctx, validation.ReferenceCreate, &req) {
		return
	}
	c, err := h.clients.CreateCategory(ctx, actorFrom(ctx), req.Name)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, c)
}

func (h *ClientHandler) CreateManufacturer(ctx *xhttp.RequestCtx) {
	var req referenceRequest
	if !decode(ctx, validation.ReferenceCreate, &req) {
		return
	}
	m, err := h.clients.CreateManufacturer(ctx, actorFrom(ctx), req.Name)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, m)
}
