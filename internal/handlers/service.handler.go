package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/validation"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

type TicketService interface {
	Create(ctx context.Context, actor *model.Actor, p model.ServiceCreateRequest) (*model.Service, error)
	List(ctx context.Context, actor *model.Actor, f model.ServiceFilter) ([]*model.Service, int64, error)
	PartsRequests(ctx context.Context, actor *model.Actor, limit, offset int) ([]*model.Service, int64, error)
	Get(ctx context.Context, actor *model.Actor, id int64) (*model.Service, error)
	Update(ctx context.Context, actor *model.Actor, id int64, p model.ServiceUpdateRequest) (*model.Service, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
	Assign(ctx context.Context, actor *model.Actor, id int64, p model.AssignRequest) (*model.Service, error)
	UpdateStatus(ctx context.Context, actor *model.Actor, id int64, p model.StatusUpdateRequest) (*model.Service, error)
	Cancel(ctx context.Context, actor *model.Actor, id int64) (*model.Service, error)
}

type IntegrityReporter interface {
	Report(ctx context.Context) (*model.IntegrityReport, error)
}

type ServiceHandler struct {
	tickets   TicketService
	integrity IntegrityReporter
}

func NewServiceHandler(tickets TicketService, integrity IntegrityReporter) *ServiceHandler {
	return &ServiceHandler{tickets: tickets, integrity: integrity}
}

func RegisterServiceRoutes(api *router.Group, h *ServiceHandler, a *Auth) {
	authed := a.Authenticated()
	api.GET("/services", authed(h.List))
	api.GET("/services/{id}", authed(h.Get))
	api.PATCH("/services/{id}/status", authed(h.UpdateStatus))

	admin := a.Require(model.RoleAdmin)
	api.GET("/admin/services", admin(h.List))
	api.POST("/admin/services", admin(h.Create))
	api.GET("/admin/services/integrity", admin(h.Integrity))
	api.GET("/admin/services/{id}", admin(h.Get))
	api.PUT("/admin/services/{id}", admin(h.Update))
	api.DELETE("/admin/services/{id}", admin(h.Delete))
	api.POST("/admin/services/{id}/assign", admin(h.Assign))

	business := a.Require(model.RoleBusinessPartner)
	api.GET("/business/services", business(h.List))
	api.POST("/business/services", business(h.Create))
	api.GET("/business/services/{id}", business(h.Get))
	api.POST("/business/services/{id}/cancel", business(h.Cancel))

	customer := a.Require(model.RoleCustomer)
	api.GET("/customer/services", customer(h.List))
	api.POST("/customer/services", customer(h.CreateForCustomer))

	api.GET("/technician/services", a.Require(model.RoleTechnician)(h.List))

	api.GET("/supplier/parts-requests", a.RequireSupplier()(h.PartsRequests))
}

func (h *ServiceHandler) List(ctx *xhttp.RequestCtx) {
	items, total, err := h.tickets.List(ctx, actorFrom(ctx), serviceFilter(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Service]{Items: items, Total: total})
}

func (h *ServiceHandler) Get(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	s, err := h.tickets.Get(ctx, actorFrom(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *ServiceHandler) Create(ctx *xhttp.RequestCtx) {
	h.create(ctx, validation.ServiceCreate)
}

// CreateForCustomer takes no client_id; the caller's own client profile is used.
func (h *ServiceHandler) CreateForCustomer(ctx *xhttp.RequestCtx) {
	h.create(ctx, validation.CustomerService)
}

func (h *ServiceHandler) create(ctx *xhttp.RequestCtx, schema string) {
	var req model.ServiceCreateRequest
	if !decode(ctx, schema, &req) {
		return
	}
	s, err := h.tickets.Create(ctx, actorFrom(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, s)
}

func (h *ServiceHandler) Update(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.ServiceUpdateRequest
	if !decode(ctx, validation.ServiceUpdate, &req) {
		return
	}
	s, err := h.tickets.Update(ctx, actorFrom(ctx), id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *ServiceHandler) Delete(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.tickets.Delete(ctx, actorFrom(ctx), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *ServiceHandler) Assign(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.AssignRequest
	if !decode(ctx, validation.Assign, &req) {
		return
	}
	s, err := h.tickets.Assign(ctx, actorFrom(ctx), id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *ServiceHandler) UpdateStatus(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.StatusUpdateRequest
	if !decode(ctx, validation.StatusUpdate, &req) {
		return
	}
	s, err := h.tickets.UpdateStatus(ctx, actorFrom(ctx), id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *ServiceHandler) Cancel(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	s, err := h.tickets.Cancel(ctx, actorFrom(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *ServiceHandler) PartsRequests(ctx *xhttp.RequestCtx) {
	items, total, err := h.tickets.PartsRequests(ctx, actorFrom(ctx), queryInt(ctx, "limit"), queryInt(ctx, "offset"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Service]{Items: items, Total: total})
}

func (h *ServiceHandler) Integrity(ctx *xhttp.RequestCtx) {
	report, err := h.integrity.Report(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, struct {
		OK bool `json:"ok"`
		*model.IntegrityReport
	}{OK: report.OK(), IntegrityReport: report})
}
