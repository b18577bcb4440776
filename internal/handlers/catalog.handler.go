package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/scraper"
	"github.com/nimasrn/repair-desk/internal/validation"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

type CatalogService interface {
	Search(ctx context.Context, actor *model.Actor, f model.SparePartFilter) ([]*model.SparePart, int64, error)
	Get(ctx context.Context, actor *model.Actor, id int64) (*model.SparePart, error)
	Create(ctx context.Context, actor *model.Actor, p *model.SparePart) (*model.SparePart, error)
	Update(ctx context.Context, actor *model.Actor, id int64, p *model.SparePart) (*model.SparePart, error)
	UpdateStock(ctx context.Context, actor *model.Actor, id int64, p model.StockUpdateRequest) (*model.SparePart, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
}

// ScrapeJob starts background catalog scrapes.
type ScrapeJob interface {
	Start() bool
	Running() bool
	Last() *scraper.Result
}

type CatalogHandler struct {
	catalog CatalogService
	scrape  ScrapeJob
}

// NewCatalogHandler accepts a nil scrape job when no supplier sites are configured.
func NewCatalogHandler(catalog CatalogService, scrape ScrapeJob) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, scrape: scrape}
}

func RegisterCatalogRoutes(api *router.Group, h *CatalogHandler, a *Auth) {
	readers := a.Allow(func(actor *model.Actor) bool {
		return actor.Is(model.RoleAdmin, model.RoleTechnician) || actor.Role.IsSupplier()
	})
	api.GET("/spare-parts", readers(h.Search))
	api.GET("/spare-parts/{id}", readers(h.Get))

	admin := a.Require(model.RoleAdmin)
	api.GET("/admin/spare-parts", admin(h.Search))
	api.POST("/admin/spare-parts", admin(h.Create))
	api.POST("/admin/spare-parts/scrape", admin(h.StartScrape))
	api.GET("/admin/spare-parts/scrape", admin(h.ScrapeStatus))
	api.GET("/admin/spare-parts/{id}", admin(h.Get))
	api.PUT("/admin/spare-parts/{id}", admin(h.Update))
	api.DELETE("/admin/spare-parts/{id}", admin(h.Delete))
	api.PATCH("/admin/spare-parts/{id}/stock", admin(h.UpdateStock))

	supplier := a.RequireSupplier()
	api.GET("/supplier/spare-parts", supplier(h.Search))
	api.POST("/supplier/spare-parts", supplier(h.Create))
	api.PUT("/supplier/spare-parts/{id}", supplier(h.Update))
	api.PATCH("/supplier/spare-parts/{id}/stock", supplier(h.UpdateStock))
}

func (h *CatalogHandler) Search(ctx *xhttp.RequestCtx) {
	f := model.SparePartFilter{
		Query:        query(ctx, "q"),
		Category:     query(ctx, "category"),
		Manufacturer: query(ctx, "manufacturer"),
		Availability: model.Availability(query(ctx, "availability")),
		SupplierName: query(ctx, "supplier"),
		Limit:        queryInt(ctx, "limit"),
		Offset:       queryInt(ctx, "offset"),
	}
	if f.Availability != "" && !f.Availability.Valid() {
		writeError(ctx, xhttp.StatusBadRequest, "invalid availability")
		return
	}
	items, total, err := h.catalog.Search(ctx, actorFrom(ctx), f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.SparePart]{Items: items, Total: total})
}

func (h *CatalogHandler) Get(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	p, err := h.catalog.Get(ctx, actorFrom(ctx), id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *CatalogHandler) Create(ctx *xhttp.RequestCtx) {
	var req model.SparePart
	if !decode(ctx, validation.SparePart, &req) {
		return
	}
	p, err := h.catalog.Create(ctx, actorFrom(ctx), &req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, p)
}

func (h *CatalogHandler) Update(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.SparePart
	if !decode(ctx, validation.SparePart, &req) {
		return
	}
	p, err := h.catalog.Update(ctx, actorFrom(ctx), id, &req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *CatalogHandler) UpdateStock(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var req model.StockUpdateRequest
	if !decode(ctx, validation.StockUpdate, &req) {
		return
	}
	p, err := h.catalog.UpdateStock(ctx, actorFrom(ctx), id, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, p)
}

func (h *CatalogHandler) Delete(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(ctx, actorFrom(ctx), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *CatalogHandler) StartScrape(ctx *xhttp.RequestCtx) {
	if h.scrape == nil {
		writeError(ctx, xhttp.StatusServiceUnavailable, "scraper is not configured")
		return
	}
	if !h.scrape.Start() {
		writeError(ctx, xhttp.StatusConflict, "a scrape is already running")
		return
	}
	writeJSON(ctx, xhttp.StatusAccepted, map[string]bool{"started": true})
}

func (h *CatalogHandler) ScrapeStatus(ctx *xhttp.RequestCtx) {
	if h.scrape == nil {
		writeError(ctx, xhttp.StatusServiceUnavailable, "scraper is not configured")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, struct {
		Running bool            `json:"running"`
		Last    *scraper.Result `json:"last,omitempty"`
	}{Running: h.scrape.Running(), Last: h.scrape.Last()})
}
