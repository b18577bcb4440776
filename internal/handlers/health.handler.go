package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps    map[string]Pinger
	version string
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		deps:    deps,
		version: version,
	}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Version: h.version, Checks: make(map[string]string, len(h.deps))}
	status := xhttp.StatusOK
	for name, dep := range h.deps {
		if err := dep.Ping(c); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = xhttp.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(ctx, status, resp)
}
