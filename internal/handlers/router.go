package handlers

import (
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

type Handlers struct {
	Users         *UserHandler
	Services      *ServiceHandler
	Clients       *ClientHandler
	Notifications *NotificationHandler
	Catalog       *CatalogHandler
	Analytics     *AnalyticsHandler
	Health        *HealthHandler
}

// RegisterRoutes mounts every API route under /api.
func RegisterRoutes(r *xhttp.Router, a *Auth, h Handlers) {
	api := r.Group("/api")
	RegisterHealthRoutes(api, h.Health)
	RegisterAnalyticsRoutes(api, h.Analytics)
	RegisterUserRoutes(api, h.Users, a)
	RegisterServiceRoutes(api, h.Services, a)
	RegisterClientRoutes(api, h.Clients, a)
	RegisterNotificationRoutes(api, h.Notifications, a)
	RegisterCatalogRoutes(api, h.Catalog, a)
}
