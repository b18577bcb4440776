package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/validation"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

type NotificationService interface {
	List(ctx context.Context, actor *model.Actor, unreadOnly bool, limit, offset int) ([]*model.Notification, int64, error)
	UnreadCount(ctx context.Context, actor *model.Actor) (int64, error)
	MarkRead(ctx context.Context, actor *model.Actor, id int64) error
	MarkAllRead(ctx context.Context, actor *model.Actor) (int64, error)
	Delete(ctx context.Context, actor *model.Actor, id int64) error
	Broadcast(ctx context.Context, actor *model.Actor, p model.BroadcastRequest) (int, error)
}

type PushService interface {
	PublicKey() string
	Subscribe(ctx context.Context, actor *model.Actor, p model.PushSubscribeRequest, userAgent string) (*model.PushSubscription, error)
	Unsubscribe(ctx context.Context, actor *model.Actor, endpoint string) error
}

type NotificationHandler struct {
	notifications NotificationService
	push          PushService
}

func NewNotificationHandler(notifications NotificationService, push PushService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, push: push}
}

func RegisterNotificationRoutes(api *router.Group, h *NotificationHandler, a *Auth) {
	authed := a.Authenticated()
	api.GET("/notifications", authed(h.List))
	api.GET("/notifications/unread-count", authed(h.UnreadCount))
	api.PATCH("/notifications/{id}/read", authed(h.MarkRead))
	api.POST("/notifications/read-all", authed(h.MarkAllRead))
	api.DELETE("/notifications/{id}", authed(h.Delete))
	api.POST("/admin/notifications", a.Require(model.RoleAdmin)(h.Broadcast))

	api.GET("/push/vapid-public-key", h.PublicKey)
	api.POST("/push/subscribe", authed(h.Subscribe))
	api.POST("/push/unsubscribe", authed(h.Unsubscribe))
}

func (h *NotificationHandler) List(ctx *xhttp.RequestCtx) {
	items, total, err := h.notifications.List(ctx, actorFrom(ctx), queryBool(ctx, "unread"), queryInt(ctx, "limit"), queryInt(ctx, "offset"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.Notification]{Items: items, Total: total})
}

func (h *NotificationHandler) UnreadCount(ctx *xhttp.RequestCtx) {
	n, err := h.notifications.UnreadCount(ctx, actorFrom(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]int64{"count": n})
}

func (h *NotificationHandler) MarkRead(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(ctx, actorFrom(ctx), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(ctx *xhttp.RequestCtx) {
	n, err := h.notifications.MarkAllRead(ctx, actorFrom(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) Delete(ctx *xhttp.RequestCtx) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.notifications.Delete(ctx, actorFrom(ctx), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

func (h *NotificationHandler) Broadcast(ctx *xhttp.RequestCtx) {
	var req model.BroadcastRequest
	if !decode(ctx, validation.Broadcast, &req) {
		return
	}
	n, err := h.notifications.Broadcast(ctx, actorFrom(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, map[string]int{"created": n})
}

func (h *NotificationHandler) PublicKey(ctx *xhttp.RequestCtx) {
	key := h.push.PublicKey()
	if key == "" {
		writeError(ctx, xhttp.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, map[string]string{"public_key": key})
}

func (h *NotificationHandler) Subscribe(ctx *xhttp.RequestCtx) {
	var req model.PushSubscribeRequest
	if !decode(ctx, validation.PushSubscribe, &req) {
		return
	}
	sub, err := h.push.Subscribe(ctx, actorFrom(ctx), req, string(ctx.UserAgent()))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, sub)
}

func (h *NotificationHandler) Unsubscribe(ctx *xhttp.RequestCtx) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if !decode(ctx, validation.PushUnsubscribe, &req) {
		return
	}
	if err := h.push.Unsubscribe(ctx, actorFrom(ctx), req.Endpoint); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}
