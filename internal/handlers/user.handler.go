package handlers

import (
	"context"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/validation"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

type UserService interface {
	Login(ctx context.Context, p model.LoginRequest) (*model.LoginResponse, error)
	Me(ctx context.Context, actor *model.Actor) (*model.User, error)
	List(ctx context.Context, actor *model.Actor, f model.UserFilter) ([]*model.User, int64, error)
	Create(ctx context.Context, actor *model.Actor, p model.UserCreateRequest) (*model.User, error)
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

func RegisterUserRoutes(api *router.Group, h *UserHandler, a *Auth) {
	api.POST("/auth/login", h.Login)
	api.GET("/auth/me", a.Authenticated()(h.Me))

	admin := a.Require(model.RoleAdmin)
	api.GET("/admin/users", admin(h.List))
	api.POST("/admin/users", admin(h.Create))
}

func (h *UserHandler) Login(ctx *xhttp.RequestCtx) {
	var req model.LoginRequest
	if !decode(ctx, validation.Login, &req) {
		return
	}
	resp, err := h.users.Login(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, resp)
}

func (h *UserHandler) Me(ctx *xhttp.RequestCtx) {
	u, err := h.users.Me(ctx, actorFrom(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, u)
}

func (h *UserHandler) List(ctx *xhttp.RequestCtx) {
	f := model.UserFilter{
		Limit:  queryInt(ctx, "limit"),
		Offset: queryInt(ctx, "offset"),
	}
	if v := query(ctx, "role"); v != "" {
		role := model.Role(v)
		if !role.Valid() {
			writeError(ctx, xhttp.StatusBadRequest, "invalid role")
			return
		}
		f.Role = &role
	}
	if v := query(ctx, "active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid active")
			return
		}
		f.Active = &active
	}
	items, total, err := h.users.List(ctx, actorFrom(ctx), f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, listResponse[*model.User]{Items: items, Total: total})
}

func (h *UserHandler) Create(ctx *xhttp.RequestCtx) {
	var req model.UserCreateRequest
	if !decode(ctx, validation.UserCreate, &req) {
		return
	}
	u, err := h.users.Create(ctx, actorFrom(ctx), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, u)
}
