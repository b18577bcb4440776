package handlers

import (
	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/model"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
)

const actorKey = "actor"

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Auth guards routes with the bearer token and a role check.
type Auth struct {
	tokens TokenParser
}

func NewAuth(tokens TokenParser) *Auth {
	return &Auth{tokens: tokens}
}

// Allow authenticates the caller and lets it through when check accepts it.
func (a *Auth) Allow(check func(*model.Actor) bool) xhttp.MiddlewareFunc {
	return func(next xhttp.RequestHandler) xhttp.RequestHandler {
		return func(ctx *xhttp.RequestCtx) {
			token, err := auth.BearerToken(string(ctx.Request.Header.Peek("Authorization")))
			if err != nil {
				writeError(ctx, xhttp.StatusUnauthorized, err.Error())
				return
			}
			claims, err := a.tokens.Parse(token)
			if err != nil {
				writeError(ctx, xhttp.StatusUnauthorized, err.Error())
				return
			}
			actor := claims.Actor()
			if !check(actor) {
				writeError(ctx, xhttp.StatusForbidden, "insufficient role")
				return
			}
			ctx.SetUserValue(actorKey, actor)
			next(ctx)
		}
	}
}

func (a *Auth) Authenticated() xhttp.MiddlewareFunc {
	return a.Allow(func(*model.Actor) bool { return true })
}

func (a *Auth) Require(roles ...model.Role) xhttp.MiddlewareFunc {
	return a.Allow(func(actor *model.Actor) bool { return actor.Is(roles...) })
}

// RequireSupplier accepts every supplier_* role.
func (a *Auth) RequireSupplier() xhttp.MiddlewareFunc {
	return a.Allow(func(actor *model.Actor) bool { return actor.Role.IsSupplier() })
}

func actorFrom(ctx *xhttp.RequestCtx) *model.Actor {
	actor, _ := ctx.UserValue(actorKey).(*model.Actor)
	return actor
}
