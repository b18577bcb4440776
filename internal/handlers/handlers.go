package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/internal/services"
	"github.com/nimasrn/repair-desk/internal/validation"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
	"github.com/nimasrn/repair-desk/pkg/logger"
)

type listResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []validation.FieldError `json:"fields,omitempty"`
}

// decode validates the body against a named schema and unmarshals it.
func decode(ctx *xhttp.RequestCtx, schema string, dst any) bool {
	body := ctx.PostBody()
	if err := validation.Default().Validate(schema, body); err != nil {
		writeServiceError(ctx, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto status codes.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(ctx, xhttp.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrCostRequired),
		errors.Is(err, services.ErrNoClientProfile):
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInactiveUser),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrMissingToken):
		writeError(ctx, xhttp.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeError(ctx, xhttp.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrApplianceNotFound),
		errors.Is(err, repository.ErrServiceNotFound),
		errors.Is(err, repository.ErrNotificationNotFound),
		errors.Is(err, repository.ErrSparePartNotFound),
		errors.Is(err, repository.ErrSubscriptionNotFound),
		errors.Is(err, repository.ErrReferenceNotFound):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrDuplicate):
		writeError(ctx, xhttp.StatusConflict, err.Error())
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, xhttp.StatusText(xhttp.StatusInternalServerError))
	}
}

func pathID(ctx *xhttp.RequestCtx, name string) (int64, bool) {
	raw, _ := ctx.UserValue(name).(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func queryInt(ctx *xhttp.RequestCtx, key string) int {
	n, _ := strconv.Atoi(query(ctx, key))
	return n
}

func queryInt64(ctx *xhttp.RequestCtx, key string) *int64 {
	v := query(ctx, key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func queryBool(ctx *xhttp.RequestCtx, key string) bool {
	v := strings.ToLower(query(ctx, key))
	return v == "1" || v == "true" || v == "yes"
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func serviceFilter(ctx *xhttp.RequestCtx) model.ServiceFilter {
	f := model.ServiceFilter{
		Limit:        queryInt(ctx, "limit"),
		Offset:       queryInt(ctx, "offset"),
		ClientID:     queryInt64(ctx, "client_id"),
		TechnicianID: queryInt64(ctx, "technician_id"),
		Desc:         !strings.EqualFold(query(ctx, "order"), "asc"),
	}
	if v := query(ctx, "status"); v != "" {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Statuses = append(f.Statuses, model.ServiceStatus(part))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, err := parseTime(v); err == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, err := parseTime(v); err == nil {
			f.To = &t
		}
	}
	return f
}
