package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/validation"
	xhttp "github.com/nimasrn/repair-desk/pkg/http"
	"github.com/nimasrn/repair-desk/pkg/prom"
)

const (
	maxVitalsPerBeacon = 50
	maxPageDepth       = 3
)

// pageWords are the path segments the frontend routes are built from. Any
// other segment collapses the label to "other" so the page label set stays
// bounded no matter what clients send.
var pageWords = map[string]bool{
	"admin": true, "business": true, "technician": true, "customer": true, "supplier": true,
	"login": true, "dashboard": true, "profile": true, "settings": true,
	"services": true, "clients": true, "appliances": true, "users": true,
	"spare-parts": true, "parts-requests": true, "notifications": true,
	"integrity": true, "backups": true, "calendar": true, "jobs": true,
	"new": true, "edit": true,
}

// VitalRecorder stores one web-vital observation.
type VitalRecorder func(metric, page string, value float64)

type AnalyticsHandler struct {
	record VitalRecorder
}

func NewAnalyticsHandler(record VitalRecorder) *AnalyticsHandler {
	if record == nil {
		record = prom.AddWebVital
	}
	return &AnalyticsHandler{record: record}
}

func RegisterAnalyticsRoutes(api *router.Group, h *AnalyticsHandler) {
	api.POST("/analytics/performance", h.Performance)
}

// Performance accepts a single entry or an array of entries, as sendBeacon batches them.
func (h *AnalyticsHandler) Performance(ctx *xhttp.RequestCtx) {
	body := bytes.TrimSpace(ctx.PostBody())
	raws := []json.RawMessage{body}
	if len(body) > 0 && body[0] == '[' {
		raws = nil
		if err := json.Unmarshal(body, &raws); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if len(raws) > maxVitalsPerBeacon {
			writeError(ctx, xhttp.StatusBadRequest, "too many entries")
			return
		}
	}

	vitals := make([]model.WebVital, 0, len(raws))
	for _, raw := range raws {
		if err := validation.Default().Validate(validation.WebVital, raw); err != nil {
			writeServiceError(ctx, err)
			return
		}
		var v model.WebVital
		if err := json.Unmarshal(raw, &v); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		v.Page = pageLabel(v.Page)
		vitals = append(vitals, v)
	}
	for _, v := range vitals {
		h.record(v.Name, v.Page, v.Value)
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}

// pageLabel reduces a page URL to its route template: query and host are
// dropped, ids become ":id" and unknown segments map to "other".
func pageLabel(page string) string {
	if i := strings.IndexAny(page, "?#"); i >= 0 {
		page = page[:i]
	}
	if i := strings.Index(page, "://"); i >= 0 {
		page = page[i+3:]
		if j := strings.IndexByte(page, '/'); j >= 0 {
			page = page[j:]
		} else {
			page = "/"
		}
	}
	if page == "" {
		return "unknown"
	}

	var parts []string
	for _, seg := range strings.Split(page, "/") {
		if seg == "" {
			continue
		}
		seg = strings.ToLower(seg)
		switch {
		case pageWords[seg]:
		case isIDSegment(seg):
			seg = ":id"
		default:
			return "other"
		}
		if len(parts) == maxPageDepth {
			break
		}
		parts = append(parts, seg)
	}
	return "/" + strings.Join(parts, "/")
}

func isIDSegment(seg string) bool {
	digits := 0
	for _, r := range seg {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'a' && r <= 'f', r == '-':
		default:
			return false
		}
	}
	return digits > 0
}
