package handlers

import (
	"github.com/fasthttp/router"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
	"github.com/leasedesk/leasedesk/pkg/logger"
)

type HealthService interface {
	Get() error
}
type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{
		svc: svc,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.svc.Get(); err != nil {
		logger.Warn("health check failed", "error", err)
		ctx.Response.SetStatusCode(xhttp.StatusServiceUnavailable)
		ctx.Response.SetBodyString("unavailable")
		return
	}
	ctx.Response.SetBodyString("success")
}
