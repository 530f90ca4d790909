package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
)

type ApplicationService interface {
	Submit(ctx context.Context, req model.ApplicationSubmitRequest) (*model.TenantApplication, error)
	Get(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error)
	List(ctx context.Context, landlordID int64, statuses ...model.ApplicationStatus) ([]*model.TenantApplication, error)
	Approve(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error)
	Reject(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error)
}

type ApplicationHandler struct {
	svc ApplicationService
}

func RegisterApplicationRoutes(e *router.Group, h *ApplicationHandler) {
	e.POST("/tenant-applications", h.Submit)
	e.GET("/tenant-applications", h.List)
	e.GET("/tenant-applications/{id}", h.Get)
	e.PUT("/tenant-applications/{id}/approve", h.Approve)
	e.PUT("/tenant-applications/{id}/reject", h.Reject)
}

func NewApplicationHandler(svc ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: svc}
}

// Submit is the public intake; applicants have no account yet.
func (h *ApplicationHandler) Submit(ctx *xhttp.RequestCtx) {
	var req model.ApplicationSubmitRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	app, err := h.svc.Submit(ctx, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusCreated, "Application submitted successfully", envelope{"application": app})
}

func (h *ApplicationHandler) List(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var statuses []model.ApplicationStatus
	for _, s := range strings.Split(query(ctx, "status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, model.ApplicationStatus(s))
		}
	}
	list, err := h.svc.List(ctx, p.ID, statuses...)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"applications": list})
}

func (h *ApplicationHandler) Get(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	app, err := h.svc.Get(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"application": app})
}

func (h *ApplicationHandler) Approve(ctx *xhttp.RequestCtx) {
	h.decide(ctx, h.svc.Approve, "Application approved successfully")
}

func (h *ApplicationHandler) Reject(ctx *xhttp.RequestCtx) {
	h.decide(ctx, h.svc.Reject, "Application rejected successfully")
}

func (h *ApplicationHandler) decide(ctx *xhttp.RequestCtx,
	fn func(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error), message string) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	app, err := fn(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, message, envelope{"application": app})
}
