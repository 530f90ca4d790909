package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
)

const readAllSegment = "read-all"

type NotificationService interface {
	Feed(ctx context.Context, tenantID int64) (*model.NotificationFeed, error)
	MarkRead(ctx context.Context, id, tenantID int64) error
	MarkAllRead(ctx context.Context, tenantID int64) (int64, error)
}

type NotificationHandler struct {
	svc NotificationService
}

func RegisterNotificationRoutes(e *router.Group, h *NotificationHandler) {
	e.GET("/tenant/notifications", h.Feed)
	e.PUT("/tenant/notifications/{id}/read", h.MarkRead)
	// the router cannot hold a static and a wildcard segment at the same position
	e.PUT("/tenant/notifications/{id}", h.MarkAllRead)
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Feed(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleTenant)
	if err != nil {
		writeError(ctx, err)
		return
	}
	feed, err := h.svc.Feed(ctx, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"notifications": feed.Notifications, "unread_count": feed.UnreadCount})
}

func (h *NotificationHandler) MarkRead(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleTenant)
	if err != nil {
		writeError(ctx, err)
		return
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := h.svc.MarkRead(ctx, id, p.ID); err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Notification marked as read", nil)
}

// MarkAllRead serves PUT /tenant/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(ctx *xhttp.RequestCtx) {
	if pathString(ctx, "id") != readAllSegment {
		writeError(ctx, model.ErrNotFound)
		return
	}
	p, err := currentPrincipal(ctx, auth.RoleTenant)
	if err != nil {
		writeError(ctx, err)
		return
	}
	n, err := h.svc.MarkAllRead(ctx, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "All notifications marked as read", envelope{"updated": n})
}
