package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/services"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
)

type IdentityService interface {
	Login(ctx context.Context, req model.LoginRequest) (*services.Session, error)
	AdminLogin(ctx context.Context, req model.LoginRequest) (*services.Session, error)
	Logout(ctx context.Context, p *auth.Principal) error
	CurrentUser(ctx context.Context, p *auth.Principal) (any, error)
}

type AuthHandler struct {
	svc IdentityService
}

func RegisterAuthRoutes(e *router.Group, h *AuthHandler) {
	e.POST("/login", h.Login)
	e.POST("/logout", h.Logout)
	e.GET("/user", h.User)
	e.POST("/admin/login", h.AdminLogin)
	e.POST("/admin/logout", h.Logout)
	e.GET("/admin/user", h.User)
}

func NewAuthHandler(svc IdentityService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Login(ctx *xhttp.RequestCtx) {
	var req model.LoginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	session, err := h.svc.Login(ctx, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeSession(ctx, session)
}

func (h *AuthHandler) AdminLogin(ctx *xhttp.RequestCtx) {
	var req model.LoginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	session, err := h.svc.AdminLogin(ctx, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeSession(ctx, session)
}

func writeSession(ctx *xhttp.RequestCtx, s *services.Session) {
	respond(ctx, xhttp.StatusOK, "Login successful", envelope{
		"token":     s.Token,
		"user_type": s.UserType,
		"user":      s.User,
	})
}

func (h *AuthHandler) Logout(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := h.svc.Logout(ctx, p); err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Logged out successfully", nil)
}

// User reports the caller, or authenticated=false for anonymous requests.
func (h *AuthHandler) User(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		writeJSON(ctx, xhttp.StatusOK, envelope{"authenticated": false})
		return
	}
	user, err := h.svc.CurrentUser(ctx, p)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, envelope{
		"authenticated": true,
		"user_type":     p.Role,
		"user":          user,
	})
}
