package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/auth"
	"github.com/rs/zerolog/log"
)

const principalKey = "principal"

// Reader is the read side the dashboard renders; it never writes.
type Reader interface {
	Overview(ctx context.Context) (*model.Overview, error)
	Properties(ctx context.Context) ([]*model.Property, error)
	Landlords(ctx context.Context) ([]model.LandlordSummary, error)
	Payments(ctx context.Context) ([]*model.Payment, model.PaymentStats, error)
	Income(ctx context.Context, date string) (*model.IncomeSummary, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
}

type Handler struct {
	reader Reader
	auth   Authenticator
}

func NewHandler(reader Reader, a Authenticator) *Handler {
	return &Handler{reader: reader, auth: a}
}

// RequireStaff only lets property managers and admins through.
func (h *Handler) RequireStaff(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		abort(c, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	p, err := h.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		abort(c, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	if p.Role != auth.RolePropertyManager && p.Role != auth.RoleAdmin {
		abort(c, http.StatusForbidden, "This action is unauthorized.")
		return
	}
	c.Set(principalKey, p)
	c.Next()
}

func (h *Handler) Overview(c *gin.Context) {
	o, err := h.reader.Overview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "overview": o})
}

func (h *Handler) Properties(c *gin.Context) {
	list, err := h.reader.Properties(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "properties": list})
}

func (h *Handler) Landlords(c *gin.Context) {
	list, err := h.reader.Landlords(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "landlords": list})
}

func (h *Handler) Payments(c *gin.Context) {
	list, stats, err := h.reader.Payments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payments": list, "statistics": stats})
}

func (h *Handler) Income(c *gin.Context) {
	sum, err := h.reader.Income(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "income": sum})
}

func (h *Handler) fail(c *gin.Context, err error) {
	var fe model.FieldErrors
	if errors.As(err, &fe) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"message": "The given data was invalid.",
			"errors":  fe,
		})
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("dashboard query failed")
	abort(c, http.StatusInternalServerError, "Something went wrong.")
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// SetupRouter wires the dashboard routes behind request logging and staff auth.
func SetupRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	v1 := router.Group("/api/v1/dashboard", h.RequireStaff)
	{
		v1.GET("/overview", h.Overview)
		v1.GET("/properties", h.Properties)
		v1.GET("/landlords", h.Landlords)
		v1.GET("/payments", h.Payments)
		v1.GET("/reports", h.Income)
	}

	return router
}
