package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
)

type RegistryService interface {
	CreateProperty(ctx context.Context, landlordID int64, req model.PropertyRequest) (*model.Property, error)
	UpdateProperty(ctx context.Context, id, landlordID int64, req model.PropertyRequest) (*model.Property, error)
	GetProperty(ctx context.Context, id, landlordID int64) (*model.Property, error)
	ListProperties(ctx context.Context, landlordID int64) ([]*model.Property, error)
	AdminProperties(ctx context.Context) ([]*model.Property, error)

	CreateUnit(ctx context.Context, propertyID, landlordID int64, req model.UnitRequest) (*model.Unit, error)
	UpdateUnit(ctx context.Context, id, landlordID int64, req model.UnitRequest) (*model.Unit, error)
	GetUnit(ctx context.Context, id, landlordID int64) (*model.Unit, error)
	ListUnits(ctx context.Context, propertyID, landlordID int64) ([]*model.Unit, error)
	PublicUnit(ctx context.Context, id int64) (*model.Unit, error)

	TenantDirectory(ctx context.Context, landlordID int64) (*model.TenantDirectory, error)
	Tenant(ctx context.Context, tenantID, landlordID int64) (*model.TenantDirectoryEntry, error)
	RemoveTenant(ctx context.Context, tenantID, landlordID int64) (int, error)
	Rentals(ctx context.Context, tenantID int64) ([]model.Rental, error)
}

type PropertyHandler struct {
	svc RegistryService
}

func RegisterPropertyRoutes(e *router.Group, h *PropertyHandler) {
	e.POST("/properties", h.CreateProperty)
	e.GET("/properties", h.ListProperties)
	e.GET("/properties/{id}", h.GetProperty)
	e.PUT("/properties/{id}", h.UpdateProperty)

	e.POST("/units", h.CreateUnit)
	e.POST("/properties/{id}/units", h.CreateUnit)
	e.GET("/properties/{id}/units", h.ListUnits)
	e.GET("/properties/{id}/units/{unitId}", h.GetUnit)
	e.PUT("/properties/{id}/units/{unitId}", h.UpdateUnit)
	e.GET("/units/{id}", h.PublicUnit)

	e.GET("/tenants", h.ListTenants)
	e.GET("/tenants/{id}", h.GetTenant)
	e.DELETE("/tenants/{id}", h.RemoveTenant)
	e.GET("/tenant/rental", h.Rental)

	e.GET("/admin/properties", h.AdminProperties)
}

func NewPropertyHandler(svc RegistryService) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

func (h *PropertyHandler) CreateProperty(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req model.PropertyRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	property, err := h.svc.CreateProperty(ctx, p.ID, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusCreated, "Property created successfully", envelope{"property": property})
}

func (h *PropertyHandler) UpdateProperty(ctx *xhttp.RequestCtx) {
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
	var req model.PropertyRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	property, err := h.svc.UpdateProperty(ctx, id, p.ID, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Property updated successfully", envelope{"property": property})
}

func (h *PropertyHandler) GetProperty(ctx *xhttp.RequestCtx) {
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
	property, err := h.svc.GetProperty(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"property": property})
}

func (h *PropertyHandler) ListProperties(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	list, err := h.svc.ListProperties(ctx, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"properties": list})
}

func (h *PropertyHandler) AdminProperties(ctx *xhttp.RequestCtx) {
	if _, err := currentPrincipal(ctx, auth.RoleAdmin); err != nil {
		writeError(ctx, err)
		return
	}
	list, err := h.svc.AdminProperties(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"properties": list})
}

type createUnitRequest struct {
	PropertyID int64 `json:"property_id"`
	model.UnitRequest
}

// CreateUnit takes the property from the route, or from property_id on POST /units.
func (h *PropertyHandler) CreateUnit(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req createUnitRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	propertyID := req.PropertyID
	if pathString(ctx, "id") != "" {
		if propertyID, err = pathID(ctx, "id"); err != nil {
			writeError(ctx, err)
			return
		}
	}
	if propertyID <= 0 {
		writeError(ctx, model.Invalid("property_id", "The property id field is required."))
		return
	}
	unit, err := h.svc.CreateUnit(ctx, propertyID, p.ID, req.UnitRequest)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusCreated, "Unit created successfully", envelope{"unit": unit})
}

func (h *PropertyHandler) ListUnits(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	propertyID, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	units, err := h.svc.ListUnits(ctx, propertyID, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"units": units})
}

func (h *PropertyHandler) GetUnit(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	propertyID, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	id, err := pathID(ctx, "unitId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	unit, err := h.svc.GetUnit(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if unit.PropertyID != propertyID {
		writeError(ctx, model.ErrNotFound)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"unit": unit})
}

func (h *PropertyHandler) UpdateUnit(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	id, err := pathID(ctx, "unitId")
	if err != nil {
		writeError(ctx, err)
		return
	}
	var req model.UnitRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, err)
		return
	}
	unit, err := h.svc.UpdateUnit(ctx, id, p.ID, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Unit updated successfully", envelope{"unit": unit})
}

// PublicUnit backs the application form; no session is needed.
func (h *PropertyHandler) PublicUnit(ctx *xhttp.RequestCtx) {
	id, err := pathID(ctx, "id")
	if err != nil {
		writeError(ctx, err)
		return
	}
	unit, err := h.svc.PublicUnit(ctx, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"unit": unit})
}

func (h *PropertyHandler) ListTenants(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	dir, err := h.svc.TenantDirectory(ctx, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{
		"tenants":      dir.Tenants,
		"applications": dir.Applications,
		"statistics":   dir.Statistics,
	})
}

func (h *PropertyHandler) GetTenant(ctx *xhttp.RequestCtx) {
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
	entry, err := h.svc.Tenant(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"tenant": entry})
}

func (h *PropertyHandler) RemoveTenant(ctx *xhttp.RequestCtx) {
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
	n, err := h.svc.RemoveTenant(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Tenant removed successfully", envelope{"units_released": n})
}

func (h *PropertyHandler) Rental(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleTenant)
	if err != nil {
		writeError(ctx, err)
		return
	}
	rentals, err := h.svc.Rentals(ctx, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"rentals": rentals})
}
