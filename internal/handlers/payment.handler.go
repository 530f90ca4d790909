package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/report"
	"github.com/leasedesk/leasedesk/internal/services"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
)

const maxProofSize = 5 << 20

type PaymentService interface {
	Create(ctx context.Context, landlordID int64, req model.PaymentCreateRequest) (*model.Payment, error)
	Update(ctx context.Context, id, landlordID int64, req model.PaymentCreateRequest) (*model.Payment, error)
	Delete(ctx context.Context, id, landlordID int64) error
	Get(ctx context.Context, id, landlordID int64) (*model.Payment, error)
	LandlordPayments(ctx context.Context, landlordID int64, f model.PaymentFilter) ([]*model.Payment, model.PaymentStats, error)
	Approve(ctx context.Context, id, landlordID int64) (*services.Decision, error)
	Reject(ctx context.Context, id, landlordID int64) (*services.Decision, error)
	LandlordReceipt(ctx context.Context, id, landlordID int64) (*report.File, error)

	PayRent(ctx context.Context, id, tenantID int64, sub model.PaymentSubmission) (*model.Payment, error)
	PayUtility(ctx context.Context, itemID string, tenantID int64, sub model.PaymentSubmission) (*model.Payment, error)
	TenantHistory(ctx context.Context, tenantID int64) (*model.TenantPaymentHistory, error)
	Utilities(ctx context.Context, tenantID int64) ([]model.UtilityItem, error)
	TenantReceipt(ctx context.Context, id, tenantID int64) (*report.File, error)
}

type PaymentHandler struct {
	svc PaymentService
	loc *time.Location
}

func RegisterPaymentRoutes(e *router.Group, h *PaymentHandler) {
	e.GET("/payments", h.List)
	e.POST("/payments", h.Create)
	e.GET("/payments/{id}", h.Get)
	e.PUT("/payments/{id}", h.Update)
	e.DELETE("/payments/{id}", h.Delete)
	e.PUT("/payments/{id}/approve", h.Approve)
	e.PUT("/payments/{id}/reject", h.Reject)
	e.GET("/payments/{id}/receipt", h.LandlordReceipt)

	e.GET("/tenant/payments", h.TenantHistory)
	e.POST("/tenant/payments/{id}/pay", h.PayRent)
	e.GET("/tenant/utilities", h.Utilities)
	e.POST("/tenant/utilities/{id}/pay", h.PayUtility)
	e.GET("/tenant/receipt/{id}", h.TenantReceipt)
}

func NewPaymentHandler(svc PaymentService, loc *time.Location) *PaymentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PaymentHandler{svc: svc, loc: loc}
}

/* --------------------------------- Landlord ----------------------------------- */

func (h *PaymentHandler) List(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	var f model.PaymentFilter
	if v := query(ctx, "unit_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.UnitID = id
		}
	}
	if v := query(ctx, "tenant_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.TenantID = id
		}
	}
	if v := query(ctx, "payment_type"); v != "" {
		f.Type = model.PaymentType(v)
	}
	for _, s := range strings.Split(query(ctx, "status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, model.PaymentStatus(s))
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}

	list, stats, err := h.svc.LandlordPayments(ctx, p.ID, f)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"payments": list, "statistics": stats})
}

func (h *PaymentHandler) Create(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	req, err := h.readPayment(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	payment, err := h.svc.Create(ctx, p.ID, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusCreated, "Payment created successfully", envelope{"payment": payment})
}

func (h *PaymentHandler) Update(ctx *xhttp.RequestCtx) {
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
	req, err := h.readPayment(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	payment, err := h.svc.Update(ctx, id, p.ID, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Payment updated successfully", envelope{"payment": payment})
}

func (h *PaymentHandler) readPayment(ctx *xhttp.RequestCtx) (model.PaymentCreateRequest, error) {
	var payload model.PaymentPayload
	if err := readJSON(ctx, &payload); err != nil {
		return model.PaymentCreateRequest{}, err
	}
	return payload.Parse(h.loc)
}

func (h *PaymentHandler) Get(ctx *xhttp.RequestCtx) {
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
	payment, err := h.svc.Get(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"payment": payment})
}

func (h *PaymentHandler) Delete(ctx *xhttp.RequestCtx) {
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
	if err := h.svc.Delete(ctx, id, p.ID); err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Payment deleted successfully", nil)
}

func (h *PaymentHandler) Approve(ctx *xhttp.RequestCtx) {
	h.decide(ctx, h.svc.Approve, "Payment approved successfully")
}

func (h *PaymentHandler) Reject(ctx *xhttp.RequestCtx) {
	h.decide(ctx, h.svc.Reject, "Payment rejected successfully")
}

func (h *PaymentHandler) decide(ctx *xhttp.RequestCtx,
	fn func(ctx context.Context, id, landlordID int64) (*services.Decision, error), message string) {
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
	d, err := fn(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, message, envelope{"payment": d.Payment, "notification": d.Notification})
}

func (h *PaymentHandler) LandlordReceipt(ctx *xhttp.RequestCtx) {
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
	f, err := h.svc.LandlordReceipt(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeFile(ctx, f.Name, f.ContentType, f.Data)
}

/* --------------------------------- Tenant ----------------------------------- */

func (h *PaymentHandler) TenantHistory(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleTenant)
	if err != nil {
		writeError(ctx, err)
		return
	}
	hist, err := h.svc.TenantHistory(ctx, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{
		"payment_history": hist.Payments,
		"current_balance": hist.CurrentBalance,
		"next_due_date":   hist.NextDueDate,
	})
}

func (h *PaymentHandler) Utilities(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleTenant)
	if err != nil {
		writeError(ctx, err)
		return
	}
	items, err := h.svc.Utilities(ctx, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{"utilities": items})
}

func (h *PaymentHandler) PayRent(ctx *xhttp.RequestCtx) {
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
	sub, err := readSubmission(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	payment, err := h.svc.PayRent(ctx, id, p.ID, sub)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Payment submitted successfully", envelope{"payment": payment})
}

func (h *PaymentHandler) PayUtility(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleTenant)
	if err != nil {
		writeError(ctx, err)
		return
	}
	itemID := pathString(ctx, "id")
	sub, err := readSubmission(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	payment, err := h.svc.PayUtility(ctx, itemID, p.ID, sub)
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "Payment submitted successfully", envelope{"payment": payment})
}

func (h *PaymentHandler) TenantReceipt(ctx *xhttp.RequestCtx) {
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
	f, err := h.svc.TenantReceipt(ctx, id, p.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeFile(ctx, f.Name, f.ContentType, f.Data)
}

// readSubmission accepts multipart/form-data with an optional payment_proof file, or JSON.
func readSubmission(ctx *xhttp.RequestCtx) (model.PaymentSubmission, error) {
	var sub model.PaymentSubmission
	if !bytes.HasPrefix(ctx.Request.Header.ContentType(), []byte("multipart/form-data")) {
		err := readJSON(ctx, &sub)
		return sub, err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return sub, fmt.Errorf("invalid multipart form: %w", model.ErrBadRequest)
	}
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	sub.PaymentMethod = value("payment_method")
	sub.ReferenceNumber = value("reference_number")
	sub.Notes = value("notes")
	sub.PaymentDate = value("payment_date")

	files := form.File["payment_proof"]
	if len(files) == 0 {
		return sub, nil
	}
	fh := files[0]
	if fh.Size > maxProofSize {
		return sub, model.Invalid("payment_proof", "The payment proof may not be greater than 5120 kilobytes.")
	}
	f, err := fh.Open()
	if err != nil {
		return sub, fmt.Errorf("open payment proof: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return sub, fmt.Errorf("read payment proof: %w", err)
	}
	sub.ProofName = fh.Filename
	sub.Proof = data
	return sub, nil
}
