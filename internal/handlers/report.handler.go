package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/report"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
)

type ReportService interface {
	Monthly(ctx context.Context, landlordID int64, date string) (*model.Report, error)
	Download(ctx context.Context, landlordID int64, date, format string) (*report.File, error)
}

type ReportHandler struct {
	svc ReportService
}

func RegisterReportRoutes(e *router.Group, h *ReportHandler) {
	e.GET("/reports", h.Monthly)
	e.GET("/reports/download", h.Download)
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) Monthly(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	r, err := h.svc.Monthly(ctx, p.ID, query(ctx, "date"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	respond(ctx, xhttp.StatusOK, "", envelope{
		"report":      r.Rows,
		"statistics":  r.Statistics,
		"filter_date": r.FilterDate,
		"start_date":  r.StartDate,
		"end_date":    r.EndDate,
	})
}

func (h *ReportHandler) Download(ctx *xhttp.RequestCtx) {
	p, err := currentPrincipal(ctx, auth.RoleLandlord)
	if err != nil {
		writeError(ctx, err)
		return
	}
	format := query(ctx, "format")
	if format == "" {
		format = "csv"
	}
	f, err := h.svc.Download(ctx, p.ID, query(ctx, "date"), format)
	if err != nil {
		writeError(ctx, err)
		return
	}
	writeFile(ctx, f.Name, f.ContentType, f.Data)
}
