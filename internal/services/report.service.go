package services

import (
	"context"
	"strings"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/report"
)

type ReportRepository interface {
	OccupiedUnits(ctx context.Context, landlordID int64) ([]model.ReportSource, error)
	ApprovedApplications(ctx context.Context, unitIDs []int64) (map[int64][]*model.TenantApplication, error)
	PaymentsDue(ctx context.Context, unitIDs []int64, from, to time.Time) (map[int64][]model.Payment, error)
}

// ReportService projects occupied units and their payments into per-month reports.
// It never writes.
type ReportService struct {
	reports  ReportRepository
	currency string
	now      func() time.Time
}

func NewReportService(reports ReportRepository, currency string) *ReportService {
	return &ReportService{reports: reports, currency: currency, now: time.Now}
}

// Monthly builds the tenant payment report of the landlord for the YYYY-MM period in date.
func (s *ReportService) Monthly(ctx context.Context, landlordID int64, date string) (*model.Report, error) {
	period, err := model.ParsePeriod(date, s.now())
	if err != nil {
		return nil, err
	}
	sources, err := s.sources(ctx, landlordID, period)
	if err != nil {
		return nil, err
	}

	r := &model.Report{
		Rows:       make([]model.ReportRow, 0, len(sources)),
		FilterDate: period.Label(),
		StartDate:  period.Start.Format(model.DateLayout),
		EndDate:    period.End.Format(model.DateLayout),
	}
	for _, src := range sources {
		row, ok := buildRow(src, period)
		if !ok {
			continue
		}
		r.Rows = append(r.Rows, row)
	}
	r.Statistics = reportStats(r.Rows)
	return r, nil
}

// Download renders the monthly report as csv, xlsx or pdf.
func (s *ReportService) Download(ctx context.Context, landlordID int64, date, format string) (*report.File, error) {
	if !report.ValidFormat(format) {
		return nil, model.Invalid("format", "The selected format is invalid.")
	}
	r, err := s.Monthly(ctx, landlordID, date)
	if err != nil {
		return nil, err
	}
	return report.Render(*r, format, s.currency)
}

func (s *ReportService) sources(ctx context.Context, landlordID int64, period model.Period) ([]model.ReportSource, error) {
	sources, err := s.reports.OccupiedUnits(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(sources))
	for _, src := range sources {
		ids = append(ids, src.Unit.ID)
	}
	apps, err := s.reports.ApprovedApplications(ctx, ids)
	if err != nil {
		return nil, err
	}
	payments, err := s.reports.PaymentsDue(ctx, ids, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	for i := range sources {
		unitID := sources[i].Unit.ID
		if list := apps[unitID]; len(list) > 0 {
			sources[i].Application = list[0]
		}
		sources[i].Payments = payments[unitID]
	}
	return sources, nil
}

// buildRow skips units whose tenant row is gone.
func buildRow(src model.ReportSource, period model.Period) (model.ReportRow, bool) {
	if src.Tenant == nil {
		return model.ReportRow{}, false
	}
	row := model.ReportRow{
		TenantID:      src.Tenant.ID,
		TenantName:    src.Tenant.Name,
		Email:         src.Tenant.Email,
		Phone:         src.Tenant.Phone,
		UnitID:        src.Unit.ID,
		UnitNumber:    src.Unit.UnitNumber,
		PropertyID:    src.Unit.PropertyID,
		PropertyName:  model.NotAvailable,
		MonthlyRent:   src.Unit.MonthlyRent,
		PaymentStatus: model.ReportStatusNotPaid,
	}
	if src.Application != nil {
		if name := src.Application.FullName(); name != "" {
			row.TenantName = name
		}
	}
	if src.Property != nil {
		row.PropertyName = src.Property.Name
		row.PropertyAddress = src.Property.Address()
	}

	var first *model.Payment
	for i := range src.Payments {
		p := &src.Payments[i]
		if p.TenantID != src.Tenant.ID {
			continue
		}
		if first == nil {
			first = p
		}
		if p.Status == model.PaymentStatusPaid {
			row.HasPaid = true
		}
	}

	switch {
	case first != nil:
		amount := first.DisplayTotal()
		row.PaymentStatus = capitalize(string(first.Status))
		row.PaymentAmount = &amount
		if first.PaymentDate != nil {
			row.PaymentDate = first.PaymentDate.Format(model.DateLayout)
		}
		row.DueDate = first.DueDate.Format(model.DateLayout)
		row.PaymentMethod = first.PaymentMethod
		row.ReferenceNumber = first.ReferenceNumber
	case src.Unit.LeaseStart != nil:
		row.DueDate = period.ProjectDueDate(*src.Unit.LeaseStart).Format(model.DateLayout)
	}
	return row, true
}

func reportStats(rows []model.ReportRow) model.ReportStats {
	st := model.ReportStats{TotalTenants: len(rows)}
	for _, row := range rows {
		st.TotalRent += row.MonthlyRent
		if row.HasPaid {
			st.PaidTenants++
			if row.PaymentAmount != nil {
				st.TotalPaid += *row.PaymentAmount
			}
		}
	}
	st.UnpaidTenants = st.TotalTenants - st.PaidTenants
	st.TotalRent = model.RoundMoney(st.TotalRent)
	st.TotalPaid = model.RoundMoney(st.TotalPaid)
	st.TotalUnpaid = model.RoundMoney(st.TotalRent - st.TotalPaid)
	return st
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
