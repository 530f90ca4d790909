package services

import (
	"context"
	"math"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
)

const recentPaymentsLimit = 10

type DashboardStore interface {
	CountProperties(ctx context.Context) (int64, error)
	OccupancyCounts(ctx context.Context, landlordID int64) (total, occupied int64, err error)
	Summaries(ctx context.Context) ([]model.LandlordSummary, error)
}

type PaymentLister interface {
	List(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, error)
}

// DashboardService serves the platform-wide read models of the manager dashboard.
type DashboardService struct {
	store      DashboardStore
	properties PropertyRepository
	payments   PaymentLister
	reports    ReportRepository
	now        func() time.Time
}

func NewDashboardService(store DashboardStore, properties PropertyRepository, payments PaymentLister,
	reports ReportRepository) *DashboardService {
	return &DashboardService{
		store:      store,
		properties: properties,
		payments:   payments,
		reports:    reports,
		now:        time.Now,
	}
}

func (s *DashboardService) Overview(ctx context.Context) (*model.Overview, error) {
	properties, err := s.store.CountProperties(ctx)
	if err != nil {
		return nil, err
	}
	total, occupied, err := s.store.OccupancyCounts(ctx, 0)
	if err != nil {
		return nil, err
	}
	revenue, err := s.expectedRent(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.payments.List(ctx, model.PaymentFilter{Limit: recentPaymentsLimit})
	if err != nil {
		return nil, err
	}

	o := &model.Overview{
		TotalProperties: int(properties),
		TotalUnits:      total,
		OccupiedUnits:   occupied,
		VacantUnits:     total - occupied,
		MonthlyRevenue:  revenue,
		RecentPayments:  make([]model.Payment, 0, len(recent)),
	}
	if total > 0 {
		o.OccupancyRate = math.Round(float64(occupied)/float64(total)*1000) / 10
	}
	for _, p := range recent {
		o.RecentPayments = append(o.RecentPayments, *p)
	}
	return o, nil
}

func (s *DashboardService) Properties(ctx context.Context) ([]*model.Property, error) {
	return s.properties.ListAll(ctx)
}

func (s *DashboardService) Landlords(ctx context.Context) ([]model.LandlordSummary, error) {
	return s.store.Summaries(ctx)
}

// Payments lists every payment; overdue covers pending payments past their due date.
func (s *DashboardService) Payments(ctx context.Context) ([]*model.Payment, model.PaymentStats, error) {
	list, err := s.payments.List(ctx, model.PaymentFilter{})
	if err != nil {
		return nil, model.PaymentStats{}, err
	}
	flat := make([]model.Payment, 0, len(list))
	for _, p := range list {
		flat = append(flat, *p)
	}
	return list, model.ComputePaymentStats(flat, s.now()), nil
}

// Income compares the rent expected from occupied units with what was collected for the
// payments due this month.
func (s *DashboardService) Income(ctx context.Context, date string) (*model.IncomeSummary, error) {
	period, err := model.ParsePeriod(date, s.now())
	if err != nil {
		return nil, err
	}
	expected, err := s.expectedRent(ctx)
	if err != nil {
		return nil, err
	}
	from, to := period.Start, period.End
	list, err := s.payments.List(ctx, model.PaymentFilter{DueFrom: &from, DueTo: &to})
	if err != nil {
		return nil, err
	}

	sum := &model.IncomeSummary{Period: period.Label(), ExpectedIncome: expected, PaymentsCount: len(list)}
	for _, p := range list {
		if p.Status == model.PaymentStatusPaid {
			sum.CollectedTotal += p.DisplayTotal()
		}
	}
	sum.CollectedTotal = model.RoundMoney(sum.CollectedTotal)
	sum.Outstanding = model.RoundMoney(math.Max(0, expected-sum.CollectedTotal))
	return sum, nil
}

func (s *DashboardService) expectedRent(ctx context.Context) (float64, error) {
	sources, err := s.reports.OccupiedUnits(ctx, 0)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, src := range sources {
		total += src.Unit.MonthlyRent
	}
	return model.RoundMoney(total), nil
}
