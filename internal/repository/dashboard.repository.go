package repository

import (
	"context"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

// DashboardRepository answers the platform-wide counts of the manager dashboard.
type DashboardRepository struct {
	*pg.DB
	units     *UnitRepository
	landlords *LandlordRepository
}

func NewDashboardRepository(db *pg.DB) *DashboardRepository {
	return &DashboardRepository{
		DB:        db,
		units:     NewUnitRepository(db),
		landlords: NewLandlordRepository(db),
	}
}

func (r *DashboardRepository) CountProperties(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&PropertyEntity{}).Count(&n).Error
	return n, err
}

func (r *DashboardRepository) OccupancyCounts(ctx context.Context, landlordID int64) (int64, int64, error) {
	return r.units.OccupancyCounts(ctx, landlordID)
}

func (r *DashboardRepository) Summaries(ctx context.Context) ([]model.LandlordSummary, error) {
	return r.landlords.Summaries(ctx)
}
