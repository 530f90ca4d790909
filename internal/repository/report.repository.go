package repository

import (
	"context"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

// ReportRepository serves the read-only reporting projection.
type ReportRepository struct {
	*pg.DB
}

func NewReportRepository(db *pg.DB) *ReportRepository {
	return &ReportRepository{
		db,
	}
}

type reportUnitRow struct {
	UnitID        int64
	PropertyID    int64
	UnitNumber    string
	MonthlyRent   float64
	TenantID      int64
	LeaseStart    *time.Time
	PropertyName  *string
	StreetAddress *string
	City          *string
	State         *string
	ZipCode       *string
	TenantName    *string
	TenantEmail   *string
	TenantPhone   *string
}

const occupiedUnitsSQL = `
SELECT u.id AS unit_id, u.property_id, u.unit_number, u.monthly_rent, u.tenant_id, u.lease_start,
  p.name AS property_name, p.street_address, p.city, p.state, p.zip_code,
  t.name AS tenant_name, t.email AS tenant_email, t.phone AS tenant_phone
FROM units u
LEFT JOIN properties p ON p.id = u.property_id
LEFT JOIN tenants t ON t.id = u.tenant_id
WHERE u.is_occupied = ? AND u.tenant_id IS NOT NULL AND (? = 0 OR p.landlord_id = ?)
ORDER BY u.property_id, u.unit_number`

// OccupiedUnits lists occupied units with their property and tenant; landlordID 0 means all.
// Missing joined rows come back as nil pointers.
func (r *ReportRepository) OccupiedUnits(ctx context.Context, landlordID int64) ([]model.ReportSource, error) {
	var rows []reportUnitRow
	if err := r.Read(ctx).Raw(occupiedUnitsSQL, true, landlordID, landlordID).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]model.ReportSource, 0, len(rows))
	for _, row := range rows {
		tenantID := row.TenantID
		src := model.ReportSource{
			Unit: model.Unit{
				ID:          row.UnitID,
				PropertyID:  row.PropertyID,
				UnitNumber:  row.UnitNumber,
				MonthlyRent: row.MonthlyRent,
				IsOccupied:  true,
				TenantID:    &tenantID,
				LeaseStart:  row.LeaseStart,
			},
		}
		if row.PropertyName != nil {
			src.Property = &model.Property{
				ID:            row.PropertyID,
				Name:          *row.PropertyName,
				StreetAddress: deref(row.StreetAddress),
				City:          deref(row.City),
				State:         deref(row.State),
				ZipCode:       deref(row.ZipCode),
			}
		}
		if row.TenantEmail != nil {
			src.Tenant = &model.Tenant{
				ID:    row.TenantID,
				Name:  deref(row.TenantName),
				Email: *row.TenantEmail,
				Phone: deref(row.TenantPhone),
			}
		}
		out = append(out, src)
	}
	return out, nil
}

// ApprovedApplications groups approved applications by unit, newest first.
func (r *ReportRepository) ApprovedApplications(ctx context.Context, unitIDs []int64) (map[int64][]*model.TenantApplication, error) {
	out := map[int64][]*model.TenantApplication{}
	if len(unitIDs) == 0 {
		return out, nil
	}
	var entities []*TenantApplicationEntity
	err := r.Read(ctx).
		Where("unit_id IN ? AND status = ?", unitIDs, model.ApplicationStatusApproved).
		Order("updated_at DESC, id DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.UnitID] = append(out[e.UnitID], toApplicationModel(e))
	}
	return out, nil
}

// PaymentsDue groups payments due within [from, to] by unit, oldest due date first.
func (r *ReportRepository) PaymentsDue(ctx context.Context, unitIDs []int64, from, to time.Time) (map[int64][]model.Payment, error) {
	out := map[int64][]model.Payment{}
	if len(unitIDs) == 0 {
		return out, nil
	}
	var entities []*PaymentEntity
	err := r.Read(ctx).
		Where("unit_id IN ? AND due_date >= ? AND due_date <= ?", unitIDs, from, to).
		Order("due_date, id").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		out[e.UnitID] = append(out[e.UnitID], *toPaymentModel(e))
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
