package repository

import (
	"context"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const duplicateUnitNumber = "The unit number has already been taken for this property."

type UnitRepository struct {
	*pg.DB
}

func NewUnitRepository(db *pg.DB) *UnitRepository {
	return &UnitRepository{
		db,
	}
}

func (r *UnitRepository) Create(ctx context.Context, u *model.Unit) (*model.Unit, error) {
	e := toUnitEntity(u)
	e.IsOccupied, e.TenantID = false, nil
	if err := r.Write(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return nil, duplicate(err, "unit_number", duplicateUnitNumber)
	}
	return toUnitModel(e), nil
}

// Update writes the descriptive columns. Occupancy and lease columns change only
// through Assign and Unassign.
func (r *UnitRepository) Update(ctx context.Context, u *model.Unit) (*model.Unit, error) {
	e := toUnitEntity(u)
	err := r.Write(ctx).Model(&UnitEntity{Model: pg.Model{ID: u.ID}}).
		Select("unit_number", "unit_type", "bedrooms", "bathrooms", "square_footage", "monthly_rent",
			"security_deposit", "advance_deposit", "description", "photos", "status").
		Updates(e).Error
	if err != nil {
		return nil, duplicate(err, "unit_number", duplicateUnitNumber)
	}
	return r.FindByID(ctx, u.ID)
}

func (r *UnitRepository) FindByID(ctx context.Context, id int64) (*model.Unit, error) {
	var e UnitEntity
	err := r.Read(ctx).Preload("Property").Preload("Tenant").Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, notFound(err, "unit %d", id)
	}
	return toUnitModel(&e), nil
}

// FindForUpdate reads the unit with a row lock held until the surrounding transaction ends.
func (r *UnitRepository) FindForUpdate(ctx context.Context, id int64) (*model.Unit, error) {
	var e UnitEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, notFound(err, "unit %d", id)
	}
	return toUnitModel(&e), nil
}

// FindOwned resolves the unit through the unit→property→landlord chain.
func (r *UnitRepository) FindOwned(ctx context.Context, id, landlordID int64) (*model.Unit, error) {
	var e UnitEntity
	err := r.Read(ctx).Preload("Property").Preload("Tenant").
		Where("id = ?", id).
		Where("property_id IN (?)", ownedProperties(r.Read(ctx), landlordID)).
		First(&e).Error
	if err != nil {
		return nil, notFound(err, "unit %d", id)
	}
	return toUnitModel(&e), nil
}

func (r *UnitRepository) ListByProperty(ctx context.Context, propertyID int64) ([]*model.Unit, error) {
	var entities []*UnitEntity
	err := r.Read(ctx).Preload("Tenant").Where("property_id = ?", propertyID).Order("unit_number").Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toUnitModels(entities), nil
}

// ListByTenant returns every unit the tenant occupies, across landlords.
func (r *UnitRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*model.Unit, error) {
	var entities []*UnitEntity
	err := r.Read(ctx).Preload("Property.Landlord").
		Where("tenant_id = ? AND is_occupied = ?", tenantID, true).
		Order("id").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toUnitModels(entities), nil
}

// ListByTenantForLandlord returns the tenant's units restricted to the landlord's properties.
func (r *UnitRepository) ListByTenantForLandlord(ctx context.Context, tenantID, landlordID int64) ([]*model.Unit, error) {
	var entities []*UnitEntity
	err := r.Read(ctx).Preload("Property").
		Where("tenant_id = ?", tenantID).
		Where("property_id IN (?)", ownedProperties(r.Read(ctx), landlordID)).
		Order("id").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toUnitModels(entities), nil
}

// Assign marks the unit occupied by occ.TenantID and writes the lease terms.
func (r *UnitRepository) Assign(ctx context.Context, unitID int64, occ model.Occupancy) error {
	res := r.Write(ctx).Model(&UnitEntity{}).Where("id = ?", unitID).Updates(map[string]any{
		"tenant_id":      occ.TenantID,
		"is_occupied":    true,
		"status":         string(model.UnitStatusActive),
		"lease_start":    occ.LeaseStart,
		"lease_end":      occ.LeaseEnd,
		"lease_duration": occ.LeaseDuration,
		"lease_amount":   occ.LeaseAmount,
		"lease_deposit":  occ.LeaseDeposit,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "unit %d", unitID)
	}
	return nil
}

// Unassign clears tenant, occupancy and lease columns and returns the unit to vacant.
func (r *UnitRepository) Unassign(ctx context.Context, unitID int64) error {
	return r.Write(ctx).Model(&UnitEntity{}).Where("id = ?", unitID).Updates(map[string]any{
		"tenant_id":      nil,
		"is_occupied":    false,
		"status":         string(model.UnitStatusVacant),
		"lease_start":    nil,
		"lease_end":      nil,
		"lease_duration": nil,
		"lease_amount":   nil,
		"lease_deposit":  nil,
	}).Error
}

// OccupancyCounts returns total and occupied units, optionally scoped to a landlord.
func (r *UnitRepository) OccupancyCounts(ctx context.Context, landlordID int64) (total, occupied int64, err error) {
	q := func() *gorm.DB {
		db := r.Read(ctx).Model(&UnitEntity{})
		if landlordID > 0 {
			db = db.Where("property_id IN (?)", ownedProperties(r.Read(ctx), landlordID))
		}
		return db
	}
	if err = q().Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = q().Where("is_occupied = ?", true).Count(&occupied).Error
	return total, occupied, err
}

func ownedProperties(db *gorm.DB, landlordID int64) *gorm.DB {
	return db.Model(&PropertyEntity{}).Select("id").Where("landlord_id = ?", landlordID)
}
