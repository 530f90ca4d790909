package repository

import (
	"context"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PropertyRepository struct {
	*pg.DB
}

func NewPropertyRepository(db *pg.DB) *PropertyRepository {
	return &PropertyRepository{
		db,
	}
}

func (r *PropertyRepository) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	e := toPropertyEntity(p)
	e.Units, e.Tenants = 0, 0
	if err := r.Write(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return nil, err
	}
	return toPropertyModel(e), nil
}

// Update writes the landlord-editable columns; counters are left alone.
func (r *PropertyRepository) Update(ctx context.Context, p *model.Property) (*model.Property, error) {
	e := toPropertyEntity(p)
	err := r.Write(ctx).Model(&PropertyEntity{Model: pg.Model{ID: p.ID}}).
		Select("name", "description", "type", "street_address", "city", "state", "zip_code", "main_photo", "photos", "status").
		Updates(e).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, p.ID)
}

func (r *PropertyRepository) FindByID(ctx context.Context, id int64) (*model.Property, error) {
	var e PropertyEntity
	if err := r.Read(ctx).Preload("Landlord").Where("id = ?", id).First(&e).Error; err != nil {
		return nil, notFound(err, "property %d", id)
	}
	return toPropertyModel(&e), nil
}

// FindOwned returns the property only when it belongs to landlordID.
func (r *PropertyRepository) FindOwned(ctx context.Context, id, landlordID int64) (*model.Property, error) {
	var e PropertyEntity
	err := r.Read(ctx).Where("id = ? AND landlord_id = ?", id, landlordID).First(&e).Error
	if err != nil {
		return nil, notFound(err, "property %d", id)
	}
	return toPropertyModel(&e), nil
}

func (r *PropertyRepository) ListByLandlord(ctx context.Context, landlordID int64) ([]*model.Property, error) {
	var entities []*PropertyEntity
	if err := r.Read(ctx).Where("landlord_id = ?", landlordID).Order("created_at DESC, id DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toPropertyModels(entities), nil
}

func (r *PropertyRepository) ListAll(ctx context.Context) ([]*model.Property, error) {
	var entities []*PropertyEntity
	if err := r.Read(ctx).Preload("Landlord").Order("created_at DESC, id DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toPropertyModels(entities), nil
}

func (r *PropertyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&PropertyEntity{}).Count(&n).Error
	return n, err
}

// AdjustTenants adds delta to the tenant counter without letting it drop below zero.
func (r *PropertyRepository) AdjustTenants(ctx context.Context, id int64, delta int) error {
	return r.adjust(ctx, id, "tenants", delta)
}

func (r *PropertyRepository) AdjustUnits(ctx context.Context, id int64, delta int) error {
	return r.adjust(ctx, id, "units", delta)
}

func (r *PropertyRepository) adjust(ctx context.Context, id int64, column string, delta int) error {
	q := r.Write(ctx).Model(&PropertyEntity{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	res := q.Update(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && delta > 0 {
		return notFound(gorm.ErrRecordNotFound, "property %d", id)
	}
	return nil
}
