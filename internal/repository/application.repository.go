package repository

import (
	"context"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"gorm.io/gorm/clause"
)

type ApplicationRepository struct {
	*pg.DB
}

func NewApplicationRepository(db *pg.DB) *ApplicationRepository {
	return &ApplicationRepository{
		db,
	}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *model.TenantApplication) (*model.TenantApplication, error) {
	e := toApplicationEntity(a)
	e.Status = string(model.ApplicationStatusPending)
	if err := r.Write(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return nil, err
	}
	return toApplicationModel(e), nil
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id int64) (*model.TenantApplication, error) {
	var e TenantApplicationEntity
	err := r.Read(ctx).Preload("Unit.Property").Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, notFound(err, "application %d", id)
	}
	return toApplicationModel(&e), nil
}

// List returns applications on units owned by the landlord, newest first.
func (r *ApplicationRepository) List(ctx context.Context, f model.ApplicationFilter) ([]*model.TenantApplication, error) {
	q := r.Read(ctx).Preload("Unit.Property").
		Where("unit_id IN (?)", r.Read(ctx).Model(&UnitEntity{}).
			Select("id").
			Where("property_id IN (?)", ownedProperties(r.Read(ctx), f.LandlordID)))
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}

	var entities []*TenantApplicationEntity
	if err := q.Order("created_at DESC, id DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toApplicationModels(entities), nil
}

// HasPending reports whether a pending application for the unit already uses email.
// Decided applications never block a new one; approval resolves the tenant.
func (r *ApplicationRepository) HasPending(ctx context.Context, unitID int64, email string) (bool, error) {
	var n int64
	err := r.Read(ctx).Model(&TenantApplicationEntity{}).
		Where("unit_id = ? AND email = ? AND status = ?", unitID, normalizeEmail(email), model.ApplicationStatusPending).
		Count(&n).Error
	return n > 0, err
}

// Transition moves the application from one status to another. It returns false when
// the row was not in the expected status, so concurrent deciders cannot both win.
func (r *ApplicationRepository) Transition(ctx context.Context, id int64, from, to model.ApplicationStatus) (bool, error) {
	res := r.Write(ctx).Model(&TenantApplicationEntity{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
