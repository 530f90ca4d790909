package repository

import (
	"context"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	*pg.DB
}

func NewPaymentRepository(db *pg.DB) *PaymentRepository {
	return &PaymentRepository{
		db,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	e := toPaymentEntity(p)
	if err := r.Write(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return nil, err
	}
	return toPaymentModel(e), nil
}

// Update writes every ledger column of p.
func (r *PaymentRepository) Update(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	e := toPaymentEntity(p)
	err := r.Write(ctx).Model(&PaymentEntity{Model: pg.Model{ID: p.ID}}).
		Select("tenant_id", "unit_id", "payment_type", "amount", "water", "electricity", "internet",
			"payment_date", "due_date", "status", "review_status", "payment_method", "reference_number", "notes").
		Updates(e).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, p.ID)
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*model.Payment, error) {
	var e PaymentEntity
	if err := r.withRelations(r.Read(ctx)).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, notFound(err, "payment %d", id)
	}
	return toPaymentModel(&e), nil
}

// FindOwned resolves the payment through the unit→property→landlord chain.
func (r *PaymentRepository) FindOwned(ctx context.Context, id, landlordID int64) (*model.Payment, error) {
	var e PaymentEntity
	err := r.withRelations(r.Read(ctx)).
		Where("id = ?", id).
		Where("unit_id IN (?)", ownedUnits(r.Read(ctx), landlordID)).
		First(&e).Error
	if err != nil {
		return nil, notFound(err, "payment %d", id)
	}
	return toPaymentModel(&e), nil
}

func (r *PaymentRepository) FindForTenant(ctx context.Context, id, tenantID int64) (*model.Payment, error) {
	var e PaymentEntity
	err := r.withRelations(r.Read(ctx)).Where("id = ? AND tenant_id = ?", id, tenantID).First(&e).Error
	if err != nil {
		return nil, notFound(err, "payment %d", id)
	}
	return toPaymentModel(&e), nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).Where("id = ?", id).Delete(&PaymentEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "payment %d", id)
	}
	return nil
}

func (r *PaymentRepository) List(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, error) {
	q := r.withRelations(r.Read(ctx))
	if f.LandlordID > 0 {
		q = q.Where("unit_id IN (?)", ownedUnits(r.Read(ctx), f.LandlordID))
	}
	if f.TenantID > 0 {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.UnitID > 0 {
		q = q.Where("unit_id = ?", f.UnitID)
	}
	if f.Type != "" {
		q = q.Where("payment_type = ?", f.Type)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.DueFrom != nil {
		q = q.Where("due_date >= ?", *f.DueFrom)
	}
	if f.DueTo != nil {
		q = q.Where("due_date <= ?", *f.DueTo)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Order("created_at DESC, id DESC")
	} else {
		q = q.Order("due_date DESC, id DESC")
	}

	var entities []*PaymentEntity
	if err := q.Find(&entities).Error; err != nil {
		return nil, err
	}
	return toPaymentModels(entities), nil
}

// Submit records a tenant's review request. Payments already approved are left untouched
// and false is returned.
func (r *PaymentRepository) Submit(ctx context.Context, id, tenantID int64, s model.PaymentSubmission, paidOn *time.Time) (bool, error) {
	updates := map[string]any{
		"status":           string(model.PaymentStatusPending),
		"review_status":    string(model.ReviewStatusPending),
		"payment_method":   s.PaymentMethod,
		"reference_number": s.ReferenceNumber,
		"notes":            s.Notes,
	}
	if s.ProofURL != "" {
		updates["payment_proof"] = s.ProofURL
	}
	if paidOn != nil {
		updates["payment_date"] = *paidOn
	}
	res := r.Write(ctx).Model(&PaymentEntity{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Where("(review_status IS NULL OR review_status <> ?)", model.ReviewStatusApproved).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Review settles a pending review. It returns false when the payment is no longer
// awaiting review, so a concurrent decision cannot be applied twice.
func (r *PaymentRepository) Review(ctx context.Context, id int64, to model.ReviewStatus, status model.PaymentStatus) (bool, error) {
	res := r.Write(ctx).Model(&PaymentEntity{}).
		Where("id = ? AND review_status = ?", id, model.ReviewStatusPending).
		Updates(map[string]any{
			"review_status": string(to),
			"status":        string(status),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Tenant").Preload("Unit.Property.Landlord")
}

func ownedUnits(db *gorm.DB, landlordID int64) *gorm.DB {
	return db.Model(&UnitEntity{}).Select("id").Where("property_id IN (?)", ownedProperties(db, landlordID))
}
