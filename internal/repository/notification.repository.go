package repository

import (
	"context"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

type NotificationRepository struct {
	*pg.DB
}

func NewNotificationRepository(db *pg.DB) *NotificationRepository {
	return &NotificationRepository{
		db,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	e := toNotificationEntity(n)
	e.IsRead = false
	if err := r.Write(ctx).Create(e).Error; err != nil {
		return nil, err
	}
	return toNotificationModel(e), nil
}

func (r *NotificationRepository) ListByTenant(ctx context.Context, tenantID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entities []*NotificationEntity
	err := r.Read(ctx).Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, len(entities))
	for i, e := range entities {
		out[i] = *toNotificationModel(e)
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, tenantID int64) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&NotificationEntity{}).Where("tenant_id = ? AND is_read = ?", tenantID, false).Count(&n).Error
	return n, err
}

func (r *NotificationRepository) CountByPayment(ctx context.Context, paymentID int64) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&NotificationEntity{}).Where("payment_id = ?", paymentID).Count(&n).Error
	return n, err
}

// MarkRead flags one of the tenant's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, tenantID int64) error {
	var e NotificationEntity
	if err := r.Read(ctx).Select("id").Where("id = ? AND tenant_id = ?", id, tenantID).First(&e).Error; err != nil {
		return notFound(err, "notification %d", id)
	}
	return r.Write(ctx).Model(&NotificationEntity{}).Where("id = ?", id).Update("is_read", true).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, tenantID int64) (int64, error) {
	res := r.Write(ctx).Model(&NotificationEntity{}).
		Where("tenant_id = ? AND is_read = ?", tenantID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

