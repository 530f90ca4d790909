package services

import (
	"context"

	"github.com/leasedesk/leasedesk/internal/model"
)

const notificationFeedLimit = 50

type NotificationService struct {
	notifications NotificationRepository
}

func NewNotificationService(notifications NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// Feed returns the newest notifications and the unread count of the tenant.
func (s *NotificationService) Feed(ctx context.Context, tenantID int64) (*model.NotificationFeed, error) {
	list, err := s.notifications.ListByTenant(ctx, tenantID, notificationFeedLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &model.NotificationFeed{Notifications: list, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, tenantID int64) error {
	return s.notifications.MarkRead(ctx, id, tenantID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, tenantID int64) (int64, error) {
	return s.notifications.MarkAllRead(ctx, tenantID)
}
