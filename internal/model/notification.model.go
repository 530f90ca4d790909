package model

import "time"

type NotificationType string

const (
	NotificationPaymentApproved NotificationType = "payment_approved"
	NotificationPaymentRejected NotificationType = "payment_rejected"
)

// Notification is immutable apart from IsRead.
type Notification struct {
	ID        int64            `json:"id"`
	TenantID  int64            `json:"tenant_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	PaymentID *int64           `json:"payment_id"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}

// NotificationEvent is published on the event stream after a notification commits.
type NotificationEvent struct {
	NotificationID int64            `json:"notification_id"`
	TenantID       int64            `json:"tenant_id"`
	PaymentID      *int64           `json:"payment_id,omitempty"`
	Type           NotificationType `json:"type"`
	Title          string           `json:"title"`
	CreatedAt      time.Time        `json:"created_at"`
}
