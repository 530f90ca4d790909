package repository

import (
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

type PaymentEntity struct {
	pg.Model
	TenantID        int64         `gorm:"column:tenant_id;not null;index"`
	Tenant          *TenantEntity `gorm:"foreignKey:TenantID;references:ID;constraint:OnDelete:CASCADE"`
	UnitID          int64         `gorm:"column:unit_id;not null;index"`
	Unit            *UnitEntity   `gorm:"foreignKey:UnitID;references:ID;constraint:OnDelete:CASCADE"`
	PaymentType     string        `gorm:"column:payment_type;not null;default:rent"`
	Amount          float64       `gorm:"column:amount;type:decimal(10,2);not null;default:0"`
	Water           *float64      `gorm:"column:water;type:decimal(10,2)"`
	Electricity     *float64      `gorm:"column:electricity;type:decimal(10,2)"`
	Internet        *float64      `gorm:"column:internet;type:decimal(10,2)"`
	PaymentDate     *time.Time    `gorm:"column:payment_date;type:date"`
	DueDate         time.Time     `gorm:"column:due_date;type:date;not null;index"`
	Status          string        `gorm:"column:status;not null;default:pending"`
	ReviewStatus    *string       `gorm:"column:review_status"`
	PaymentMethod   string        `gorm:"column:payment_method"`
	ReferenceNumber string        `gorm:"column:reference_number"`
	PaymentProof    string        `gorm:"column:payment_proof"`
	Notes           string        `gorm:"column:notes"`
}

func (PaymentEntity) TableName() string {
	return "payments"
}

type NotificationEntity struct {
	pg.Model
	TenantID  int64  `gorm:"column:tenant_id;not null;index"`
	Type      string `gorm:"column:type;not null"`
	Title     string `gorm:"column:title;not null"`
	Message   string `gorm:"column:message;not null"`
	PaymentID *int64 `gorm:"column:payment_id;index"`
	IsRead    bool   `gorm:"column:is_read;not null;default:false"`
}

func (NotificationEntity) TableName() string {
	return "notifications"
}

func toPaymentModel(e *PaymentEntity) *model.Payment {
	if e == nil {
		return nil
	}
	m := &model.Payment{
		ID:              e.ID,
		TenantID:        e.TenantID,
		UnitID:          e.UnitID,
		PaymentType:     model.PaymentType(e.PaymentType),
		Amount:          e.Amount,
		Water:           e.Water,
		Electricity:     e.Electricity,
		Internet:        e.Internet,
		PaymentDate:     e.PaymentDate,
		DueDate:         e.DueDate,
		Status:          model.PaymentStatus(e.Status),
		PaymentMethod:   e.PaymentMethod,
		ReferenceNumber: e.ReferenceNumber,
		PaymentProof:    e.PaymentProof,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Tenant:          toTenantModel(e.Tenant),
		Unit:            toUnitModel(e.Unit),
	}
	if e.ReviewStatus != nil {
		m.ReviewStatus = model.ReviewPtr(model.ReviewStatus(*e.ReviewStatus))
	}
	return m
}

func toPaymentEntity(m *model.Payment) *PaymentEntity {
	if m == nil {
		return nil
	}
	e := &PaymentEntity{
		Model:           pg.Model{ID: m.ID, CreatedAt: m.CreatedAt},
		TenantID:        m.TenantID,
		UnitID:          m.UnitID,
		PaymentType:     string(m.PaymentType),
		Amount:          m.Amount,
		Water:           m.Water,
		Electricity:     m.Electricity,
		Internet:        m.Internet,
		PaymentDate:     m.PaymentDate,
		DueDate:         m.DueDate,
		Status:          string(m.Status),
		PaymentMethod:   m.PaymentMethod,
		ReferenceNumber: m.ReferenceNumber,
		PaymentProof:    m.PaymentProof,
		Notes:           m.Notes,
	}
	if m.ReviewStatus != nil {
		s := string(*m.ReviewStatus)
		e.ReviewStatus = &s
	}
	return e
}

func toPaymentModels(entities []*PaymentEntity) []*model.Payment {
	if entities == nil {
		return nil
	}
	models := make([]*model.Payment, len(entities))
	for i, e := range entities {
		models[i] = toPaymentModel(e)
	}
	return models
}

func toNotificationModel(e *NotificationEntity) *model.Notification {
	if e == nil {
		return nil
	}
	return &model.Notification{
		ID:        e.ID,
		TenantID:  e.TenantID,
		Type:      model.NotificationType(e.Type),
		Title:     e.Title,
		Message:   e.Message,
		PaymentID: e.PaymentID,
		IsRead:    e.IsRead,
		CreatedAt: e.CreatedAt,
	}
}

func toNotificationEntity(m *model.Notification) *NotificationEntity {
	if m == nil {
		return nil
	}
	return &NotificationEntity{
		Model:     pg.Model{ID: m.ID, CreatedAt: m.CreatedAt},
		TenantID:  m.TenantID,
		Type:      string(m.Type),
		Title:     m.Title,
		Message:   m.Message,
		PaymentID: m.PaymentID,
		IsRead:    m.IsRead,
	}
}
