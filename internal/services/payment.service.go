package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/report"
	"github.com/leasedesk/leasedesk/pkg/blob"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/prom"
)

const proofBlobDir = "payments/proofs"

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)
	Update(ctx context.Context, p *model.Payment) (*model.Payment, error)
	FindByID(ctx context.Context, id int64) (*model.Payment, error)
	FindOwned(ctx context.Context, id, landlordID int64) (*model.Payment, error)
	FindForTenant(ctx context.Context, id, tenantID int64) (*model.Payment, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, error)
	Submit(ctx context.Context, id, tenantID int64, s model.PaymentSubmission, paidOn *time.Time) (bool, error)
	Review(ctx context.Context, id int64, to model.ReviewStatus, status model.PaymentStatus) (bool, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (*model.Notification, error)
	ListByTenant(ctx context.Context, tenantID int64, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, tenantID int64) (int64, error)
	MarkRead(ctx context.Context, id, tenantID int64) error
	MarkAllRead(ctx context.Context, tenantID int64) (int64, error)
}

// NotificationPublisher fans committed notifications out to the event stream.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, ev model.NotificationEvent) error
}

type PaymentService struct {
	payments      PaymentRepository
	units         UnitRepository
	notifications NotificationRepository
	tx            Transactor
	lock          Locker
	publisher     NotificationPublisher
	blobs         blob.Store
	currency      string
	now           func() time.Time
}

func NewPaymentService(payments PaymentRepository, units UnitRepository, notifications NotificationRepository,
	tx Transactor, l Locker, publisher NotificationPublisher, blobs blob.Store, currency string) *PaymentService {
	return &PaymentService{
		payments:      payments,
		units:         units,
		notifications: notifications,
		tx:            tx,
		lock:          lockerOrNone(l),
		publisher:     publisher,
		blobs:         blobs,
		currency:      currency,
		now:           time.Now,
	}
}

// Decision is the outcome of a landlord review.
type Decision struct {
	Payment      *model.Payment      `json:"payment"`
	Notification *model.Notification `json:"notification"`
}

// Create records a landlord-authored payment on one of the landlord's units.
func (s *PaymentService) Create(ctx context.Context, landlordID int64, req model.PaymentCreateRequest) (*model.Payment, error) {
	tenantID, err := s.resolvePayer(ctx, landlordID, req.UnitID, req.TenantID)
	if err != nil {
		return nil, err
	}

	p := &model.Payment{
		TenantID:        tenantID,
		UnitID:          req.UnitID,
		PaymentType:     req.Type(),
		Amount:          req.Amount(),
		PaymentDate:     req.PaymentDate,
		DueDate:         req.DueDate,
		Status:          req.Status,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	}
	applyBreakdown(p, req)
	// a landlord recording a payment as paid is its own review
	if p.Status == model.PaymentStatusPaid {
		p.ReviewStatus = model.ReviewPtr(model.ReviewStatusApproved)
	}

	created, err := s.payments.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	recordTransition("payment", "created", created.ID, landlordID, "status", created.Status, "type", created.PaymentType)
	return s.payments.FindByID(ctx, created.ID)
}

// Update replaces the ledger fields of a landlord-owned payment.
func (s *PaymentService) Update(ctx context.Context, id, landlordID int64, req model.PaymentCreateRequest) (*model.Payment, error) {
	current, err := s.owned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	tenantID, err := s.resolvePayer(ctx, landlordID, req.UnitID, req.TenantID)
	if err != nil {
		return nil, err
	}
	if req.Status == model.PaymentStatusPaid && current.Reviewed(model.ReviewStatusPending) {
		return nil, model.Invalid("status", "This payment is awaiting review; approve it instead of marking it paid.")
	}

	p := *current
	p.TenantID = tenantID
	p.UnitID = req.UnitID
	p.PaymentType = req.Type()
	p.Amount = req.Amount()
	p.Water, p.Electricity, p.Internet = nil, nil, nil
	applyBreakdown(&p, req)
	p.PaymentDate = req.PaymentDate
	p.DueDate = req.DueDate
	p.Status = req.Status
	p.PaymentMethod = req.PaymentMethod
	p.ReferenceNumber = req.ReferenceNumber
	p.Notes = req.Notes
	switch {
	case p.Status == model.PaymentStatusPaid:
		p.ReviewStatus = model.ReviewPtr(model.ReviewStatusApproved)
	case current.Reviewed(model.ReviewStatusApproved):
		p.ReviewStatus = nil
	}

	updated, err := s.payments.Update(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	recordTransition("payment", "updated", id, landlordID, "status", updated.Status)
	return updated, nil
}

func (s *PaymentService) Delete(ctx context.Context, id, landlordID int64) error {
	if _, err := s.owned(ctx, id, landlordID); err != nil {
		return err
	}
	if err := s.payments.Delete(ctx, id); err != nil {
		return err
	}
	recordTransition("payment", "deleted", id, landlordID)
	return nil
}

func (s *PaymentService) Get(ctx context.Context, id, landlordID int64) (*model.Payment, error) {
	p, err := s.payments.FindOwned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	return s.present(p), nil
}

// LandlordPayments lists the landlord's payments with amount statistics.
func (s *PaymentService) LandlordPayments(ctx context.Context, landlordID int64, f model.PaymentFilter) ([]*model.Payment, model.PaymentStats, error) {
	f.LandlordID = landlordID
	payments, err := s.payments.List(ctx, f)
	if err != nil {
		return nil, model.PaymentStats{}, err
	}
	rows := make([]model.Payment, len(payments))
	for i, p := range payments {
		payments[i] = s.present(p)
		rows[i] = *payments[i]
	}
	return payments, model.ComputePaymentStats(rows, s.now()), nil
}

// Approve settles a pending review as paid and notifies the tenant.
func (s *PaymentService) Approve(ctx context.Context, id, landlordID int64) (*Decision, error) {
	return s.decide(ctx, id, landlordID, model.ReviewStatusApproved)
}

// Reject returns a pending review to pending and notifies the tenant.
func (s *PaymentService) Reject(ctx context.Context, id, landlordID int64) (*Decision, error) {
	return s.decide(ctx, id, landlordID, model.ReviewStatusRejected)
}

func (s *PaymentService) decide(ctx context.Context, id, landlordID int64, to model.ReviewStatus) (*Decision, error) {
	p, err := s.owned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	if !p.Reviewed(model.ReviewStatusPending) {
		return nil, fmt.Errorf("payment %d is not awaiting review: %w", id, model.ErrAlreadyProcessed)
	}

	release, err := acquireDecision(ctx, s.lock, "payment", id)
	if err != nil {
		return nil, err
	}
	defer release()

	status := model.PaymentStatusPending
	if to == model.ReviewStatusApproved {
		status = model.PaymentStatusPaid
	}

	var n *model.Notification
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.payments.Review(ctx, id, to, status)
		if err != nil {
			return fmt.Errorf("review payment: %w", err)
		}
		if !ok {
			return fmt.Errorf("payment %d: %w", id, model.ErrAlreadyProcessed)
		}
		n, err = s.notifications.Create(ctx, s.decisionNotification(p, to))
		if err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordTransition("payment", string(to), id, landlordID, "tenant_id", p.TenantID, "notification_id", n.ID)
	s.publish(ctx, n)

	updated, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Decision{Payment: s.present(updated), Notification: n}, nil
}

func (s *PaymentService) decisionNotification(p *model.Payment, to model.ReviewStatus) *model.Notification {
	amount := report.Currency(s.currency, p.DisplayTotal())
	n := &model.Notification{TenantID: p.TenantID, PaymentID: &p.ID}
	if to == model.ReviewStatusApproved {
		n.Type = model.NotificationPaymentApproved
		n.Title = "Payment Approved"
		n.Message = fmt.Sprintf("Your %s payment of %s has been approved.", p.PaymentType.Label(), amount)
	} else {
		n.Type = model.NotificationPaymentRejected
		n.Title = "Payment Rejected"
		n.Message = fmt.Sprintf("Your %s payment of %s has been rejected. Please contact your landlord for more information.",
			p.PaymentType.Label(), amount)
	}
	if p.ReferenceNumber != "" {
		n.Message += fmt.Sprintf(" Reference Number: %s.", p.ReferenceNumber)
	}
	return n
}

// publish is best effort; the notification row is already committed.
func (s *PaymentService) publish(ctx context.Context, n *model.Notification) {
	if s.publisher == nil {
		return
	}
	ev := model.NotificationEvent{
		NotificationID: n.ID,
		TenantID:       n.TenantID,
		PaymentID:      n.PaymentID,
		Type:           n.Type,
		Title:          n.Title,
		CreatedAt:      n.CreatedAt,
	}
	if err := s.publisher.PublishNotification(ctx, ev); err != nil {
		logger.Warn("failed to publish notification event", "notification_id", n.ID, "error", err)
		return
	}
	prom.RecordEventPublished(string(n.Type))
}

// PayRent submits a rent bill for review.
func (s *PaymentService) PayRent(ctx context.Context, id, tenantID int64, sub model.PaymentSubmission) (*model.Payment, error) {
	p, err := s.payments.FindForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if p.PaymentType != model.PaymentTypeRent {
		return nil, fmt.Errorf("payment %d is not a rent payment: %w", id, model.ErrWrongPaymentType)
	}
	return s.submit(ctx, p, tenantID, sub)
}

// PayUtility submits the utility bill behind an item id such as "12_water" for review.
func (s *PaymentService) PayUtility(ctx context.Context, itemID string, tenantID int64, sub model.PaymentSubmission) (*model.Payment, error) {
	pid, kind, err := model.ParseUtilityItemID(itemID)
	if err != nil {
		return nil, err
	}
	p, err := s.payments.FindForTenant(ctx, pid, tenantID)
	if err != nil {
		return nil, err
	}
	if p.PaymentType != model.PaymentTypeUtility {
		return nil, fmt.Errorf("payment %d is not a utility payment: %w", pid, model.ErrWrongPaymentType)
	}
	found := false
	for _, it := range model.UtilityItems(*p) {
		if it.Type == kind {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("utility %s: %w", itemID, model.ErrNotFound)
	}
	return s.submit(ctx, p, tenantID, sub)
}

// submit always lands on status=pending, review_status=pending_review.
func (s *PaymentService) submit(ctx context.Context, p *model.Payment, tenantID int64, sub model.PaymentSubmission) (*model.Payment, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if p.Reviewed(model.ReviewStatusApproved) {
		return nil, fmt.Errorf("payment %d: %w", p.ID, model.ErrAlreadyProcessed)
	}

	paidOn := model.StartOfDay(s.now())
	if sub.PaymentDate != "" {
		t, err := time.ParseInLocation(model.DateLayout, sub.PaymentDate, paidOn.Location())
		if err != nil {
			return nil, model.Invalid("payment_date", "The payment date is not a valid date.")
		}
		paidOn = t
	}

	proofPath, err := s.storeProof(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ProofURL = proofPath

	ok, err := s.payments.Submit(ctx, p.ID, tenantID, sub, &paidOn)
	if err == nil && !ok {
		err = fmt.Errorf("payment %d: %w", p.ID, model.ErrAlreadyProcessed)
	}
	if err != nil {
		if proofPath != "" {
			if derr := s.blobs.Delete(context.WithoutCancel(ctx), proofPath); derr != nil {
				logger.Warn("failed to remove orphaned payment proof", "path", proofPath, "error", derr)
			}
		}
		return nil, err
	}

	recordTransition("payment", "submitted", p.ID, tenantID, "method", sub.PaymentMethod, "with_proof", proofPath != "")
	updated, err := s.payments.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.present(updated), nil
}

// storeProof accepts a multipart file or a data URL; neither is required.
func (s *PaymentService) storeProof(ctx context.Context, sub model.PaymentSubmission) (string, error) {
	var (
		img *blob.Image
		err error
	)
	switch {
	case len(sub.Proof) > 0:
		img, err = blob.ImageFromFile(sub.ProofName, sub.Proof)
	case strings.HasPrefix(sub.ProofURL, "data:"):
		img, err = blob.DecodeDataURL(sub.ProofURL)
	default:
		return "", nil
	}
	if err != nil {
		return "", model.Invalid("payment_proof", "The payment proof must be an image (jpeg, png, gif, webp).")
	}
	path, err := blob.SaveImage(ctx, s.blobs, proofBlobDir, "proof", img)
	if err != nil {
		logger.Error("failed to store payment proof", "error", err)
		return "", model.Invalid("payment_proof", "The payment proof could not be stored.")
	}
	return path, nil
}

// TenantHistory lists the tenant's payments newest first with the open balance.
func (s *PaymentService) TenantHistory(ctx context.Context, tenantID int64) (*model.TenantPaymentHistory, error) {
	payments, err := s.payments.List(ctx, model.PaymentFilter{TenantID: tenantID, Limit: 500})
	if err != nil {
		return nil, err
	}
	h := &model.TenantPaymentHistory{Payments: make([]model.PaymentHistoryEntry, 0, len(payments))}
	var open []*model.Payment
	for _, p := range payments {
		e := model.PaymentHistoryEntry{
			ID:              p.ID,
			Description:     p.Description(),
			Amount:          p.DisplayTotal(),
			Status:          p.TenantStatus(),
			PaymentMethod:   p.PaymentMethod,
			ReferenceNumber: p.ReferenceNumber,
			PaymentType:     p.PaymentType,
		}
		if p.PaymentDate != nil {
			d := p.PaymentDate.Format(model.DateLayout)
			e.Date = &d
		}
		if p.PaymentProof != "" && s.blobs != nil {
			u := blob.PublicURL(s.blobs, p.PaymentProof)
			e.PaymentProof = &u
		}
		h.Payments = append(h.Payments, e)

		if !p.IsSettled() {
			h.CurrentBalance += p.DisplayTotal()
			open = append(open, p)
		}
	}
	h.CurrentBalance = model.RoundMoney(h.CurrentBalance)
	if len(open) > 0 {
		sort.Slice(open, func(i, j int) bool { return open[i].DueDate.Before(open[j].DueDate) })
		d := open[0].DueDate.Format(model.DateLayout)
		h.NextDueDate = &d
	}
	return h, nil
}

// Utilities expands the tenant's utility payments into one item per billed utility.
func (s *PaymentService) Utilities(ctx context.Context, tenantID int64) ([]model.UtilityItem, error) {
	payments, err := s.payments.List(ctx, model.PaymentFilter{TenantID: tenantID, Type: model.PaymentTypeUtility})
	if err != nil {
		return nil, err
	}
	items := make([]model.UtilityItem, 0, len(payments))
	for _, p := range payments {
		items = append(items, model.UtilityItems(*p)...)
	}
	return items, nil
}

// TenantReceipt renders the receipt of one of the tenant's settled payments.
func (s *PaymentService) TenantReceipt(ctx context.Context, id, tenantID int64) (*report.File, error) {
	p, err := s.payments.FindForTenant(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	return s.receipt(p)
}

func (s *PaymentService) LandlordReceipt(ctx context.Context, id, landlordID int64) (*report.File, error) {
	p, err := s.payments.FindOwned(ctx, id, landlordID)
	if err != nil {
		return nil, err
	}
	return s.receipt(p)
}

func (s *PaymentService) receipt(p *model.Payment) (*report.File, error) {
	if !p.IsSettled() {
		return nil, fmt.Errorf("payment %d: %w", p.ID, model.ErrReceiptUnavailable)
	}
	r := model.Receipt{
		Number:          model.ReceiptNumber(p.ID),
		IssuedAt:        s.now(),
		PaymentDate:     p.CreatedAt,
		DueDate:         p.DueDate,
		PaymentType:     p.PaymentType,
		Amount:          p.Amount,
		Water:           p.Water,
		Electricity:     p.Electricity,
		Internet:        p.Internet,
		PaymentMethod:   p.PaymentMethod,
		ReferenceNumber: p.ReferenceNumber,
		Currency:        s.currency,
	}
	if p.PaymentDate != nil {
		r.PaymentDate = *p.PaymentDate
	}
	if p.Tenant != nil {
		r.TenantName = p.Tenant.Name
		r.TenantEmail = p.Tenant.Email
	}
	if p.Unit != nil {
		r.UnitNumber = p.Unit.UnitNumber
		if prop := p.Unit.Property; prop != nil {
			r.PropertyName = prop.Name
			r.PropertyAddress = prop.Address()
			r.LandlordName = prop.LandlordName
		}
	}
	data, err := report.ReceiptPDF(r)
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return &report.File{Name: report.ReceiptFilename(r), ContentType: report.ContentType(report.FormatPDF), Data: data}, nil
}

// resolvePayer applies the tenant defaulting rules of a landlord entry.
func (s *PaymentService) resolvePayer(ctx context.Context, landlordID, unitID int64, tenantID *int64) (int64, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		return 0, err
	}
	if err := ownedBy(unit, landlordID); err != nil {
		return 0, err
	}
	if unit.TenantID == nil {
		return 0, fmt.Errorf("unit %d: %w", unitID, model.ErrNoTenantAssigned)
	}
	if tenantID != nil && *tenantID != *unit.TenantID {
		return 0, fmt.Errorf("tenant %d, unit %d: %w", *tenantID, unitID, model.ErrTenantUnitMismatch)
	}
	return *unit.TenantID, nil
}

func (s *PaymentService) owned(ctx context.Context, id, landlordID int64) (*model.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownedBy(p.Unit, landlordID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("payment %d: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *PaymentService) present(p *model.Payment) *model.Payment {
	if s.blobs == nil || p.PaymentProof == "" {
		return p
	}
	out := *p
	out.PaymentProof = blob.PublicURL(s.blobs, p.PaymentProof)
	return &out
}

func applyBreakdown(p *model.Payment, req model.PaymentCreateRequest) {
	if req.Utility == nil {
		return
	}
	p.Water = req.Utility.Water
	p.Electricity = req.Utility.Electricity
	p.Internet = req.Utility.Internet
}
