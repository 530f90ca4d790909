package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// leased approves an application on the fixture unit and returns the new tenant id.
func (h *harness) leased(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()
	app := h.submit(t, h.fx.Unit.ID, "maria@example.com")
	_, err := h.workflow.Approve(ctx, app.ID, h.fx.Landlord.ID)
	require.NoError(t, err)
	unit, err := h.units.FindByID(ctx, h.fx.Unit.ID)
	require.NoError(t, err)
	return *unit.TenantID
}

func floatPtr(v float64) *float64 { return &v }

func rentBill(unitID int64, amount float64) model.PaymentCreateRequest {
	return model.PaymentCreateRequest{
		UnitID:  unitID,
		DueDate: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		Status:  model.PaymentStatusPending,
		Rent:    &model.RentFields{Amount: amount},
	}
}

func utilityBill(unitID int64) model.PaymentCreateRequest {
	return model.PaymentCreateRequest{
		UnitID:  unitID,
		DueDate: time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		Status:  model.PaymentStatusPending,
		Utility: &model.UtilityFields{Water: floatPtr(300), Electricity: floatPtr(1250.5), Internet: floatPtr(1200)},
	}
}

func TestPaymentService_CreateResolvesTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	assert.ErrorIs(t, err, model.ErrNoTenantAssigned)

	tenantID := h.leased(t)

	p, err := h.ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	require.NoError(t, err)
	assert.Equal(t, tenantID, p.TenantID)
	assert.Nil(t, p.ReviewStatus)

	req := rentBill(h.fx.Unit.ID, 15000)
	req.TenantID = int64Ptr(tenantID + 100)
	_, err = h.ledger.Create(ctx, h.fx.Landlord.ID, req)
	assert.ErrorIs(t, err, model.ErrTenantUnitMismatch)

	_, err = h.ledger.Create(ctx, h.fx.Other.ID, rentBill(h.fx.Unit.ID, 15000))
	assert.ErrorIs(t, err, model.ErrForbidden)

	paid := rentBill(h.fx.Unit.ID, 15000)
	paid.Status = model.PaymentStatusPaid
	p, err = h.ledger.Create(ctx, h.fx.Landlord.ID, paid)
	require.NoError(t, err)
	require.NotNil(t, p.ReviewStatus)
	assert.Equal(t, model.ReviewStatusApproved, *p.ReviewStatus)
}

func TestPaymentService_UtilityTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenantID := h.leased(t)

	p, err := h.ledger.Create(ctx, h.fx.Landlord.ID, utilityBill(h.fx.Unit.ID))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentTypeUtility, p.PaymentType)
	assert.Equal(t, 2750.5, p.Amount)
	assert.Equal(t, 2750.5, p.DisplayTotal())

	items, err := h.ledger.Utilities(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, fmt.Sprintf("%d_water", p.ID), items[0].ID)
}

func TestPaymentService_CashSubmitThenReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenantID := h.leased(t)
	bill, err := h.ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	require.NoError(t, err)

	submitted, err := h.ledger.PayRent(ctx, bill.ID, tenantID, model.PaymentSubmission{PaymentMethod: "cash"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, submitted.Status)
	require.NotNil(t, submitted.ReviewStatus)
	assert.Equal(t, model.ReviewStatusPending, *submitted.ReviewStatus)
	assert.Empty(t, submitted.PaymentProof)

	d, err := h.ledger.Reject(ctx, bill.ID, h.fx.Landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, d.Payment.Status)
	assert.Equal(t, model.ReviewStatusRejected, *d.Payment.ReviewStatus)
	assert.Equal(t, model.NotificationPaymentRejected, d.Notification.Type)
	assert.Equal(t, tenantID, d.Notification.TenantID)
	assert.Contains(t, d.Notification.Message, "Php 15,000.00")

	_, err = h.ledger.Reject(ctx, bill.ID, h.fx.Landlord.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)
	n, err := h.notifications.CountByPayment(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = h.ledger.TenantReceipt(ctx, bill.ID, tenantID)
	assert.ErrorIs(t, err, model.ErrReceiptUnavailable)
}

func TestPaymentService_SubmitThenApprove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenantID := h.leased(t)
	bill, err := h.ledger.Create(ctx, h.fx.Landlord.ID, utilityBill(h.fx.Unit.ID))
	require.NoError(t, err)

	_, err = h.ledger.PayRent(ctx, bill.ID, tenantID, model.PaymentSubmission{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, model.ErrWrongPaymentType)

	_, err = h.ledger.Approve(ctx, bill.ID, h.fx.Landlord.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed, "nothing to review yet")

	submitted, err := h.ledger.PayUtility(ctx, fmt.Sprintf("%d_water", bill.ID), tenantID, model.PaymentSubmission{
		PaymentMethod:   "gcash",
		ReferenceNumber: "GC-1",
		ProofURL:        pngDataURL,
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, submitted.Status)
	assert.Contains(t, submitted.PaymentProof, "/storage/payments/proofs/proof_")

	_, err = h.ledger.Approve(ctx, bill.ID, h.fx.Other.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	d, err := h.ledger.Approve(ctx, bill.ID, h.fx.Landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, d.Payment.Status)
	assert.Equal(t, model.NotificationPaymentApproved, d.Notification.Type)
	assert.Equal(t, "Your Utilities payment of Php 2,750.50 has been approved. Reference Number: GC-1.", d.Notification.Message)

	_, err = h.ledger.PayUtility(ctx, fmt.Sprintf("%d_water", bill.ID), tenantID, model.PaymentSubmission{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)

	f, err := h.ledger.TenantReceipt(ctx, bill.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType)
	assert.True(t, bytes.HasPrefix(f.Data, []byte("%PDF-")))

	_, err = h.ledger.LandlordReceipt(ctx, bill.ID, h.fx.Other.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	feed, err := NewNotificationService(h.notifications).Feed(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), feed.UnreadCount)
	require.Len(t, feed.Notifications, 1)
}

func TestPaymentService_TenantHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenantID := h.leased(t)

	_, err := h.ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	require.NoError(t, err)
	_, err = h.ledger.Create(ctx, h.fx.Landlord.ID, utilityBill(h.fx.Unit.ID))
	require.NoError(t, err)
	paid := rentBill(h.fx.Unit.ID, 15000)
	paid.Status = model.PaymentStatusPaid
	paid.DueDate = time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC)
	_, err = h.ledger.Create(ctx, h.fx.Landlord.ID, paid)
	require.NoError(t, err)

	hist, err := h.ledger.TenantHistory(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, hist.Payments, 3)
	assert.Equal(t, 17750.5, hist.CurrentBalance)
	require.NotNil(t, hist.NextDueDate)
	assert.Equal(t, "2025-01-05", *hist.NextDueDate)
}

func TestPaymentService_UpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.leased(t)
	bill, err := h.ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	require.NoError(t, err)

	_, err = h.ledger.Update(ctx, bill.ID, h.fx.Other.ID, rentBill(h.fx.Unit.ID, 16000))
	assert.ErrorIs(t, err, model.ErrForbidden)

	updated, err := h.ledger.Update(ctx, bill.ID, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 16000))
	require.NoError(t, err)
	assert.Equal(t, 16000.0, updated.Amount)

	assert.ErrorIs(t, h.ledger.Delete(ctx, bill.ID, h.fx.Other.ID), model.ErrForbidden)
	require.NoError(t, h.ledger.Delete(ctx, bill.ID, h.fx.Landlord.ID))
	_, err = h.ledger.Get(ctx, bill.ID, h.fx.Landlord.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPaymentService_ConcurrentDecision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenantID := h.leased(t)
	bill, err := h.ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	require.NoError(t, err)
	_, err = h.ledger.PayRent(ctx, bill.ID, tenantID, model.PaymentSubmission{PaymentMethod: "cash"})
	require.NoError(t, err)

	decisions := []func(context.Context, int64, int64) (*Decision, error){h.ledger.Approve, h.ledger.Reject}
	errs := make([]error, len(decisions))
	var wg sync.WaitGroup
	for i, decide := range decisions {
		wg.Add(1)
		go func(i int, decide func(context.Context, int64, int64) (*Decision, error)) {
			defer wg.Done()
			_, errs[i] = decide(ctx, bill.ID, h.fx.Landlord.ID)
		}(i, decide)
	}
	wg.Wait()

	var won, processed int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, model.ErrAlreadyProcessed):
			processed++
		default:
			t.Fatalf("unexpected decision error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, processed)

	n, err := h.notifications.CountByPayment(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err := h.payments.FindByID(ctx, bill.ID)
	require.NoError(t, err)
	require.NotNil(t, p.ReviewStatus)
	if errs[0] == nil {
		assert.Equal(t, model.PaymentStatusPaid, p.Status)
		assert.Equal(t, model.ReviewStatusApproved, *p.ReviewStatus)
	} else {
		assert.Equal(t, model.PaymentStatusPending, p.Status)
		assert.Equal(t, model.ReviewStatusRejected, *p.ReviewStatus)
	}
}

func TestPaymentService_DeleteKeepsNotifications(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenantID := h.leased(t)
	bill, err := h.ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	require.NoError(t, err)
	_, err = h.ledger.PayRent(ctx, bill.ID, tenantID, model.PaymentSubmission{PaymentMethod: "cash"})
	require.NoError(t, err)
	d, err := h.ledger.Reject(ctx, bill.ID, h.fx.Landlord.ID)
	require.NoError(t, err)

	require.NoError(t, h.ledger.Delete(ctx, bill.ID, h.fx.Landlord.ID))

	list, err := h.notifications.ListByTenant(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d.Notification.ID, list[0].ID)
	require.NotNil(t, list[0].PaymentID)
	assert.Equal(t, bill.ID, *list[0].PaymentID)
	assert.Equal(t, d.Notification.Message, list[0].Message)
	assert.False(t, list[0].IsRead)
}
