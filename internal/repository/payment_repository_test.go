package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/repository"
	"github.com/leasedesk/leasedesk/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationRepository_Transition(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.Seed(t, db)
	ctx := context.Background()
	repo := repository.NewApplicationRepository(db)

	app, err := repo.Create(ctx, &model.TenantApplication{
		UnitID: fx.Unit.ID, FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com",
		Phone: "0917", IDPicture: "applications/id.png", Status: model.ApplicationStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusPending, app.Status)

	pending, err := repo.HasPending(ctx, fx.Unit.ID, "ANA@example.com")
	require.NoError(t, err)
	assert.True(t, pending)

	ok, err := repo.Transition(ctx, app.ID, model.ApplicationStatusPending, model.ApplicationStatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Transition(ctx, app.ID, model.ApplicationStatusPending, model.ApplicationStatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	// an approved application does not block a new one
	pending, err = repo.HasPending(ctx, fx.Unit.ID, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, pending)

	list, err := repo.List(ctx, model.ApplicationFilter{LandlordID: fx.Landlord.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Sunrise Apartments", list[0].Unit.Property.Name)

	list, err = repo.List(ctx, model.ApplicationFilter{LandlordID: fx.Other.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPaymentRepository_ReviewFlow(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.Seed(t, db)
	ctx := context.Background()
	repo := repository.NewPaymentRepository(db)
	tenant := repotest.AddTenant(t, db, "Ben", "ben@example.com")

	p, err := repo.Create(ctx, &model.Payment{
		TenantID: tenant.ID, UnitID: fx.Unit.ID, PaymentType: model.PaymentTypeRent,
		Amount: 15000, DueDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Status: model.PaymentStatusPending,
	})
	require.NoError(t, err)

	t.Run("review without submission is refused", func(t *testing.T) {
		ok, err := repo.Review(ctx, p.ID, model.ReviewStatusApproved, model.PaymentStatusPaid)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tenant submission", func(t *testing.T) {
		ok, err := repo.Submit(ctx, p.ID, tenant.ID, model.PaymentSubmission{PaymentMethod: "cash", ReferenceNumber: "R1"}, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.FindForTenant(ctx, p.ID, tenant.ID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, got.Status)
		assert.True(t, got.Reviewed(model.ReviewStatusPending))
		assert.Equal(t, "cash", got.PaymentMethod)
	})

	t.Run("submission by another tenant", func(t *testing.T) {
		ok, err := repo.Submit(ctx, p.ID, tenant.ID+100, model.PaymentSubmission{PaymentMethod: "cash"}, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("approve once", func(t *testing.T) {
		ok, err := repo.Review(ctx, p.ID, model.ReviewStatusApproved, model.PaymentStatusPaid)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Review(ctx, p.ID, model.ReviewStatusRejected, model.PaymentStatusPending)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.FindOwned(ctx, p.ID, fx.Landlord.ID)
		require.NoError(t, err)
		assert.True(t, got.IsSettled())
		assert.Equal(t, "Lara Landlord", got.Unit.Property.LandlordName)
	})

	t.Run("approved payment cannot be resubmitted", func(t *testing.T) {
		ok, err := repo.Submit(ctx, p.ID, tenant.ID, model.PaymentSubmission{PaymentMethod: "gcash"}, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ownership chain", func(t *testing.T) {
		_, err := repo.FindOwned(ctx, p.ID, fx.Other.ID)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		list, err := repo.List(ctx, model.PaymentFilter{LandlordID: fx.Landlord.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Ben", list[0].Tenant.Name)

		require.NoError(t, repo.Delete(ctx, p.ID))
		assert.ErrorIs(t, repo.Delete(ctx, p.ID), model.ErrNotFound)
	})
}

func TestNotificationRepository(t *testing.T) {
	db := repotest.NewDB(t)
	ctx := context.Background()
	repo := repository.NewNotificationRepository(db)

	pid := int64(9)
	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &model.Notification{
			TenantID: 1, Type: model.NotificationPaymentApproved, Title: "Payment Approved", Message: "ok", PaymentID: &pid,
		})
		require.NoError(t, err)
	}
	other, err := repo.Create(ctx, &model.Notification{TenantID: 2, Type: model.NotificationPaymentRejected, Title: "t", Message: "m"})
	require.NoError(t, err)

	list, err := repo.ListByTenant(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Greater(t, list[0].ID, list[2].ID)

	assert.ErrorIs(t, repo.MarkRead(ctx, other.ID, 1), model.ErrNotFound)
	require.NoError(t, repo.MarkRead(ctx, list[0].ID, 1))

	unread, err := repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	n, err := repo.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	byPayment, err := repo.CountByPayment(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(3), byPayment)
}
