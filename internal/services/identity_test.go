package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leasedesk/leasedesk/internal/lock"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/repository"
	"github.com/leasedesk/leasedesk/pkg/auth"
	"github.com/leasedesk/leasedesk/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newIdentity(t *testing.T, h *harness, revoked TokenStore) *IdentityService {
	t.Helper()
	tokens, err := auth.NewManager("test-secret", time.Hour, "leasedesk")
	require.NoError(t, err)
	return NewIdentityService(repository.NewLandlordRepository(h.db), h.tenants,
		repository.NewAdminRepository(h.db), repository.NewPropertyManagerRepository(h.db), tokens, revoked)
}

func TestIdentityService_Login(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hash, err := auth.HashPassword("s3cret!")
	require.NoError(t, err)
	_, err = repository.NewAdminRepository(h.db).FirstOrCreate(ctx, &model.Admin{Name: "Root", Email: "root@example.com", PasswordHash: hash})
	require.NoError(t, err)
	h.leased(t)

	svc := newIdentity(t, h, nil)

	session, err := svc.Login(ctx, model.LoginRequest{Email: "Maria@Example.com", Password: "dela cruz4567", UserType: "tenant"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleTenant, session.UserType)
	tenant, ok := session.User.(*model.Tenant)
	require.True(t, ok)
	assert.Equal(t, "maria@example.com", tenant.Email)

	p, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, p.ID)
	user, err := svc.CurrentUser(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, user.(*model.Tenant).ID)

	_, err = svc.Login(ctx, model.LoginRequest{Email: "maria@example.com", Password: "wrong", UserType: "tenant"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = svc.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "x", UserType: "landlord"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	_, err = svc.Login(ctx, model.LoginRequest{Email: "root@example.com", Password: "s3cret!", UserType: "admin"})
	assert.ErrorIs(t, err, model.ErrValidation, "admins use their own login")

	admin, err := svc.AdminLogin(ctx, model.LoginRequest{Email: "root@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.UserType)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestIdentityService_Logout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := redis.NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), "test:")
	h.leased(t)

	svc := newIdentity(t, h, store)
	session, err := svc.Login(ctx, model.LoginRequest{Email: "maria@example.com", Password: "dela cruz4567", UserType: "tenant"})
	require.NoError(t, err)
	p, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, p))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists("test:"+revokedTokenKey+p.TokenID))
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishNotification(ctx context.Context, ev model.NotificationEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func TestPaymentService_PublishFailureKeepsDecision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenantID := h.leased(t)

	publisher := new(MockPublisher)
	publisher.On("PublishNotification", mock.Anything, mock.MatchedBy(func(ev model.NotificationEvent) bool {
		return ev.TenantID == tenantID && ev.Type == model.NotificationPaymentApproved
	})).Return(errors.New("stream unavailable")).Once()

	ledger := NewPaymentService(h.payments, h.units, h.notifications, h.db, nil, publisher, h.blobs, "Php")
	bill, err := ledger.Create(ctx, h.fx.Landlord.ID, rentBill(h.fx.Unit.ID, 15000))
	require.NoError(t, err)
	_, err = ledger.PayRent(ctx, bill.ID, tenantID, model.PaymentSubmission{PaymentMethod: "bank_transfer", ReferenceNumber: "BT-9"})
	require.NoError(t, err)

	d, err := ledger.Approve(ctx, bill.ID, h.fx.Landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, d.Payment.Status)
	publisher.AssertExpectations(t)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, entity string, id int64) (func(), error) {
	args := m.Called(ctx, entity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

func TestApplicationService_HeldLockIsAlreadyProcessed(t *testing.T) {
	h := newHarness(t)
	app := h.submit(t, h.fx.Unit.ID, "maria@example.com")

	locker := new(MockLocker)
	locker.On("Acquire", mock.Anything, "application", app.ID).Return(nil, lock.ErrHeld).Once()

	svc := NewApplicationService(h.applications, h.units, h.properties, h.tenants, h.db, locker, h.blobs)
	_, err := svc.Approve(context.Background(), app.ID, h.fx.Landlord.ID)
	assert.ErrorIs(t, err, model.ErrAlreadyProcessed)
	locker.AssertExpectations(t)

	got, err := h.workflow.Get(context.Background(), app.ID, h.fx.Landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusPending, got.Status)
}
