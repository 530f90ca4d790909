package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/services"
	"github.com/leasedesk/leasedesk/pkg/auth"
	xhttp "github.com/leasedesk/leasedesk/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

var (
	landlord = &auth.Principal{Role: auth.RoleLandlord, ID: 7, Email: "owner@example.com"}
	tenant   = &auth.Principal{Role: auth.RoleTenant, ID: 11, Email: "maria@example.com"}
)

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func decodeBody(t *testing.T, ctx *xhttp.RequestCtx) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &out))
	return out
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{model.ErrUnauthorized, 401},
		{model.ErrInvalidCredentials, 401},
		{model.ErrForbidden, 403},
		{fmt.Errorf("application 3: %w", model.ErrNotFound), 404},
		{model.Invalid("email", "The email field is required."), 422},
		{model.ErrAlreadyProcessed, 422},
		{model.ErrUnitOccupiedConflict, 422},
		{model.ErrTenantUnitMismatch, 422},
		{model.ErrMissingCredentialInputs, 422},
		{model.ErrNoTenantAssigned, 400},
		{model.ErrWrongPaymentType, 400},
		{model.ErrReceiptUnavailable, 400},
		{model.ErrBadRequest, 400},
		{errors.New("connection reset"), 500},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusOf(c.err), c.err.Error())
	}
}

func TestWriteError(t *testing.T) {
	t.Run("field errors", func(t *testing.T) {
		ctx := setupTestContext("POST", "/", nil)
		writeError(ctx, model.FieldErrors{"email": "The email field is required."})

		assert.Equal(t, 422, ctx.Response.StatusCode())
		body := decodeBody(t, ctx)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, map[string]any{"email": "The email field is required."}, body["errors"])
	})

	t.Run("internal errors are not leaked", func(t *testing.T) {
		ctx := setupTestContext("GET", "/", nil)
		writeError(ctx, errors.New("pq: password authentication failed"))

		assert.Equal(t, 500, ctx.Response.StatusCode())
		assert.NotContains(t, string(ctx.Response.Body()), "pq:")
	})
}

type stubAuthenticator struct {
	token string
	p     *auth.Principal
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*auth.Principal, error) {
	if token != s.token {
		return nil, model.ErrUnauthorized
	}
	return s.p, nil
}

func TestPrincipalMiddleware(t *testing.T) {
	mw := PrincipalMiddleware(stubAuthenticator{token: "good", p: landlord})
	var got *auth.Principal
	var gotErr error
	next := mw(func(ctx *xhttp.RequestCtx) {
		got, gotErr = currentPrincipal(ctx, auth.RoleLandlord)
	})

	ctx := setupTestContext("GET", "/api/v1/properties", nil)
	ctx.Request.Header.Set("Authorization", "Bearer good")
	next(ctx)
	require.NoError(t, gotErr)
	assert.Equal(t, landlord, got)

	ctx = setupTestContext("GET", "/api/v1/properties", nil)
	ctx.Request.Header.Set("Authorization", "Bearer forged")
	next(ctx)
	assert.ErrorIs(t, gotErr, model.ErrUnauthorized)

	ctx = setupTestContext("GET", "/api/v1/properties", nil)
	setPrincipal(ctx, tenant)
	_, err := currentPrincipal(ctx, auth.RoleLandlord)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestPathID(t *testing.T) {
	ctx := setupTestContext("GET", "/", nil)
	ctx.SetUserValue("id", "42")
	id, err := pathID(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	ctx.SetUserValue("id", "abc")
	_, err = pathID(ctx, "id")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Login(ctx context.Context, req model.LoginRequest) (*services.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockIdentityService) AdminLogin(ctx context.Context, req model.LoginRequest) (*services.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockIdentityService) Logout(ctx context.Context, p *auth.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockIdentityService) CurrentUser(ctx context.Context, p *auth.Principal) (any, error) {
	args := m.Called(ctx, p)
	return args.Get(0), args.Error(1)
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("issues a session", func(t *testing.T) {
		svc := new(MockIdentityService)
		h := NewAuthHandler(svc)
		svc.On("Login", mock.Anything, model.LoginRequest{Email: "maria@example.com", Password: "dela cruz4567", UserType: "tenant"}).
			Return(&services.Session{Token: "jwt", UserType: auth.RoleTenant, User: &model.Tenant{ID: 11, Email: "maria@example.com"}}, nil)

		ctx := setupTestContext("POST", "/api/v1/login", []byte(`{"email":"maria@example.com","password":"dela cruz4567","user_type":"tenant"}`))
		h.Login(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		body := decodeBody(t, ctx)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "jwt", body["token"])
		assert.Equal(t, "tenant", body["user_type"])
		svc.AssertExpectations(t)
	})

	t.Run("bad credentials", func(t *testing.T) {
		svc := new(MockIdentityService)
		h := NewAuthHandler(svc)
		svc.On("Login", mock.Anything, mock.Anything).Return(nil, model.ErrInvalidCredentials)

		ctx := setupTestContext("POST", "/api/v1/login", []byte(`{"email":"maria@example.com","password":"nope"}`))
		h.Login(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("malformed JSON", func(t *testing.T) {
		svc := new(MockIdentityService)
		h := NewAuthHandler(svc)

		ctx := setupTestContext("POST", "/api/v1/login", []byte("{"))
		h.Login(ctx)
		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_User(t *testing.T) {
	svc := new(MockIdentityService)
	h := NewAuthHandler(svc)

	ctx := setupTestContext("GET", "/api/v1/user", nil)
	h.User(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Equal(t, false, decodeBody(t, ctx)["authenticated"])

	svc.On("CurrentUser", mock.Anything, landlord).Return(&model.Landlord{ID: 7, Email: "owner@example.com"}, nil)
	ctx = setupTestContext("GET", "/api/v1/user", nil)
	setPrincipal(ctx, landlord)
	h.User(ctx)
	body := decodeBody(t, ctx)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, "landlord", body["user_type"])

	svc.On("Logout", mock.Anything, landlord).Return(nil)
	ctx = setupTestContext("POST", "/api/v1/logout", nil)
	setPrincipal(ctx, landlord)
	h.Logout(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	svc.AssertExpectations(t)
}
