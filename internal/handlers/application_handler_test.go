package handlers

import (
	"context"
	"testing"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) Submit(ctx context.Context, req model.ApplicationSubmitRequest) (*model.TenantApplication, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TenantApplication), args.Error(1)
}

func (m *MockApplicationService) Get(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error) {
	args := m.Called(ctx, id, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TenantApplication), args.Error(1)
}

func (m *MockApplicationService) List(ctx context.Context, landlordID int64, statuses ...model.ApplicationStatus) ([]*model.TenantApplication, error) {
	args := m.Called(ctx, landlordID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TenantApplication), args.Error(1)
}

func (m *MockApplicationService) Approve(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error) {
	args := m.Called(ctx, id, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TenantApplication), args.Error(1)
}

func (m *MockApplicationService) Reject(ctx context.Context, id, landlordID int64) (*model.TenantApplication, error) {
	args := m.Called(ctx, id, landlordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TenantApplication), args.Error(1)
}

func TestApplicationHandler_Submit(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockApplicationService)
		h := NewApplicationHandler(svc)
		svc.On("Submit", mock.Anything, mock.MatchedBy(func(r model.ApplicationSubmitRequest) bool {
			return r.UnitID == 3 && r.Email == "maria@example.com" && *r.LeaseDurationMonths == 6
		})).Return(&model.TenantApplication{ID: 21, UnitID: 3, Status: model.ApplicationStatusPending}, nil)

		ctx := setupTestContext("POST", "/api/v1/tenant-applications",
			[]byte(`{"unit_id":3,"email":"maria@example.com","lease_duration_months":6}`))
		h.Submit(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		body := decodeBody(t, ctx)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(21), body["application"].(map[string]any)["id"])
		svc.AssertExpectations(t)
	})

	t.Run("unit missing", func(t *testing.T) {
		svc := new(MockApplicationService)
		h := NewApplicationHandler(svc)
		svc.On("Submit", mock.Anything, mock.Anything).Return(nil, model.ErrNotFound)

		ctx := setupTestContext("POST", "/api/v1/tenant-applications", []byte(`{"unit_id":99}`))
		h.Submit(ctx)
		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestApplicationHandler_Approve(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"approved", nil, 200},
		{"not the owner", model.ErrForbidden, 403},
		{"already decided", model.ErrAlreadyProcessed, 422},
		{"unit taken", model.ErrUnitOccupiedConflict, 422},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc := new(MockApplicationService)
			h := NewApplicationHandler(svc)
			if c.err != nil {
				svc.On("Approve", mock.Anything, int64(21), landlord.ID).Return(nil, c.err)
			} else {
				svc.On("Approve", mock.Anything, int64(21), landlord.ID).
					Return(&model.TenantApplication{ID: 21, Status: model.ApplicationStatusApproved}, nil)
			}

			ctx := setupTestContext("PUT", "/api/v1/tenant-applications/21/approve", nil)
			ctx.SetUserValue("id", "21")
			setPrincipal(ctx, landlord)
			h.Approve(ctx)

			assert.Equal(t, c.status, ctx.Response.StatusCode())
			svc.AssertExpectations(t)
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		svc := new(MockApplicationService)
		h := NewApplicationHandler(svc)
		ctx := setupTestContext("PUT", "/api/v1/tenant-applications/21/approve", nil)
		ctx.SetUserValue("id", "21")
		h.Approve(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("tenant session", func(t *testing.T) {
		svc := new(MockApplicationService)
		h := NewApplicationHandler(svc)
		ctx := setupTestContext("PUT", "/api/v1/tenant-applications/21/reject", nil)
		ctx.SetUserValue("id", "21")
		setPrincipal(ctx, tenant)
		h.Reject(ctx)
		assert.Equal(t, 403, ctx.Response.StatusCode())
	})
}

func TestApplicationHandler_List(t *testing.T) {
	svc := new(MockApplicationService)
	h := NewApplicationHandler(svc)
	svc.On("List", mock.Anything, landlord.ID, []model.ApplicationStatus{model.ApplicationStatusPending}).
		Return([]*model.TenantApplication{{ID: 1}}, nil)

	ctx := setupTestContext("GET", "/api/v1/tenant-applications?status=pending", nil)
	setPrincipal(ctx, landlord)
	h.List(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Len(t, decodeBody(t, ctx)["applications"], 1)
	svc.AssertExpectations(t)
}
