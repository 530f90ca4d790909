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

func TestUnitRepository_DuplicateNumber(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.Seed(t, db)
	ctx := context.Background()
	repo := repository.NewUnitRepository(db)

	_, err := repo.Create(ctx, &model.Unit{PropertyID: fx.Property.ID, UnitNumber: "101", Status: model.UnitStatusVacant})
	var fe model.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "unit_number")

	second := repotest.AddUnit(t, db, fx.Property.ID, "102", 1000)
	second.UnitNumber = "101"
	_, err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUnitRepository_AssignAndUnassign(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.Seed(t, db)
	ctx := context.Background()
	repo := repository.NewUnitRepository(db)
	tenant := repotest.AddTenant(t, db, "Ben", "ben@example.com")

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	err := repo.Assign(ctx, fx.Unit.ID, model.Occupancy{
		TenantID:      tenant.ID,
		LeaseStart:    start,
		LeaseEnd:      start.AddDate(0, 6, 0),
		LeaseDuration: 6,
		LeaseAmount:   15000,
		LeaseDeposit:  30000,
	})
	require.NoError(t, err)

	u, err := repo.FindOwned(ctx, fx.Unit.ID, fx.Landlord.ID)
	require.NoError(t, err)
	assert.True(t, u.IsOccupied)
	require.NotNil(t, u.TenantID)
	assert.Equal(t, tenant.ID, *u.TenantID)
	assert.Equal(t, model.UnitStatusActive, u.Status)
	require.NotNil(t, u.LeaseEnd)
	assert.Equal(t, "2025-07-01", u.LeaseEnd.Format(model.DateLayout))
	assert.Equal(t, "Sunrise Apartments", u.Property.Name)

	_, err = repo.FindOwned(ctx, fx.Unit.ID, fx.Other.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	mine, err := repo.ListByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Lara Landlord", mine[0].Property.LandlordName)

	require.NoError(t, repo.Unassign(ctx, fx.Unit.ID))
	u, err = repo.FindByID(ctx, fx.Unit.ID)
	require.NoError(t, err)
	assert.False(t, u.IsOccupied)
	assert.Nil(t, u.TenantID)
	assert.Nil(t, u.LeaseStart)
	assert.Nil(t, u.LeaseAmount)

	total, occupied, err := repo.OccupancyCounts(ctx, fx.Landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(0), occupied)
}

func TestPropertyRepository_Counters(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.Seed(t, db)
	ctx := context.Background()
	repo := repository.NewPropertyRepository(db)

	require.NoError(t, repo.AdjustTenants(ctx, fx.Property.ID, 1))
	require.NoError(t, repo.AdjustTenants(ctx, fx.Property.ID, -1))
	require.NoError(t, repo.AdjustTenants(ctx, fx.Property.ID, -1))

	p, err := repo.FindByID(ctx, fx.Property.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Tenants)
	assert.Equal(t, "Lara Landlord", p.LandlordName)

	assert.ErrorIs(t, repo.AdjustUnits(ctx, 999, 1), model.ErrNotFound)
}

func TestPropertyRepository_UpdateKeepsCounters(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.Seed(t, db)
	ctx := context.Background()
	repo := repository.NewPropertyRepository(db)
	require.NoError(t, repo.AdjustUnits(ctx, fx.Property.ID, 3))

	p := *fx.Property
	p.Name = "Sunset Apartments"
	p.Units = 0
	p.Photos = []string{"properties/a.jpg"}
	updated, err := repo.Update(ctx, &p)
	require.NoError(t, err)
	assert.Equal(t, "Sunset Apartments", updated.Name)
	assert.Equal(t, 3, updated.Units)
	assert.Equal(t, []string{"properties/a.jpg"}, updated.Photos)

	_, err = repo.FindOwned(ctx, fx.Property.ID, fx.Other.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
