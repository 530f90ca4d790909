// Package repotest opens throwaway sqlite databases with the full schema for tests.
package repotest

import (
	"context"
	"testing"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/repository"
	"github.com/leasedesk/leasedesk/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns an in-memory database. A single connection keeps every handle on the
// same memory database and serializes transactions the way row locks would.
func NewDB(t testing.TB) *pg.DB {
	t.Helper()

	cfg := pg.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	db, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Entities()...))
	return pg.NewFromGorm(db)
}

// Fixture bundles the rows most workflow tests start from.
type Fixture struct {
	Landlord *model.Landlord
	Other    *model.Landlord
	Property *model.Property
	Unit     *model.Unit
}

func Seed(t testing.TB, db *pg.DB) Fixture {
	t.Helper()
	ctx := context.Background()

	landlords := repository.NewLandlordRepository(db)
	owner, err := landlords.FirstOrCreate(ctx, &model.Landlord{Name: "Lara Landlord", Email: "lara@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	other, err := landlords.FirstOrCreate(ctx, &model.Landlord{Name: "Otto Other", Email: "otto@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	prop, err := repository.NewPropertyRepository(db).Create(ctx, &model.Property{
		LandlordID:    owner.ID,
		Name:          "Sunrise Apartments",
		Type:          "residential",
		StreetAddress: "1 Main St",
		City:          "Cebu",
		State:         "Cebu",
		ZipCode:       "6000",
		Status:        model.PropertyStatusActive,
	})
	require.NoError(t, err)

	unit := AddUnit(t, db, prop.ID, "101", 15000)
	return Fixture{Landlord: owner, Other: other, Property: prop, Unit: unit}
}

func AddUnit(t testing.TB, db *pg.DB, propertyID int64, number string, rent float64) *model.Unit {
	t.Helper()
	u, err := repository.NewUnitRepository(db).Create(context.Background(), &model.Unit{
		PropertyID:      propertyID,
		UnitNumber:      number,
		MonthlyRent:     rent,
		SecurityDeposit: rent * 2,
		Status:          model.UnitStatusVacant,
	})
	require.NoError(t, err)
	return u
}

func AddTenant(t testing.TB, db *pg.DB, name, email string) *model.Tenant {
	t.Helper()
	tenant, _, err := repository.NewTenantRepository(db).ResolveOrCreate(context.Background(), email, model.TenantDefaults{
		Name:         name,
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return tenant
}
