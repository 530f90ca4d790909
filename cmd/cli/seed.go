package main

import (
	"context"
	"fmt"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/internal/repository"
	"github.com/leasedesk/leasedesk/pkg/auth"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/pg"
)

const demoPassword = "12345678"

func hashPassword(plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("password is empty")
	}
	return auth.HashPassword(plain)
}

// seed creates the demo accounts; existing emails are left untouched.
func seed(ctx context.Context, db *pg.DB, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	landlord, err := repository.NewLandlordRepository(db).FirstOrCreate(ctx, &model.Landlord{
		Name:         "Demo Landlord",
		Email:        "landlord@leasedesk.test",
		Phone:        "09123456789",
		Address:      "Cebu City",
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("seed landlord: %w", err)
	}

	tenant, _, err := repository.NewTenantRepository(db).ResolveOrCreate(ctx, "tenant@leasedesk.test", model.TenantDefaults{
		Name:         "Demo Tenant",
		Phone:        "09293204854",
		Address:      "Cebu City",
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	manager, err := repository.NewPropertyManagerRepository(db).FirstOrCreate(ctx, &model.PropertyManager{
		Name:         "System Manager",
		Email:        "manager@leasedesk.test",
		Phone:        "09123456789",
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("seed property manager: %w", err)
	}

	admin, err := repository.NewAdminRepository(db).FirstOrCreate(ctx, &model.Admin{
		Name:         "Administrator",
		Email:        "admin@leasedesk.test",
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	logger.Info("seeded demo accounts",
		"landlord_id", landlord.ID, "tenant_id", tenant.ID, "manager_id", manager.ID, "admin_id", admin.ID)
	return nil
}

func makeAdmin(ctx context.Context, db *pg.DB, email string) error {
	if err := repository.NewLandlordRepository(db).SetAdmin(ctx, email, true); err != nil {
		return fmt.Errorf("landlord %s: %w", email, err)
	}
	logger.Info("landlord promoted to admin", "email", email)
	return nil
}
