package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/leasedesk/leasedesk/internal/lock"
	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/prom"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Locker interface {
	Acquire(ctx context.Context, entity string, id int64) (func(), error)
}

type UnitRepository interface {
	Create(ctx context.Context, u *model.Unit) (*model.Unit, error)
	Update(ctx context.Context, u *model.Unit) (*model.Unit, error)
	FindByID(ctx context.Context, id int64) (*model.Unit, error)
	FindForUpdate(ctx context.Context, id int64) (*model.Unit, error)
	FindOwned(ctx context.Context, id, landlordID int64) (*model.Unit, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]*model.Unit, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]*model.Unit, error)
	ListByTenantForLandlord(ctx context.Context, tenantID, landlordID int64) ([]*model.Unit, error)
	Assign(ctx context.Context, unitID int64, occ model.Occupancy) error
	Unassign(ctx context.Context, unitID int64) error
}

type PropertyRepository interface {
	Create(ctx context.Context, p *model.Property) (*model.Property, error)
	Update(ctx context.Context, p *model.Property) (*model.Property, error)
	FindByID(ctx context.Context, id int64) (*model.Property, error)
	FindOwned(ctx context.Context, id, landlordID int64) (*model.Property, error)
	ListByLandlord(ctx context.Context, landlordID int64) ([]*model.Property, error)
	ListAll(ctx context.Context) ([]*model.Property, error)
	AdjustTenants(ctx context.Context, id int64, delta int) error
	AdjustUnits(ctx context.Context, id int64, delta int) error
}

type LandlordRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Landlord, error)
	FindByEmail(ctx context.Context, email string) (*model.Landlord, error)
}

type TenantRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Tenant, error)
	FindByEmail(ctx context.Context, email string) (*model.Tenant, error)
	ResolveOrCreate(ctx context.Context, email string, defaults model.TenantDefaults) (*model.Tenant, bool, error)
	UpdateContact(ctx context.Context, id int64, phone, address string) error
	ListByLandlord(ctx context.Context, landlordID int64) ([]*model.Tenant, error)
	FindForLandlord(ctx context.Context, tenantID, landlordID int64) (*model.Tenant, error)
}

// noLock is used when redis is not configured; the status guards alone decide.
type noLock struct{}

func (noLock) Acquire(context.Context, string, int64) (func(), error) {
	return func() {}, nil
}

// acquireDecision maps a held lock to ErrAlreadyProcessed: another request is deciding.
func acquireDecision(ctx context.Context, l Locker, entity string, id int64) (func(), error) {
	release, err := l.Acquire(ctx, entity, id)
	if errors.Is(err, lock.ErrHeld) {
		return nil, fmt.Errorf("%s %d: %w", entity, id, model.ErrAlreadyProcessed)
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

func lockerOrNone(l Locker) Locker {
	if l == nil {
		return noLock{}
	}
	return l
}

// recordTransition logs and counts a committed state change.
func recordTransition(entity, transition string, id, actorID int64, values ...any) {
	prom.RecordTransition(entity, transition)
	fields := append([]any{entity + "_id", id, "actor_id", actorID}, values...)
	logger.Info(entity+" "+transition, fields...)
}

// ownedBy fails with ErrNotFound when the ownership chain is broken and ErrForbidden
// when it leads to another landlord.
func ownedBy(unit *model.Unit, landlordID int64) error {
	if unit == nil || unit.Property == nil {
		return fmt.Errorf("unit property: %w", model.ErrNotFound)
	}
	if unit.Property.LandlordID != landlordID {
		return fmt.Errorf("unit %d: %w", unit.ID, model.ErrForbidden)
	}
	return nil
}
