package repository

import (
	"errors"
	"fmt"

	"github.com/leasedesk/leasedesk/internal/model"
	"gorm.io/gorm"
)

// Entities lists every table owned by this package, in dependency order.
func Entities() []any {
	return []any{
		&LandlordEntity{},
		&TenantEntity{},
		&AdminEntity{},
		&PropertyManagerEntity{},
		&PropertyEntity{},
		&UnitEntity{},
		&TenantApplicationEntity{},
		&PaymentEntity{},
		&NotificationEntity{},
	}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf(format+": %w", append(args, model.ErrNotFound)...)
	}
	return err
}

func duplicate(err error, field, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.Invalid(field, msg)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
