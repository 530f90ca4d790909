package model

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrNotFound                = errors.New("not found")
	ErrValidation              = errors.New("validation failed")
	ErrAlreadyProcessed        = errors.New("already processed")
	ErrUnitOccupiedConflict    = errors.New("this unit is already occupied by another tenant")
	ErrTenantUnitMismatch      = errors.New("tenant is not assigned to this unit")
	ErrNoTenantAssigned        = errors.New("unit has no tenant assigned")
	ErrMissingCredentialInputs = errors.New("cannot derive tenant credentials: last name and at least 4 phone digits are required")
	ErrReceiptUnavailable      = errors.New("receipt is only available for approved and paid payments")
	ErrWrongPaymentType        = errors.New("payment type does not match this operation")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrBadRequest              = errors.New("bad request")
)

// FieldErrors maps request fields to messages; it matches ErrValidation under errors.Is.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (f FieldErrors) Unwrap() error {
	return ErrValidation
}

func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f
}

// Invalid reports a single-field validation failure.
func Invalid(field, msg string) error {
	return FieldErrors{field: msg}
}
