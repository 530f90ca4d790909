package model

import (
	"strings"
	"time"
)

type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusInactive PropertyStatus = "inactive"
	PropertyStatusVacant   PropertyStatus = "vacant"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusActive, PropertyStatusInactive, PropertyStatusVacant:
		return true
	}
	return false
}

type Property struct {
	ID            int64          `json:"id"`
	LandlordID    int64          `json:"landlord_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Type          string         `json:"type"`
	StreetAddress string         `json:"street_address"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	ZipCode       string         `json:"zip_code"`
	Units         int            `json:"units"`
	Tenants       int            `json:"tenants"`
	MainPhoto     string         `json:"main_photo,omitempty"`
	Photos        []string       `json:"photos"`
	Status        PropertyStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	LandlordName string `json:"landlord_name,omitempty"`
}

// Address joins the non-empty address parts with commas.
func (p Property) Address() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.StreetAddress, p.City, p.State, p.ZipCode} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// PropertyRequest is used for both create and update; photos arrive as data URLs
// or already stored paths.
type PropertyRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Type          string         `json:"type"`
	StreetAddress string         `json:"street_address"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	ZipCode       string         `json:"zip_code"`
	Status        PropertyStatus `json:"status"`
	MainPhoto     string         `json:"main_photo"`
	Photos        []string       `json:"photos"`
}

func (r *PropertyRequest) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Name) == "" {
		fe.Add("name", "The name field is required.")
	}
	switch r.Type {
	case "residential", "commercial":
	case "":
		fe.Add("type", "The type field is required.")
	default:
		fe.Add("type", "The selected type is invalid.")
	}
	if strings.TrimSpace(r.StreetAddress) == "" {
		fe.Add("street_address", "The street address field is required.")
	}
	if strings.TrimSpace(r.City) == "" {
		fe.Add("city", "The city field is required.")
	}
	if strings.TrimSpace(r.State) == "" {
		fe.Add("state", "The state field is required.")
	}
	if z := strings.TrimSpace(r.ZipCode); z == "" {
		fe.Add("zip_code", "The zip code field is required.")
	} else if len(z) > 20 {
		fe.Add("zip_code", "The zip code may not be greater than 20 characters.")
	}
	if r.Status == "" {
		r.Status = PropertyStatusActive
	} else if !r.Status.Valid() {
		fe.Add("status", "The selected status is invalid.")
	}
	return fe.Err()
}

type UnitStatus string

const (
	UnitStatusActive   UnitStatus = "active"
	UnitStatusInactive UnitStatus = "inactive"
	UnitStatusVacant   UnitStatus = "vacant"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitStatusActive, UnitStatusInactive, UnitStatusVacant:
		return true
	}
	return false
}

// Unit invariant: IsOccupied is true iff TenantID is set.
type Unit struct {
	ID              int64      `json:"id"`
	PropertyID      int64      `json:"property_id"`
	UnitNumber      string     `json:"unit_number"`
	UnitType        string     `json:"unit_type,omitempty"`
	Bedrooms        int        `json:"bedrooms"`
	Bathrooms       float64    `json:"bathrooms"`
	SquareFootage   int        `json:"square_footage"`
	MonthlyRent     float64    `json:"monthly_rent"`
	SecurityDeposit float64    `json:"security_deposit"`
	AdvanceDeposit  float64    `json:"advance_deposit"`
	Description     string     `json:"description,omitempty"`
	Photos          []string   `json:"photos"`
	Status          UnitStatus `json:"status"`
	IsOccupied      bool       `json:"is_occupied"`
	TenantID        *int64     `json:"tenant_id"`
	LeaseStart      *time.Time `json:"lease_start"`
	LeaseEnd        *time.Time `json:"lease_end"`
	LeaseDuration   *int       `json:"lease_duration"`
	LeaseAmount     *float64   `json:"lease_amount"`
	LeaseDeposit    *float64   `json:"lease_deposit"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Property *Property `json:"property,omitempty"`
	Tenant   *Tenant   `json:"tenant,omitempty"`
}

// Occupancy carries the lease fields written when a tenant is assigned.
type Occupancy struct {
	TenantID      int64
	LeaseStart    time.Time
	LeaseEnd      time.Time
	LeaseDuration int
	LeaseAmount   float64
	LeaseDeposit  float64
}

type UnitRequest struct {
	UnitNumber      string     `json:"unit_number"`
	UnitType        string     `json:"unit_type"`
	Bedrooms        int        `json:"bedrooms"`
	Bathrooms       float64    `json:"bathrooms"`
	SquareFootage   int        `json:"square_footage"`
	MonthlyRent     float64    `json:"monthly_rent"`
	SecurityDeposit float64    `json:"security_deposit"`
	AdvanceDeposit  float64    `json:"advance_deposit"`
	Description     string     `json:"description"`
	Status          UnitStatus `json:"status"`
	Photos          []string   `json:"photos"`
}

func (r *UnitRequest) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.UnitNumber) == "" {
		fe.Add("unit_number", "The unit number field is required.")
	}
	if r.Bedrooms < 0 {
		fe.Add("bedrooms", "The bedrooms must be at least 0.")
	}
	if r.Bathrooms < 0 {
		fe.Add("bathrooms", "The bathrooms must be at least 0.")
	}
	if r.SquareFootage < 0 {
		fe.Add("square_footage", "The square footage must be at least 0.")
	}
	if r.MonthlyRent < 0 {
		fe.Add("monthly_rent", "The monthly rent must be at least 0.")
	}
	if r.SecurityDeposit < 0 {
		fe.Add("security_deposit", "The security deposit must be at least 0.")
	}
	if r.AdvanceDeposit < 0 {
		fe.Add("advance_deposit", "The advance deposit must be at least 0.")
	}
	if r.Status == "" {
		r.Status = UnitStatusVacant
	} else if !r.Status.Valid() {
		fe.Add("status", "The selected status is invalid.")
	}
	return fe.Err()
}

const (
	LeaseActive      = "Active Lease"
	LeaseEndingSoon  = "Lease Ending Soon"
	LeaseExpired     = "Lease Expired"
	leaseSoonHorizon = 30 * 24 * time.Hour
)

// LeaseStatus classifies a lease end date relative to now.
func LeaseStatus(end *time.Time, now time.Time) string {
	switch {
	case end == nil:
		return LeaseActive
	case end.Before(now):
		return LeaseExpired
	case end.Sub(now) < leaseSoonHorizon:
		return LeaseEndingSoon
	}
	return LeaseActive
}

// Rental is the tenant's view of one occupied unit.
type Rental struct {
	Unit            Unit      `json:"unit"`
	PropertyName    string    `json:"property_name"`
	PropertyAddress string    `json:"property_address"`
	LeaseStatus     string    `json:"lease_status"`
	Landlord        *Landlord `json:"landlord"`
}

type TenantDirectoryEntry struct {
	Tenant Tenant `json:"tenant"`
	Units  []Unit `json:"units"`
}

type TenantDirectory struct {
	Tenants      []TenantDirectoryEntry `json:"tenants"`
	Applications []TenantApplication    `json:"applications"`
	Statistics   DirectoryStats         `json:"statistics"`
}

type DirectoryStats struct {
	TotalTenants   int `json:"total_tenants"`
	ActiveLeases   int `json:"active_leases"`
	PendingInvites int `json:"pending_invites"`
}
