package model

import "time"

const NotAvailable = "N/A"

const (
	ReportStatusNotPaid = "Not Paid"
	PeriodLayout        = "2006-01"
)

// ReportSource is one occupied unit with its joined rows; any pointer may be nil.
type ReportSource struct {
	Unit        Unit
	Property    *Property
	Tenant      *Tenant
	Application *TenantApplication
	Payments    []Payment
}

type ReportRow struct {
	TenantID        int64    `json:"tenant_id"`
	TenantName      string   `json:"tenant_name"`
	Email           string   `json:"tenant_email"`
	Phone           string   `json:"tenant_phone"`
	UnitID          int64    `json:"unit_id"`
	UnitNumber      string   `json:"unit_number"`
	PropertyID      int64    `json:"property_id"`
	PropertyName    string   `json:"property_name"`
	PropertyAddress string   `json:"property_address"`
	MonthlyRent     float64  `json:"monthly_rent"`
	HasPaid         bool     `json:"has_paid"`
	PaymentStatus   string   `json:"payment_status"`
	PaymentAmount   *float64 `json:"payment_amount"`
	PaymentDate     string   `json:"payment_date"`
	DueDate         string   `json:"due_date"`
	PaymentMethod   string   `json:"payment_method"`
	ReferenceNumber string   `json:"reference_number"`
}

type ReportStats struct {
	TotalTenants  int     `json:"total_tenants"`
	PaidTenants   int     `json:"paid_tenants"`
	UnpaidTenants int     `json:"unpaid_tenants"`
	TotalRent     float64 `json:"total_rent"`
	TotalPaid     float64 `json:"total_paid"`
	TotalUnpaid   float64 `json:"total_unpaid"`
}

type Report struct {
	Rows       []ReportRow `json:"report"`
	Statistics ReportStats `json:"statistics"`
	FilterDate string      `json:"filter_date"`
	StartDate  string      `json:"start_date"`
	EndDate    string      `json:"end_date"`
}

// Period is a calendar month.
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod accepts YYYY-MM; an empty value selects the month of now.
func ParsePeriod(value string, now time.Time) (Period, error) {
	ref := now
	if value != "" {
		t, err := time.ParseInLocation(PeriodLayout, value, now.Location())
		if err != nil {
			return Period{}, Invalid("date", "The date must be in YYYY-MM format.")
		}
		ref = t
	}
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, -1)
	return Period{Start: start, End: end}, nil
}

func (p Period) Label() string {
	return p.Start.Format(PeriodLayout)
}

// ProjectDueDate moves the lease start's day of month into the period, clamped to its last day.
func (p Period) ProjectDueDate(leaseStart time.Time) time.Time {
	day := leaseStart.Day()
	if last := p.End.Day(); day > last {
		day = last
	}
	return time.Date(p.Start.Year(), p.Start.Month(), day, 0, 0, 0, 0, p.Start.Location())
}

// Dashboard projections.

type Overview struct {
	TotalProperties int       `json:"total_properties"`
	TotalUnits      int64     `json:"total_units"`
	OccupiedUnits   int64     `json:"occupied_units"`
	VacantUnits     int64     `json:"vacant_units"`
	OccupancyRate   float64   `json:"occupancy_rate"`
	MonthlyRevenue  float64   `json:"monthly_revenue"`
	RecentPayments  []Payment `json:"recent_payments"`
}

type LandlordSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Properties int64  `json:"properties"`
	Units      int64  `json:"units"`
	Tenants    int64  `json:"tenants"`
}

type IncomeSummary struct {
	Period         string  `json:"period"`
	ExpectedIncome float64 `json:"expected_income"`
	CollectedTotal float64 `json:"collected_total"`
	Outstanding    float64 `json:"outstanding"`
	PaymentsCount  int     `json:"payments_count"`
}
