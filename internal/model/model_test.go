package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func intp(v int) *int        { return &v }

func TestFieldErrors_UnwrapsToValidation(t *testing.T) {
	err := Invalid("email", "bad")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "email: bad")
	assert.NoError(t, FieldErrors{}.Err())
}

func TestPayment_DisplayTotal(t *testing.T) {
	t.Run("utility sums breakdown ignoring amount", func(t *testing.T) {
		p := Payment{PaymentType: PaymentTypeUtility, Amount: 9999, Water: f64(100.10), Electricity: f64(200.20)}
		assert.Equal(t, 300.30, p.DisplayTotal())
	})

	t.Run("utility with no breakdown is zero", func(t *testing.T) {
		p := Payment{PaymentType: PaymentTypeUtility, Amount: 50}
		assert.Equal(t, 0.0, p.DisplayTotal())
	})

	t.Run("rent uses amount", func(t *testing.T) {
		p := Payment{PaymentType: PaymentTypeRent, Amount: 1500, Water: f64(10)}
		assert.Equal(t, 1500.0, p.DisplayTotal())
	})
}

func validApplication() ApplicationSubmitRequest {
	return ApplicationSubmitRequest{
		UnitID:          1,
		FirstName:       "Ana",
		LastName:        "Reyes",
		Email:           "Ana@Example.com ",
		Phone:           "0917-555-1234",
		Occupation:      "Nurse",
		MonthlyIncome:   i64(30000),
		Address:         "12 Mabini St",
		Reference1Name:  "Ben",
		Reference1Phone: "0917",
		Reference2Name:  "Cora",
		Reference2Phone: "0918",
		LeaseStartDate:  "2025-01-01",
		IDPicture:       "data:image/png;base64,AAAA",
	}
}

func TestApplicationSubmitRequest_Validate(t *testing.T) {
	today := time.Date(2024, 12, 20, 15, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		req := validApplication()
		start, err := req.Validate(today)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, "ana@example.com", req.Email)
		assert.Equal(t, 1, *req.NumberOfPeople)
	})

	t.Run("start today is accepted", func(t *testing.T) {
		req := validApplication()
		req.LeaseStartDate = "2024-12-20"
		_, err := req.Validate(today)
		assert.NoError(t, err)
	})

	t.Run("start in the past", func(t *testing.T) {
		req := validApplication()
		req.LeaseStartDate = "2024-12-19"
		_, err := req.Validate(today)
		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "lease_start_date")
	})

	t.Run("invalid duration", func(t *testing.T) {
		req := validApplication()
		req.LeaseDurationMonths = intp(5)
		_, err := req.Validate(today)
		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "lease_duration_months")
	})

	t.Run("missing identity and picture", func(t *testing.T) {
		req := validApplication()
		req.FirstName, req.LastName, req.IDPicture, req.Email = "", "", "", "nope"
		_, err := req.Validate(today)
		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "first_name")
		assert.Contains(t, fe, "last_name")
		assert.Contains(t, fe, "id_picture")
		assert.Contains(t, fe, "email")
	})

	t.Run("legacy name satisfies identity", func(t *testing.T) {
		req := validApplication()
		req.FirstName, req.LastName, req.Name = "", "", "Ana Reyes"
		_, err := req.Validate(today)
		assert.NoError(t, err)
	})
}

func TestTenantApplication_Names(t *testing.T) {
	a := TenantApplication{FirstName: "Ana", MiddleName: " ", LastName: "Reyes"}
	assert.Equal(t, "Ana Reyes", a.FullName())
	assert.Equal(t, "Reyes", a.Surname())

	legacy := TenantApplication{Name: "Juan Dela Cruz"}
	assert.Equal(t, "Juan Dela Cruz", legacy.FullName())
	assert.Equal(t, "Cruz", legacy.Surname())

	single := TenantApplication{Name: "Madonna"}
	assert.Equal(t, "", single.Surname())
}

func TestNormalizeLeaseDuration(t *testing.T) {
	assert.Equal(t, 12, NormalizeLeaseDuration(nil))
	assert.Equal(t, 12, NormalizeLeaseDuration(intp(7)))
	assert.Equal(t, 6, NormalizeLeaseDuration(intp(6)))
}

func TestPaymentPayload_Parse(t *testing.T) {
	loc := time.UTC

	t.Run("rent variant", func(t *testing.T) {
		req, err := PaymentPayload{UnitID: 3, PaymentType: "rent", Amount: f64(1200), DueDate: "2025-02-01"}.Parse(loc)
		require.NoError(t, err)
		require.NotNil(t, req.Rent)
		assert.Nil(t, req.Utility)
		assert.Equal(t, PaymentTypeRent, req.Type())
		assert.Equal(t, 1200.0, req.Amount())
		assert.Equal(t, PaymentStatusPending, req.Status)
	})

	t.Run("utility variant sums breakdown", func(t *testing.T) {
		req, err := PaymentPayload{
			UnitID: 3, PaymentType: "utility", Amount: f64(1),
			Water: f64(100), Internet: f64(49.99), DueDate: "2025-02-01",
		}.Parse(loc)
		require.NoError(t, err)
		require.NotNil(t, req.Utility)
		assert.Nil(t, req.Rent)
		assert.Equal(t, 149.99, req.Amount())
	})

	t.Run("rent without amount", func(t *testing.T) {
		_, err := PaymentPayload{UnitID: 3, PaymentType: "rent", DueDate: "2025-02-01"}.Parse(loc)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("due before payment date", func(t *testing.T) {
		_, err := PaymentPayload{
			UnitID: 3, PaymentType: "rent", Amount: f64(1), PaymentDate: "2025-02-02", DueDate: "2025-02-01",
		}.Parse(loc)
		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "due_date")
	})

	t.Run("unknown type and status", func(t *testing.T) {
		_, err := PaymentPayload{UnitID: 3, PaymentType: "deposit", Status: "late", DueDate: "2025-02-01"}.Parse(loc)
		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Contains(t, fe, "payment_type")
		assert.Contains(t, fe, "status")
	})
}

func TestUtilityItems(t *testing.T) {
	paid := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	p := Payment{
		ID: 7, PaymentType: PaymentTypeUtility, Status: PaymentStatusPaid,
		Water: f64(10), Electricity: f64(0), Internet: f64(30),
		DueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), PaymentDate: &paid,
	}
	items := UtilityItems(p)
	require.Len(t, items, 2)
	assert.Equal(t, "7_water", items[0].ID)
	assert.Equal(t, "Internet", items[1].Name)
	assert.Equal(t, "paid", items[1].Status)
	assert.Equal(t, "2025-03-04", *items[1].PaymentDate)

	assert.Nil(t, UtilityItems(Payment{PaymentType: PaymentTypeRent, Water: f64(1)}))
}

func TestParseUtilityItemID(t *testing.T) {
	id, kind, err := ParseUtilityItemID("42_electricity")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, UtilityElectricity, kind)

	for _, bad := range []string{"42", "x_water", "42_gas", "0_water"} {
		_, _, err := ParseUtilityItemID(bad)
		assert.ErrorIs(t, err, ErrBadRequest, bad)
	}
}

func TestComputePaymentStats(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	stats := ComputePaymentStats([]Payment{
		{PaymentType: PaymentTypeRent, Amount: 100, Status: PaymentStatusPaid, DueDate: now},
		{PaymentType: PaymentTypeRent, Amount: 50, Status: PaymentStatusPending, DueDate: now.AddDate(0, 0, -3)},
		{PaymentType: PaymentTypeUtility, Water: f64(20), Status: PaymentStatusPending, DueDate: now.AddDate(0, 0, 5)},
	}, now)
	assert.Equal(t, 3, stats.TotalCount)
	assert.Equal(t, 170.0, stats.TotalAmount)
	assert.Equal(t, 100.0, stats.PaidAmount)
	assert.Equal(t, 1, stats.OverdueCount)
	assert.Equal(t, 50.0, stats.OverdueAmount)
	assert.Equal(t, 20.0, stats.PendingAmount)
}

func TestPeriod(t *testing.T) {
	now := time.Date(2025, 5, 17, 0, 0, 0, 0, time.UTC)

	p, err := ParsePeriod("2024-02", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", p.Start.Format(DateLayout))
	assert.Equal(t, "2024-02-29", p.End.Format(DateLayout))

	projected := p.ProjectDueDate(time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-29", projected.Format(DateLayout))

	cur, err := ParsePeriod("", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-05", cur.Label())

	_, err = ParsePeriod("May 2025", now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLeaseStatus(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	soon := now.AddDate(0, 0, 10)
	later := now.AddDate(0, 3, 0)
	assert.Equal(t, LeaseExpired, LeaseStatus(&past, now))
	assert.Equal(t, LeaseEndingSoon, LeaseStatus(&soon, now))
	assert.Equal(t, LeaseActive, LeaseStatus(&later, now))
	assert.Equal(t, LeaseActive, LeaseStatus(nil, now))
}

func TestReceiptNumber(t *testing.T) {
	assert.Equal(t, "RCP-000042", ReceiptNumber(42))
}

func TestPayment_DescriptionAndTenantStatus(t *testing.T) {
	water, internet := 300.0, 1200.0
	rent := Payment{PaymentType: PaymentTypeRent, DueDate: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), Status: PaymentStatusPaid}
	assert.Equal(t, "Rent Payment - March", rent.Description())
	assert.Equal(t, "paid", rent.TenantStatus())

	rent.ReviewStatus = ReviewPtr(ReviewStatusPending)
	assert.Equal(t, "pending", rent.TenantStatus())

	util := Payment{PaymentType: PaymentTypeUtility, Water: &water, Internet: &internet, Status: PaymentStatusOverdue}
	assert.Equal(t, "Utilities Payment (Water, Internet)", util.Description())
	assert.Equal(t, "pending", util.TenantStatus())
	assert.Equal(t, "Utilities Payment", Payment{PaymentType: PaymentTypeUtility}.Description())
}
