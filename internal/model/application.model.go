package model

import (
	"net/mail"
	"strings"
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// LeaseDurations lists the accepted lease lengths in months.
var LeaseDurations = []int{1, 3, 6, 12, 24}

const DefaultLeaseDuration = 12

const DateLayout = "2006-01-02"

func ValidLeaseDuration(months int) bool {
	for _, d := range LeaseDurations {
		if d == months {
			return true
		}
	}
	return false
}

// NormalizeLeaseDuration falls back to DefaultLeaseDuration for absent or unknown values.
func NormalizeLeaseDuration(months *int) int {
	if months == nil || !ValidLeaseDuration(*months) {
		return DefaultLeaseDuration
	}
	return *months
}

type Reference struct {
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

type TenantApplication struct {
	ID                  int64             `json:"id"`
	UnitID              int64             `json:"unit_id"`
	FirstName           string            `json:"first_name"`
	MiddleName          string            `json:"middle_name,omitempty"`
	LastName            string            `json:"last_name"`
	Name                string            `json:"name,omitempty"`
	Email               string            `json:"email"`
	Phone               string            `json:"phone"`
	Whatsapp            string            `json:"whatsapp,omitempty"`
	Occupation          string            `json:"occupation"`
	MonthlyIncome       int64             `json:"monthly_income"`
	Address             string            `json:"address"`
	NumberOfPeople      int               `json:"number_of_people"`
	Reference1          Reference         `json:"reference1"`
	Reference2          Reference         `json:"reference2"`
	LeaseDurationMonths *int              `json:"lease_duration_months"`
	LeaseStartDate      *time.Time        `json:"lease_start_date"`
	IDPicture           string            `json:"id_picture"`
	ProfilePicture      string            `json:"profile_picture,omitempty"`
	Notes               string            `json:"notes,omitempty"`
	Status              ApplicationStatus `json:"status"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	Unit *Unit `json:"unit,omitempty"`
}

// FullName joins first/middle/last and falls back to the legacy single name field.
func (a TenantApplication) FullName() string {
	full := joinNonEmpty(a.FirstName, a.MiddleName, a.LastName)
	if full != "" {
		return full
	}
	return strings.TrimSpace(a.Name)
}

// Surname prefers LastName, else the last word of the legacy name.
func (a TenantApplication) Surname() string {
	if s := strings.TrimSpace(a.LastName); s != "" {
		return s
	}
	fields := strings.Fields(a.Name)
	if len(fields) < 2 {
		return ""
	}
	return fields[len(fields)-1]
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// ApplicationSubmitRequest is the public intake payload. Pictures are base64 data URLs.
type ApplicationSubmitRequest struct {
	UnitID              int64  `json:"unit_id"`
	FirstName           string `json:"first_name"`
	MiddleName          string `json:"middle_name"`
	LastName            string `json:"last_name"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Whatsapp            string `json:"whatsapp"`
	Occupation          string `json:"occupation"`
	MonthlyIncome       *int64 `json:"monthly_income"`
	Address             string `json:"address"`
	NumberOfPeople      *int   `json:"number_of_people"`
	Reference1Name      string `json:"reference1_name"`
	Reference1Address   string `json:"reference1_address"`
	Reference1Phone     string `json:"reference1_phone"`
	Reference1Email     string `json:"reference1_email"`
	Reference1Relation  string `json:"reference1_relationship"`
	Reference2Name      string `json:"reference2_name"`
	Reference2Address   string `json:"reference2_address"`
	Reference2Phone     string `json:"reference2_phone"`
	Reference2Email     string `json:"reference2_email"`
	Reference2Relation  string `json:"reference2_relationship"`
	LeaseDurationMonths *int   `json:"lease_duration_months"`
	LeaseStartDate      string `json:"lease_start_date"`
	IDPicture           string `json:"id_picture"`
	ProfilePicture      string `json:"profile_picture"`
	Notes               string `json:"notes"`
}

// Validate checks the payload against today's date and returns the parsed lease start.
func (r *ApplicationSubmitRequest) Validate(today time.Time) (time.Time, error) {
	fe := FieldErrors{}
	if r.UnitID <= 0 {
		fe.Add("unit_id", "The unit id field is required.")
	}

	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		if r.FirstName == "" {
			fe.Add("first_name", "The first name field is required.")
		}
		if r.LastName == "" {
			fe.Add("last_name", "The last name field is required.")
		}
	}

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" {
		fe.Add("email", "The email field is required.")
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		fe.Add("email", "The email must be a valid email address.")
	}
	if strings.TrimSpace(r.Phone) == "" {
		fe.Add("phone", "The phone field is required.")
	}
	if strings.TrimSpace(r.Occupation) == "" {
		fe.Add("occupation", "The occupation field is required.")
	}
	if r.MonthlyIncome == nil {
		fe.Add("monthly_income", "The monthly income field is required.")
	} else if *r.MonthlyIncome < 0 {
		fe.Add("monthly_income", "The monthly income must be at least 0.")
	}
	if strings.TrimSpace(r.Address) == "" {
		fe.Add("address", "The address field is required.")
	}
	if r.NumberOfPeople == nil {
		one := 1
		r.NumberOfPeople = &one
	} else if *r.NumberOfPeople < 1 {
		fe.Add("number_of_people", "The number of people must be at least 1.")
	}

	if strings.TrimSpace(r.Reference1Name) == "" {
		fe.Add("reference1_name", "The first reference name is required.")
	}
	if strings.TrimSpace(r.Reference1Phone) == "" {
		fe.Add("reference1_phone", "The first reference phone is required.")
	}
	if strings.TrimSpace(r.Reference2Name) == "" {
		fe.Add("reference2_name", "The second reference name is required.")
	}
	if strings.TrimSpace(r.Reference2Phone) == "" {
		fe.Add("reference2_phone", "The second reference phone is required.")
	}
	for field, v := range map[string]string{"reference1_email": r.Reference1Email, "reference2_email": r.Reference2Email} {
		if v == "" {
			continue
		}
		if _, err := mail.ParseAddress(v); err != nil {
			fe.Add(field, "The reference email must be a valid email address.")
		}
	}

	if r.LeaseDurationMonths != nil && !ValidLeaseDuration(*r.LeaseDurationMonths) {
		fe.Add("lease_duration_months", "The selected lease duration is invalid.")
	}

	var start time.Time
	if r.LeaseStartDate == "" {
		fe.Add("lease_start_date", "The lease start date field is required.")
	} else {
		t, err := time.ParseInLocation(DateLayout, r.LeaseStartDate, today.Location())
		switch {
		case err != nil:
			fe.Add("lease_start_date", "The lease start date is not a valid date.")
		case t.Before(StartOfDay(today)):
			fe.Add("lease_start_date", "The lease start date must be today or later.")
		default:
			start = t
		}
	}

	if strings.TrimSpace(r.IDPicture) == "" {
		fe.Add("id_picture", "The id picture field is required.")
	}
	return start, fe.Err()
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ApplicationFilter scopes landlord queries.
type ApplicationFilter struct {
	LandlordID int64
	Statuses   []ApplicationStatus
}
