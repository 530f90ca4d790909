package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type PaymentType string

const (
	PaymentTypeRent    PaymentType = "rent"
	PaymentTypeUtility PaymentType = "utility"
)

// Label is the wording used in notifications and receipts.
func (t PaymentType) Label() string {
	if t == PaymentTypeUtility {
		return "Utilities"
	}
	return "Rent"
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusOverdue:
		return true
	}
	return false
}

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending_review"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

type Payment struct {
	ID              int64         `json:"id"`
	TenantID        int64         `json:"tenant_id"`
	UnitID          int64         `json:"unit_id"`
	PaymentType     PaymentType   `json:"payment_type"`
	Amount          float64       `json:"amount"`
	Water           *float64      `json:"water"`
	Electricity     *float64      `json:"electricity"`
	Internet        *float64      `json:"internet"`
	PaymentDate     *time.Time    `json:"payment_date"`
	DueDate         time.Time     `json:"due_date"`
	Status          PaymentStatus `json:"status"`
	ReviewStatus    *ReviewStatus `json:"review_status"`
	PaymentMethod   string        `json:"payment_method,omitempty"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	PaymentProof    string        `json:"payment_proof,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Tenant *Tenant `json:"tenant,omitempty"`
	Unit   *Unit   `json:"unit,omitempty"`
}

// DisplayTotal is the sum of the utility breakdown for utility payments and Amount otherwise.
func (p Payment) DisplayTotal() float64 {
	if p.PaymentType == PaymentTypeUtility {
		return UtilityTotal(p.Water, p.Electricity, p.Internet)
	}
	return p.Amount
}

func (p Payment) IsSettled() bool {
	return p.Status == PaymentStatusPaid && p.Reviewed(ReviewStatusApproved)
}

func (p Payment) Reviewed(s ReviewStatus) bool {
	return p.ReviewStatus != nil && *p.ReviewStatus == s
}

// UtilityTotal treats missing parts as zero.
func UtilityTotal(parts ...*float64) float64 {
	var sum float64
	for _, p := range parts {
		if p != nil {
			sum += *p
		}
	}
	return RoundMoney(sum)
}

func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func ReviewPtr(s ReviewStatus) *ReviewStatus {
	return &s
}

type RentFields struct {
	Amount float64
}

type UtilityFields struct {
	Water       *float64
	Electricity *float64
	Internet    *float64
}

// PaymentCreateRequest is a tagged union: exactly one of Rent or Utility is set.
type PaymentCreateRequest struct {
	UnitID          int64
	TenantID        *int64
	PaymentDate     *time.Time
	DueDate         time.Time
	Status          PaymentStatus
	PaymentMethod   string
	ReferenceNumber string
	Notes           string

	Rent    *RentFields
	Utility *UtilityFields
}

func (r PaymentCreateRequest) Type() PaymentType {
	if r.Utility != nil {
		return PaymentTypeUtility
	}
	return PaymentTypeRent
}

// Amount is the stored amount column; for utilities it is the breakdown sum.
func (r PaymentCreateRequest) Amount() float64 {
	if r.Utility != nil {
		return UtilityTotal(r.Utility.Water, r.Utility.Electricity, r.Utility.Internet)
	}
	if r.Rent != nil {
		return RoundMoney(r.Rent.Amount)
	}
	return 0
}

// PaymentPayload is the loosely typed wire form of a landlord payment entry.
type PaymentPayload struct {
	UnitID          int64    `json:"unit_id"`
	TenantID        *int64   `json:"tenant_id"`
	PaymentType     string   `json:"payment_type"`
	Amount          *float64 `json:"amount"`
	Water           *float64 `json:"water"`
	Electricity     *float64 `json:"electricity"`
	Internet        *float64 `json:"internet"`
	PaymentDate     string   `json:"payment_date"`
	DueDate         string   `json:"due_date"`
	Status          string   `json:"status"`
	PaymentMethod   string   `json:"payment_method"`
	ReferenceNumber string   `json:"reference_number"`
	Notes           string   `json:"notes"`
}

// Parse validates the payload and selects the rent or utility variant.
func (p PaymentPayload) Parse(loc *time.Location) (PaymentCreateRequest, error) {
	fe := FieldErrors{}
	req := PaymentCreateRequest{
		UnitID:          p.UnitID,
		TenantID:        p.TenantID,
		PaymentMethod:   strings.TrimSpace(p.PaymentMethod),
		ReferenceNumber: strings.TrimSpace(p.ReferenceNumber),
		Notes:           p.Notes,
	}
	if p.UnitID <= 0 {
		fe.Add("unit_id", "The unit id field is required.")
	}

	switch PaymentType(p.PaymentType) {
	case PaymentTypeRent:
		if p.Amount == nil {
			fe.Add("amount", "The amount field is required.")
		} else if *p.Amount < 0 {
			fe.Add("amount", "The amount must be at least 0.")
		} else {
			req.Rent = &RentFields{Amount: *p.Amount}
		}
	case PaymentTypeUtility:
		u := &UtilityFields{Water: p.Water, Electricity: p.Electricity, Internet: p.Internet}
		for field, v := range map[string]*float64{"water": u.Water, "electricity": u.Electricity, "internet": u.Internet} {
			if v != nil && *v < 0 {
				fe.Add(field, "The "+field+" must be at least 0.")
			}
		}
		if u.Water == nil && u.Electricity == nil && u.Internet == nil {
			fe.Add("water", "At least one utility amount is required.")
		}
		req.Utility = u
	case "":
		fe.Add("payment_type", "The payment type field is required.")
	default:
		fe.Add("payment_type", "The selected payment type is invalid.")
	}

	if p.DueDate == "" {
		fe.Add("due_date", "The due date field is required.")
	} else if t, err := time.ParseInLocation(DateLayout, p.DueDate, loc); err != nil {
		fe.Add("due_date", "The due date is not a valid date.")
	} else {
		req.DueDate = t
	}
	if p.PaymentDate != "" {
		if t, err := time.ParseInLocation(DateLayout, p.PaymentDate, loc); err != nil {
			fe.Add("payment_date", "The payment date is not a valid date.")
		} else {
			req.PaymentDate = &t
		}
	}
	if req.PaymentDate != nil && !req.DueDate.IsZero() && req.DueDate.Before(*req.PaymentDate) {
		fe.Add("due_date", "The due date must be on or after the payment date.")
	}

	req.Status = PaymentStatus(p.Status)
	if req.Status == "" {
		req.Status = PaymentStatusPending
	} else if !req.Status.Valid() {
		fe.Add("status", "The selected status is invalid.")
	}
	if len(req.PaymentMethod) > 255 {
		fe.Add("payment_method", "The payment method may not be greater than 255 characters.")
	}
	if len(req.ReferenceNumber) > 255 {
		fe.Add("reference_number", "The reference number may not be greater than 255 characters.")
	}
	return req, fe.Err()
}

// PaymentSubmission is a tenant's request to have a bill reviewed.
type PaymentSubmission struct {
	PaymentMethod   string `json:"payment_method"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes"`
	PaymentDate     string `json:"payment_date"`

	ProofName string `json:"-"`
	Proof     []byte `json:"-"`
	ProofURL  string `json:"payment_proof"`
}

func (s *PaymentSubmission) Validate() error {
	fe := FieldErrors{}
	s.PaymentMethod = strings.TrimSpace(s.PaymentMethod)
	s.ReferenceNumber = strings.TrimSpace(s.ReferenceNumber)
	if s.PaymentMethod == "" {
		fe.Add("payment_method", "The payment method field is required.")
	} else if len(s.PaymentMethod) > 255 {
		fe.Add("payment_method", "The payment method may not be greater than 255 characters.")
	}
	if len(s.ReferenceNumber) > 255 {
		fe.Add("reference_number", "The reference number may not be greater than 255 characters.")
	}
	if s.PaymentDate != "" {
		if _, err := time.Parse(DateLayout, s.PaymentDate); err != nil {
			fe.Add("payment_date", "The payment date is not a valid date.")
		}
	}
	return fe.Err()
}

type PaymentFilter struct {
	LandlordID int64
	TenantID   int64
	UnitID     int64
	Type       PaymentType
	Statuses   []PaymentStatus
	DueFrom    *time.Time
	DueTo      *time.Time
	Limit      int
}

type PaymentStats struct {
	TotalAmount   float64 `json:"total_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	PendingAmount float64 `json:"pending_amount"`
	OverdueAmount float64 `json:"overdue_amount"`
	TotalCount    int     `json:"total_count"`
	PaidCount     int     `json:"paid_count"`
	PendingCount  int     `json:"pending_count"`
	OverdueCount  int     `json:"overdue_count"`
}

// Overdue counts explicit overdue rows and pending rows past their due date.
func ComputePaymentStats(payments []Payment, now time.Time) PaymentStats {
	var st PaymentStats
	today := StartOfDay(now)
	for _, p := range payments {
		total := p.DisplayTotal()
		st.TotalCount++
		st.TotalAmount += total
		switch {
		case p.Status == PaymentStatusPaid:
			st.PaidCount++
			st.PaidAmount += total
		case p.Status == PaymentStatusOverdue, p.DueDate.Before(today):
			st.OverdueCount++
			st.OverdueAmount += total
		default:
			st.PendingCount++
			st.PendingAmount += total
		}
	}
	st.TotalAmount = RoundMoney(st.TotalAmount)
	st.PaidAmount = RoundMoney(st.PaidAmount)
	st.PendingAmount = RoundMoney(st.PendingAmount)
	st.OverdueAmount = RoundMoney(st.OverdueAmount)
	return st
}

type UtilityKind string

const (
	UtilityWater       UtilityKind = "water"
	UtilityElectricity UtilityKind = "electricity"
	UtilityInternet    UtilityKind = "internet"
)

var utilityNames = map[UtilityKind]string{
	UtilityWater:       "Water",
	UtilityElectricity: "Electricity",
	UtilityInternet:    "Internet",
}

var utilityIcons = map[UtilityKind]string{
	UtilityWater:       "droplet",
	UtilityElectricity: "zap",
	UtilityInternet:    "wifi",
}

func (k UtilityKind) Valid() bool {
	_, ok := utilityNames[k]
	return ok
}

// UtilityItem is one non-zero utility line of a utility payment.
type UtilityItem struct {
	ID          string      `json:"id"`
	PaymentID   int64       `json:"payment_id"`
	Name        string      `json:"name"`
	Type        UtilityKind `json:"type"`
	Amount      float64     `json:"amount"`
	DueDate     string      `json:"dueDate"`
	Status      string      `json:"status"`
	Icon        string      `json:"icon"`
	PaymentDate *string     `json:"payment_date"`
}

// UtilityItems expands a utility payment into its non-zero lines.
func UtilityItems(p Payment) []UtilityItem {
	if p.PaymentType != PaymentTypeUtility {
		return nil
	}
	status := "unpaid"
	if p.Status == PaymentStatusPaid {
		status = "paid"
	}
	var paid *string
	if p.PaymentDate != nil {
		s := p.PaymentDate.Format(DateLayout)
		paid = &s
	}
	items := make([]UtilityItem, 0, 3)
	for _, part := range []struct {
		kind UtilityKind
		v    *float64
	}{{UtilityWater, p.Water}, {UtilityElectricity, p.Electricity}, {UtilityInternet, p.Internet}} {
		if part.v == nil || *part.v <= 0 {
			continue
		}
		items = append(items, UtilityItem{
			ID:          UtilityItemID(p.ID, part.kind),
			PaymentID:   p.ID,
			Name:        utilityNames[part.kind],
			Type:        part.kind,
			Amount:      *part.v,
			DueDate:     p.DueDate.Format(DateLayout),
			Status:      status,
			Icon:        utilityIcons[part.kind],
			PaymentDate: paid,
		})
	}
	return items
}

type TenantPaymentHistory struct {
	Payments       []PaymentHistoryEntry `json:"payment_history"`
	CurrentBalance float64               `json:"current_balance"`
	NextDueDate    *string               `json:"next_due_date"`
}

// PaymentHistoryEntry is one payment as the tenant sees it.
type PaymentHistoryEntry struct {
	ID              int64       `json:"id"`
	Date            *string     `json:"date"`
	Description     string      `json:"description"`
	Amount          float64     `json:"amount"`
	Status          string      `json:"status"`
	PaymentMethod   string      `json:"payment_method"`
	ReferenceNumber string      `json:"reference_number"`
	PaymentProof    *string     `json:"payment_proof"`
	PaymentType     PaymentType `json:"payment_type"`
}

// Description reads "Rent Payment - January" or "Utilities Payment (Water, Internet)".
func (p Payment) Description() string {
	if p.PaymentType == PaymentTypeRent {
		if p.DueDate.IsZero() {
			return "Rent Payment"
		}
		return "Rent Payment - " + p.DueDate.Format("January")
	}
	var parts []string
	for _, it := range UtilityItems(p) {
		parts = append(parts, it.Name)
	}
	if len(parts) == 0 {
		return "Utilities Payment"
	}
	return "Utilities Payment (" + strings.Join(parts, ", ") + ")"
}

// TenantStatus collapses the ledger state to paid or pending; a payment under review is pending.
func (p Payment) TenantStatus() string {
	if !p.Reviewed(ReviewStatusPending) && p.Status == PaymentStatusPaid {
		return string(PaymentStatusPaid)
	}
	return string(PaymentStatusPending)
}

// Receipt is the data rendered into a payment receipt.
type Receipt struct {
	Number          string
	IssuedAt        time.Time
	PaymentDate     time.Time
	DueDate         time.Time
	PaymentType     PaymentType
	Amount          float64
	Water           *float64
	Electricity     *float64
	Internet        *float64
	PaymentMethod   string
	ReferenceNumber string
	TenantName      string
	TenantEmail     string
	UnitNumber      string
	PropertyName    string
	PropertyAddress string
	LandlordName    string
	Currency        string
}

func ReceiptNumber(paymentID int64) string {
	return fmt.Sprintf("RCP-%06d", paymentID)
}

func UtilityItemID(paymentID int64, kind UtilityKind) string {
	return strconv.FormatInt(paymentID, 10) + "_" + string(kind)
}

// ParseUtilityItemID splits "<paymentId>_<kind>".
func ParseUtilityItemID(id string) (int64, UtilityKind, error) {
	raw, kind, ok := strings.Cut(id, "_")
	if !ok {
		return 0, "", fmt.Errorf("%w: Invalid utility ID", ErrBadRequest)
	}
	pid, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || pid <= 0 || !UtilityKind(kind).Valid() {
		return 0, "", fmt.Errorf("%w: Invalid utility ID", ErrBadRequest)
	}
	return pid, UtilityKind(kind), nil
}
