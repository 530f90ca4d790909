package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/leasedesk/leasedesk/internal/model"
)

type pdfColumn struct {
	label string
	width float64
	align string
}

var reportColumns = []pdfColumn{
	{"Tenant", 48, "L"},
	{"Property", 44, "L"},
	{"Unit", 16, "L"},
	{"Monthly Rent", 30, "R"},
	{"Status", 24, "L"},
	{"Amount", 30, "R"},
	{"Paid On", 26, "L"},
	{"Due Date", 26, "L"},
}

// ReportPDF renders the report as a landscape table followed by its statistics.
func ReportPDF(r model.Report, currency string, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Tenant Payment Report "+r.FilterDate, true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(68, 114, 196)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range reportColumns {
			pdf.CellFormat(c.width, 8, c.label, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Tenant Payment Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s to %s", r.StartDate, r.EndDate), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+generatedAt.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(4)
	header()

	_, pageHeight := pdf.GetPageSize()
	for _, row := range r.Rows {
		if pdf.GetY()+7 > pageHeight-15 {
			pdf.AddPage()
			header()
		}
		amount := ""
		if row.PaymentAmount != nil {
			amount = Money(*row.PaymentAmount)
		}
		cells := []string{
			row.TenantName, row.PropertyName, row.UnitNumber, Money(row.MonthlyRent),
			row.PaymentStatus, amount, row.PaymentDate, row.DueDate,
		}
		for i, c := range reportColumns {
			pdf.CellFormat(c.width, 7, tr(fit(pdf, cells[i], c.width-2)), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(r.Rows) == 0 {
		pdf.CellFormat(0, 8, "No tenants for this period.", "1", 1, "C", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	st := r.Statistics
	for _, line := range [][2]string{
		{"Total Tenants", fmt.Sprint(st.TotalTenants)},
		{"Paid Tenants", fmt.Sprint(st.PaidTenants)},
		{"Unpaid Tenants", fmt.Sprint(st.UnpaidTenants)},
		{"Total Rent", Currency(currency, st.TotalRent)},
		{"Total Paid", Currency(currency, st.TotalPaid)},
		{"Total Unpaid", Currency(currency, st.TotalUnpaid)},
	} {
		pdf.CellFormat(50, 6, line[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, line[1], "", 1, "L", false, 0, "")
	}

	return output(pdf)
}

// ReceiptPDF renders an official receipt for a settled payment.
func ReceiptPDF(r model.Receipt) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt "+r.Number, true)
	pdf.SetCreationDate(r.IssuedAt)
	pdf.SetMargins(20, 20, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	label := func(k, v string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 6, k, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(v), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, "Receipt", "", 1, "L", false, 0, "")
	pdf.Ln(2)
	label("Receipt Number:", r.Number)
	label("Date:", r.PaymentDate.Format(receiptDateLayout))
	if !r.DueDate.IsZero() {
		label("Due date:", r.DueDate.Format(receiptDateLayout))
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Bill to:", "", 1, "L", false, 0, "")
	label("Customer Name:", r.TenantName)
	if r.TenantEmail != "" {
		label("Email:", r.TenantEmail)
	}
	label("Address:", r.PropertyAddress)
	label("Property:", fmt.Sprintf("%s - Unit %s", r.PropertyName, r.UnitNumber))
	if r.LandlordName != "" {
		label("Landlord:", r.LandlordName)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(242, 242, 242)
	pdf.CellFormat(90, 8, "Description", "B", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, "Subtotal", "B", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	total := 0.0
	for _, it := range receiptItems(r) {
		total += it.amount
		amount := Currency(r.Currency, it.amount)
		pdf.CellFormat(90, 8, it.description, "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, amount, "B", 0, "R", false, 0, "")
		pdf.CellFormat(40, 8, amount, "B", 1, "R", false, 0, "")
	}
	total = model.RoundMoney(total)

	pdf.Ln(4)
	pdf.CellFormat(130, 7, "Subtotal:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, Currency(r.Currency, total), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(130, 8, "Total:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, Currency(r.Currency, total), "", 1, "R", false, 0, "")

	pdf.Ln(8)
	label("Status:", "Paid")
	if r.PaymentMethod != "" {
		label("Payment Method:", methodLabel(r.PaymentMethod))
	}
	if r.ReferenceNumber != "" {
		label("Reference Number:", r.ReferenceNumber)
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "This is an official receipt. Please keep for your records.", "", 1, "L", false, 0, "")

	return output(pdf)
}

type receiptItem struct {
	description string
	amount      float64
}

// receiptItems lists rent as one line and each non-zero utility part as its own line.
func receiptItems(r model.Receipt) []receiptItem {
	if r.PaymentType != model.PaymentTypeUtility {
		return []receiptItem{{"Rent Payment", r.Amount}}
	}
	var items []receiptItem
	for _, part := range []struct {
		name string
		v    *float64
	}{{"Water", r.Water}, {"Electricity", r.Electricity}, {"Internet", r.Internet}} {
		if part.v != nil && *part.v > 0 {
			items = append(items, receiptItem{part.name, *part.v})
		}
	}
	return items
}

// fit truncates s with an ellipsis until it fits in width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
