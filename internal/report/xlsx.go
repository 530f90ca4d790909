package report

import (
	"fmt"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName     = "Report"
	headerRow     = 4
	moneyNumFmt   = 4 // #,##0.00
	xlsxColWidth  = 20
	firstDataRow  = headerRow + 1
	summaryOffset = 2
)

var xlsxHeader = []string{
	"Tenant Name", "Email", "Phone", "Property", "Address", "Unit", "Monthly Rent",
	"Payment Status", "Payment Amount", "Payment Date", "Due Date", "Payment Method", "Reference Number",
}

// XLSX renders the report as a single styled sheet with a summary block under the rows.
func XLSX(r model.Report, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders("000000"),
	})
	if err != nil {
		return nil, err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: borders("CCCCCC")})
	if err != nil {
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{Border: borders("CCCCCC"), NumFmt: moneyNumFmt})
	if err != nil {
		return nil, err
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f}
	w.set(1, 1, fmt.Sprintf("Tenant Payment Report %s", r.FilterDate), titleStyle)
	w.set(1, 2, fmt.Sprintf("Period: %s to %s", r.StartDate, r.EndDate), 0)
	w.set(1, 3, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04:05")), 0)
	if err := f.SetRowHeight(sheetName, 1, 30); err != nil {
		return nil, err
	}

	for col, label := range xlsxHeader {
		w.set(col+1, headerRow, label, headerStyle)
	}
	last, err := excelize.ColumnNumberToName(len(xlsxHeader))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "A", last, xlsxColWidth); err != nil {
		return nil, err
	}

	for i, row := range r.Rows {
		n := firstDataRow + i
		values := []any{
			row.TenantName, row.Email, row.Phone, row.PropertyName, row.PropertyAddress, row.UnitNumber,
			row.MonthlyRent, row.PaymentStatus, nil, row.PaymentDate, row.DueDate,
			methodLabel(row.PaymentMethod), row.ReferenceNumber,
		}
		if row.PaymentAmount != nil {
			values[8] = *row.PaymentAmount
		}
		for col, v := range values {
			style := dataStyle
			if _, ok := v.(float64); ok {
				style = moneyStyle
			}
			w.set(col+1, n, v, style)
		}
	}

	n := firstDataRow + len(r.Rows) + summaryOffset
	w.set(1, n, "Summary", summaryStyle)
	st := r.Statistics
	for _, kv := range []struct {
		label string
		value any
	}{
		{"Total Tenants", st.TotalTenants},
		{"Paid Tenants", st.PaidTenants},
		{"Unpaid Tenants", st.UnpaidTenants},
		{"Total Rent", st.TotalRent},
		{"Total Paid", st.TotalPaid},
		{"Total Unpaid", st.TotalUnpaid},
	} {
		n++
		w.set(1, n, kv.label, 0)
		style := 0
		if _, ok := kv.value.(float64); ok {
			style = moneyStyle
		}
		w.set(2, n, kv.value, style)
	}
	if w.err != nil {
		return nil, w.err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so cell writes stay on one line each.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) set(col, row int, value any, style int) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if value != nil {
		if w.err = w.f.SetCellValue(sheetName, cell, value); w.err != nil {
			return
		}
	}
	if style != 0 {
		w.err = w.f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func borders(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}
