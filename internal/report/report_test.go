package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() model.Report {
	paid := 15000.0
	return model.Report{
		Rows: []model.ReportRow{
			{
				TenantID: 1, TenantName: "Maria Clara Santos", Email: "maria@example.com", Phone: "09171234567",
				UnitID: 10, UnitNumber: "101", PropertyID: 3, PropertyName: "Sunrise Apartments",
				PropertyAddress: "1 Main St, Cebu", MonthlyRent: 15000, HasPaid: true,
				PaymentStatus: "Paid", PaymentAmount: &paid, PaymentDate: "2025-01-03", DueDate: "2025-01-05",
				PaymentMethod: "bank_transfer", ReferenceNumber: "BT-1",
			},
			{
				TenantID: 2, TenantName: "Jose Rizal", Email: "jose@example.com",
				UnitID: 11, UnitNumber: "102", PropertyName: model.NotAvailable,
				MonthlyRent: 1250.5, PaymentStatus: model.ReportStatusNotPaid, DueDate: "2025-01-31",
			},
		},
		Statistics: model.ReportStats{
			TotalTenants: 2, PaidTenants: 1, UnpaidTenants: 1,
			TotalRent: 16250.5, TotalPaid: 15000, TotalUnpaid: 1250.5,
		},
		FilterDate: "2025-01",
		StartDate:  "2025-01-01",
		EndDate:    "2025-01-31",
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "1,500.00", Money(1500))
	assert.Equal(t, "0.00", Money(0))
	assert.Equal(t, "1,234,567.89", Money(1234567.891))
	assert.Equal(t, "Php 12.50", Currency("Php", 12.5))
	assert.Equal(t, "12.50", Currency("", 12.5))
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "tenant_payment_report_2025-01.csv", ReportFilename("2025-01", FormatCSV))
	r := model.Receipt{Number: "RCP-000042", IssuedAt: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Receipt-RCP-000042-2025-02-01.pdf", ReceiptFilename(r))
	assert.Equal(t, "tenant_payment_report_.._x.csv", ReportFilename("../x", FormatCSV))
}

func TestMethodLabel(t *testing.T) {
	assert.Equal(t, "Bank transfer", methodLabel("bank_transfer"))
	assert.Equal(t, "Cash", methodLabel("cash"))
	assert.Equal(t, "", methodLabel(" "))
}

func TestCSV(t *testing.T) {
	data, err := CSV(sampleReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"Maria Clara Santos", "maria@example.com", "09171234567", "Sunrise Apartments", "101",
		"15,000.00", "Paid", "15,000.00", "2025-01-03", "2025-01-05",
	}, records[1])
	assert.Equal(t, []string{
		"Jose Rizal", "jose@example.com", "", "N/A", "102",
		"1,250.50", "Not Paid", "", "", "2025-01-31",
	}, records[2])
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleReport(), time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Tenant Payment Report 2025-01", title)

	header, err := f.GetCellValue(sheetName, "A4")
	require.NoError(t, err)
	assert.Equal(t, "Tenant Name", header)

	name, err := f.GetCellValue(sheetName, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Maria Clara Santos", name)

	method, err := f.GetCellValue(sheetName, "L5")
	require.NoError(t, err)
	assert.Equal(t, "Bank transfer", method)

	unpaidAmount, err := f.GetCellValue(sheetName, "I6")
	require.NoError(t, err)
	assert.Empty(t, unpaidAmount)

	summary, err := f.GetCellValue(sheetName, "A9")
	require.NoError(t, err)
	assert.Equal(t, "Summary", summary)

	total, err := f.GetCellValue(sheetName, "B10")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestReportPDF(t *testing.T) {
	data, err := ReportPDF(sampleReport(), "Php", time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	empty, err := ReportPDF(model.Report{FilterDate: "2025-02"}, "Php", time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF-")))
}

func TestReportPDF_ManyRowsPaginates(t *testing.T) {
	r := sampleReport()
	for i := 0; i < 80; i++ {
		r.Rows = append(r.Rows, r.Rows[1])
	}
	data, err := ReportPDF(r, "Php", time.Now())
	require.NoError(t, err)
	assert.Greater(t, bytes.Count(data, []byte("<</Type /Page\n")), 1)
}

func TestReceiptItems(t *testing.T) {
	water, internet, zero := 300.0, 1200.0, 0.0
	items := receiptItems(model.Receipt{PaymentType: model.PaymentTypeUtility, Water: &water, Electricity: &zero, Internet: &internet})
	require.Len(t, items, 2)
	assert.Equal(t, "Water", items[0].description)
	assert.Equal(t, "Internet", items[1].description)

	rent := receiptItems(model.Receipt{PaymentType: model.PaymentTypeRent, Amount: 15000})
	assert.Equal(t, []receiptItem{{"Rent Payment", 15000}}, rent)
}

func TestReceiptPDF(t *testing.T) {
	water := 300.0
	data, err := ReceiptPDF(model.Receipt{
		Number:          model.ReceiptNumber(42),
		IssuedAt:        time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		PaymentDate:     time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC),
		DueDate:         time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC),
		PaymentType:     model.PaymentTypeUtility,
		Water:           &water,
		PaymentMethod:   "gcash",
		ReferenceNumber: "GC-998",
		TenantName:      "José Rizal",
		PropertyName:    "Sunrise Apartments",
		PropertyAddress: "1 Main St, Cebu",
		UnitNumber:      "101",
		Currency:        "Php",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRender(t *testing.T) {
	for _, format := range []string{FormatCSV, FormatXLSX, FormatPDF} {
		f, err := Render(sampleReport(), format, "Php")
		require.NoError(t, err, format)
		assert.Equal(t, "tenant_payment_report_2025-01."+format, f.Name)
		assert.Equal(t, ContentType(format), f.ContentType)
		assert.NotEmpty(t, f.Data)
	}

	_, err := Render(sampleReport(), "docx", "Php")
	assert.ErrorIs(t, err, model.ErrValidation)
}
