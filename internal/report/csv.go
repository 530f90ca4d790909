package report

import (
	"bytes"
	"encoding/csv"

	"github.com/leasedesk/leasedesk/internal/model"
)

var csvHeader = []string{
	"Tenant Name", "Email", "Phone", "Property", "Unit", "Monthly Rent",
	"Payment Status", "Payment Amount", "Payment Date", "Due Date",
}

// CSV writes one line per report row after a header line.
func CSV(r model.Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range r.Rows {
		record := []string{
			row.TenantName,
			row.Email,
			row.Phone,
			row.PropertyName,
			row.UnitNumber,
			Money(row.MonthlyRent),
			row.PaymentStatus,
			optionalMoney(row.PaymentAmount),
			row.PaymentDate,
			row.DueDate,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}
