// Package report renders tenant payment reports and payment receipts into downloadable files.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/leasedesk/leasedesk/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const receiptDateLayout = "January 02, 2006"

var printer = message.NewPrinter(language.English)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Money formats v with thousands separators and two decimals, e.g. 1,500.00.
func Money(v float64) string {
	return printer.Sprintf("%.2f", model.RoundMoney(v))
}

// Currency prefixes Money with a display label.
func Currency(label string, v float64) string {
	if label == "" {
		return Money(v)
	}
	return label + " " + Money(v)
}

func ContentType(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

func ValidFormat(format string) bool {
	switch format {
	case FormatCSV, FormatXLSX, FormatPDF:
		return true
	}
	return false
}

// ReportFilename is tenant_payment_report_<YYYY-MM>.<ext>.
func ReportFilename(period, format string) string {
	return sanitizeFilename(fmt.Sprintf("tenant_payment_report_%s.%s", period, format))
}

// ReceiptFilename is Receipt-<number>-<issued YYYY-MM-DD>.pdf.
func ReceiptFilename(r model.Receipt) string {
	return sanitizeFilename(fmt.Sprintf("Receipt-%s-%s.pdf", r.Number, r.IssuedAt.Format(model.DateLayout)))
}

// Render dispatches on format.
func Render(r model.Report, format, currency string) (*File, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = CSV(r)
	case FormatXLSX:
		data, err = XLSX(r, time.Now())
	case FormatPDF:
		data, err = ReportPDF(r, currency, time.Now())
	default:
		return nil, model.Invalid("format", "The selected format is invalid.")
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", format, err)
	}
	return &File{
		Name:        ReportFilename(r.FilterDate, format),
		ContentType: ContentType(format),
		Data:        data,
	}, nil
}

// methodLabel turns "bank_transfer" into "Bank transfer".
func methodLabel(m string) string {
	m = strings.TrimSpace(strings.ReplaceAll(m, "_", " "))
	if m == "" {
		return ""
	}
	return strings.ToUpper(m[:1]) + m[1:]
}

func optionalMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return Money(*v)
}

func sanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}
