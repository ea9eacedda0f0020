// Package render lays out quotation documents as single-page A4 PDFs.
package render

import (
	"strings"
	"time"

	"quotation_system/internal/quotation"
)

// Company is the issuer shown in the header band.
type Company struct {
	Name    string
	Address string
	Email   string
	Phone   string
	GSTIN   string
}

// Party is a bill-to or ship-to address block.
type Party struct {
	Name    string
	Address string
	City    string
}

// Bank holds the payment details printed under the totals.
type Bank struct {
	AccountName   string
	AccountNumber string
	IFSC          string
	BankName      string
}

// Document is everything printed on a quotation.
type Document struct {
	Company     Company
	BillTo      Party
	ShipTo      Party
	QuotationNo string
	Date        string // already formatted, dd-mm-yyyy
	ValidTill   string // as submitted; see FormatValidTill
	Bank        Bank
	Note        string
	Result      quotation.Result
}

// DateLayout is the day-month-year layout used on documents and in history.
const DateLayout = "02-01-2006"

// FormatValidTill turns an ISO date into day-month-year. Anything else is
// returned unchanged.
func FormatValidTill(s string) string {
	t, err := time.Parse("2006-1-2", strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
