package quotation

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Printers keep internal buffers, so one is created per call.
func grouped(format string, v float64) string {
	return message.NewPrinter(language.English).Sprintf(format, v)
}

// FormatAmount renders money with two decimals and thousands separators.
func FormatAmount(v float64) string {
	return grouped("%.2f", v)
}

// FormatQuantity renders a quantity with three decimals and thousands separators.
func FormatQuantity(v float64) string {
	return grouped("%.3f", v)
}

// FormatCount renders a whole-number aggregate such as a piece count.
func FormatCount(v float64) string {
	return grouped("%.0f", v)
}

// FormatSigned renders the round-off with an explicit sign.
func FormatSigned(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}
