// Package quotation computes quotation totals, GST, rounding and the per-unit
// quantity summary printed on generated documents.
package quotation

import (
	"errors"
	"math"
	"strings"

	"quotation_system/internal/domain"
)

// GSTRate is the fixed goods and services tax applied to the sub total.
const GSTRate = 0.18

// ErrMismatchedColumns is returned when the product, quantity and price
// columns of a submitted form do not line up.
var ErrMismatchedColumns = errors.New("quotation: line item columns differ in length")

// LineItem is one row of a quotation form.
type LineItem struct {
	ProductName string
	Description string
	Quantity    float64
	UnitPrice   float64
}

// Amount is quantity times unit price.
func (li LineItem) Amount() float64 {
	return li.Quantity * li.UnitPrice
}

// LineItemsFromColumns zips the positional form columns into line items.
// Descriptions are optional: a missing or short column is padded with empty
// strings and extra descriptions are ignored.
func LineItemsFromColumns(names, descriptions []string, quantities, prices []float64) ([]LineItem, error) {
	if len(names) != len(quantities) || len(names) != len(prices) {
		return nil, ErrMismatchedColumns
	}
	items := make([]LineItem, len(names))
	for i, name := range names {
		var desc string
		if i < len(descriptions) {
			desc = descriptions[i]
		}
		items[i] = LineItem{
			ProductName: name,
			Description: desc,
			Quantity:    quantities[i],
			UnitPrice:   prices[i],
		}
	}
	return items, nil
}

// CatalogEntry maps a product name to its unit type.
type CatalogEntry struct {
	Name     string `json:"name"`
	UnitType string `json:"unit_type"`
}

// Catalog is an ordered product list used to resolve units. Order matters:
// the first case-insensitive name match wins.
type Catalog []CatalogEntry

// CatalogFromProducts builds a catalog from a user's products, keeping their order.
func CatalogFromProducts(products []domain.Product) Catalog {
	c := make(Catalog, 0, len(products))
	for _, p := range products {
		c = append(c, CatalogEntry{Name: p.Name, UnitType: p.UnitType})
	}
	return c
}

// UnitFor returns the trimmed, upper-cased unit of the first entry whose name
// matches case-insensitively, or "" when the product is unknown.
func (c Catalog) UnitFor(name string) string {
	for _, e := range c {
		if strings.EqualFold(e.Name, name) {
			return strings.ToUpper(strings.TrimSpace(e.UnitType))
		}
	}
	return ""
}

// Bucket is the aggregate a unit type contributes to.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketWeight
	BucketNos
	BucketPieces
)

// BucketOf classifies a normalized unit type.
func BucketOf(unit string) Bucket {
	switch unit {
	case "KG":
		return BucketWeight
	case "NOS", "NO", "NOS.":
		return BucketNos
	case "PCS", "PIECE", "PIECES":
		return BucketPieces
	default:
		return BucketNone
	}
}

// Line is a computed row ready for display.
type Line struct {
	Index         int // 1-based
	Item          LineItem
	Unit          string
	Amount        float64
	QuantityText  string
	UnitPriceText string
	AmountText    string
}

// Result holds everything the renderer and the history log need.
type Result struct {
	Lines                []Line
	TotalAmount          float64
	LoadingCharge        float64
	TransportationCharge float64
	SubTotal             float64
	GSTAmount            float64
	GrandTotal           float64
	FinalTotal           float64
	RoundOff             float64
	TotalWeight          float64
	TotalNos             float64
	TotalPieces          float64
	Summary              string
}

// Calculate computes a quotation. Unresolved products still count towards the
// amounts but not towards any quantity aggregate.
func Calculate(items []LineItem, loading, transport float64, catalog Catalog) Result {
	r := Result{
		Lines:                make([]Line, 0, len(items)),
		LoadingCharge:        loading,
		TransportationCharge: transport,
	}

	for i, item := range items {
		unit := catalog.UnitFor(item.ProductName)
		amount := item.Amount()
		r.TotalAmount += amount

		switch BucketOf(unit) {
		case BucketWeight:
			r.TotalWeight += item.Quantity
		case BucketNos:
			r.TotalNos += item.Quantity
		case BucketPieces:
			r.TotalPieces += item.Quantity
		}

		qty := FormatQuantity(item.Quantity)
		if unit != "" {
			qty += " " + unit
		}
		r.Lines = append(r.Lines, Line{
			Index:         i + 1,
			Item:          item,
			Unit:          unit,
			Amount:        amount,
			QuantityText:  qty,
			UnitPriceText: FormatAmount(item.UnitPrice),
			AmountText:    FormatAmount(amount),
		})
	}

	r.SubTotal = r.TotalAmount + loading + transport
	r.GSTAmount = r.SubTotal * GSTRate
	r.GrandTotal = r.SubTotal + r.GSTAmount
	r.FinalTotal = math.RoundToEven(r.GrandTotal)
	r.RoundOff = r.FinalTotal - r.GrandTotal
	r.Summary = summary(r.TotalWeight, r.TotalNos, r.TotalPieces)
	return r
}

// HasSummary reports whether any quantity aggregate is non-zero.
func (r Result) HasSummary() bool {
	return r.Summary != ""
}

func summary(weight, nos, pieces float64) string {
	var parts []string
	if weight != 0 {
		parts = append(parts, "Total Weight: "+FormatQuantity(weight)+" KG")
	}
	if nos != 0 {
		parts = append(parts, "Total Nos: "+FormatCount(nos))
	}
	if pieces != 0 {
		parts = append(parts, "Total Pieces: "+FormatCount(pieces))
	}
	return strings.Join(parts, " | ")
}
