package quotation_test

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"

	"quotation_system/internal/domain"
	"quotation_system/internal/quotation"
)

func TestCalculateSingleLine(t *testing.T) {
	c := qt.New(t)

	r := quotation.Calculate([]quotation.LineItem{{ProductName: "Angle", Quantity: 2, UnitPrice: 50}}, 0, 0, nil)

	c.Assert(r.TotalAmount, qt.Equals, 100.0)
	c.Assert(r.SubTotal, qt.Equals, 100.0)
	c.Assert(r.GSTAmount, qt.Equals, 18.0)
	c.Assert(r.GrandTotal, qt.Equals, 118.0)
	c.Assert(r.FinalTotal, qt.Equals, 118.0)
	c.Assert(quotation.FormatSigned(r.RoundOff), qt.Equals, "+0.00")
	c.Assert(r.Summary, qt.Equals, "")
	c.Assert(r.HasSummary(), qt.IsFalse)

	c.Assert(r.Lines, qt.HasLen, 1)
	line := r.Lines[0]
	c.Assert(line.Index, qt.Equals, 1)
	c.Assert(line.Unit, qt.Equals, "")
	c.Assert(line.QuantityText, qt.Equals, "2.000")
	c.Assert(line.UnitPriceText, qt.Equals, "50.00")
	c.Assert(line.AmountText, qt.Equals, "100.00")
}

func TestCalculateCharges(t *testing.T) {
	c := qt.New(t)

	items := []quotation.LineItem{
		{ProductName: "Sheet", Quantity: 1.5, UnitPrice: 40},
		{ProductName: "Pipe", Quantity: 4, UnitPrice: 10},
	}
	r := quotation.Calculate(items, 15, 25, nil)

	c.Assert(r.TotalAmount, qt.Equals, 100.0)
	c.Assert(r.LoadingCharge, qt.Equals, 15.0)
	c.Assert(r.TransportationCharge, qt.Equals, 25.0)
	c.Assert(r.SubTotal, qt.Equals, 140.0)
	c.Assert(r.FinalTotal, qt.Equals, math.RoundToEven(140*1.18))
}

func TestCalculateRoundOffSign(t *testing.T) {
	tests := []struct {
		name      string
		price     float64
		wantFinal float64
		wantText  string
	}{
		{name: "rounds up", price: 84.40, wantFinal: 100, wantText: "+0.41"},
		{name: "rounds down", price: 85, wantFinal: 100, wantText: "-0.30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			r := quotation.Calculate([]quotation.LineItem{{ProductName: "X", Quantity: 1, UnitPrice: tt.price}}, 0, 0, nil)
			c.Assert(r.FinalTotal, qt.Equals, tt.wantFinal)
			c.Assert(r.RoundOff, qt.Equals, r.FinalTotal-r.GrandTotal)
			c.Assert(quotation.FormatSigned(r.RoundOff), qt.Equals, tt.wantText)
		})
	}
}

func TestCalculateTotalsProperty(t *testing.T) {
	cases := []struct {
		qty       []float64
		price     []float64
		loading   float64
		transport float64
	}{
		{qty: []float64{1}, price: []float64{0.01}},
		{qty: []float64{3.25, 7, 0.5}, price: []float64{120.5, 33.3, 999}, loading: 250},
		{qty: []float64{12.345, 1}, price: []float64{62.75, 17.1}, loading: 100, transport: 480.5},
		{qty: []float64{}, price: []float64{}, transport: 10},
	}

	for _, tc := range cases {
		c := qt.New(t)
		items, err := quotation.LineItemsFromColumns(make([]string, len(tc.qty)), nil, tc.qty, tc.price)
		c.Assert(err, qt.IsNil)

		var sum float64
		for i := range tc.qty {
			sum += tc.qty[i] * tc.price[i]
		}
		sub := sum + tc.loading + tc.transport

		r := quotation.Calculate(items, tc.loading, tc.transport, nil)
		c.Assert(r.FinalTotal, qt.Equals, math.RoundToEven(sub+sub*quotation.GSTRate))
		c.Assert(r.RoundOff, qt.Equals, r.FinalTotal-r.GrandTotal)
	}
}

func TestCalculateAggregates(t *testing.T) {
	c := qt.New(t)

	catalog := quotation.Catalog{
		{Name: "Bolt", UnitType: "KG"},
		{Name: "Plate", UnitType: "NOS"},
	}
	items := []quotation.LineItem{
		{ProductName: "Bolt", Quantity: 10, UnitPrice: 1},
		{ProductName: "Plate", Quantity: 3, UnitPrice: 1},
	}

	r := quotation.Calculate(items, 0, 0, catalog)

	c.Assert(r.TotalWeight, qt.Equals, 10.0)
	c.Assert(r.TotalNos, qt.Equals, 3.0)
	c.Assert(r.TotalPieces, qt.Equals, 0.0)
	c.Assert(r.Summary, qt.Equals, "Total Weight: 10.000 KG | Total Nos: 3")
	c.Assert(r.Lines[0].QuantityText, qt.Equals, "10.000 KG")
	c.Assert(r.Lines[1].QuantityText, qt.Equals, "3.000 NOS")
}

func TestCalculateUnknownUnitsAreNotAggregated(t *testing.T) {
	c := qt.New(t)

	catalog := quotation.Catalog{{Name: "Rod", UnitType: "mtr"}, {Name: "Nut", UnitType: " pieces "}}
	items := []quotation.LineItem{
		{ProductName: "Rod", Quantity: 5, UnitPrice: 2},
		{ProductName: "Washer", Quantity: 8, UnitPrice: 1},
		{ProductName: "nut", Quantity: 7, UnitPrice: 1},
	}

	r := quotation.Calculate(items, 0, 0, catalog)

	c.Assert(r.TotalWeight, qt.Equals, 0.0)
	c.Assert(r.TotalNos, qt.Equals, 0.0)
	c.Assert(r.TotalPieces, qt.Equals, 7.0)
	c.Assert(r.Summary, qt.Equals, "Total Pieces: 7")
	c.Assert(r.Lines[0].QuantityText, qt.Equals, "5.000 MTR")
	c.Assert(r.Lines[1].QuantityText, qt.Equals, "8.000")
	c.Assert(r.TotalAmount, qt.Equals, 25.0)
}

func TestCatalogUnitFor(t *testing.T) {
	catalog := quotation.CatalogFromProducts([]domain.Product{
		{Name: "bolt", UnitType: "kg"},
		{Name: "BOLT", UnitType: "PCS"},
		{Name: "Channel", UnitType: ""},
	})

	tests := []struct {
		name string
		want string
	}{
		{name: "Bolt", want: "KG"},
		{name: "bOLT", want: "KG"},
		{name: "Channel", want: ""},
		{name: "Beam", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.New(t).Assert(catalog.UnitFor(tt.name), qt.Equals, tt.want)
		})
	}
}

func TestBucketOf(t *testing.T) {
	c := qt.New(t)

	for unit, want := range map[string]quotation.Bucket{
		"KG":     quotation.BucketWeight,
		"NOS":    quotation.BucketNos,
		"NO":     quotation.BucketNos,
		"NOS.":   quotation.BucketNos,
		"PCS":    quotation.BucketPieces,
		"PIECE":  quotation.BucketPieces,
		"PIECES": quotation.BucketPieces,
		"TON":    quotation.BucketNone,
		"":       quotation.BucketNone,
	} {
		c.Assert(quotation.BucketOf(unit), qt.Equals, want, qt.Commentf("unit %q", unit))
	}
}

func TestLineItemsFromColumns(t *testing.T) {
	c := qt.New(t)

	items, err := quotation.LineItemsFromColumns(
		[]string{"Bolt", "Plate"},
		[]string{"M12"},
		[]float64{1, 2},
		[]float64{3, 4},
	)
	c.Assert(err, qt.IsNil)
	c.Assert(items, qt.DeepEquals, []quotation.LineItem{
		{ProductName: "Bolt", Description: "M12", Quantity: 1, UnitPrice: 3},
		{ProductName: "Plate", Description: "", Quantity: 2, UnitPrice: 4},
	})

	items, err = quotation.LineItemsFromColumns([]string{"Bolt"}, []string{"a", "b"}, []float64{1}, []float64{2})
	c.Assert(err, qt.IsNil)
	c.Assert(items, qt.HasLen, 1)
	c.Assert(items[0].Description, qt.Equals, "a")

	_, err = quotation.LineItemsFromColumns([]string{"Bolt", "Plate"}, nil, []float64{1}, []float64{2, 3})
	c.Assert(err, qt.ErrorIs, quotation.ErrMismatchedColumns)
}
