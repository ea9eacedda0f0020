package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"

	"quotation_system/internal/quotation"
)

// ErrAssetMissing is returned under the MissingAssetError policy when a logo
// or brand image cannot be found.
var ErrAssetMissing = errors.New("render: asset missing")

// MissingAssetPolicy decides what happens when an image file is absent.
type MissingAssetPolicy string

const (
	MissingAssetSkip  MissingAssetPolicy = "skip"
	MissingAssetError MissingAssetPolicy = "error"
)

// Options configures branding assets.
type Options struct {
	AssetDir       string
	Logo           string
	BrandLogos     []string
	Tagline        string
	OnMissingAsset MissingAssetPolicy
}

// DefaultOptions returns the stock branding, read from assetDir.
func DefaultOptions(assetDir string) Options {
	return Options{
		AssetDir:       assetDir,
		Logo:           "logo.png",
		BrandLogos:     []string{"tata.png", "tata_pipes.png", "amns.png", "jindal.png", "vizag.png", "jsw.png"},
		Tagline:        "One Stop Solution for Variety of Branded Steel",
		OnMissingAsset: MissingAssetSkip,
	}
}

// Renderer draws quotation documents.
type Renderer struct {
	opts Options
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.OnMissingAsset == "" {
		opts.OnMissingAsset = MissingAssetSkip
	}
	return &Renderer{opts: opts}
}

// Page geometry and palette, in points.
const (
	footerHeight = 60.0
	rowHeight    = 20.0
	// tableFloor keeps room under the product rows for the summary band,
	// totals panel, bank block, note and footer.
	tableFloor = 290.0
)

var (
	brandBlue = [3]int{11, 83, 148}
	titleRed  = [3]int{209, 26, 42}
	panelGrey = [3]int{244, 244, 244}
	rowLight  = [3]int{245, 245, 245}
	rowDark   = [3]int{211, 211, 211}
)

// Render writes doc as a PDF to w.
func (r *Renderer) Render(w io.Writer, doc Document) error {
	assets, err := r.resolveAssets()
	if err != nil {
		return err
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	width, height := pdf.GetPageSize()
	p := &page{pdf: pdf, w: width, h: height, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	r.drawHeader(p, doc, assets)
	r.drawParties(p, doc)
	y := r.drawTable(p, doc.Result, doc.QuotationNo)
	r.drawTotals(p, doc, y)
	r.drawFooter(p, assets)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render: layout: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render: output: %w", err)
	}
	return nil
}

// WriteFile renders doc into dir under a fresh FileName and returns the base name.
func (r *Renderer) WriteFile(dir string, doc Document, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("render: create output dir: %w", err)
	}
	name := FileName(doc.BillTo.Name, now)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("render: create %s: %w", name, err)
	}
	if err := r.Render(f, doc); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("render: close %s: %w", name, err)
	}
	return name, nil
}

// FileName derives a document name from the customer and the time. The random
// suffix keeps two submissions within the same second apart.
func FileName(customer string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case r == '-' || r == '_' || r == '.':
			return r
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(customer))
	safe = strings.Trim(safe, ".")
	if safe == "" {
		safe = "customer"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("quotation_%s_%s_%s.pdf", safe, now.Format("02-01-2006_150405"), suffix)
}

type assetSet struct {
	logo   string   // "" when absent
	brands []string // "" for each absent brand logo, keeping slots
}

func (r *Renderer) resolveAssets() (assetSet, error) {
	var set assetSet
	var missing []string
	locate := func(name string) string {
		if name == "" {
			return ""
		}
		path := filepath.Join(r.opts.AssetDir, name)
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, name)
			return ""
		}
		return path
	}

	set.logo = locate(r.opts.Logo)
	for _, b := range r.opts.BrandLogos {
		set.brands = append(set.brands, locate(b))
	}

	if len(missing) > 0 {
		if r.opts.OnMissingAsset == MissingAssetError {
			return set, fmt.Errorf("%w: %s", ErrAssetMissing, strings.Join(missing, ", "))
		}
		logrus.WithField("assets", missing).Debug("Skipping missing branding assets")
	}
	return set, nil
}

func (r *Renderer) drawHeader(p *page, doc Document, assets assetSet) {
	p.fill(brandBlue)
	p.rect(0, p.h-80, p.w, 70)
	if assets.logo != "" {
		p.image(assets.logo, 56, p.h-76, 45, 50)
	}

	p.pdf.SetTextColor(255, 255, 255)
	p.pdf.SetFont("Helvetica", "B", 18)
	p.text(110, p.h-40, doc.Company.Name)
	p.pdf.SetFont("Helvetica", "", 9)
	p.text(110, p.h-52, doc.Company.Address)
	p.text(110, p.h-64, fmt.Sprintf("Email: %s | Ph: %s", doc.Company.Email, doc.Company.Phone))
	p.text(110, p.h-76, "GSTIN: "+doc.Company.GSTIN)

	p.pdf.SetTextColor(titleRed[0], titleRed[1], titleRed[2])
	p.pdf.SetFont("Helvetica", "B", 14)
	p.textCentered(p.w/2, p.h-95, "QUOTATION")
}

func (r *Renderer) drawParties(p *page, doc Document) {
	p.fill(panelGrey)
	p.rect(30, p.h-220, 250, 90)
	p.rect(290, p.h-220, 250, 90)

	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont("Helvetica", "B", 10)
	p.text(40, p.h-140, "Bill To:")
	p.text(300, p.h-140, "Ship To:")

	p.pdf.SetFont("Helvetica", "", 9)
	for i, s := range []string{doc.BillTo.Name, doc.BillTo.Address, doc.BillTo.City} {
		p.text(40, p.h-155-float64(i)*12, s)
	}
	for i, s := range []string{doc.ShipTo.Name, doc.ShipTo.Address, doc.ShipTo.City} {
		p.text(300, p.h-155-float64(i)*12, s)
	}

	p.pdf.SetFont("Helvetica", "B", 10)
	p.text(40, p.h-200, "Quotation Details:")
	p.pdf.SetFont("Helvetica", "", 9)
	p.text(40, p.h-212, "Quotation No: "+doc.QuotationNo)
	p.text(200, p.h-212, "Date: "+doc.Date)
	p.text(380, p.h-212, "Valid Till: "+FormatValidTill(doc.ValidTill))
}

// drawTable draws the product rows and the summary band, returning the y
// coordinate (from the page bottom) where the totals start.
func (r *Renderer) drawTable(p *page, res quotation.Result, quotationNo string) float64 {
	y := p.h - 250
	p.fill(brandBlue)
	p.rect(30, y, p.w-60, 18)
	p.pdf.SetTextColor(255, 255, 255)
	p.pdf.SetFont("Helvetica", "B", 10)
	p.text(40, y+4, "No")
	p.text(70, y+4, "Product")
	p.text(130, y+4, "Description")
	p.text(370, y+4, "Qty")
	p.text(420, y+4, "Rate (Rs.)")
	p.text(500, y+4, "Amount (Rs.)")

	y -= 18
	p.pdf.SetFont("Helvetica", "", 9)

	lines := res.Lines
	capacity := int((y - tableFloor) / rowHeight)
	var hidden int
	if len(lines) > capacity {
		keep := max(capacity-1, 0)
		hidden = len(lines) - keep
		lines = lines[:keep]
		logrus.WithFields(logrus.Fields{
			"quotation_no": quotationNo,
			"hidden_rows":  hidden,
		}).Warn("Quotation has more rows than fit on one page")
	}

	for _, line := range lines {
		if line.Index%2 == 0 {
			p.fill(rowLight)
		} else {
			p.fill(rowDark)
		}
		p.rect(30, y-rowHeight, p.w-60, rowHeight)
		p.pdf.SetTextColor(0, 0, 0)
		p.text(40, y-11, fmt.Sprint(line.Index))
		p.text(70, y-11, truncate(line.Item.ProductName, 18))
		p.text(130, y-11, truncate(line.Item.Description, 30))
		p.textRight(400, y-11, line.QuantityText)
		p.textRight(460, y-11, line.UnitPriceText)
		p.textRight(540, y-11, line.AmountText)
		y -= rowHeight
	}
	if hidden > 0 {
		p.fill(rowLight)
		p.rect(30, y-rowHeight, p.w-60, rowHeight)
		p.pdf.SetTextColor(0, 0, 0)
		p.pdf.SetFont("Helvetica", "I", 9)
		p.text(70, y-11, fmt.Sprintf("+ %d more item(s) included in the totals", hidden))
		p.pdf.SetFont("Helvetica", "", 9)
		y -= rowHeight
	}

	if res.HasSummary() {
		boxY := y - 8
		p.fill(brandBlue)
		p.rect(30, boxY-8, p.w-60, 20)
		p.pdf.SetFont("Helvetica", "B", 9)
		p.pdf.SetTextColor(255, 255, 255)
		p.textRight(p.w-40, boxY, res.Summary)
		y -= 25
	}
	return y - 25
}

func (r *Renderer) drawTotals(p *page, doc Document, y float64) {
	res := doc.Result
	p.fill(panelGrey)
	p.rect(280, y-85, 260, 85)

	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont("Helvetica", "B", 9)
	rows := []struct{ label, value string }{
		{"Sub Total:", quotation.FormatAmount(res.TotalAmount)},
		{"Loading Charges:", quotation.FormatAmount(res.LoadingCharge)},
		{"Transportation Charges:", quotation.FormatAmount(res.TransportationCharge)},
		{"GST (18%):", quotation.FormatAmount(res.GSTAmount)},
		{"Round Off:", quotation.FormatSigned(res.RoundOff)},
	}
	for i, row := range rows {
		ry := y - 10 - float64(i)*15
		p.textRight(420, ry, row.label)
		p.textRight(520, ry, row.value)
	}
	p.pdf.SetFont("Helvetica", "B", 10)
	p.textRight(420, y-85, "Grand Total:")
	p.textRight(520, y-85, "Rs. "+quotation.FormatAmount(res.FinalTotal))

	p.pdf.SetFont("Helvetica", "B", 9)
	p.text(40, y-100, "Account Name : "+doc.Bank.AccountName)
	p.pdf.SetFont("Helvetica", "", 9)
	p.text(40, y-113, "Account No : "+doc.Bank.AccountNumber)
	p.text(40, y-126, "IFSC : "+doc.Bank.IFSC)
	p.text(40, y-139, "Bank : "+doc.Bank.BankName)

	if note := strings.TrimSpace(doc.Note); note != "" {
		p.pdf.SetFont("Helvetica", "I", 9)
		p.pdf.SetTextColor(brandBlue[0], brandBlue[1], brandBlue[2])
		p.text(40, y-160, "Note: "+note)
	}
}

func (r *Renderer) drawFooter(p *page, assets assetSet) {
	p.fill(brandBlue)
	p.rect(0, 0, p.w, footerHeight)

	const logoW, logoH, gap = 40.0, 25.0, 10.0
	x := (p.w - float64(len(assets.brands))*(logoW+gap)) / 2
	for _, path := range assets.brands {
		if path != "" {
			p.imageFit(path, x, 12, logoW, logoH)
		}
		x += logoW + gap
	}

	p.pdf.SetTextColor(255, 255, 255)
	p.pdf.SetFont("Helvetica", "B", 8)
	p.textCentered(p.w/2, 5, r.opts.Tagline)
}

// page adapts bottom-left coordinates to gofpdf's top-left origin.
type page struct {
	pdf  *gofpdf.Fpdf
	w, h float64
	tr   func(string) string
}

func (p *page) fill(c [3]int) {
	p.pdf.SetFillColor(c[0], c[1], c[2])
}

func (p *page) rect(x, y, w, h float64) {
	p.pdf.Rect(x, p.h-(y+h), w, h, "F")
}

func (p *page) text(x, y float64, s string) {
	p.pdf.Text(x, p.h-y, p.tr(s))
}

func (p *page) textRight(x, y float64, s string) {
	s = p.tr(s)
	p.pdf.Text(x-p.pdf.GetStringWidth(s), p.h-y, s)
}

func (p *page) textCentered(x, y float64, s string) {
	s = p.tr(s)
	p.pdf.Text(x-p.pdf.GetStringWidth(s)/2, p.h-y, s)
}

func (p *page) image(path string, x, y, w, h float64) {
	p.pdf.ImageOptions(path, x, p.h-(y+h), w, h, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
}

// imageFit scales the image into the box keeping its aspect ratio, centered.
func (p *page) imageFit(path string, x, y, w, h float64) {
	info := p.pdf.RegisterImageOptions(path, gofpdf.ImageOptions{ReadDpi: true})
	if info == nil || info.Width() == 0 || info.Height() == 0 {
		return
	}
	scale := min(w/info.Width(), h/info.Height())
	iw, ih := info.Width()*scale, info.Height()*scale
	p.image(path, x+(w-iw)/2, y+(h-ih)/2, iw, ih)
}
