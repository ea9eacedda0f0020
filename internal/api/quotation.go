package api

import (
	"encoding/json" // Fallback catalog file
	"errors"        // Error matching
	"net/http"      // HTTP status codes
	"os"            // File checks
	"path/filepath" // Document paths
	"strconv"       // Number formatting for the form
	"strings"       // String manipulation
	"time"          // Document dates

	"quotation_system/internal/domain"     // Domain models
	"quotation_system/internal/history"    // History log
	"quotation_system/internal/middleware" // Session context helpers
	"quotation_system/internal/quotation"  // Calculator
	"quotation_system/internal/render"     // Document renderer

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// QuotationForm is the submitted quotation. Line items arrive as four
// positionally aligned columns.
type QuotationForm struct {
	CompanyName          string    `form:"company_name" binding:"required"`
	CompanyAddress       string    `form:"company_address" binding:"required"`
	CompanyEmail         string    `form:"company_email" binding:"required"`
	CompanyPhone         string    `form:"company_phone" binding:"required"`
	CompanyGST           string    `form:"company_gst" binding:"required"`
	CustomerName         string    `form:"customer_name" binding:"required"`
	CustomerAddress      string    `form:"customer_address" binding:"required"`
	CustomerCity         string    `form:"customer_city" binding:"required"`
	ShippingName         string    `form:"shipping_name" binding:"required"`
	ShippingAddress      string    `form:"shipping_address" binding:"required"`
	ShippingCity         string    `form:"shipping_city" binding:"required"`
	BankName             string    `form:"bank_name" binding:"required"`
	AccountName          string    `form:"account_name" binding:"required"`
	AccountNumber        string    `form:"account_number" binding:"required"`
	IFSCCode             string    `form:"ifsc_code" binding:"required"`
	ValidTill            string    `form:"valid_till" binding:"required"`
	QuotationNumber      string    `form:"quotation_number"`
	Note                 string    `form:"note"`
	LoadingCharge        float64   `form:"loading_charge"`
	TransportationCharge float64   `form:"transportation_charge"`
	ProductName          []string  `form:"product_name" binding:"required"`
	Description          []string  `form:"description"`
	Quantity             []float64 `form:"quantity" binding:"required"`
	UnitPrice            []float64 `form:"unit_price" binding:"required"`
}

func (f QuotationForm) snapshot(quotationNo string, descriptions []string) history.Snapshot {
	return history.Snapshot{
		CompanyName:          f.CompanyName,
		CompanyAddress:       f.CompanyAddress,
		CompanyEmail:         f.CompanyEmail,
		CompanyPhone:         f.CompanyPhone,
		CompanyGST:           f.CompanyGST,
		CustomerName:         f.CustomerName,
		CustomerAddress:      f.CustomerAddress,
		CustomerCity:         f.CustomerCity,
		ShippingName:         f.ShippingName,
		ShippingAddress:      f.ShippingAddress,
		ShippingCity:         f.ShippingCity,
		AccountName:          f.AccountName,
		AccountNumber:        f.AccountNumber,
		IFSCCode:             f.IFSCCode,
		BankName:             f.BankName,
		ValidTill:            f.ValidTill,
		Note:                 f.Note,
		QuotationNumber:      quotationNo,
		LoadingCharge:        f.LoadingCharge,
		TransportationCharge: f.TransportationCharge,
		ProductName:          f.ProductName,
		Description:          descriptions,
		Quantity:             f.Quantity,
		UnitPrice:            f.UnitPrice,
	}
}

// QuotationOptions configures quotation generation
type QuotationOptions struct {
	OutputDir           string           // Where documents are written and served from
	FallbackNumber      string           // Used when the quotation number is blank
	CatalogFallbackFile string           // JSON catalog for the edit form when the user has none
	Now                 func() time.Time // Clock, time.Now when nil
}

func (o QuotationOptions) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// quotationNumber trims the submitted number, falling back when blank
func (o QuotationOptions) quotationNumber(submitted string) string {
	if qn := strings.TrimSpace(submitted); qn != "" {
		return qn
	}
	return o.FallbackNumber
}

// formRow is one line-item row of the quotation form
type formRow struct {
	ProductName string
	Description string
	Quantity    string
	UnitPrice   string
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rowsFromSnapshot rebuilds the form rows of a stored quotation
func rowsFromSnapshot(s history.Snapshot) []formRow {
	n := min(len(s.ProductName), len(s.Quantity), len(s.UnitPrice))
	rows := make([]formRow, 0, max(n, 1))
	for i := 0; i < n; i++ {
		row := formRow{ProductName: s.ProductName[i], Quantity: number(s.Quantity[i]), UnitPrice: number(s.UnitPrice[i])}
		if i < len(s.Description) {
			row.Description = s.Description[i]
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		rows = append(rows, formRow{})
	}
	return rows
}

// loadFallbackCatalog reads a JSON array of products. Any failure yields an empty catalog.
func loadFallbackCatalog(path string) []domain.Product {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logrus.WithFields(logrus.Fields{"path": path, "error": err}).Warn("Failed to read fallback catalog")
		}
		return nil
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		logrus.WithFields(logrus.Fields{"path": path, "error": err}).Warn("Fallback catalog is not a product list")
		return nil
	}
	return products
}

// QuotationFormHandler renders a blank quotation form with the user's catalog
func QuotationFormHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		products, err := catalog.List(c.Request.Context(), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to load catalog")
			renderError(c, http.StatusInternalServerError, "Could not load your products.")
			return
		}
		c.HTML(http.StatusOK, "quotation_form.html", gin.H{
			"Username": middleware.Username(c),
			"Products": products,
			"Prefill":  history.Snapshot{},
			"Rows":     []formRow{{}},
		})
	}
}

// EditQuotationHandler re-opens a stored quotation in the form
func EditQuotationHandler(catalog Catalog, hist history.Store, opts QuotationOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		index, ok := indexParam(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/history")
			return
		}
		ctx := c.Request.Context()
		rec, err := hist.At(ctx, userID, index)
		if errors.Is(err, history.ErrNotFound) {
			c.Redirect(http.StatusSeeOther, "/history")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "index": index, "error": err}).Error("Failed to load quotation")
			renderError(c, http.StatusInternalServerError, "Could not load the quotation.")
			return
		}

		products, err := catalog.List(ctx, userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Warn("Catalog unavailable, using fallback")
			products = nil
		}
		if len(products) == 0 {
			products = loadFallbackCatalog(opts.CatalogFallbackFile)
		}
		c.HTML(http.StatusOK, "quotation_form.html", gin.H{
			"Username": middleware.Username(c),
			"Products": products,
			"Prefill":  rec.Data,
			"Rows":     rowsFromSnapshot(rec.Data),
			"Editing":  true,
		})
	}
}

// EditPDFHandler previews a stored quotation with a link back to the form
func EditPDFHandler(hist history.Store, opts QuotationOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		index, ok := indexParam(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, "/history")
			return
		}
		rec, err := hist.At(c.Request.Context(), userID, index)
		if errors.Is(err, history.ErrNotFound) {
			c.Redirect(http.StatusSeeOther, "/history")
			return
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "index": index, "error": err}).Error("Failed to load quotation")
			renderError(c, http.StatusInternalServerError, "Could not load the quotation.")
			return
		}
		_, statErr := os.Stat(filepath.Join(opts.OutputDir, rec.File))
		c.HTML(http.StatusOK, "edit_pdf.html", gin.H{
			"Username": middleware.Username(c),
			"Record":   rec,
			"Index":    index,
			"Missing":  rec.File == "" || statErr != nil,
		})
	}
}

// GeneratePDFHandler computes totals, renders the document, records it and shows a preview
func GeneratePDFHandler(catalog Catalog, docs DocumentWriter, hist history.Store, opts QuotationOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		var form QuotationForm
		if err := c.ShouldBind(&form); err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Info("Rejected quotation form")
			renderError(c, http.StatusBadRequest, "Please fill in every required field with valid numbers.")
			return
		}
		if !finite(form.LoadingCharge, form.TransportationCharge) || !finite(form.Quantity...) || !finite(form.UnitPrice...) {
			renderError(c, http.StatusBadRequest, "Please fill in every required field with valid numbers.")
			return
		}
		items, err := quotation.LineItemsFromColumns(form.ProductName, form.Description, form.Quantity, form.UnitPrice)
		if err != nil {
			renderError(c, http.StatusBadRequest, "Every item needs a product name, quantity and unit price.")
			return
		}

		ctx := c.Request.Context()
		products, err := catalog.List(ctx, userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to load catalog")
			renderError(c, http.StatusInternalServerError, "Could not load your products.")
			return
		}
		result := quotation.Calculate(items, form.LoadingCharge, form.TransportationCharge, quotation.CatalogFromProducts(products))

		now := opts.now()
		quotationNo := opts.quotationNumber(form.QuotationNumber)
		doc := render.Document{
			Company: render.Company{
				Name: form.CompanyName, Address: form.CompanyAddress,
				Email: form.CompanyEmail, Phone: form.CompanyPhone, GSTIN: form.CompanyGST,
			},
			BillTo:      render.Party{Name: form.CustomerName, Address: form.CustomerAddress, City: form.CustomerCity},
			ShipTo:      render.Party{Name: form.ShippingName, Address: form.ShippingAddress, City: form.ShippingCity},
			QuotationNo: quotationNo,
			Date:        now.Format(render.DateLayout),
			ValidTill:   form.ValidTill,
			Bank: render.Bank{
				AccountName: form.AccountName, AccountNumber: form.AccountNumber,
				IFSC: form.IFSCCode, BankName: form.BankName,
			},
			Note:   form.Note,
			Result: result,
		}
		name, err := docs.WriteFile(opts.OutputDir, doc, now)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "quotation_no": quotationNo, "error": err}).Error("Failed to render quotation")
			renderError(c, http.StatusInternalServerError, "Could not generate the PDF.")
			return
		}

		descriptions := make([]string, len(items))
		for i, it := range items {
			descriptions[i] = it.Description
		}
		_, err = hist.Append(ctx, history.Record{
			QuotationNo:  quotationNo,
			CustomerName: form.CustomerName,
			Date:         doc.Date,
			File:         name,
			Total:        result.FinalTotal,
			UserID:       userID,
			CreatedAt:    now,
			Data:         form.snapshot(quotationNo, descriptions),
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "file": name, "error": err}).Error("Failed to record quotation")
			renderError(c, http.StatusInternalServerError, "The PDF was generated but could not be saved to history.")
			return
		}

		logrus.WithFields(logrus.Fields{
			"user_id":      userID,
			"quotation_no": quotationNo,
			"file":         name,
			"total":        result.FinalTotal,
		}).Info("Quotation generated")
		c.HTML(http.StatusOK, "pdf_preview.html", gin.H{"Username": middleware.Username(c), "PDFName": name})
	}
}
