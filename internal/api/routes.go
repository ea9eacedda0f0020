package api

import (
	"time" // Clock

	"quotation_system/internal/history"    // History log
	"quotation_system/internal/middleware" // Session middleware

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the collaborators the handlers need
type Deps struct {
	Users     Users
	Catalog   Catalog
	Sessions  Sessions
	History   history.Store
	Documents DocumentWriter
	Cookie    CookieConfig
	Quotation QuotationOptions
}

func (d Deps) now() time.Time {
	return d.Quotation.now()
}

// RegisterRoutes mounts every page on r
func RegisterRoutes(r gin.IRouter, d Deps) {
	// Public routes
	r.GET("/register", RegisterPageHandler())                     // Registration form
	r.POST("/register", RegisterHandler(d.Users))                 // Create account
	r.GET("/login", LoginPageHandler())                           // Login form
	r.POST("/login", LoginHandler(d.Users, d.Sessions, d.Cookie)) // Start session

	// Everything else requires a live session for an existing user
	auth := r.Group("/")
	auth.Use(middleware.SessionAuthMiddleware(d.Cookie.Secret, d.Sessions), middleware.RequireUserMiddleware(d.Users))

	auth.GET("/", HomeHandler())                                                      // Landing page
	auth.GET("/logout", LogoutHandler(d.Sessions, d.Cookie))                          // End session
	auth.POST("/delete_account", DeleteAccountHandler(d.Users, d.Sessions, d.Cookie)) // Remove account

	auth.GET("/products", ProductsPageHandler(d.Catalog))         // Catalog page
	auth.POST("/add_product", AddProductHandler(d.Catalog))       // Add product
	auth.POST("/update_product", UpdateProductHandler(d.Catalog)) // Edit product
	auth.POST("/delete_product", DeleteProductHandler(d.Catalog)) // Remove product

	auth.GET("/quotation", QuotationFormHandler(d.Catalog))                                        // Blank form
	auth.GET("/edit_quotation/:index", EditQuotationHandler(d.Catalog, d.History, d.Quotation))    // Prefilled form
	auth.GET("/edit_pdf/:index", EditPDFHandler(d.History, d.Quotation))                           // Preview stored document
	auth.POST("/generate_pdf", GeneratePDFHandler(d.Catalog, d.Documents, d.History, d.Quotation)) // Render and record

	auth.GET("/history", HistoryPageHandler(d.History))                                   // History page
	auth.POST("/delete_history/:index", DeleteHistoryHandler(d.History))                  // Delete record and document
	auth.GET("/history/export", ExportHistoryHandler(d.History, d.now))                   // Spreadsheet export
	auth.GET("/download/:name", DownloadHandler(d.History, d.Quotation.OutputDir, d.now)) // Stream document
}
