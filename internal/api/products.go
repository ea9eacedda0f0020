package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"quotation_system/internal/domain"     // Domain models
	"quotation_system/internal/middleware" // Session context helpers
	"quotation_system/internal/store"      // Store errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
)

// ProductForm is the add/update product form
type ProductForm struct {
	Name        string   `form:"name" binding:"required"`      // Product name
	Description string   `form:"description"`                  // Optional description
	Price       *float64 `form:"price" binding:"required"`     // Unit price, zero allowed
	UnitType    string   `form:"unit_type" binding:"required"` // KG, NOS, PCS or free text
}

func (f ProductForm) product() domain.Product {
	return domain.Product{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Price:       *f.Price,
		UnitType:    strings.TrimSpace(f.UnitType),
	}
}

// UpdateProductForm identifies the product to change by its current name
type UpdateProductForm struct {
	OldName string `form:"old_name" binding:"required"` // Name before the edit
	ProductForm
}

// DeleteProductForm identifies the product to delete
type DeleteProductForm struct {
	Name string `form:"name" binding:"required"` // Name of the product
}

// ProductsPageHandler lists the user's catalog
func ProductsPageHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c) // Set by the session middleware
		products, err := catalog.List(c.Request.Context(), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to list products")
			renderError(c, http.StatusInternalServerError, "Could not load your products.")
			return
		}
		c.HTML(http.StatusOK, "products.html", gin.H{"Username": middleware.Username(c), "Products": products})
	}
}

// AddProductHandler adds a product to the user's catalog
func AddProductHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		var form ProductForm
		if err := c.ShouldBind(&form); err != nil {
			renderError(c, http.StatusBadRequest, "Name, price and unit type are required.")
			return
		}
		if !finite(*form.Price) {
			renderError(c, http.StatusBadRequest, "Price must be a number.")
			return
		}
		p, err := catalog.Add(c.Request.Context(), userID, form.product())
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err}).Error("Failed to add product")
			renderError(c, http.StatusInternalServerError, "Could not save the product.")
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "product_id": p.ID}).Info("Product added")
		c.Redirect(http.StatusSeeOther, "/products")
	}
}

// UpdateProductHandler edits one of the user's products
func UpdateProductHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		var form UpdateProductForm
		if err := c.ShouldBind(&form); err != nil {
			renderError(c, http.StatusBadRequest, "Name, price and unit type are required.")
			return
		}
		if !finite(*form.Price) {
			renderError(c, http.StatusBadRequest, "Price must be a number.")
			return
		}
		err := catalog.Update(c.Request.Context(), userID, form.OldName, form.product())
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Nothing of that name, nothing to change
		case err != nil:
			logrus.WithFields(logrus.Fields{"user_id": userID, "product": form.OldName, "error": err}).Error("Failed to update product")
			renderError(c, http.StatusInternalServerError, "Could not update the product.")
			return
		default:
			logrus.WithFields(logrus.Fields{"user_id": userID, "product": form.OldName}).Info("Product updated")
		}
		c.Redirect(http.StatusSeeOther, "/products")
	}
}

// DeleteProductHandler removes one of the user's products
func DeleteProductHandler(catalog Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		var form DeleteProductForm
		if err := c.ShouldBind(&form); err != nil {
			renderError(c, http.StatusBadRequest, "Product name is required.")
			return
		}
		err := catalog.Delete(c.Request.Context(), userID, form.Name)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			logrus.WithFields(logrus.Fields{"user_id": userID, "product": form.Name, "error": err}).Error("Failed to delete product")
			renderError(c, http.StatusInternalServerError, "Could not delete the product.")
			return
		default:
			logrus.WithFields(logrus.Fields{"user_id": userID, "product": form.Name}).Info("Product deleted")
		}
		c.Redirect(http.StatusSeeOther, "/products")
	}
}
