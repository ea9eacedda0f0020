// Package api holds the gin handlers behind every page and form.
package api

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"quotation_system/internal/domain"
	"quotation_system/internal/render"
)

// Users is the account repository used by the auth handlers.
type Users interface {
	Create(ctx context.Context, username, email, phone, password string) (domain.User, error)
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
	Delete(ctx context.Context, id uint) error
}

// Catalog is the per-user product repository.
type Catalog interface {
	List(ctx context.Context, userID uint) ([]domain.Product, error)
	Add(ctx context.Context, userID uint, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, userID uint, oldName string, p domain.Product) error
	Delete(ctx context.Context, userID uint, name string) error
}

// Sessions issues, resolves and revokes server-side sessions.
type Sessions interface {
	Create(ctx context.Context, userID uint, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, sid string) (uint, error)
	Revoke(ctx context.Context, sid string) error
}

// DocumentWriter renders a quotation into a directory.
type DocumentWriter interface {
	WriteFile(dir string, doc render.Document, now time.Time) (string, error)
}

func renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{"Message": message})
}

// indexParam parses the :index path parameter. ok is false for anything
// that is not a non-negative integer.
func indexParam(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// finite reports whether every value is a real number. Form binding accepts
// NaN and Inf.
func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
