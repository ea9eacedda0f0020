// Package history persists generated quotations so they can be listed,
// re-opened for editing, downloaded and deleted.
package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when an index or file is not present in the
// caller's view of the history.
var ErrNotFound = errors.New("history: record not found")

// DownloadLayout is the layout of Record.LastDownloaded.
const DownloadLayout = "02-01-2006 15:04"

// Snapshot holds every form input of a quotation so it can be re-edited.
type Snapshot struct {
	CompanyName          string    `json:"company_name"`
	CompanyAddress       string    `json:"company_address"`
	CompanyEmail         string    `json:"company_email"`
	CompanyPhone         string    `json:"company_phone"`
	CompanyGST           string    `json:"company_gst"`
	CustomerName         string    `json:"customer_name"`
	CustomerAddress      string    `json:"customer_address"`
	CustomerCity         string    `json:"customer_city"`
	ShippingName         string    `json:"shipping_name"`
	ShippingAddress      string    `json:"shipping_address"`
	ShippingCity         string    `json:"shipping_city"`
	AccountName          string    `json:"account_name"`
	AccountNumber        string    `json:"account_number"`
	IFSCCode             string    `json:"ifsc_code"`
	BankName             string    `json:"bank_name"`
	ValidTill            string    `json:"valid_till"`
	Note                 string    `json:"note"`
	QuotationNumber      string    `json:"quotation_number"`
	LoadingCharge        float64   `json:"loading_charge"`
	TransportationCharge float64   `json:"transportation_charge"`
	ProductName          []string  `json:"product_name"`
	Description          []string  `json:"description"`
	Quantity             []float64 `json:"quantity"`
	UnitPrice            []float64 `json:"unit_price"`
}

// Record is one generated quotation.
type Record struct {
	ID             string    `json:"id"`
	QuotationNo    string    `json:"quotation_no"`
	CustomerName   string    `json:"customer_name"`
	Date           string    `json:"date"`
	File           string    `json:"file"`
	Total          float64   `json:"total"`
	UserID         uint      `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastDownloaded string    `json:"last_downloaded,omitempty"`
	Data           Snapshot  `json:"data"`
}

// Store is the history log. Indexes are positions in the owner's own
// most-recent-first listing.
type Store interface {
	Append(ctx context.Context, rec Record) (Record, error)
	ListForUser(ctx context.Context, userID uint) ([]Record, error)
	At(ctx context.Context, userID uint, index int) (Record, error)
	DeleteAt(ctx context.Context, userID uint, index int) (Record, error)
	MarkDownloaded(ctx context.Context, file string, at time.Time) error
	FindByFile(ctx context.Context, userID uint, file string) (Record, error)
	Files(ctx context.Context) (map[string]struct{}, error)
}

// removeDocument deletes a record's generated file. A file that is already
// gone is not an error.
func removeDocument(dir, file string) {
	if file == "" || filepath.Base(file) != file {
		return
	}
	err := os.Remove(filepath.Join(dir, file))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithFields(logrus.Fields{"file": file, "error": err}).Warn("Failed to remove quotation document")
	}
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*GormStore)(nil)
)
