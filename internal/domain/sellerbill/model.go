// Package sellerbill stores supplier bill documents against a (supplier, batch) pair.
package sellerbill

import (
	"context"
	"io"
	"time"

	"billing/internal/core/id"
	"billing/internal/core/types"
)

// Type separates bills carrying GST from the rest.
type Type string

const (
	TypeGST    Type = "gst"
	TypeNonGST Type = "non-gst"
)

// Valid reports whether t is a known bill type.
func (t Type) Valid() bool {
	return t == TypeGST || t == TypeNonGST
}

// Dir is the storage directory holding files of this type.
func (t Type) Dir() string {
	if t == TypeGST {
		return "gst_bills"
	}
	return "non_gst_bills"
}

// Bill is an uploaded supplier bill.
type Bill struct {
	ID               id.ID       `db:"id" json:"id"`
	SellerID         id.ID       `db:"seller_id" json:"sellerId"`
	SupplierName     string      `db:"supplier_name" json:"supplierName"`
	BatchNumber      string      `db:"batch_number" json:"batchNumber"`
	BillType         Type        `db:"bill_type" json:"billType"`
	BillNumber       string      `db:"bill_number" json:"billNumber"`
	BillDate         time.Time   `db:"bill_date" json:"billDate"`
	Amount           types.Money `db:"amount" json:"amount"`
	FileName         string      `db:"file_name" json:"fileName"`
	FilePath         string      `db:"file_path" json:"-"`
	DownloadCount    int         `db:"download_count" json:"downloadCount"`
	LastDownloadedAt *time.Time  `db:"last_downloaded_at" json:"lastDownloadedAt,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"uploadedAt"`
}

// SupplierSummary counts bills per (seller, supplier, batch).
type SupplierSummary struct {
	SellerID     id.ID  `db:"seller_id" json:"sellerId"`
	SupplierName string `db:"supplier_name" json:"supplierName"`
	BatchNumber  string `db:"batch_number" json:"batchNumber"`
	BillCount    int    `db:"bill_count" json:"billCount"`
}

// UploadInput carries the raw form values of an upload.
type UploadInput struct {
	SellerID     string
	SupplierName string
	BatchNumber  string
	BillType     string
	BillNumber   string
	BillDate     string
	Amount       string

	FileName string
	Size     int64
	Content  io.Reader
}

// Repository persists bill metadata.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	// Get returns NOT_FOUND when the id is unknown.
	Get(ctx context.Context, billID id.ID) (*Bill, error)
	// ListBySeller returns bills ordered by bill date, newest first.
	// An empty billType lists every type.
	ListBySeller(ctx context.Context, sellerID id.ID, billType Type) ([]Bill, error)
	// TrackDownload increments the download counter. NOT_FOUND when the id is unknown.
	TrackDownload(ctx context.Context, billID id.ID, at time.Time) error
	// Suppliers returns summaries sorted by supplier then batch.
	Suppliers(ctx context.Context) ([]SupplierSummary, error)
}

// FileStore keeps bill file contents.
type FileStore interface {
	// Save writes r under dir and returns the stored path and the number of
	// bytes read from r.
	Save(ctx context.Context, dir, name string, r io.Reader) (path string, written int64, err error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}
