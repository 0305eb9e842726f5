package sellerbill

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
	"billing/internal/core/types"
	"billing/pkg/logger"
)

const pdfExt = ".pdf"

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

var billDateLayouts = []string{time.RFC3339, "2006-01-02"}

// Service handles bill uploads and downloads.
type Service struct {
	repo     Repository
	files    FileStore
	maxBytes int64
	now      func() time.Time
}

// NewService creates a bill service accepting files up to maxBytes.
func NewService(repo Repository, files FileStore, maxBytes int64) *Service {
	return &Service{repo: repo, files: files, maxBytes: maxBytes, now: time.Now}
}

// Upload validates the form, stores the file and records the bill.
// The stored file is removed when the record cannot be written.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Bill, error) {
	b, err := s.parse(in)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("bill-%s-%s", b.ID, unsafeFileChars.ReplaceAllString(in.FileName, "_"))
	path, written, err := s.files.Save(ctx, b.BillType.Dir(), name, io.LimitReader(in.Content, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("store bill file: %w", err)
	}
	if written > s.maxBytes {
		s.discard(ctx, path)
		return nil, tooLarge(s.maxBytes)
	}
	b.FilePath = path

	if err := s.repo.Create(ctx, b); err != nil {
		s.discard(ctx, path)
		return nil, err
	}

	logger.Info(ctx, "seller bill uploaded",
		"bill_id", b.ID,
		"bill_type", string(b.BillType),
		"supplier", b.SupplierName,
		"batch", b.BatchNumber,
		"bytes", written,
	)
	return b, nil
}

// ListBySeller returns all bills of a seller.
func (s *Service) ListBySeller(ctx context.Context, sellerID string) ([]Bill, error) {
	return s.list(ctx, sellerID, "")
}

// ListByType returns the seller's bills of one type.
func (s *Service) ListByType(ctx context.Context, sellerID string, t Type) ([]Bill, error) {
	if !t.Valid() {
		return nil, apperror.NewFieldValidation("billType", "bill type must be gst or non-gst")
	}
	return s.list(ctx, sellerID, t)
}

// Open returns the bill and a reader over its file. The caller closes the reader.
func (s *Service) Open(ctx context.Context, billID id.ID) (*Bill, io.ReadCloser, error) {
	b, err := s.repo.Get(ctx, billID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.files.Open(ctx, b.FilePath)
	if err != nil {
		return nil, nil, err
	}
	return b, rc, nil
}

// TrackDownload counts a download of the bill.
func (s *Service) TrackDownload(ctx context.Context, billID id.ID) error {
	return s.repo.TrackDownload(ctx, billID, s.now())
}

// Suppliers returns bill counts per (seller, supplier, batch).
func (s *Service) Suppliers(ctx context.Context) ([]SupplierSummary, error) {
	return s.repo.Suppliers(ctx)
}

func (s *Service) list(ctx context.Context, sellerID string, t Type) ([]Bill, error) {
	sid, err := id.Parse(strings.TrimSpace(sellerID))
	if err != nil {
		return nil, apperror.NewFieldValidation("sellerId", "invalid seller ID format")
	}
	bills, err := s.repo.ListBySeller(ctx, sid, t)
	if err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []Bill{}
	}
	return bills, nil
}

func (s *Service) parse(in UploadInput) (*Bill, error) {
	fields := map[string]string{
		"sellerId":     in.SellerID,
		"supplierName": in.SupplierName,
		"batchNumber":  in.BatchNumber,
		"billType":     in.BillType,
		"billNumber":   in.BillNumber,
		"billDate":     in.BillDate,
		"amount":       in.Amount,
	}
	var missing []string
	for _, name := range []string{"sellerId", "supplierName", "batchNumber", "billType", "billNumber", "billDate", "amount"} {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.NewValidation("Missing required fields").WithDetail("missingFields", missing)
	}

	if in.Content == nil {
		return nil, apperror.NewFieldValidation("bill", "no file uploaded")
	}
	if strings.ToLower(filepath.Ext(in.FileName)) != pdfExt {
		return nil, apperror.NewFieldValidation("bill", "only PDF files are allowed")
	}
	if in.Size > s.maxBytes {
		return nil, tooLarge(s.maxBytes)
	}

	sellerID, err := id.Parse(strings.TrimSpace(in.SellerID))
	if err != nil {
		return nil, apperror.NewFieldValidation("sellerId", "invalid seller ID format")
	}
	billType := Type(strings.TrimSpace(in.BillType))
	if !billType.Valid() {
		return nil, apperror.NewFieldValidation("billType", "bill type must be gst or non-gst")
	}
	billDate, err := parseBillDate(in.BillDate)
	if err != nil {
		return nil, apperror.NewFieldValidation("billDate", "bill date is not a valid date")
	}
	amount, err := types.ParseMoney(in.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, apperror.NewFieldValidation("amount", "amount must be greater than 0")
	}

	return &Bill{
		ID:           id.New(),
		SellerID:     sellerID,
		SupplierName: strings.TrimSpace(in.SupplierName),
		BatchNumber:  strings.TrimSpace(in.BatchNumber),
		BillType:     billType,
		BillNumber:   strings.TrimSpace(in.BillNumber),
		BillDate:     billDate,
		Amount:       amount,
		FileName:     filepath.Base(in.FileName),
		CreatedAt:    s.now(),
	}, nil
}

func (s *Service) discard(ctx context.Context, path string) {
	if err := s.files.Remove(ctx, path); err != nil {
		logger.Warn(ctx, "failed to remove orphaned bill file", "path", path, "error", err)
	}
}

func parseBillDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var lastErr error
	for _, layout := range billDateLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func tooLarge(limit int64) *apperror.AppError {
	return apperror.NewFieldValidation("bill", "file too large").WithDetail("maxBytes", limit)
}
