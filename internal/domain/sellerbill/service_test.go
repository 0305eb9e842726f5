package sellerbill

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/core/apperror"
	"billing/internal/core/id"
)

type memFiles struct {
	data map[string][]byte
}

func (f *memFiles) Save(_ context.Context, dir, name string, r io.Reader) (string, int64, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	p := path.Join(dir, name)
	f.data[p] = b
	return p, int64(len(b)), nil
}

func (f *memFiles) Open(_ context.Context, p string) (io.ReadCloser, error) {
	b, ok := f.data[p]
	if !ok {
		return nil, apperror.NewNotFound("bill file", p)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *memFiles) Remove(_ context.Context, p string) error {
	delete(f.data, p)
	return nil
}

type memRepo struct {
	bills     map[id.ID]*Bill
	createErr error
}

func (r *memRepo) Create(_ context.Context, b *Bill) error {
	if r.createErr != nil {
		return r.createErr
	}
	c := *b
	r.bills[b.ID] = &c
	return nil
}

func (r *memRepo) Get(_ context.Context, billID id.ID) (*Bill, error) {
	b, ok := r.bills[billID]
	if !ok {
		return nil, apperror.NewNotFound("bill", billID)
	}
	c := *b
	return &c, nil
}

func (r *memRepo) ListBySeller(_ context.Context, sellerID id.ID, t Type) ([]Bill, error) {
	var out []Bill
	for _, b := range r.bills {
		if b.SellerID == sellerID && (t == "" || b.BillType == t) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillDate.After(out[j].BillDate) })
	return out, nil
}

func (r *memRepo) TrackDownload(_ context.Context, billID id.ID, at time.Time) error {
	b, ok := r.bills[billID]
	if !ok {
		return apperror.NewNotFound("bill", billID)
	}
	b.DownloadCount++
	b.LastDownloadedAt = &at
	return nil
}

func (r *memRepo) Suppliers(context.Context) ([]SupplierSummary, error) {
	return nil, nil
}

func newTestService(maxBytes int64) (*Service, *memRepo, *memFiles) {
	repo := &memRepo{bills: map[id.ID]*Bill{}}
	files := &memFiles{data: map[string][]byte{}}
	return NewService(repo, files, maxBytes), repo, files
}

func validInput(seller id.ID, billType, date, content string) UploadInput {
	return UploadInput{
		SellerID:     seller.String(),
		SupplierName: "Sharma Traders",
		BatchNumber:  "B1",
		BillType:     billType,
		BillNumber:   "INV-1",
		BillDate:     date,
		Amount:       "1250.50",
		FileName:     "march bill.pdf",
		Size:         int64(len(content)),
		Content:      strings.NewReader(content),
	}
}

func TestService_UploadAndDownload(t *testing.T) {
	ctx := context.Background()
	svc, _, files := newTestService(1024)
	seller := id.New()

	b, err := svc.Upload(ctx, validInput(seller, "gst", "2024-03-10", "%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, TypeGST, b.BillType)
	assert.Equal(t, "march bill.pdf", b.FileName)
	assert.True(t, strings.HasPrefix(b.FilePath, "gst_bills/bill-"))
	assert.True(t, strings.HasSuffix(b.FilePath, "march_bill.pdf"))
	assert.Len(t, files.data, 1)

	got, rc, err := svc.Open(ctx, b.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(body))
	assert.Equal(t, b.ID, got.ID)

	require.NoError(t, svc.TrackDownload(ctx, b.ID))
	require.NoError(t, svc.TrackDownload(ctx, b.ID))
	list, err := svc.ListBySeller(ctx, seller.String())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].DownloadCount)
	assert.NotNil(t, list[0].LastDownloadedAt)

	assert.True(t, apperror.IsNotFound(svc.TrackDownload(ctx, id.New())))
}

func TestService_UploadValidation(t *testing.T) {
	ctx := context.Background()
	seller := id.New()

	tests := []struct {
		name   string
		mutate func(*UploadInput)
		field  string
	}{
		{"non pdf", func(in *UploadInput) { in.FileName = "bill.png" }, "bill"},
		{"no file", func(in *UploadInput) { in.Content = nil }, "bill"},
		{"bad seller", func(in *UploadInput) { in.SellerID = "abc" }, "sellerId"},
		{"bad type", func(in *UploadInput) { in.BillType = "vat" }, "billType"},
		{"bad date", func(in *UploadInput) { in.BillDate = "yesterday" }, "billDate"},
		{"zero amount", func(in *UploadInput) { in.Amount = "0" }, "amount"},
		{"declared too large", func(in *UploadInput) { in.Size = 2048 }, "bill"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, files := newTestService(1024)
			in := validInput(seller, "gst", "2024-03-10", "%PDF")
			tt.mutate(&in)

			_, err := svc.Upload(ctx, in)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
			assert.Empty(t, files.data)
		})
	}
}

func TestService_UploadReportsMissingFields(t *testing.T) {
	svc, _, _ := newTestService(1024)
	_, err := svc.Upload(context.Background(), UploadInput{SellerID: id.New().String(), BillType: "gst"})

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"supplierName", "batchNumber", "billNumber", "billDate", "amount"}, appErr.Details["missingFields"])
}

func TestService_UploadRemovesFileOnFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("oversized stream", func(t *testing.T) {
		svc, _, files := newTestService(4)
		in := validInput(id.New(), "non-gst", "2024-03-10", "%PDF-too-long")
		in.Size = 0

		_, err := svc.Upload(ctx, in)
		assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		assert.Empty(t, files.data)
	})

	t.Run("record insert fails", func(t *testing.T) {
		svc, repo, files := newTestService(1024)
		repo.createErr = errors.New("db down")

		_, err := svc.Upload(ctx, validInput(id.New(), "non-gst", "2024-03-10", "%PDF"))
		assert.Error(t, err)
		assert.Empty(t, files.data)
	})
}

func TestService_ListByType(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(1024)
	seller := id.New()

	_, err := svc.Upload(ctx, validInput(seller, "gst", "2024-03-10", "%PDF"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, validInput(seller, "gst", "2024-04-10T00:00:00Z", "%PDF"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, validInput(seller, "non-gst", "2024-03-11", "%PDF"))
	require.NoError(t, err)

	gst, err := svc.ListByType(ctx, seller.String(), TypeGST)
	require.NoError(t, err)
	require.Len(t, gst, 2)
	assert.Equal(t, time.April, gst[0].BillDate.Month())

	nonGST, err := svc.ListByType(ctx, seller.String(), TypeNonGST)
	require.NoError(t, err)
	assert.Len(t, nonGST, 1)

	other, err := svc.ListBySeller(ctx, id.New().String())
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)
}
