package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"billing/internal/core/apperror"
	"billing/internal/domain/sellerbill"
	"billing/pkg/logger"
)

const (
	billFormField  = "bill"
	multipartSlack = 1 << 20
	pdfContentType = "application/pdf"
)

// SellerBillHandler serves supplier bill uploads and downloads.
type SellerBillHandler struct {
	*BaseHandler
	service  *sellerbill.Service
	maxBytes int64
}

func NewSellerBillHandler(base *BaseHandler, service *sellerbill.Service, maxBytes int64) *SellerBillHandler {
	return &SellerBillHandler{BaseHandler: base, service: service, maxBytes: maxBytes}
}

// Upload handles POST /seller-bills/upload (multipart, file field "bill").
func (h *SellerBillHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartSlack)

	header, err := c.FormFile(billFormField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.Error(c, apperror.NewFieldValidation(billFormField, "file exceeds the upload limit").
				WithDetail("maxBytes", h.maxBytes))
			return
		}
		h.Error(c, apperror.NewFieldValidation(billFormField, "bill file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	defer file.Close()

	bill, err := h.service.Upload(c.Request.Context(), sellerbill.UploadInput{
		SellerID:     c.PostForm("sellerId"),
		SupplierName: c.PostForm("supplierName"),
		BatchNumber:  c.PostForm("batchNumber"),
		BillType:     c.PostForm("billType"),
		BillNumber:   c.PostForm("billNumber"),
		BillDate:     c.PostForm("billDate"),
		Amount:       c.PostForm("amount"),
		FileName:     header.Filename,
		Size:         header.Size,
		Content:      file,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, bill)
}

// ListBySeller handles GET /seller-bills/seller/:sellerId
func (h *SellerBillHandler) ListBySeller(c *gin.Context) {
	bills, err := h.service.ListBySeller(c.Request.Context(), c.Param("sellerId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bills)
}

// ListGST handles GET /seller-bills/gst/:sellerId
func (h *SellerBillHandler) ListGST(c *gin.Context) {
	h.listByType(c, sellerbill.TypeGST)
}

// ListNonGST handles GET /seller-bills/non-gst/:sellerId
func (h *SellerBillHandler) ListNonGST(c *gin.Context) {
	h.listByType(c, sellerbill.TypeNonGST)
}

func (h *SellerBillHandler) listByType(c *gin.Context, t sellerbill.Type) {
	bills, err := h.service.ListByType(c.Request.Context(), c.Param("sellerId"), t)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, bills)
}

// Download handles GET /seller-bills/download/:id and streams the PDF.
func (h *SellerBillHandler) Download(c *gin.Context) {
	billID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	bill, rc, err := h.service.Open(c.Request.Context(), billID)
	if err != nil {
		h.Error(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", pdfContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": bill.FileName}))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		// Headers are already sent; the client sees a truncated body.
		logger.Warn(c.Request.Context(), "bill download interrupted", "bill_id", billID, "error", err)
	}
}

// TrackDownload handles PATCH /seller-bills/track-download/:id
func (h *SellerBillHandler) TrackDownload(c *gin.Context) {
	billID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.TrackDownload(c.Request.Context(), billID); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Download tracked successfully")
}

// Suppliers handles GET /seller-bills/suppliers
func (h *SellerBillHandler) Suppliers(c *gin.Context) {
	summaries, err := h.service.Suppliers(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if summaries == nil {
		summaries = []sellerbill.SupplierSummary{}
	}
	h.OK(c, summaries)
}

func (h *SellerBillHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.Upload)
	rg.GET("/seller/:sellerId", h.ListBySeller)
	rg.GET("/gst/:sellerId", h.ListGST)
	rg.GET("/non-gst/:sellerId", h.ListNonGST)
	rg.GET("/download/:id", h.Download)
	rg.PATCH("/track-download/:id", h.TrackDownload)
	rg.GET("/suppliers", h.Suppliers)
}
