package handlers

import (
	"github.com/gin-gonic/gin"

	"billing/internal/domain/expense"
	"billing/internal/domain/payment"
	"billing/internal/infrastructure/http/v1/dto"
)

// ExpenseHandler serves seller expenses with their payment state.
type ExpenseHandler struct {
	*BaseHandler
	expenses *expense.Service
	payments *payment.Tracker
}

func NewExpenseHandler(base *BaseHandler, expenses *expense.Service, payments *payment.Tracker) *ExpenseHandler {
	return &ExpenseHandler{BaseHandler: base, expenses: expenses, payments: payments}
}

// SellerExpenses handles GET /products/seller-expenses?startDate=&endDate=&supplierName=
// Each batch carries its payment status reconciled against the whole batch
// total. A date range can cut a batch short, so the group total is only used
// for reconciliation when no range is given.
func (h *ExpenseHandler) SellerExpenses(c *gin.Context) {
	ctx := c.Request.Context()

	from, ok := h.QueryDate(c, "startDate", false)
	if !ok {
		return
	}
	to, ok := h.QueryDate(c, "endDate", true)
	if !ok {
		return
	}

	groups, err := h.expenses.Groups(ctx, expense.Filter{From: from, To: to, SupplierName: c.Query("supplierName")})
	if err != nil {
		h.Error(c, err)
		return
	}

	dated := from != nil || to != nil
	out := make([]dto.SellerExpense, 0, len(groups))
	for _, g := range groups {
		k := payment.Key{Supplier: g.SupplierName, Batch: g.BatchNumber}
		var status *payment.Status
		if dated {
			status, err = h.payments.Status(ctx, k)
		} else {
			status, err = h.payments.Reconcile(ctx, k, g.TotalAmount)
		}
		if err != nil {
			h.Error(c, err)
			return
		}
		out = append(out, dto.SellerExpense{Group: g, PaymentStatus: status})
	}
	h.OK(c, dto.NewList(out))
}

// PaymentHandler serves the payment state of one batch.
type PaymentHandler struct {
	*BaseHandler
	tracker *payment.Tracker
}

func NewPaymentHandler(base *BaseHandler, tracker *payment.Tracker) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, tracker: tracker}
}

// Get handles GET /payments/:supplier/:batch
func (h *PaymentHandler) Get(c *gin.Context) {
	k, ok := h.key(c)
	if !ok {
		return
	}
	status, err := h.tracker.Status(c.Request.Context(), k)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, status)
}

// Record handles POST /payments/:supplier/:batch
func (h *PaymentHandler) Record(c *gin.Context) {
	k, ok := h.key(c)
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	status, err := h.tracker.RecordPayment(c.Request.Context(), k, req.Amount, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, status)
}

// MarkUnpaid handles DELETE /payments/:supplier/:batch
func (h *PaymentHandler) MarkUnpaid(c *gin.Context) {
	k, ok := h.key(c)
	if !ok {
		return
	}
	if err := h.tracker.MarkUnpaid(c.Request.Context(), k); err != nil {
		h.Error(c, err)
		return
	}
	h.Message(c, "Payment status reset")
}

func (h *PaymentHandler) key(c *gin.Context) (payment.Key, bool) {
	k, err := payment.NewKey(c.Param("supplier"), c.Param("batch"))
	if err != nil {
		h.Error(c, err)
		return payment.Key{}, false
	}
	return k, true
}

func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:supplier/:batch", h.Get)
	rg.POST("/:supplier/:batch", h.Record)
	rg.DELETE("/:supplier/:batch", h.MarkUnpaid)
}
