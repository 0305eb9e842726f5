package dto

import (
	"billing/internal/core/types"
	"billing/internal/domain/expense"
	"billing/internal/domain/payment"
)

// RecordPaymentRequest is the body of POST /payments/:supplier/:batch.
type RecordPaymentRequest struct {
	Amount types.Money `json:"amount"`
	Notes  string      `json:"notes"`
}

// SellerExpense is one batch with its payment status attached.
type SellerExpense struct {
	expense.Group
	PaymentStatus *payment.Status `json:"paymentStatus"`
}
