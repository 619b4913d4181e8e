package handler

import (
	invoicingapp "github.com/dormbill/backend/internal/application/invoicing"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles invoice payments
type PaymentHandler struct {
	BaseHandler
	paymentService *invoicingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *invoicingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// List godoc
// @ID           listInvoicePayments
// @Summary      List payments of an invoice
// @Tags         payments
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        invoice_id  path string true "Invoice ID"  format(uuid)
// @Success      200 {object} APIResponse[[]invoicingapp.PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id}/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), propertyID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Record godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment
// @Description  Accrues any late fee, then applies the payment. Omitting amount settles the full balance. Retries with the same Idempotency-Key replay the first response.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        property_id     path   string                            true  "Property ID" format(uuid)
// @Param        invoice_id      path   string                            true  "Invoice ID"  format(uuid)
// @Param        Idempotency-Key header string                            false "Client retry key"
// @Param        request         body   invoicingapp.RecordPaymentRequest true  "Payment"
// @Success      201 {object} APIResponse[invoicingapp.PaymentResultResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Invoice already paid or request in flight"
// @Failure      400 {object} ErrorResponse "INVALID_AMOUNT"
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id}/payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}
	var req invoicingapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), propertyID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Delete godoc
// @ID           deleteInvoicePayment
// @Summary      Delete a payment
// @Description  Removes the payment and reopens the invoice when a balance remains
// @Tags         payments
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        invoice_id  path string true "Invoice ID"  format(uuid)
// @Param        payment_id  path string true "Payment ID"  format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.PaymentResultResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id}/payments/{payment_id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}
	paymentID, ok := h.uuidParam(c, "payment_id")
	if !ok {
		return
	}

	result, err := h.paymentService.DeletePayment(c.Request.Context(), propertyID, invoiceID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
