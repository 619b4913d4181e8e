package handler

import (
	invoicingapp "github.com/dormbill/backend/internal/application/invoicing"
	"github.com/gin-gonic/gin"
)

// LedgerHandler handles manual invoice line edits
type LedgerHandler struct {
	BaseHandler
	ledgerService *invoicingapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *invoicingapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// AddLine godoc
// @ID           addInvoiceLine
// @Summary      Add an invoice line
// @Description  Adds a manual line and recomputes the invoice total
// @Tags         invoice-lines
// @Accept       json
// @Produce      json
// @Param        property_id path string                      true "Property ID" format(uuid)
// @Param        invoice_id  path string                      true "Invoice ID"  format(uuid)
// @Param        request     body invoicingapp.AddLineRequest true "Line"
// @Success      201 {object} APIResponse[invoicingapp.LineMutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id}/lines [post]
func (h *LedgerHandler) AddLine(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}
	var req invoicingapp.AddLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.ledgerService.AddLine(c.Request.Context(), propertyID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// EditLine godoc
// @ID           editInvoiceLine
// @Summary      Edit an invoice line
// @Tags         invoice-lines
// @Accept       json
// @Produce      json
// @Param        property_id path string                       true "Property ID" format(uuid)
// @Param        invoice_id  path string                       true "Invoice ID"  format(uuid)
// @Param        line_id     path string                       true "Line ID"     format(uuid)
// @Param        request     body invoicingapp.EditLineRequest true "Changed fields"
// @Success      200 {object} APIResponse[invoicingapp.LineMutationResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id}/lines/{line_id} [put]
func (h *LedgerHandler) EditLine(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}
	lineID, ok := h.uuidParam(c, "line_id")
	if !ok {
		return
	}
	var req invoicingapp.EditLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.ledgerService.EditLine(c.Request.Context(), propertyID, invoiceID, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RemoveLine godoc
// @ID           removeInvoiceLine
// @Summary      Remove an invoice line
// @Tags         invoice-lines
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        invoice_id  path string true "Invoice ID"  format(uuid)
// @Param        line_id     path string true "Line ID"     format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.LineMutationResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id}/lines/{line_id} [delete]
func (h *LedgerHandler) RemoveLine(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}
	lineID, ok := h.uuidParam(c, "line_id")
	if !ok {
		return
	}

	result, err := h.ledgerService.RemoveLine(c.Request.Context(), propertyID, invoiceID, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
