package handler

import (
	invoicingapp "github.com/dormbill/backend/internal/application/invoicing"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice generation, lookup and dispatch
type InvoiceHandler struct {
	BaseHandler
	generationService   *invoicingapp.GenerationService
	invoiceService      *invoicingapp.InvoiceService
	notificationService *invoicingapp.NotificationService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(
	generationService *invoicingapp.GenerationService,
	invoiceService *invoicingapp.InvoiceService,
	notificationService *invoicingapp.NotificationService,
) *InvoiceHandler {
	return &InvoiceHandler{
		generationService:   generationService,
		invoiceService:      invoiceService,
		notificationService: notificationService,
	}
}

// DeleteUnpaidQuery selects the bill month to clear
type DeleteUnpaidQuery struct {
	BillMonth string `form:"bill_month" binding:"required,yearmonth" example:"2026-03"`
}

// Generate godoc
// @ID           generateInvoices
// @Summary      Generate invoices for a cycle
// @Description  Creates one invoice per selected room in a single transaction. Any incomplete room fails the whole batch.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        property_id path string                               true "Property ID" format(uuid)
// @Param        request     body invoicingapp.GenerateInvoicesRequest true "Cycle, bill month and rooms"
// @Success      201 {object} APIResponse[invoicingapp.BatchResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Invoice number collision, retry"
// @Failure      422 {object} ErrorResponse "INCOMPLETE_ROOM_DATA"
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/generate [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	var req invoicingapp.GenerateInvoicesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), propertyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        property_id path  string true  "Property ID" format(uuid)
// @Param        bill_month  query string false "Bill month"  example(2026-03)
// @Param        status      query string false "Status"      Enums(unpaid, paid)
// @Param        room_id     query string false "Room ID"     format(uuid)
// @Param        cycle_id    query string false "Cycle ID"    format(uuid)
// @Param        page        query int    false "Page"        minimum(1)
// @Param        page_size   query int    false "Page size"   minimum(1) maximum(100)
// @Param        order_by    query string false "Sort field"
// @Param        order_dir   query string false "Sort order"  Enums(asc, desc)
// @Success      200 {object} APIResponse[[]invoicingapp.InvoiceHeaderResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	var req invoicingapp.ListInvoicesRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.invoiceService.List(c.Request.Context(), propertyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @ID           getInvoice
// @Summary      Get invoice detail
// @Description  Returns lines, payments and balance. An overdue unpaid invoice has its late fee accrued first.
// @Tags         invoices
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        invoice_id  path string true "Invoice ID"  format(uuid)
// @Success      200 {object} APIResponse[invoicingapp.InvoiceDetailResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}

	detail, err := h.invoiceService.GetDetail(c.Request.Context(), propertyID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// DeleteUnpaid godoc
// @ID           deleteUnpaidInvoices
// @Summary      Delete the unpaid invoices of a bill month
// @Description  Invoices with any payment are kept
// @Tags         invoices
// @Produce      json
// @Param        property_id path  string true "Property ID" format(uuid)
// @Param        bill_month  query string true "Bill month"  example(2026-03)
// @Success      200 {object} APIResponse[invoicingapp.DeleteUnpaidResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/unpaid [delete]
func (h *InvoiceHandler) DeleteUnpaid(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	var query DeleteUnpaidQuery
	if !h.bindQuery(c, &query) {
		return
	}

	result, err := h.invoiceService.DeleteUnpaidBatch(c.Request.Context(), propertyID, query.BillMonth)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Send godoc
// @ID           sendInvoices
// @Summary      Send invoice documents
// @Description  Renders each invoice and delivers it by the chosen method. Failures are reported per invoice.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        property_id path string                           true "Property ID" format(uuid)
// @Param        request     body invoicingapp.SendInvoicesRequest true "Invoices and method (pdf, email)"
// @Success      200 {object} APIResponse[[]invoicingapp.SendResultResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	var req invoicingapp.SendInvoicesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	results, err := h.notificationService.SendInvoices(c.Request.Context(), propertyID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// SendRecords godoc
// @ID           listInvoiceSendRecords
// @Summary      Dispatch history of an invoice
// @Tags         invoices
// @Produce      json
// @Param        property_id path string true "Property ID" format(uuid)
// @Param        invoice_id  path string true "Invoice ID"  format(uuid)
// @Success      200 {object} APIResponse[[]invoicingapp.SendRecordResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /properties/{property_id}/invoices/{invoice_id}/send-records [get]
func (h *InvoiceHandler) SendRecords(c *gin.Context) {
	propertyID, ok := h.propertyID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.uuidParam(c, "invoice_id")
	if !ok {
		return
	}

	records, err := h.notificationService.ListSendRecords(c.Request.Context(), propertyID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
