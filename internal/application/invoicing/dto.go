package invoicing

import (
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ===================== Requests =====================

// RoomSelection is one room picked from the cycle's candidate view. The
// tenant id is optional on the wire so a missing one can fail the batch
// with INCOMPLETE_ROOM_DATA instead of a binding error.
type RoomSelection struct {
	RoomID   uuid.UUID  `json:"room_id" binding:"required"`
	TenantID *uuid.UUID `json:"tenant_id"`
}

// GenerateInvoicesRequest starts a generation run for a cycle
type GenerateInvoicesRequest struct {
	CycleID       uuid.UUID        `json:"cycle_id" binding:"required"`
	BillMonth     string           `json:"bill_month" binding:"required,yearmonth"`
	DueDate       string           `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	LateFeePerDay *decimal.Decimal `json:"late_fee_per_day"`
	Rooms         []RoomSelection  `json:"rooms" binding:"required,min=1,dive"`
}

// AddLineRequest adds a service or discount line
type AddLineRequest struct {
	ItemType    string           `json:"item_type" binding:"required"`
	Description string           `json:"description" binding:"required,max=255"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	UnitCount   *decimal.Decimal `json:"unit_count"`
}

// EditLineRequest changes any subset of a line's fields
type EditLineRequest struct {
	Description *string          `json:"description" binding:"omitempty,max=255"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	UnitCount   *decimal.Decimal `json:"unit_count"`
}

// RecordPaymentRequest records a payment. Without an amount the whole
// remaining balance is settled.
type RecordPaymentRequest struct {
	Method      string           `json:"method" binding:"required,max=50"`
	PaymentDate string           `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	Note        string           `json:"note" binding:"max=500"`
	Amount      *decimal.Decimal `json:"amount"`
}

// ListInvoicesRequest filters the invoice list
type ListInvoicesRequest struct {
	BillMonth string `form:"bill_month" binding:"omitempty,yearmonth"`
	Status    string `form:"status" binding:"omitempty,oneof=unpaid paid"`
	RoomID    string `form:"room_id" binding:"omitempty,uuid"`
	CycleID   string `form:"cycle_id" binding:"omitempty,uuid"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SendInvoicesRequest dispatches invoice documents
type SendInvoicesRequest struct {
	InvoiceIDs []uuid.UUID `json:"invoice_ids" binding:"required,min=1,max=200"`
	Method     string      `json:"method" binding:"required"`
}

// ===================== Responses =====================

// LineResponse is one invoice line. Amount is the signed contribution to
// the total, so discounts are always negative.
type LineResponse struct {
	ID          uuid.UUID       `json:"id"`
	ItemType    string          `json:"item_type"`
	Description string          `json:"description"`
	UnitCount   decimal.Decimal `json:"unit_count"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentResponse is one recorded payment
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"payment_date"`
	Note          string          `json:"note,omitempty"`
	ReceiptNumber string          `json:"receipt_number"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceHeaderResponse is the invoice header
type InvoiceHeaderResponse struct {
	ID            uuid.UUID       `json:"id"`
	PropertyID    uuid.UUID       `json:"property_id"`
	BatchID       uuid.UUID       `json:"batch_id"`
	CycleID       uuid.UUID       `json:"cycle_id"`
	RoomID        uuid.UUID       `json:"room_id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	InvoiceNumber string          `json:"invoice_number"`
	BillMonth     string          `json:"bill_month"`
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date"`
	LateFeePerDay decimal.Decimal `json:"late_fee_per_day"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaidDate      *string         `json:"paid_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceDetailResponse is the full invoice view after late fee accrual
type InvoiceDetailResponse struct {
	InvoiceHeaderResponse
	Lines      []LineResponse    `json:"lines"`
	Payments   []PaymentResponse `json:"payments"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	Balance    decimal.Decimal   `json:"balance"`
	LateFee    decimal.Decimal   `json:"late_fee"`
	LateDays   int               `json:"late_days"`
	Overdue    bool              `json:"overdue"`
}

// InvoiceSummary is one invoice of a generated batch
type InvoiceSummary struct {
	ID            uuid.UUID       `json:"id"`
	RoomID        uuid.UUID       `json:"room_id"`
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// BatchResult is the outcome of a generation run
type BatchResult struct {
	BatchID      uuid.UUID        `json:"batch_id"`
	CycleID      uuid.UUID        `json:"cycle_id"`
	BillMonth    string           `json:"bill_month"`
	DueDate      string           `json:"due_date"`
	InvoiceCount int              `json:"invoice_count"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Invoices     []InvoiceSummary `json:"invoices"`
}

// LineMutationResponse returns the touched line with the new invoice total
// and the settlement status derived from it
type LineMutationResponse struct {
	Line          *LineResponse   `json:"line,omitempty"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	InvoiceStatus string          `json:"invoice_status"`
	Balance       decimal.Decimal `json:"balance"`
}

// PaymentResultResponse reports the invoice state after a payment change
type PaymentResultResponse struct {
	Payment       *PaymentResponse `json:"payment,omitempty"`
	InvoiceID     uuid.UUID        `json:"invoice_id"`
	InvoiceStatus string           `json:"invoice_status"`
	PaidDate      *string          `json:"paid_date"`
	Balance       decimal.Decimal  `json:"balance"`
}

// DeleteUnpaidResponse reports a bulk delete
type DeleteUnpaidResponse struct {
	BillMonth    string `json:"bill_month"`
	DeletedCount int64  `json:"deleted_count"`
}

// SendResultResponse is the outcome of one invoice dispatch
type SendResultResponse struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
	Status    string    `json:"status"`
	Recipient string    `json:"recipient,omitempty"`
	Location  string    `json:"location,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// SendRecordResponse is a stored dispatch audit entry
type SendRecordResponse struct {
	ID           uuid.UUID `json:"id"`
	Method       string    `json:"method"`
	Recipient    string    `json:"recipient"`
	Status       string    `json:"status"`
	Location     string    `json:"location,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// ===================== Mapping =====================

func formatDate(t time.Time) string {
	return t.Format(shared.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// ToLineResponse maps a line
func ToLineResponse(l invoicing.InvoiceLine) LineResponse {
	return LineResponse{
		ID:          l.ID,
		ItemType:    l.ItemType.String(),
		Description: l.Description,
		UnitCount:   l.UnitCount,
		UnitPrice:   l.UnitPrice,
		Amount:      l.SignedAmount(),
	}
}

// ToPaymentResponse maps a payment
func ToPaymentResponse(p invoicing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		Method:        p.Method,
		Amount:        p.Amount,
		PaymentDate:   formatDate(p.PaymentDate),
		Note:          p.Note,
		ReceiptNumber: p.ReceiptNumber,
		CreatedAt:     p.CreatedAt,
	}
}

// ToInvoiceHeaderResponse maps the invoice header
func ToInvoiceHeaderResponse(inv *invoicing.Invoice) InvoiceHeaderResponse {
	return InvoiceHeaderResponse{
		ID:            inv.ID,
		PropertyID:    inv.PropertyID,
		BatchID:       inv.BatchID,
		CycleID:       inv.CycleID,
		RoomID:        inv.RoomID,
		TenantID:      inv.TenantID,
		InvoiceNumber: inv.InvoiceNumber,
		BillMonth:     inv.BillMonth.Format(shared.YearMonthLayout),
		IssueDate:     formatDate(inv.IssueDate),
		DueDate:       formatDate(inv.DueDate),
		LateFeePerDay: inv.LateFeePerDay,
		TotalAmount:   inv.TotalAmount,
		Status:        inv.Status.String(),
		PaidDate:      formatDatePtr(inv.PaidDate),
		CreatedAt:     inv.CreatedAt,
	}
}

// ToInvoiceDetailResponse maps an invoice with its accrued late fee
func ToInvoiceDetailResponse(inv *invoicing.Invoice, fee invoicing.LateFee, now time.Time) InvoiceDetailResponse {
	return InvoiceDetailResponse{
		InvoiceHeaderResponse: ToInvoiceHeaderResponse(inv),
		Lines:                 lo.Map(inv.Lines, func(l invoicing.InvoiceLine, _ int) LineResponse { return ToLineResponse(l) }),
		Payments:              lo.Map(inv.Payments, func(p invoicing.Payment, _ int) PaymentResponse { return ToPaymentResponse(p) }),
		PaidAmount:            inv.PaidAmount(),
		Balance:               inv.Balance(),
		LateFee:               fee.Amount,
		LateDays:              fee.Days,
		Overdue:               inv.IsOverdue(now),
	}
}

func toPaymentResult(inv *invoicing.Invoice, p *invoicing.Payment) PaymentResultResponse {
	resp := PaymentResultResponse{
		InvoiceID:     inv.ID,
		InvoiceStatus: inv.Status.String(),
		PaidDate:      formatDatePtr(inv.PaidDate),
		Balance:       inv.Balance(),
	}
	if p != nil {
		pr := ToPaymentResponse(*p)
		resp.Payment = &pr
	}
	return resp
}

func toSendRecordResponse(r invoicing.SendRecord) SendRecordResponse {
	return SendRecordResponse{
		ID:           r.ID,
		Method:       r.Method,
		Recipient:    r.Recipient,
		Status:       string(r.Status),
		Location:     r.Location,
		ErrorMessage: r.ErrorMessage,
		SentAt:       r.SentAt,
	}
}
