package models

import (
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceBatchModel is the header row of one generation run.
type InvoiceBatchModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CycleID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	BillMonth     datatypes.Date  `gorm:"not null;index"`
	DueDate       datatypes.Date  `gorm:"not null"`
	LateFeePerDay decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	InvoiceCount  int             `gorm:"not null;default:0"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceBatchModel) TableName() string {
	return "invoice_batches"
}

// InvoiceBatchModelFromDomain creates a new persistence model from a domain InvoiceBatch.
func InvoiceBatchModelFromDomain(b *invoicing.InvoiceBatch) *InvoiceBatchModel {
	return &InvoiceBatchModel{
		ID:            b.ID,
		PropertyID:    b.PropertyID,
		CycleID:       b.CycleID,
		BillMonth:     Date(b.BillMonth),
		DueDate:       Date(b.DueDate),
		LateFeePerDay: b.LateFeePerDay,
		InvoiceCount:  b.InvoiceCount,
		CreatedAt:     b.CreatedAt,
	}
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	PropertyID    uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_property_number,priority:1;index:idx_invoices_property_month,priority:1"`
	InvoiceNumber string                  `gorm:"type:varchar(32);not null;uniqueIndex:idx_invoices_property_number,priority:2"`
	BatchID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	RoomID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	TenantID      uuid.UUID               `gorm:"type:uuid;not null"`
	CycleID       uuid.UUID               `gorm:"type:uuid;not null;index"`
	BillMonth     datatypes.Date          `gorm:"not null;index:idx_invoices_property_month,priority:2"`
	IssueDate     datatypes.Date          `gorm:"not null"`
	DueDate       datatypes.Date          `gorm:"not null"`
	LateFeePerDay decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	TotalAmount   decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Status        invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'unpaid';index"`
	PaidDate      *datatypes.Date         `gorm:"type:date"`
	Lines         []InvoiceLineModel      `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE"`
	Payments      []PaymentModel          `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
// Lines and payments are included only when they were preloaded.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		PropertyAggregateRoot: m.PropertyAggregateRoot(m.PropertyID),
		BatchID:               m.BatchID,
		RoomID:                m.RoomID,
		TenantID:              m.TenantID,
		CycleID:               m.CycleID,
		InvoiceNumber:         m.InvoiceNumber,
		BillMonth:             TimeOf(m.BillMonth),
		IssueDate:             TimeOf(m.IssueDate),
		DueDate:               TimeOf(m.DueDate),
		LateFeePerDay:         m.LateFeePerDay,
		TotalAmount:           m.TotalAmount,
		Status:                m.Status,
		PaidDate:              TimePtrOf(m.PaidDate),
		Lines:                 make([]invoicing.InvoiceLine, 0, len(m.Lines)),
		Payments:              make([]invoicing.Payment, 0, len(m.Payments)),
	}
	for i := range m.Lines {
		inv.Lines = append(inv.Lines, m.Lines[i].ToDomain())
	}
	for i := range m.Payments {
		inv.Payments = append(inv.Payments, m.Payments[i].ToDomain())
	}
	return inv
}

// FromDomain populates the header columns from a domain Invoice. Lines and
// payments are written through their own models.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.PropertyID = inv.PropertyID
	m.InvoiceNumber = inv.InvoiceNumber
	m.BatchID = inv.BatchID
	m.RoomID = inv.RoomID
	m.TenantID = inv.TenantID
	m.CycleID = inv.CycleID
	m.BillMonth = Date(inv.BillMonth)
	m.IssueDate = Date(inv.IssueDate)
	m.DueDate = Date(inv.DueDate)
	m.LateFeePerDay = inv.LateFeePerDay
	m.TotalAmount = inv.TotalAmount
	m.Status = inv.Status
	m.PaidDate = DatePtr(inv.PaidDate)
}

// InvoiceModelFromDomain creates a new header model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is the persistence model for one ledger line. The partial
// unique index allows at most one late_fee line per invoice.
type InvoiceLineModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID          `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_lines_late_fee,where:item_type = 'late_fee'"`
	Position    int                `gorm:"not null;default:0"`
	ItemType    invoicing.LineType `gorm:"type:varchar(20);not null"`
	Description string             `gorm:"type:varchar(255);not null"`
	UnitCount   decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time          `gorm:"not null"`
	UpdatedAt   time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine.
func (m *InvoiceLineModel) ToDomain() invoicing.InvoiceLine {
	return invoicing.InvoiceLine{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		ItemType:    m.ItemType,
		Description: m.Description,
		UnitCount:   m.UnitCount,
		UnitPrice:   m.UnitPrice,
		Amount:      m.Amount,
	}
}

// InvoiceLineModelFromDomain creates a line row at position.
func InvoiceLineModelFromDomain(l *invoicing.InvoiceLine, position int) *InvoiceLineModel {
	now := time.Now()
	return &InvoiceLineModel{
		ID:          l.ID,
		InvoiceID:   l.InvoiceID,
		Position:    position,
		ItemType:    l.ItemType,
		Description: l.Description,
		UnitCount:   l.UnitCount,
		UnitPrice:   l.UnitPrice,
		Amount:      l.Amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// PaymentModel is the persistence model for a payment.
type PaymentModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method        string          `gorm:"type:varchar(50);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentDate   datatypes.Date  `gorm:"not null"`
	Note          string          `gorm:"type:text"`
	ReceiptNumber string          `gorm:"type:varchar(32);uniqueIndex"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() invoicing.Payment {
	return invoicing.Payment{
		ID:            m.ID,
		InvoiceID:     m.InvoiceID,
		PropertyID:    m.PropertyID,
		Method:        m.Method,
		Amount:        m.Amount,
		PaymentDate:   TimeOf(m.PaymentDate),
		Note:          m.Note,
		ReceiptNumber: m.ReceiptNumber,
		CreatedAt:     m.CreatedAt,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *invoicing.Payment) *PaymentModel {
	return &PaymentModel{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		PropertyID:    p.PropertyID,
		Method:        p.Method,
		Amount:        p.Amount,
		PaymentDate:   Date(p.PaymentDate),
		Note:          p.Note,
		ReceiptNumber: p.ReceiptNumber,
		CreatedAt:     p.CreatedAt,
	}
}

// InvoiceSequenceModel is the per-property monthly counter behind invoice
// numbers. Period is the bill month as YYYYMM.
type InvoiceSequenceModel struct {
	PropertyID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Period     string    `gorm:"type:varchar(6);primaryKey"`
	LastValue  int64     `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}

// SendRecordModel is the persistence model for a dispatch audit entry.
type SendRecordModel struct {
	ID           uuid.UUID            `gorm:"type:uuid;primary_key"`
	PropertyID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	Method       string               `gorm:"type:varchar(20);not null"`
	Recipient    string               `gorm:"type:varchar(255)"`
	Status       invoicing.SendStatus `gorm:"type:varchar(20);not null"`
	Location     string               `gorm:"type:varchar(512)"`
	ErrorMessage string               `gorm:"type:text"`
	SentAt       time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SendRecordModel) TableName() string {
	return "invoice_send_records"
}

// ToDomain converts the persistence model to a domain SendRecord.
func (m *SendRecordModel) ToDomain() invoicing.SendRecord {
	return invoicing.SendRecord{
		ID:           m.ID,
		PropertyID:   m.PropertyID,
		InvoiceID:    m.InvoiceID,
		Method:       m.Method,
		Recipient:    m.Recipient,
		Status:       m.Status,
		Location:     m.Location,
		ErrorMessage: m.ErrorMessage,
		SentAt:       m.SentAt,
	}
}

// SendRecordModelFromDomain creates a new persistence model from a domain SendRecord.
func SendRecordModelFromDomain(r *invoicing.SendRecord) *SendRecordModel {
	return &SendRecordModel{
		ID:           r.ID,
		PropertyID:   r.PropertyID,
		InvoiceID:    r.InvoiceID,
		Method:       r.Method,
		Recipient:    r.Recipient,
		Status:       r.Status,
		Location:     r.Location,
		ErrorMessage: r.ErrorMessage,
		SentAt:       r.SentAt,
	}
}
