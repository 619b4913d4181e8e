package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLogModel is an immutable record of a billing event.
type AuditLogModel struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key"`
	PropertyID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	EventType     string         `gorm:"type:varchar(100);not null;index"`
	AggregateType string         `gorm:"type:varchar(50);not null"`
	AggregateID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ActorID       string         `gorm:"type:varchar(100)"`
	Payload       datatypes.JSON `gorm:"not null"`
	OccurredAt    time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "billing_audit_logs"
}

// AllModels lists every table owned or read by billing, in creation order.
func AllModels() []any {
	return []any{
		&RoomModel{},
		&RoomContractModel{},
		&ContractServiceModel{},
		&UtilityRateModel{},
		&MeterCycleModel{},
		&MeterReadingModel{},
		&InvoiceBatchModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&PaymentModel{},
		&InvoiceSequenceModel{},
		&SendRecordModel{},
		&AuditLogModel{},
	}
}
