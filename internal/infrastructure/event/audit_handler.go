package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditedEventTypes are the billing events written to the audit log
var AuditedEventTypes = []string{
	invoicing.EventTypeInvoiceBatchGenerated,
	invoicing.EventTypePaymentRecorded,
	invoicing.EventTypePaymentReversed,
	invoicing.EventTypeLateFeeAccrued,
}

// AuditLogHandler appends each billing event to billing_audit_logs together
// with the staff user that caused it
type AuditLogHandler struct {
	db *gorm.DB
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{db: db}
}

// EventTypes returns the audited event types
func (h *AuditLogHandler) EventTypes() []string {
	return AuditedEventTypes
}

// Handle stores the event with its JSON payload
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.EventType(), err)
	}

	row := models.AuditLogModel{
		ID:            uuid.New(),
		PropertyID:    event.PropertyID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		ActorID:       logger.GetUserID(ctx),
		Payload:       datatypes.JSON(payload),
		OccurredAt:    event.OccurredAt(),
	}
	return h.db.WithContext(ctx).Create(&row).Error
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
