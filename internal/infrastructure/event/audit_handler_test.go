package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/persistence/models"
	"github.com/dormbill/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogHandler_RecordsBillingEvents(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	bus := NewInMemoryEventBus()
	bus.Subscribe(NewAuditLogHandler(db))

	propertyID := uuid.New()
	inv := &invoicing.Invoice{}
	inv.ID = uuid.New()
	inv.PropertyID = propertyID
	payment := invoicing.Payment{ID: uuid.New(), Method: "cash", Amount: decimal.NewFromInt(500)}

	ctx := logger.WithUserID(context.Background(), "staff-7")
	require.NoError(t, bus.Publish(ctx,
		invoicing.NewPaymentRecordedEvent(inv, payment),
		testutil.NewTestEvent("NotAudited", propertyID),
	))

	var rows []models.AuditLogModel
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, propertyID, row.PropertyID)
	assert.Equal(t, invoicing.EventTypePaymentRecorded, row.EventType)
	assert.Equal(t, inv.ID, row.AggregateID)
	assert.Equal(t, "staff-7", row.ActorID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(row.Payload, &payload))
	assert.Equal(t, "cash", payload["method"])
	assert.Equal(t, "500", payload["amount"])
}
