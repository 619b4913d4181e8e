// Package invoicing holds the billing use cases: batch generation from a
// meter cycle, the editable line ledger, late fee accrual, payments and
// invoice delivery.
package invoicing

import (
	"context"
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Clock returns the current time
type Clock func() time.Time

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents hands pending aggregate events to publisher. Publishing
// failures are logged; the state change has already committed.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, src eventSource) {
	events := src.GetDomainEvents()
	src.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish domain events", zap.Int("events", len(events)), zap.Error(err))
	}
}

// eventBuffer collects events not raised on an aggregate, such as the batch
// generated event.
type eventBuffer struct {
	events []shared.DomainEvent
}

func (b *eventBuffer) GetDomainEvents() []shared.DomainEvent { return b.events }
func (b *eventBuffer) ClearDomainEvents()                    { b.events = nil }
