package invoicing

import (
	"context"
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LateFeeService keeps an invoice's late_fee line in step with how many
// whole days it is overdue
type LateFeeService struct {
	invoiceRepo    invoicing.InvoiceRepository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BillingMetrics
	now            Clock
}

// NewLateFeeService creates a new LateFeeService
func NewLateFeeService(invoiceRepo invoicing.InvoiceRepository) *LateFeeService {
	return &LateFeeService{invoiceRepo: invoiceRepo, now: time.Now}
}

// SetEventPublisher sets the publisher for LateFeeAccrued events
func (s *LateFeeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBillingMetrics sets the billing metrics recorder
func (s *LateFeeService) SetBillingMetrics(m *telemetry.BillingMetrics) {
	s.metrics = m
}

// EnsureLateFee accrues the late fee of inv as of now and returns the
// invoice as stored afterwards. Paid invoices and invoices not past due are
// returned unchanged with a zero fee. A line that already carries the
// current day count is not rewritten.
func (s *LateFeeService) EnsureLateFee(ctx context.Context, inv *invoicing.Invoice) (*invoicing.Invoice, invoicing.LateFee, error) {
	now := s.now()
	if !inv.IsOverdue(now) {
		return inv, invoicing.LateFee{Amount: decimal.Zero}, nil
	}

	fee := invoicing.ComputeLateFee(inv, now)
	if current := inv.LateFeeLine(); current != nil &&
		current.UnitCount.Equal(decimal.NewFromInt(int64(fee.Days))) &&
		current.UnitPrice.Equal(inv.LateFeePerDay) {
		return inv, fee, nil
	}

	line := inv.AccrueLateFee(fee)
	if line == nil {
		return inv, fee, nil
	}
	if err := s.invoiceRepo.UpsertLateFee(ctx, inv, line); err != nil {
		return nil, invoicing.LateFee{}, err
	}
	publishEvents(ctx, s.eventPublisher, inv)
	s.metrics.RecordLateFee(ctx, inv.PropertyID)

	logger.L(ctx).Info("Late fee accrued",
		zap.String("invoice_id", inv.ID.String()),
		zap.Int("late_days", fee.Days),
		zap.String("late_fee", fee.Amount.String()),
	)

	// A concurrent accrual may own the stored row; reload so the caller sees it.
	stored, err := s.invoiceRepo.FindByIDForProperty(ctx, inv.PropertyID, inv.ID)
	if err != nil {
		return nil, invoicing.LateFee{}, err
	}
	return stored, fee, nil
}
