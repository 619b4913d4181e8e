package invoicing

import (
	"context"
	"time"

	"github.com/dormbill/backend/internal/domain/invoicing"
	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/domain/property"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GenerationDefaults apply when a generation request leaves them out
type GenerationDefaults struct {
	LateFeePerDay decimal.Decimal
	DueDays       int
}

// GenerationService turns a meter cycle into a batch of invoices
type GenerationService struct {
	invoiceRepo    invoicing.InvoiceRepository
	cycleRepo      metering.MeterCycleRepository
	rooms          property.RoomDirectory
	defaults       GenerationDefaults
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BillingMetrics
	now            Clock
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(
	invoiceRepo invoicing.InvoiceRepository,
	cycleRepo metering.MeterCycleRepository,
	rooms property.RoomDirectory,
	defaults GenerationDefaults,
) *GenerationService {
	return &GenerationService{
		invoiceRepo: invoiceRepo,
		cycleRepo:   cycleRepo,
		rooms:       rooms,
		defaults:    defaults,
		now:         time.Now,
	}
}

// SetEventPublisher sets the publisher for InvoiceBatchGenerated events
func (s *GenerationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBillingMetrics sets the billing metrics recorder
func (s *GenerationService) SetBillingMetrics(m *telemetry.BillingMetrics) {
	s.metrics = m
}

// Generate bills every selected room of the cycle. All selections are
// checked before anything is read or written: one room without a tenant
// fails the whole call. Invoices are then written in a single transaction.
func (s *GenerationService) Generate(ctx context.Context, propertyID uuid.UUID, req GenerateInvoicesRequest) (*BatchResult, error) {
	var result *BatchResult
	start := s.now()
	err := telemetry.Instrument(ctx, "invoice_generation_service", "Generate", propertyID, func(ctx context.Context) error {
		if err := validateSelections(req.Rooms); err != nil {
			return err
		}

		billMonth, err := shared.ParseYearMonth(req.BillMonth)
		if err != nil {
			return err
		}
		dueDate, err := s.dueDate(req.DueDate)
		if err != nil {
			return err
		}
		lateFee := s.defaults.LateFeePerDay
		if req.LateFeePerDay != nil {
			lateFee = *req.LateFeePerDay
		}

		cycle, err := s.cycleRepo.FindByIDForProperty(ctx, propertyID, req.CycleID)
		if err != nil {
			return err
		}
		occupancies, err := s.rooms.ActiveOccupancies(ctx, propertyID)
		if err != nil {
			return err
		}

		batch, err := invoicing.NewInvoiceBatch(propertyID, cycle.ID, billMonth, dueDate, lateFee)
		if err != nil {
			return err
		}

		invoices := make([]*invoicing.Invoice, 0, len(req.Rooms))
		for _, sel := range req.Rooms {
			charges, err := s.roomCharges(ctx, propertyID, cycle, occupancies, sel)
			if err != nil {
				return err
			}
			inv, err := batch.NewInvoice(charges, start)
			if err != nil {
				return err
			}
			invoices = append(invoices, inv)
		}

		if err := s.invoiceRepo.CreateBatch(ctx, batch, invoices); err != nil {
			return err
		}

		event := invoicing.NewInvoiceBatchGeneratedEvent(batch, invoices)
		publishEvents(ctx, s.eventPublisher, &eventBuffer{events: []shared.DomainEvent{event}})
		s.metrics.RecordBatchGenerated(ctx, propertyID, len(invoices), event.TotalAmount)

		logger.L(ctx).Info("Invoice batch generated",
			zap.String("batch_id", batch.ID.String()),
			zap.String("cycle_id", cycle.ID.String()),
			zap.Int("invoices", len(invoices)),
			zap.String("total", event.TotalAmount.String()),
		)

		result = &BatchResult{
			BatchID:      batch.ID,
			CycleID:      cycle.ID,
			BillMonth:    batch.BillMonth.Format(shared.YearMonthLayout),
			DueDate:      formatDate(batch.DueDate),
			InvoiceCount: len(invoices),
			TotalAmount:  event.TotalAmount,
			Invoices: lo.Map(invoices, func(inv *invoicing.Invoice, _ int) InvoiceSummary {
				return InvoiceSummary{ID: inv.ID, RoomID: inv.RoomID, InvoiceNumber: inv.InvoiceNumber, TotalAmount: inv.TotalAmount}
			}),
		}
		return nil
	})
	s.metrics.ObserveOperation(ctx, "GenerateInvoices", start, err)
	return result, err
}

func validateSelections(rooms []RoomSelection) error {
	if len(rooms) == 0 {
		return invoicing.ErrEmptySelection
	}
	for _, sel := range rooms {
		if sel.RoomID == uuid.Nil {
			return invoicing.ErrMissingRoom
		}
		if sel.TenantID == nil || *sel.TenantID == uuid.Nil {
			return invoicing.ErrMissingTenant
		}
	}
	if len(lo.UniqBy(rooms, func(sel RoomSelection) uuid.UUID { return sel.RoomID })) != len(rooms) {
		return invoicing.ErrDuplicateSelection
	}
	return nil
}

func (s *GenerationService) dueDate(raw string) (time.Time, error) {
	if raw != "" {
		return shared.ParseDate(raw)
	}
	if s.defaults.DueDays <= 0 {
		return time.Time{}, invoicing.ErrInvalidDueDate
	}
	return shared.DateOnly(s.now()).AddDate(0, 0, s.defaults.DueDays), nil
}

// roomCharges prices one selected room: the rent from the room directory,
// usage and rates from the cycle snapshot. A room without a reading in the
// cycle is billed rent and services only.
func (s *GenerationService) roomCharges(
	ctx context.Context,
	propertyID uuid.UUID,
	cycle *metering.MeterCycle,
	occupancies map[uuid.UUID]property.Occupancy,
	sel RoomSelection,
) (invoicing.RoomCharges, error) {
	occ, ok := occupancies[sel.RoomID]
	if !ok {
		return invoicing.RoomCharges{}, property.ErrNoActiveTenant
	}
	if occ.TenantID != *sel.TenantID {
		return invoicing.RoomCharges{}, invoicing.ErrTenantMismatch
	}

	services, err := s.rooms.ActiveServices(ctx, propertyID, sel.RoomID)
	if err != nil {
		return invoicing.RoomCharges{}, err
	}

	charges := invoicing.RoomCharges{
		RoomID:   sel.RoomID,
		TenantID: occ.TenantID,
		RoomRate: occ.MonthlyRate,
		Services: lo.Map(services, func(svc property.RecurringService, _ int) invoicing.ServiceCharge {
			return invoicing.ServiceCharge{Name: svc.Name, Price: svc.Price, Quantity: svc.Quantity}
		}),
	}
	if reading, ok := cycle.ReadingForRoom(sel.RoomID); ok {
		charges.WaterUnits = metering.UnitsOrZero(reading.WaterUnits)
		charges.WaterRate = reading.WaterRate
		charges.ElectricUnits = metering.UnitsOrZero(reading.ElectricUnits)
		charges.ElectricRate = reading.ElectricRate
	}
	return charges, nil
}
