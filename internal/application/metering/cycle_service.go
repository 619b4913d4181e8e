// Package metering holds the meter cycle use cases: capturing readings,
// replacing them wholesale and projecting a cycle into billing candidates.
package metering

import (
	"context"
	"sort"

	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/domain/property"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "meter_cycle_service"

// InvoicedRoomsReader reports which rooms of a cycle already have an invoice
type InvoicedRoomsReader interface {
	InvoicedRooms(ctx context.Context, propertyID, cycleID uuid.UUID) (map[uuid.UUID]bool, error)
}

// CycleService manages meter cycles
type CycleService struct {
	cycleRepo metering.MeterCycleRepository
	rates     metering.UtilityRateReader
	rooms     property.RoomDirectory
	invoiced  InvoicedRoomsReader
}

// NewCycleService creates a new CycleService
func NewCycleService(
	cycleRepo metering.MeterCycleRepository,
	rates metering.UtilityRateReader,
	rooms property.RoomDirectory,
	invoiced InvoicedRoomsReader,
) *CycleService {
	return &CycleService{
		cycleRepo: cycleRepo,
		rates:     rates,
		rooms:     rooms,
		invoiced:  invoiced,
	}
}

// Create captures a new cycle. Rates are resolved once and copied onto
// every reading. Fails with DUPLICATE_CYCLE if the date is taken.
func (s *CycleService) Create(ctx context.Context, propertyID uuid.UUID, req CycleRequest) (*CycleResponse, error) {
	var resp *CycleResponse
	err := telemetry.Instrument(ctx, serviceName, "Create", propertyID, func(ctx context.Context) error {
		date, err := shared.ParseDate(req.CycleDate)
		if err != nil {
			return err
		}

		exists, err := s.cycleRepo.ExistsByDate(ctx, propertyID, date, uuid.Nil)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrDuplicateCycle
		}

		rates, err := s.rates.CurrentRates(ctx, propertyID)
		if err != nil {
			return err
		}

		cycle, err := metering.NewMeterCycle(propertyID, date, req.inputs(), rates)
		if err != nil {
			return err
		}
		if err := s.cycleRepo.Create(ctx, cycle); err != nil {
			return err
		}

		logger.L(ctx).Info("Meter cycle created",
			zap.String("cycle_id", cycle.ID.String()),
			zap.Time("cycle_date", cycle.CycleDate),
			zap.Int("readings", len(cycle.Readings)),
		)
		r := ToCycleResponse(cycle)
		resp = &r
		return nil
	})
	return resp, err
}

// Replace overwrites the cycle date and its whole reading set. Rooms left
// out of the request lose their reading.
func (s *CycleService) Replace(ctx context.Context, propertyID, cycleID uuid.UUID, req CycleRequest) (*CycleResponse, error) {
	var resp *CycleResponse
	err := telemetry.Instrument(ctx, serviceName, "Replace", propertyID, func(ctx context.Context) error {
		date, err := shared.ParseDate(req.CycleDate)
		if err != nil {
			return err
		}

		cycle, err := s.cycleRepo.FindByIDForProperty(ctx, propertyID, cycleID)
		if err != nil {
			return err
		}

		exists, err := s.cycleRepo.ExistsByDate(ctx, propertyID, date, cycle.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrDuplicateCycle
		}

		rates, err := s.rates.CurrentRates(ctx, propertyID)
		if err != nil {
			return err
		}
		if err := cycle.ReplaceReadings(date, req.inputs(), rates); err != nil {
			return err
		}
		if err := s.cycleRepo.ReplaceReadings(ctx, cycle); err != nil {
			return err
		}

		logger.L(ctx).Info("Meter cycle replaced",
			zap.String("cycle_id", cycle.ID.String()),
			zap.Int("readings", len(cycle.Readings)),
		)
		r := ToCycleResponse(cycle)
		resp = &r
		return nil
	})
	return resp, err
}

// Delete removes a cycle and its readings
func (s *CycleService) Delete(ctx context.Context, propertyID, cycleID uuid.UUID) error {
	return telemetry.Instrument(ctx, serviceName, "Delete", propertyID, func(ctx context.Context) error {
		if err := s.cycleRepo.DeleteForProperty(ctx, propertyID, cycleID); err != nil {
			return err
		}
		logger.L(ctx).Info("Meter cycle deleted", zap.String("cycle_id", cycleID.String()))
		return nil
	})
}

// List returns the property's cycles, most recent first
func (s *CycleService) List(ctx context.Context, propertyID uuid.UUID) ([]CycleListItemResponse, error) {
	cycles, err := s.cycleRepo.FindAllForProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return ToCycleListItemResponses(cycles), nil
}

// Get returns one cycle with its readings
func (s *CycleService) Get(ctx context.Context, propertyID, cycleID uuid.UUID) (*CycleResponse, error) {
	cycle, err := s.cycleRepo.FindByIDForProperty(ctx, propertyID, cycleID)
	if err != nil {
		return nil, err
	}
	resp := ToCycleResponse(cycle)
	return &resp, nil
}

// Candidates joins the cycle's readings with the rooms' current tenancy.
// Rooms without an active tenant cannot be billed and are left out.
func (s *CycleService) Candidates(ctx context.Context, propertyID, cycleID uuid.UUID) ([]RoomBillingCandidate, error) {
	var candidates []RoomBillingCandidate
	err := telemetry.Instrument(ctx, serviceName, "Candidates", propertyID, func(ctx context.Context) error {
		cycle, err := s.cycleRepo.FindByIDForProperty(ctx, propertyID, cycleID)
		if err != nil {
			return err
		}
		occupancies, err := s.rooms.ActiveOccupancies(ctx, propertyID)
		if err != nil {
			return err
		}
		invoiced, err := s.invoiced.InvoicedRooms(ctx, propertyID, cycleID)
		if err != nil {
			return err
		}

		candidates = make([]RoomBillingCandidate, 0, len(cycle.Readings))
		for _, r := range cycle.Readings {
			occ, ok := occupancies[r.RoomID]
			if !ok {
				continue
			}
			water, electric := r.WaterCharge(), r.ElectricCharge()
			candidates = append(candidates, RoomBillingCandidate{
				RoomID:          r.RoomID,
				RoomName:        occ.RoomName,
				TenantID:        occ.TenantID,
				TenantName:      occ.TenantName,
				RoomRate:        occ.MonthlyRate,
				WaterUnits:      r.WaterUnits,
				ElectricUnits:   r.ElectricUnits,
				WaterRate:       r.WaterRate,
				ElectricRate:    r.ElectricRate,
				WaterCharge:     water,
				ElectricCharge:  electric,
				EstimatedTotal:  occ.MonthlyRate.Add(water).Add(electric),
				AlreadyInvoiced: invoiced[r.RoomID],
			})
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].RoomName < candidates[j].RoomName
		})
		return nil
	})
	return candidates, err
}
