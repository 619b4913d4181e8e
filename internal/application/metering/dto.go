package metering

import (
	"time"

	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ReadingRequest is one room's meter registers. Omitted registers mean the
// room has no meter yet for that utility.
type ReadingRequest struct {
	RoomID           uuid.UUID `json:"room_id" binding:"required"`
	WaterPrevious    *int64    `json:"water_previous" binding:"omitempty,min=0"`
	WaterCurrent     *int64    `json:"water_current" binding:"omitempty,min=0"`
	ElectricPrevious *int64    `json:"electric_previous" binding:"omitempty,min=0"`
	ElectricCurrent  *int64    `json:"electric_current" binding:"omitempty,min=0"`
}

// CycleRequest creates or replaces a meter cycle
type CycleRequest struct {
	CycleDate string           `json:"cycle_date" binding:"required,datetime=2006-01-02"`
	Readings  []ReadingRequest `json:"readings" binding:"dive"`
}

func (r CycleRequest) inputs() []metering.ReadingInput {
	return lo.Map(r.Readings, func(in ReadingRequest, _ int) metering.ReadingInput {
		return metering.ReadingInput{
			RoomID:           in.RoomID,
			WaterPrevious:    in.WaterPrevious,
			WaterCurrent:     in.WaterCurrent,
			ElectricPrevious: in.ElectricPrevious,
			ElectricCurrent:  in.ElectricCurrent,
		}
	})
}

// ReadingResponse is a reading with its derived usage and charges
type ReadingResponse struct {
	ID               uuid.UUID       `json:"id"`
	RoomID           uuid.UUID       `json:"room_id"`
	WaterPrevious    *int64          `json:"water_previous"`
	WaterCurrent     *int64          `json:"water_current"`
	ElectricPrevious *int64          `json:"electric_previous"`
	ElectricCurrent  *int64          `json:"electric_current"`
	WaterUnits       *int64          `json:"water_units"`
	ElectricUnits    *int64          `json:"electric_units"`
	WaterRate        decimal.Decimal `json:"water_rate"`
	ElectricRate     decimal.Decimal `json:"electric_rate"`
	WaterCharge      decimal.Decimal `json:"water_charge"`
	ElectricCharge   decimal.Decimal `json:"electric_charge"`
}

// CycleResponse is a meter cycle with its readings
type CycleResponse struct {
	ID         uuid.UUID         `json:"id"`
	PropertyID uuid.UUID         `json:"property_id"`
	CycleDate  string            `json:"cycle_date"`
	Readings   []ReadingResponse `json:"readings"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// CycleListItemResponse is a cycle header in list results
type CycleListItemResponse struct {
	ID        uuid.UUID `json:"id"`
	CycleDate string    `json:"cycle_date"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomBillingCandidate is one occupied room of a cycle as the invoice
// generator would bill it
type RoomBillingCandidate struct {
	RoomID          uuid.UUID       `json:"room_id"`
	RoomName        string          `json:"room_name"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	TenantName      string          `json:"tenant_name"`
	RoomRate        decimal.Decimal `json:"room_rate"`
	WaterUnits      *int64          `json:"water_units"`
	ElectricUnits   *int64          `json:"electric_units"`
	WaterRate       decimal.Decimal `json:"water_rate"`
	ElectricRate    decimal.Decimal `json:"electric_rate"`
	WaterCharge     decimal.Decimal `json:"water_charge"`
	ElectricCharge  decimal.Decimal `json:"electric_charge"`
	EstimatedTotal  decimal.Decimal `json:"estimated_total"`
	AlreadyInvoiced bool            `json:"already_invoiced"`
}

// ToCycleResponse maps the aggregate to its response
func ToCycleResponse(c *metering.MeterCycle) CycleResponse {
	return CycleResponse{
		ID:         c.ID,
		PropertyID: c.PropertyID,
		CycleDate:  c.CycleDate.Format(shared.DateLayout),
		Readings:   lo.Map(c.Readings, func(r metering.MeterReading, _ int) ReadingResponse { return toReadingResponse(r) }),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toReadingResponse(r metering.MeterReading) ReadingResponse {
	return ReadingResponse{
		ID:               r.ID,
		RoomID:           r.RoomID,
		WaterPrevious:    r.WaterPrevious,
		WaterCurrent:     r.WaterCurrent,
		ElectricPrevious: r.ElectricPrevious,
		ElectricCurrent:  r.ElectricCurrent,
		WaterUnits:       r.WaterUnits,
		ElectricUnits:    r.ElectricUnits,
		WaterRate:        r.WaterRate,
		ElectricRate:     r.ElectricRate,
		WaterCharge:      r.WaterCharge(),
		ElectricCharge:   r.ElectricCharge(),
	}
}

// ToCycleListItemResponses maps cycle headers
func ToCycleListItemResponses(cycles []metering.MeterCycle) []CycleListItemResponse {
	return lo.Map(cycles, func(c metering.MeterCycle, _ int) CycleListItemResponse {
		return CycleListItemResponse{ID: c.ID, CycleDate: c.CycleDate.Format(shared.DateLayout), CreatedAt: c.CreatedAt}
	})
}
