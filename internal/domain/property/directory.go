// Package property describes the room, tenancy and service data billing
// reads from the property management side. Billing never writes it.
package property

import (
	"context"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNoActiveTenant is returned when a room has no active contract
var ErrNoActiveTenant = shared.NewDomainError("INCOMPLETE_ROOM_DATA", "Room has no active tenant")

// Occupancy is the active tenancy of a room
type Occupancy struct {
	RoomID      uuid.UUID
	RoomName    string
	ContractID  uuid.UUID
	TenantID    uuid.UUID
	TenantName  string
	TenantEmail string
	MonthlyRate decimal.Decimal
}

// RecurringService is an active monthly service on a room's contract
type RecurringService struct {
	Name     string
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// RoomDirectory resolves rooms, their active tenants and services
type RoomDirectory interface {
	// ActiveOccupancies returns every occupied room of the property keyed by room
	ActiveOccupancies(ctx context.Context, propertyID uuid.UUID) (map[uuid.UUID]Occupancy, error)

	// Occupancy returns the active tenancy of one room, or ErrNoActiveTenant
	Occupancy(ctx context.Context, propertyID, roomID uuid.UUID) (*Occupancy, error)

	// ActiveServices returns the recurring services billed with the room's rent
	ActiveServices(ctx context.Context, propertyID, roomID uuid.UUID) ([]RecurringService, error)
}
