package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/dormbill/backend/internal/domain/property"
	"github.com/dormbill/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormRoomDirectory implements property.RoomDirectory over the rooms and
// room_contracts tables
type GormRoomDirectory struct {
	db *gorm.DB
}

// NewGormRoomDirectory creates a new GormRoomDirectory
func NewGormRoomDirectory(db *gorm.DB) *GormRoomDirectory {
	return &GormRoomDirectory{db: db}
}

type occupancyRow struct {
	RoomID      uuid.UUID
	RoomName    string
	ContractID  uuid.UUID
	TenantID    uuid.UUID
	TenantName  string
	TenantEmail string
	MonthlyRate decimal.Decimal
}

func (row occupancyRow) toDomain() property.Occupancy {
	return property.Occupancy{
		RoomID:      row.RoomID,
		RoomName:    row.RoomName,
		ContractID:  row.ContractID,
		TenantID:    row.TenantID,
		TenantName:  row.TenantName,
		TenantEmail: row.TenantEmail,
		MonthlyRate: row.MonthlyRate,
	}
}

func (r *GormRoomDirectory) occupancyQuery(ctx context.Context, propertyID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Table("rooms").
		Select("rooms.id AS room_id, rooms.name AS room_name, room_contracts.id AS contract_id, "+
			"room_contracts.tenant_id, room_contracts.tenant_name, room_contracts.tenant_email, rooms.monthly_rate").
		Joins("JOIN room_contracts ON room_contracts.room_id = rooms.id AND room_contracts.status = ?", models.ContractStatusActive).
		Where("rooms.property_id = ?", propertyID)
}

// ActiveOccupancies returns every occupied room keyed by room ID. When a
// room has overlapping active contracts the most recent one wins.
func (r *GormRoomDirectory) ActiveOccupancies(ctx context.Context, propertyID uuid.UUID) (map[uuid.UUID]property.Occupancy, error) {
	var rows []occupancyRow
	if err := r.occupancyQuery(ctx, propertyID).
		Order("room_contracts.start_date").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]property.Occupancy, len(rows))
	for _, row := range rows {
		result[row.RoomID] = row.toDomain()
	}
	return result, nil
}

// Occupancy returns the active tenancy of one room
func (r *GormRoomDirectory) Occupancy(ctx context.Context, propertyID, roomID uuid.UUID) (*property.Occupancy, error) {
	var rows []occupancyRow
	if err := r.occupancyQuery(ctx, propertyID).
		Where("rooms.id = ?", roomID).
		Order("room_contracts.start_date DESC").
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, property.ErrNoActiveTenant
	}
	occ := rows[0].toDomain()
	return &occ, nil
}

// ActiveServices returns the active recurring services of the room's
// current contract
func (r *GormRoomDirectory) ActiveServices(ctx context.Context, propertyID, roomID uuid.UUID) ([]property.RecurringService, error) {
	var rows []models.ContractServiceModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN room_contracts ON room_contracts.id = contract_services.contract_id").
		Where("room_contracts.property_id = ? AND room_contracts.room_id = ? AND room_contracts.status = ?",
			propertyID, roomID, models.ContractStatusActive).
		Where("contract_services.active = ?", true).
		Order("contract_services.name").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	services := make([]property.RecurringService, 0, len(rows))
	for _, row := range rows {
		services = append(services, property.RecurringService{
			Name:     row.Name,
			Price:    row.Price,
			Quantity: row.Quantity,
		})
	}
	return services, nil
}

// GormUtilityRateReader implements metering.UtilityRateReader over utility_rates
type GormUtilityRateReader struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormUtilityRateReader creates a new GormUtilityRateReader
func NewGormUtilityRateReader(db *gorm.DB) *GormUtilityRateReader {
	return &GormUtilityRateReader{db: db, now: time.Now}
}

// CurrentRates returns the most recently effective tariff. A property with
// no tariff rows bills utilities at zero.
func (r *GormUtilityRateReader) CurrentRates(ctx context.Context, propertyID uuid.UUID) (metering.UtilityRates, error) {
	var row models.UtilityRateModel
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND effective_from <= ?", propertyID, models.Date(r.now())).
		Order("effective_from DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return metering.UtilityRates{Water: decimal.Zero, Electric: decimal.Zero}, nil
	}
	if err != nil {
		return metering.UtilityRates{}, err
	}
	return metering.UtilityRates{Water: row.WaterRate, Electric: row.ElectricRate}, nil
}

var _ property.RoomDirectory = (*GormRoomDirectory)(nil)
var _ metering.UtilityRateReader = (*GormUtilityRateReader)(nil)
