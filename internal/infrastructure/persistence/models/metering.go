package models

import (
	"github.com/dormbill/backend/internal/domain/metering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MeterCycleModel is the persistence model for the MeterCycle aggregate root.
type MeterCycleModel struct {
	AggregateModel
	PropertyID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_meter_cycles_property_date,priority:1"`
	CycleDate  datatypes.Date      `gorm:"not null;uniqueIndex:idx_meter_cycles_property_date,priority:2"`
	Readings   []MeterReadingModel `gorm:"foreignKey:CycleID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (MeterCycleModel) TableName() string {
	return "meter_cycles"
}

// ToDomain converts the persistence model to a domain MeterCycle.
func (m *MeterCycleModel) ToDomain() *metering.MeterCycle {
	cycle := &metering.MeterCycle{
		PropertyAggregateRoot: m.PropertyAggregateRoot(m.PropertyID),
		CycleDate:             TimeOf(m.CycleDate),
		Readings:              make([]metering.MeterReading, 0, len(m.Readings)),
	}
	for i := range m.Readings {
		cycle.Readings = append(cycle.Readings, m.Readings[i].ToDomain())
	}
	return cycle
}

// FromDomain populates the persistence model from a domain MeterCycle.
func (m *MeterCycleModel) FromDomain(c *metering.MeterCycle) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.PropertyID = c.PropertyID
	m.CycleDate = Date(c.CycleDate)
	m.Readings = make([]MeterReadingModel, 0, len(c.Readings))
	for i := range c.Readings {
		m.Readings = append(m.Readings, *MeterReadingModelFromDomain(c.ID, c.Readings[i]))
	}
}

// MeterCycleModelFromDomain creates a new persistence model from a domain MeterCycle.
func MeterCycleModelFromDomain(c *metering.MeterCycle) *MeterCycleModel {
	m := &MeterCycleModel{}
	m.FromDomain(c)
	return m
}

// MeterReadingModel is the persistence model for one room's reading.
type MeterReadingModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	CycleID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_meter_readings_cycle_room,priority:1"`
	RoomID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_meter_readings_cycle_room,priority:2;index"`
	WaterPrevious    *int64          `gorm:"type:bigint"`
	WaterCurrent     *int64          `gorm:"type:bigint"`
	ElectricPrevious *int64          `gorm:"type:bigint"`
	ElectricCurrent  *int64          `gorm:"type:bigint"`
	WaterUnits       *int64          `gorm:"type:bigint"`
	ElectricUnits    *int64          `gorm:"type:bigint"`
	WaterRate        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ElectricRate     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (MeterReadingModel) TableName() string {
	return "meter_readings"
}

// ToDomain converts the persistence model to a domain MeterReading.
func (m *MeterReadingModel) ToDomain() metering.MeterReading {
	return metering.MeterReading{
		ID:               m.ID,
		CycleID:          m.CycleID,
		RoomID:           m.RoomID,
		WaterPrevious:    m.WaterPrevious,
		WaterCurrent:     m.WaterCurrent,
		ElectricPrevious: m.ElectricPrevious,
		ElectricCurrent:  m.ElectricCurrent,
		WaterUnits:       m.WaterUnits,
		ElectricUnits:    m.ElectricUnits,
		WaterRate:        m.WaterRate,
		ElectricRate:     m.ElectricRate,
	}
}

// MeterReadingModelFromDomain creates a reading row owned by cycleID.
func MeterReadingModelFromDomain(cycleID uuid.UUID, r metering.MeterReading) *MeterReadingModel {
	return &MeterReadingModel{
		ID:               r.ID,
		CycleID:          cycleID,
		RoomID:           r.RoomID,
		WaterPrevious:    r.WaterPrevious,
		WaterCurrent:     r.WaterCurrent,
		ElectricPrevious: r.ElectricPrevious,
		ElectricCurrent:  r.ElectricCurrent,
		WaterUnits:       r.WaterUnits,
		ElectricUnits:    r.ElectricUnits,
		WaterRate:        r.WaterRate,
		ElectricRate:     r.ElectricRate,
	}
}
