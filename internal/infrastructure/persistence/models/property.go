package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Contract statuses used by the property service.
const (
	ContractStatusActive     = "active"
	ContractStatusTerminated = "terminated"
)

// RoomModel is a room of a property. Billing only reads it.
type RoomModel struct {
	BaseModel
	PropertyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"type:varchar(100);not null"`
	MonthlyRate decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (RoomModel) TableName() string {
	return "rooms"
}

// RoomContractModel is a tenancy of one room. A room has at most one
// active contract at a time.
type RoomContractModel struct {
	BaseModel
	PropertyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	RoomID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null"`
	TenantName  string          `gorm:"type:varchar(200);not null"`
	TenantEmail string          `gorm:"type:varchar(255)"`
	Status      string          `gorm:"type:varchar(20);not null;index"`
	StartDate   datatypes.Date  `gorm:"not null"`
	EndDate     *datatypes.Date `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (RoomContractModel) TableName() string {
	return "room_contracts"
}

// ContractServiceModel is a recurring service attached to a contract.
type ContractServiceModel struct {
	BaseModel
	ContractID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name       string          `gorm:"type:varchar(100);not null"`
	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	Active     bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ContractServiceModel) TableName() string {
	return "contract_services"
}

// UtilityRateModel is one tariff row. The row with the latest EffectiveFrom
// not after today is current.
type UtilityRateModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_utility_rates_property_effective,priority:1"`
	WaterRate     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ElectricRate  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	EffectiveFrom datatypes.Date  `gorm:"not null;index:idx_utility_rates_property_effective,priority:2"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UtilityRateModel) TableName() string {
	return "utility_rates"
}
