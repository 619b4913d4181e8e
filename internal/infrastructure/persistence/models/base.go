package models

import (
	"time"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// PropertyAggregateRoot rebuilds the domain root for a property-scoped model.
// Property-scoped models declare PropertyID themselves so each table can
// put it first in its composite unique index.
func (m *AggregateModel) PropertyAggregateRoot(propertyID uuid.UUID) shared.PropertyAggregateRoot {
	return shared.PropertyAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		PropertyID: propertyID,
	}
}

// Date converts a domain date to its column value.
func Date(t time.Time) datatypes.Date {
	return datatypes.Date(shared.DateOnly(t))
}

// DatePtr converts an optional domain date.
func DatePtr(t *time.Time) *datatypes.Date {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}

// TimeOf converts a date column back to a UTC midnight time.
func TimeOf(d datatypes.Date) time.Time {
	return shared.DateOnly(time.Time(d))
}

// TimePtrOf converts an optional date column.
func TimePtrOf(d *datatypes.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := TimeOf(*d)
	return &t
}
