package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}

// PropertyAggregateRoot scopes an aggregate to one property (dormitory).
// The property is the isolation boundary of every billing operation.
type PropertyAggregateRoot struct {
	BaseAggregateRoot
	PropertyID uuid.UUID
}

// NewPropertyAggregateRoot creates a new property-scoped aggregate root
func NewPropertyAggregateRoot(propertyID uuid.UUID) PropertyAggregateRoot {
	return PropertyAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		PropertyID:        propertyID,
	}
}

// BelongsTo reports whether the aggregate is owned by propertyID.
func (p *PropertyAggregateRoot) BelongsTo(propertyID uuid.UUID) bool {
	return p.PropertyID == propertyID
}
