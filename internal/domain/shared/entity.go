package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for all domain entities
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// GetCreatedAt returns the creation timestamp
func (e *BaseEntity) GetCreatedAt() time.Time {
	return e.CreatedAt
}

// GetUpdatedAt returns the last update timestamp
func (e *BaseEntity) GetUpdatedAt() time.Time {
	return e.UpdatedAt
}

// Touch bumps UpdatedAt.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateOnly truncates t to midnight UTC of its calendar date. Every
// date-granular attribute (cycle date, bill month, due date) is normalized
// through it before comparison or persistence.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of t's month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Layouts of date-granular API values
const (
	DateLayout      = "2006-01-02"
	YearMonthLayout = "2006-01"
)

// ParseDate parses a YYYY-MM-DD value into a UTC date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, NewDomainError("INVALID_INPUT", "Date must be formatted as YYYY-MM-DD")
	}
	return DateOnly(t), nil
}

// ParseYearMonth parses a YYYY-MM value, or a full date, into the first day
// of that month.
func ParseYearMonth(s string) (time.Time, error) {
	if t, err := time.Parse(YearMonthLayout, s); err == nil {
		return MonthStart(t), nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return MonthStart(t), nil
	}
	return time.Time{}, NewDomainError("INVALID_INPUT", "Bill month must be formatted as YYYY-MM")
}
