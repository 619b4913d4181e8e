package metering

import "github.com/dormbill/backend/internal/domain/shared"

var (
	ErrCycleNotFound    = shared.NewDomainError("NOT_FOUND", "Meter cycle not found")
	ErrEmptyCycleDate   = shared.NewDomainError("INVALID_INPUT", "Cycle date is required")
	ErrMissingRoom      = shared.NewDomainError("INVALID_INPUT", "Every reading must reference a room")
	ErrDuplicateRoom    = shared.NewDomainError("INVALID_INPUT", "A room can only appear once per cycle")
	ErrNegativeReading  = shared.NewDomainError("INVALID_INPUT", "Meter register values cannot be negative")
	ErrNegativeRate     = shared.NewDomainError("INVALID_INPUT", "Utility rates cannot be negative")
	ErrPropertyRequired = shared.NewDomainError("INVALID_INPUT", "Property ID is required")
)
