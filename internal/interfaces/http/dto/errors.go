package dto

import "net/http"

// Transport-level error codes. Domain codes (NOT_FOUND, DUPLICATE_CYCLE, ...)
// are passed through unchanged.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidJSON  = "INVALID_JSON"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeInFlight     = "REQUEST_IN_FLIGHT"
	ErrCodeKeyReused    = "IDEMPOTENCY_KEY_REUSED"
	ErrCodeRateLimited  = "RATE_LIMITED"
)

// Domain error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeInvalidLineType    = "INVALID_LINE_TYPE"
	ErrCodeDuplicateCycle     = "DUPLICATE_CYCLE"
	ErrCodeAlreadySettled     = "ALREADY_SETTLED"
	ErrCodeIncompleteRoomData = "INCOMPLETE_ROOM_DATA"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidAmount:   http.StatusBadRequest,
	ErrCodeInvalidLineType: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:       http.StatusNotFound,
	ErrCodeConflict:       http.StatusConflict,
	ErrCodeDuplicateCycle: http.StatusConflict,
	ErrCodeAlreadySettled: http.StatusConflict,
	ErrCodeInFlight:       http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeIncompleteRoomData: http.StatusUnprocessableEntity,
	ErrCodeKeyReused:          http.StatusUnprocessableEntity,

	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
