// Package handler holds the gin handlers of the billing API. Handlers bind
// and validate requests, call one application service and render the
// standard response envelope.
package handler

import (
	"errors"
	"net/http"

	"github.com/dormbill/backend/internal/domain/shared"
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/interfaces/http/dto"
	"github.com/dormbill/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithCode sends an error response, deriving the status from the code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 INVALID_INPUT response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.ErrorWithCode(c, dto.ErrCodeInvalidInput, message)
}

// HandleError renders err. Domain errors keep their code; anything else is
// logged and reported as INTERNAL_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Request failed",
		zap.Error(err),
		zap.String("route", c.FullPath()),
	)
	h.ErrorWithCode(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds the request body into obj. Validation failures list the
// rejected fields; undecodable bodies are INVALID_JSON.
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.handleBindError(c, err, dto.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return false
	}
	return true
}

// bindQuery binds query parameters into obj
func (h *BaseHandler) bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.handleBindError(c, err, dto.ErrCodeBadRequest, "Invalid query parameters")
		return false
	}
	return true
}

func (h *BaseHandler) handleBindError(c *gin.Context, err error, code, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		middleware.HandleValidationError(c, err)
		return
	}
	h.ErrorWithCode(c, code, message)
}

// propertyID returns the property resolved by middleware.PropertyScope
func (h *BaseHandler) propertyID(c *gin.Context) (uuid.UUID, bool) {
	if id, ok := middleware.GetPropertyID(c); ok {
		return id, true
	}
	id, err := uuid.Parse(c.Param(middleware.PropertyIDParam))
	if err != nil {
		h.BadRequest(c, "property_id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// uuidParam parses the named path parameter
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
