package middleware

import (
	"github.com/dormbill/backend/internal/infrastructure/logger"
	"github.com/dormbill/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Property scope keys
const (
	PropertyIDParam = "property_id"
	PropertyIDKey   = "property_id"
)

// PropertyScope validates the :property_id path parameter and stores it on
// the gin and request contexts. With requireClaims set, the verified token
// must list the property.
func PropertyScope(requireClaims bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyID, err := uuid.Parse(c.Param(PropertyIDParam))
		if err != nil {
			abortWithError(c, dto.ErrCodeInvalidInput, "property_id must be a UUID")
			return
		}

		if requireClaims {
			claims := GetJWTClaims(c)
			if claims == nil {
				abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
				return
			}
			if !claims.CanManage(propertyID) {
				abortWithError(c, dto.ErrCodeForbidden, "Not authorized for this property")
				return
			}
		}

		c.Set(PropertyIDKey, propertyID)
		c.Request = c.Request.WithContext(logger.WithPropertyID(c.Request.Context(), propertyID.String()))
		c.Next()
	}
}

// GetPropertyID returns the property id stored by PropertyScope
func GetPropertyID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(PropertyIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
