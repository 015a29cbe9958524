// Package handler contains the HTTP handlers for the API server.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/api/internal/model"
	"rollcall/api/internal/policy"
	"rollcall/api/internal/service"
)

// currentUser returns the authenticated user loaded by the auth middleware.
func currentUser(c *gin.Context) *model.User {
	if val, exists := c.Get("currentUser"); exists {
		if user, ok := val.(*model.User); ok {
			return user
		}
	}
	return nil
}

// respondServiceError translates service sentinel errors to HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, policy.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, service.ErrNotClone):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "not_cloned"})
	case errors.Is(err, service.ErrNotAssigned):
		c.JSON(http.StatusNotFound, gin.H{"error": "voter has no assignment"})
	case errors.Is(err, service.ErrNotWorker):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "user is not a worker"})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid status"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// paginated is the standard list response envelope.
func paginated(data interface{}, total int64, page, perPage int) gin.H {
	return gin.H{
		"data":     data,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	}
}
