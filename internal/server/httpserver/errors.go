package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
)

// writeError maps service errors onto HTTP responses. Unexpected errors are
// logged and answered with a generic 500.
func writeError(c *gin.Context, log logging.Logger, err error) {
	var (
		ve     *common.ValidationError
		locked *common.LockedError
		tooBig *http.MaxBytesError
	)

	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": ve.Error(), "field": ve.Field})
	case errors.As(err, &locked):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message":   locked.Error(),
			"open_date": locked.OpenDate.UTC().Format(time.RFC3339),
		})
	case errors.As(err, &tooBig):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"message": "Request body too large"})
	case errors.Is(err, common.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Capsule not found"})
	case errors.Is(err, common.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
	case errors.Is(err, common.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	default:
		log.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}
