package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/geotrack/module/core/domain"
)

// respondError maps a service error to its HTTP status. The error is also
// attached to the context for the access log.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  ve.Reason,
			"field":  ve.Field,
			"policy": domain.ValidationPolicyVersion,
		})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "policy": domain.ValidationPolicyVersion})
	case errors.Is(err, domain.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"error": "place already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
