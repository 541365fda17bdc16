package middleware

import (
	"net/http"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindEmptyCart:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindAlreadyPaid:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes the JSON error body for err and stops the chain.
// The error is attached to the context so the request logger can report it.
func AbortWithError(c *gin.Context, err error) {
	e := apperr.From(err)
	_ = c.Error(err)

	if e.Kind == apperr.KindUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(StatusFor(e.Kind), gin.H{
		"error": gin.H{
			"kind":    e.Kind.String(),
			"message": e.Message,
		},
	})
}
