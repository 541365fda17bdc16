package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/01moynul/fvcommerce-golang/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// RequestID reuses the caller's X-Request-ID or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	if v := c.GetString(requestIDKey); v != "" {
		return v
	}
	return "unknown"
}

// Logger records one line per request. 5xx responses log at error level
// together with the underlying cause, 4xx at warn and the rest at info.
func Logger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		}

		username := "anonymous"
		if user, ok := CurrentUser(c); ok {
			username = user.Username
		}

		event = event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user", username)

		if err := c.Errors.Last(); err != nil {
			if status >= 500 {
				event = event.Err(err.Err)
			} else {
				event = event.Str("error_kind", apperr.KindOf(err.Err).String())
			}
		}
		event.Msg("request completed")
	}
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				logger.Error().
					Str("request_id", GetRequestID(c)).
					Err(err).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				AbortWithError(c, apperr.Internal(errors.Join(errors.New("panic"), err)))
			}
		}()
		c.Next()
	}
}
