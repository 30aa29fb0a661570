package log

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries the request id in and out of the API.
const RequestIDHeader = "X-Request-ID"

const ginLoggerKey = "logger"

// GinMiddleware assigns a request id, stores a request-scoped logger in the
// request context and logs each completed request at a level matching its
// status.
func GinMiddleware(logger *Logger) gin.HandlerFunc {
	httpLogger := logger.WithComponent(ComponentHTTP)

	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		c.Header(RequestIDHeader, requestID)

		reqLogger := httpLogger.With(FieldRequestID, requestID)
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(IntoContext(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		fields := NewFields().
			WithHTTPRequest(c.Request.Method, c.FullPath(), c.Request.URL.RawQuery, c.ClientIP()).
			WithHTTPResponse(status, time.Since(start).Milliseconds())
		if len(c.Errors) > 0 {
			fields[FieldError] = c.Errors.String()
		}
		reqLogger.Log(c.Request.Context(), level, "HTTP request completed", fields.ToSlice()...)
	}
}

// FromGin returns the request logger set by GinMiddleware.
func FromGin(c *gin.Context) *Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if logger, ok := v.(*Logger); ok {
			return logger
		}
	}
	return FromContext(c.Request.Context())
}

// GenerateRequestID returns a random request id.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}
