package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lipidlibrarian/internal/metrics"
	"lipidlibrarian/pkg/logger"
)

const (
	CtxRequestIDKey = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// RequestLogger tags every request with an ID (reusing a valid client
// supplied one), logs it on completion and counts it per route.
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		log.Debugw("request",
			logger.FieldRequestID, id,
			logger.FieldPath, c.Request.URL.Path,
			"status", status,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
}

func RequestID(c *gin.Context) string {
	return c.GetString(CtxRequestIDKey)
}
