package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parcelworks/parcelworks-backend/internal/platform/ctxutil"
)

// AttachRequestContext seeds per-request trace data. The request id is taken
// from the gateway header when present, otherwise generated.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.New().String()
		}
		td := &ctxutil.TraceData{
			TraceID:   strings.TrimSpace(c.GetHeader("X-Trace-ID")),
			RequestID: requestID,
		}
		ctx := ctxutil.WithTraceData(c.Request.Context(), td)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}
