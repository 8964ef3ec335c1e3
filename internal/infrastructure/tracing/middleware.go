package tracing

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware traces each request and echoes the trace headers back.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := c.GetHeader(TraceHeader); traceID != "" {
			ctx = context.WithValue(ctx, traceIDKey, traceID)
		}
		if parentID := c.GetHeader(SpanHeader); parentID != "" {
			ctx = context.WithValue(ctx, spanIDKey, parentID)
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.host", c.Request.Host)
		c.Request = c.Request.WithContext(ctx)

		c.Header(TraceHeader, span.TraceID)
		c.Header(SpanHeader, span.SpanID)

		c.Next()

		span.Finish()
		span.StatusCode = c.Writer.Status()
		if len(c.Errors) > 0 {
			span.Err = errors.New(c.Errors.String())
		}
		tracer.Submit(span)
	}
}
