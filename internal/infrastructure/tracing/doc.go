/*
Package tracing traces HTTP requests served by the bridge.

Every request gets a span. A caller may continue an existing trace by sending
X-Trace-ID and X-Span-ID; the bridge echoes the ids it used in the response.
Finished spans are logged through zap by a background collector.

# Usage

	tracer := tracing.New("bridge", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))
*/
package tracing
