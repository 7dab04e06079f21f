/*
Package tracing provides lightweight request tracing for the relay.

Spans are kept in process and written to the structured log when they
finish; there is no external collector. A trace starts at the HTTP edge
(or continues one the caller propagated) and follows the request through
the session join and any orchestration query it triggers.

# Usage

	tracer := tracing.New("termrelay", logger.Logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "terminal.join")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Propagation

	X-Trace-ID: identifier for the whole request flow
	X-Span-ID:  identifier for the current operation

Inbound headers are read by Extract; outbound requests carry the current
context via Inject.
*/
package tracing
