package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span marks a logical unit of work inside a request, such as a toggle or a
// token rotation. Ending the span logs its name and duration.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The returned context carries a
// logger enriched with trace and span identifiers; nested spans record their
// parent.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = WithTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	spanID := uuid.NewString()
	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parent := SpanIDFromContext(ctx); parent != "" {
		logger = logger.With(slog.String("parent_span_id", parent))
	}

	ctx = WithLogger(WithSpanID(ctx, spanID), logger)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End emits the span's completion record. A nil span is a no-op so callers
// can defer End unconditionally.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed",
		slog.String("span_name", s.name),
		slog.Duration("duration", time.Since(s.start)),
	)
}
