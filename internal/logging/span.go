package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents one user-visible operation (login, upload, import)
// from start to completion.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives an operation span from the provided context,
// enriching the logger with a trace identifier. It returns the derived
// context and the span handle.
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

	logger = logger.With(slog.String("operation", name))
	ctx = WithLogger(ctx, logger)

	span := &Span{
		name:   name,
		logger: logger,
		start:  time.Now(),
	}
	span.logger.Debug("operation started")

	return ctx, span
}

// End finalizes the span and emits a completion log entry. A non-nil
// error marks the operation as failed.
func (s *Span) End(err error) {
	if s == nil {
		return
	}

	elapsed := time.Since(s.start)
	if err != nil {
		s.logger.Warn("operation failed", "duration", elapsed.String(), "error", err)
		return
	}
	s.logger.Info("operation completed", "duration", elapsed.String())
}
