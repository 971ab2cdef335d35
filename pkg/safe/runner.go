package safe

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/metrics"
	"cryptocrawler.com/pkg/xerr"
)

// PanicError is the cause attached to xerr.EngineFault when fn panicked.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Call runs fn on the current goroutine and turns a panic into an
// xerr.EngineFault carrying a *PanicError. The panic and its stack go to the
// diagnostic log. name labels the log line and the fault counter.
func Call(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			logger.Error(ctx, "engine panic recovered",
				zap.String("call", name),
				zap.Any("panic", r),
				zap.String("stack", stack),
			)
			metrics.EngineFaultsTotal.WithLabelValues(name).Inc()
			err = xerr.Wrap(xerr.EngineFault, &PanicError{Value: r, Stack: stack})
		}
	}()
	return fn(ctx)
}

// GoCtx starts fn on a new goroutine; a panic is logged with the session id
// carried by ctx and swallowed.
func GoCtx(ctx context.Context, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "goroutine panic recovered",
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
			}
		}()

		fn(ctx)
	}()
}
