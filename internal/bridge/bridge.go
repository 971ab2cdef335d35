package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/metrics"
	"cryptocrawler.com/pkg/safe"
	"cryptocrawler.com/pkg/trace"
	"cryptocrawler.com/pkg/xerr"
)

// Call is one engine run bound to its parameters. It produces into out and
// returns when the engine stops; it must not close out.
type Call[T any] func(ctx context.Context, out engine.Sink[T]) error

// Options tune one Run.
type Options struct {
	// Feed labels logs and metrics.
	Feed string
	// Duration bounds the engine run; 0 means unbounded.
	Duration time.Duration
	// InitialCapacity sizes the channel ring.
	InitialCapacity int
	// MaxPending > 0 makes producers block once that many messages wait for
	// delivery. 0 keeps the channel unbounded.
	MaxPending int
}

// Result describes a finished call.
type Result struct {
	Session   string
	Delivered int64
	Discarded int64
	// PeakPending is the deepest the queue got between engine and callback.
	PeakPending int
	Elapsed     time.Duration
}

// Run drives call and delivers everything it produces to cb, in order, from a
// single delivery goroutine. It blocks until the engine stopped and the last
// queued item was delivered.
//
// An engine panic is recovered and returned as xerr.EngineFault; a panicking
// cb ends delivery and returns xerr.CallbackFault. Duration expiry is a
// normal end. Every failure is also written to the diagnostic log.
func Run[T, V any](ctx context.Context, opts Options, call Call[T], b Builder[T, V], cb func(V)) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.InitialCapacity <= 0 {
		opts.InitialCapacity = 1024
	}
	session := uuid.NewString()
	ctx = logger.WithTrace(ctx, session)
	ctx, span := trace.Start(ctx, "bridge."+opts.Feed,
		attribute.String("session", session),
		attribute.Int64("duration_ms", opts.Duration.Milliseconds()),
	)
	start := time.Now()

	active := metrics.CallsActive.WithLabelValues(opts.Feed)
	active.Inc()
	defer active.Dec()

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if opts.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Duration)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	ch := NewChannel[T](opts.InitialCapacity, opts.MaxPending)
	d := &deliverer[T, V]{feed: opts.Feed, ch: ch, build: b, cb: cb}
	done := make(chan deliveryResult, 1)
	go func() {
		done <- d.run(runCtx, func() {
			cancel()
			ch.Close()
		})
	}()

	logger.Info(ctx, "crawl started",
		zap.String("feed", opts.Feed),
		zap.Duration("duration", opts.Duration),
		zap.Int("max_pending", opts.MaxPending),
	)

	engineErr := safe.Call(runCtx, opts.Feed, func(ctx context.Context) error {
		return call(ctx, ch)
	})
	// The producer side is closed on every exit path: exhaustion, expiry,
	// error or contained fault.
	ch.Close()
	dr := <-done

	qs := ch.Stats()
	res := Result{
		Session:     session,
		Delivered:   dr.delivered,
		Discarded:   dr.discarded,
		PeakPending: qs.PeakPending,
		Elapsed:     time.Since(start),
	}
	err := outcome(ctx, engineErr, dr.err)
	span.SetAttributes(
		attribute.Int64("delivered", res.Delivered),
		attribute.Int64("discarded", res.Discarded),
		attribute.Int64("enqueued", qs.Enqueued),
		attribute.Int("peak_pending", qs.PeakPending),
		attribute.Int("queue_resizes", qs.Resizes),
	)
	trace.End(span, err)

	metrics.ObserveCall(opts.Feed, xerr.CodeOf(err), res.Elapsed)
	fields := []zap.Field{
		zap.String("feed", opts.Feed),
		zap.Int64("delivered", res.Delivered),
		zap.Int64("discarded", res.Discarded),
		zap.Int64("enqueued", qs.Enqueued),
		zap.Int("peak_pending", qs.PeakPending),
		zap.Int("queue_resizes", qs.Resizes),
		zap.Duration("elapsed", res.Elapsed),
	}
	if err != nil && !isCancel(err) {
		logger.Error(ctx, "crawl failed", append(fields, zap.Int("code", xerr.CodeOf(err)), zap.Error(err))...)
	} else {
		logger.Info(ctx, "crawl finished", fields...)
	}
	return res, err
}

// outcome picks the error a call reports. A callback fault wins because it
// is what stopped the engine.
func outcome(parent context.Context, engineErr, deliveryErr error) error {
	if deliveryErr != nil {
		return deliveryErr
	}
	if engineErr != nil && !isCancel(engineErr) {
		var ce *xerr.CodeError
		if errors.As(engineErr, &ce) {
			return engineErr
		}
		return xerr.Wrap(xerr.EngineError, engineErr)
	}
	// Deadline of the call's own duration is a normal end; the caller's
	// cancellation is reported.
	if err := parent.Err(); err != nil {
		return err
	}
	return nil
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Handle is a call started with Start.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	res    Result
	err    error
}

var errAborted = xerr.New(xerr.EngineFault, "call aborted")

// Start runs Run on its own goroutine and returns at once. Cancel stops the
// engine; Wait returns what Run returned.
func Start[T, V any](ctx context.Context, opts Options, call Call[T], b Builder[T, V], cb func(V)) *Handle {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{}), err: errAborted}
	safe.GoCtx(ctx, func(ctx context.Context) {
		defer close(h.done)
		defer cancel()
		h.res, h.err = Run(ctx, opts, call, b, cb)
	})
	return h
}

func (h *Handle) Cancel() { h.cancel() }

func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) Wait() (Result, error) {
	<-h.done
	return h.res, h.err
}
