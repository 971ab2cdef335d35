package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"cryptocrawler.com/internal/market"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/metrics"
	"cryptocrawler.com/pkg/xerr"
)

// errSinkClosed aborts a stream once the bridge stops consuming.
var errSinkClosed = errors.New("sink closed")

type RelayOptions struct {
	BaseBackoff time.Duration `mapstructure:"base_backoff"` // e.g. 300ms
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`  // e.g. 5s
	// MaxFailures consecutive transport failures open the breaker; the call
	// in flight then ends with xerr.EngineError.
	MaxFailures uint32 `mapstructure:"max_failures"`
	// BreakerTimeout is how long the breaker stays open before one call is
	// let through to test the transport.
	BreakerTimeout time.Duration `mapstructure:"breaker_timeout"`
}

func (o *RelayOptions) withDefaults() {
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = 300 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Second
	}
	if o.MaxFailures == 0 {
		o.MaxFailures = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
}

// Relay is an Engine over a Transport. It owns filtering, snapshot polling
// and reconnects; the transport only moves bytes.
//
// All calls share one breaker. It judges connection attempts, not streams:
// an attempt counts as healthy once the transport reports Connected or
// delivers its first envelope.
type Relay struct {
	transport Transport
	opts      RelayOptions
	breaker   *gobreaker.TwoStepCircuitBreaker[struct{}]
	now       func() time.Time
}

func NewRelay(t Transport, opts RelayOptions) *Relay {
	opts.withDefaults()
	name := t.Name()
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn(context.Background(), "transport breaker state changed",
				zap.String("transport", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Relay{
		transport: t,
		opts:      opts,
		breaker:   gobreaker.NewTwoStepCircuitBreaker[struct{}](st),
		now:       time.Now,
	}
}

func (r *Relay) Crawl(ctx context.Context, req Request, out Sink[market.Message]) error {
	f := newCrawlFilter(req)
	var th *throttle
	if req.Feed.Snapshot() {
		th = newThrottle(req.Interval, r.now)
	}

	emit := func(b []byte) error {
		env, ok := r.accept(ctx, b, f)
		if !ok {
			return nil
		}
		if th != nil && !th.allow(env.Symbol) {
			r.count("throttled")
			return nil
		}
		msg := env.Message(uint64(r.now().UnixMilli()))
		if err := msg.Validate(); err != nil {
			r.reject(ctx, err)
			return nil
		}
		if !out.Send(msg) {
			return errSinkClosed
		}
		r.count("emitted")
		return nil
	}

	logger.Debug(ctx, "relay crawl",
		zap.String("transport", r.transport.Name()),
		zap.Stringer("feed", req.Feed),
		zap.String("exchange", req.Exchange),
		zap.Stringer("market_type", req.MarketType),
		zap.Int("symbols", len(req.Symbols)+len(req.Pairs)),
	)
	return r.run(ctx, f.topics(), emit)
}

func (r *Relay) Subscribe(ctx context.Context, req SubscribeRequest, out Sink[string]) error {
	f := newSubscribeFilter(req)

	emit := func(b []byte) error {
		env, ok := r.accept(ctx, b, f)
		if !ok {
			return nil
		}
		if err := market.CheckText(env.JSON); err != nil {
			r.reject(ctx, err)
			return nil
		}
		if !out.Send(env.JSON) {
			return errSinkClosed
		}
		r.count("emitted")
		return nil
	}
	return r.run(ctx, f.topics(), emit)
}

func (r *Relay) accept(ctx context.Context, b []byte, f *filter) (Envelope, bool) {
	env, err := DecodeEnvelope(b)
	if err != nil {
		r.reject(ctx, err)
		return env, false
	}
	if !f.match(&env) {
		r.count("filtered")
		return env, false
	}
	return env, true
}

func (r *Relay) reject(ctx context.Context, err error) {
	r.count("invalid")
	logger.Debug(ctx, "envelope rejected", zap.String("transport", r.transport.Name()), zap.Error(err))
}

func (r *Relay) count(outcome string) {
	metrics.EnvelopesTotal.WithLabelValues(r.transport.Name(), outcome).Inc()
}

// run streams until exhaustion or ctx end, reconnecting with exponential
// backoff and jitter in between.
func (r *Relay) run(ctx context.Context, topics []string, emit func([]byte) error) error {
	backoff := r.opts.BaseBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		err := r.attempt(ctx, topics, emit)
		switch {
		case err == nil, errors.Is(err, errSinkClosed):
			return nil
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState):
			return xerr.Wrap(xerr.EngineError, err)
		case errors.Is(err, gobreaker.ErrTooManyRequests):
			// Another call holds the half-open trial; wait for its verdict.
			logger.Debug(ctx, "transport trial in flight, waiting",
				zap.String("transport", r.transport.Name()),
				zap.Duration("backoff", backoff),
			)
		default:
			metrics.ReconnectsTotal.WithLabelValues(r.transport.Name()).Inc()
			logger.Warn(ctx, "transport failed, reconnecting",
				zap.String("transport", r.transport.Name()),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
		}

		if !sleep(ctx, backoff, r.opts.MaxBackoff) {
			return nil
		}
		backoff *= 2
		if backoff > r.opts.MaxBackoff {
			backoff = r.opts.MaxBackoff
		}
	}
}

// attempt runs one Stream under the breaker. The verdict is reported as soon
// as the connection proves healthy, so a long stream never pins the breaker
// in half-open.
func (r *Relay) attempt(ctx context.Context, topics []string, emit func([]byte) error) error {
	done, err := r.breaker.Allow()
	if err != nil {
		return err
	}
	var once sync.Once
	report := func(ok bool) { once.Do(func() { done(ok) }) }

	sctx := withConnected(ctx, func() { report(true) })
	err = r.transport.Stream(sctx, topics, func(b []byte) error {
		report(true)
		return emit(b)
	})
	report(healthy(err))
	return err
}

func healthy(err error) bool {
	return err == nil ||
		errors.Is(err, errSinkClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// sleep waits base plus up to 50% jitter, capped at ceil. It reports false
// when ctx ends first.
func sleep(ctx context.Context, base, ceil time.Duration) bool {
	d := base + time.Duration(rand.Int63n(int64(base/2+1)))
	if d > ceil {
		d = ceil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ Engine = (*Relay)(nil)
