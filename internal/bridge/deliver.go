package bridge

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/metrics"
	"cryptocrawler.com/pkg/safe"
	"cryptocrawler.com/pkg/xerr"
)

type deliveryResult struct {
	delivered int64
	discarded int64
	err       error
}

// deliverer is the single consumer of one call's channel.
type deliverer[T, V any] struct {
	feed  string
	ch    *Channel[T]
	build Builder[T, V]
	cb    func(V)
}

// run drains the channel until it is closed and empty. Callbacks never
// overlap: this goroutine is the only one invoking cb. After a callback
// fault the rest of the queue is discarded and onFault stops the producer.
func (d *deliverer[T, V]) run(ctx context.Context, onFault func()) deliveryResult {
	// C hosts see every callback of a call on the same OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var res deliveryResult
	depth := metrics.QueueDepth.WithLabelValues(d.feed)
	delivered := metrics.DeliveredTotal.WithLabelValues(d.feed)
	defer depth.Set(0)

	for {
		item, ok := d.ch.Receive()
		if !ok {
			return res
		}
		if res.err != nil {
			res.discarded++
			metrics.DiscardedTotal.WithLabelValues(d.feed).Inc()
			continue
		}
		depth.Set(float64(d.ch.Len()))

		if err := d.invoke(ctx, item); err != nil {
			res.err = err
			onFault()
			continue
		}
		res.delivered++
		delivered.Inc()
	}
}

func (d *deliverer[T, V]) invoke(ctx context.Context, item T) (err error) {
	view, release := d.build.Build(item)
	defer release()
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			logger.Error(ctx, "callback panic recovered",
				zap.String("feed", d.feed),
				zap.Any("panic", r),
				zap.String("stack", stack),
			)
			err = xerr.Wrap(xerr.CallbackFault, &safe.PanicError{Value: r, Stack: stack})
		}
	}()

	start := time.Now()
	d.cb(view)
	metrics.CallbackDuration.Observe(time.Since(start).Seconds())
	return nil
}
