// Package publish is the upstream side of the relay transports: it puts
// envelopes on the bus the crawler reads from. crawlerfeed uses it to
// replay captures into NATS or Redis.
package publish

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cryptocrawler.com/internal/engine"
	"cryptocrawler.com/pkg/logger"
	"cryptocrawler.com/pkg/metrics"
)

type Broker interface {
	Name() string
	// Publish sends payload on topic ("exchange:market:msg").
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

type Stats struct {
	Published int64
	Skipped   int64
}

// Pump reads envelopes from src and publishes each one under its own topic
// until src is exhausted or ctx ends. Undecodable lines are skipped. Pacing
// belongs to src.
func Pump(ctx context.Context, src engine.Transport, dst Broker) (Stats, error) {
	var st Stats
	start := time.Now()

	err := src.Stream(ctx, nil, func(b []byte) error {
		env, err := engine.DecodeEnvelope(b)
		if err != nil {
			st.Skipped++
			metrics.EnvelopesTotal.WithLabelValues(dst.Name(), "invalid").Inc()
			return nil
		}
		topic := engine.Topic(env.Exchange, env.MarketType, env.MsgType)
		if err := dst.Publish(ctx, topic, b); err != nil {
			return err
		}
		st.Published++
		metrics.EnvelopesTotal.WithLabelValues(dst.Name(), "published").Inc()
		return nil
	})

	logger.Info(ctx, "pump finished",
		zap.String("source", src.Name()),
		zap.String("broker", dst.Name()),
		zap.Int64("published", st.Published),
		zap.Int64("skipped", st.Skipped),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	return st, err
}
