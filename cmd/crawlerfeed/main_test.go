package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptocrawler.com/internal/app"
	"cryptocrawler.com/internal/engine/natsfeed"
	"cryptocrawler.com/internal/engine/redisfeed"
	"cryptocrawler.com/internal/enginetest"
	"cryptocrawler.com/pkg/xerr"
	"cryptocrawler.com/pkg/xredis"
)

func TestNewBroker(t *testing.T) {
	ctx := context.Background()
	rs := enginetest.NewRedisServer(t)
	ns := enginetest.NewNATSServer(t)

	b, err := newBroker(ctx, "redis", app.EngineConfig{Redis: redisfeed.Config{Config: xredis.Config{Addr: rs.Addr()}}})
	require.NoError(t, err)
	assert.Equal(t, "redis", b.Name())
	assert.NoError(t, b.Close())

	b, err = newBroker(ctx, "nats", app.EngineConfig{NATS: natsfeed.Config{URL: ns.URL()}})
	require.NoError(t, err)
	assert.Equal(t, "nats", b.Name())
	assert.NoError(t, b.Close())

	_, err = newBroker(ctx, "ws", app.EngineConfig{})
	assert.Equal(t, xerr.UnknownEngine, xerr.CodeOf(err))
}

func TestNewBroker_RedisUnreachable(t *testing.T) {
	_, err := newBroker(context.Background(), "redis", app.EngineConfig{Redis: redisfeed.Config{Config: xredis.Config{Addr: "127.0.0.1:1"}}})
	assert.ErrorContains(t, err, "127.0.0.1:1")
}
