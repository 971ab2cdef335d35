package xredis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// New builds a client sized for a handful of long-lived pub/sub
// connections. ReadTimeout is left to the subscriber: pub/sub reads block
// until a message arrives.
func New(c Config) *redis.Client {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:6379"
	}
	return redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     16,
		MinIdleConns: 1,
	})
}

// Ping checks the server answers within timeout.
func Ping(ctx context.Context, rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", rdb.Options().Addr, err)
	}
	return nil
}
