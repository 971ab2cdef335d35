package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cryptocrawler.com/pkg/logger"
)

type AdminConfig struct {
	Addr  string `mapstructure:"addr"`
	Pprof bool   `mapstructure:"pprof"`
}

// AdminHandler serves /metrics and, with withPprof, /debug/pprof/*.
func AdminHandler(withPprof bool) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if withPprof {
		runtime.SetMutexProfileFraction(10)
		runtime.SetBlockProfileRate(10000)
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

// ServeAdmin runs the admin server until ctx ends, then shuts it down.
// An empty Addr disables it and returns when ctx ends.
func ServeAdmin(ctx context.Context, c AdminConfig) error {
	if c.Addr == "" {
		<-ctx.Done()
		return nil
	}
	ln, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           AdminHandler(c.Pprof),
		ReadHeaderTimeout: 3 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "admin listening", zap.String("addr", ln.Addr().String()), zap.Bool("pprof", c.Pprof))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "admin shutdown", zap.Error(err))
		return err
	}
	return nil
}
