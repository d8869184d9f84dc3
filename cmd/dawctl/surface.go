package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chabad360/dawctl/internal/remote"
	"github.com/chabad360/dawctl/osc"
)

// feedback selects what withSurface does with messages from the DAW.
type feedback int

const (
	// sendOnly binds no receive port; Request fails.
	sendOnly feedback = iota
	quiet
	echo
)

// withSurface opens the OSC surface, serves it and the metrics endpoint, and
// runs fn. Everything stops when fn returns.
func (a *app) withSurface(ctx context.Context, fb feedback, fn func(context.Context, *remote.Surface) error) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := remote.Options{
		SendAddr:     a.cfg.OSC.SendAddr(),
		ReplyTimeout: a.cfg.OSC.ReplyTimeout,
		SendRate:     a.cfg.OSC.SendRate,
		SendBurst:    a.cfg.OSC.SendBurst,
		Tagged:       a.cfg.OSC.Tagged,
		Logger:       a.log.Named("osc"),
		Registerer:   reg,
	}
	if fb != sendOnly {
		opts.ListenAddr = a.cfg.OSC.ListenAddr()
	}
	if fb == echo {
		opts.OnMessage = func(msg *osc.Message, _ net.Addr) {
			a.rep.Received(msg.Address, msg.Arguments)
		}
	}

	s, err := remote.Open(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error { return s.Serve(runCtx) })
	if addr := a.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error { return serveMetrics(runCtx, addr, reg, a.log) })
	}
	g.Go(func() error {
		defer cancel()
		return fn(runCtx, s)
	})
	return g.Wait()
}

// serveMetrics serves /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("serving metrics", zap.String("addr", addr))

	select {
	case err := <-errc:
		return fmt.Errorf("metrics: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
