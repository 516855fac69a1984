package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/Zereker/ymsg"
)

// codec returns the packet codec selected by the config.
func codec() *ymsg.Codec {
	if cfg.LegacyEncoding {
		return ymsg.NewCodec(ymsg.TextEncodingOption(ymsg.Latin1))
	}
	return ymsg.NewCodec()
}

// connect dials the configured pager and logs on. The returned stop function
// closes the connection and the metrics endpoint.
func connect(ctx context.Context, onPacket func(*ymsg.Packet) error) (*ymsg.Conn, func(), error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, nil, fmt.Errorf("login credentials: %w", err)
	}

	opts := []ymsg.Option{
		ymsg.CustomCodecOption(codec()),
		ymsg.LoggerOption(logger),
		ymsg.OnPacketOption(onPacket),
		ymsg.ConnectTimeoutOption(cfg.ConnectTimeout),
		ymsg.SendTimeoutOption(cfg.SendTimeout),
		ymsg.ReadTimeoutOption(cfg.ReadTimeout),
	}
	if cfg.SendRate > 0 {
		opts = append(opts, ymsg.SendRateOption(rate.Limit(cfg.SendRate), 1))
	}

	stopMetrics := func() {}
	if cfg.MetricsAddr != "" {
		m, stop, err := startMetrics(cfg.MetricsAddr)
		if err != nil {
			return nil, nil, err
		}
		stopMetrics = stop
		opts = append(opts, ymsg.OnNotifyOption(m.Observe))
	}

	conn, err := ymsg.NewConn(opts...)
	if err != nil {
		stopMetrics()
		return nil, nil, err
	}
	stop := func() {
		_ = conn.Close()
		stopMetrics()
	}

	if err := conn.Connect(ctx, cfg.Host, cfg.Port); err != nil {
		stop()
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.Addr(), err)
	}
	if err := conn.Logon(ctx, creds); err != nil {
		stop()
		return nil, nil, fmt.Errorf("logon: %w", err)
	}
	return conn, stop, nil
}

// startMetrics serves prometheus metrics for the connection on addr.
func startMetrics(addr string) (*ymsg.Metrics, func(), error) {
	reg := prometheus.NewRegistry()
	m, err := ymsg.NewMetrics(reg, "ymsg")
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return m, func() { _ = srv.Close() }, nil
}
