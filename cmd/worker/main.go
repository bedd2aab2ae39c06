package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-console/internal/apiclient"
	"github.com/jwalitptl/clinic-console/internal/config"
	"github.com/jwalitptl/clinic-console/internal/worker"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
)

func setupHealthCheck(addr string, reg *prometheus.Registry, l zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	healthAddr := flag.String("health-addr", ":8081", "address for health and metrics endpoints")
	flag.Parse()

	// Load config
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if !cfg.Redis.Enabled {
		log.Fatal().Msg("redis.enabled must be true to run the activity worker")
	}

	// Initialize logger
	l := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	reg := prometheus.NewRegistry()
	m := metrics.New(cfg.Monitoring.Namespace+"_worker", reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(ctx, cfg.ToBrokerConfig(), l)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to create Redis broker")
	}
	defer broker.Close()

	forwarder := worker.NewActivityForwarder(
		broker,
		apiclient.NewNotifier(cfg.ToNotifierConfig(), m, l),
		worker.ActivityForwarderConfig{
			Channel:       cfg.Redis.Channel,
			Recipient:     cfg.Notification.Recipient,
			RetryAttempts: cfg.Notification.RetryAttempts,
			RetryDelay:    cfg.Notification.RetryDelay,
		},
		l,
		m,
	)

	// Setup health check endpoints
	healthSrv := setupHealthCheck(*healthAddr, reg, l)
	defer healthSrv.Close()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		l.Info().Msg("Shutting down...")
		cancel()
	}()

	if err := forwarder.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Error().Err(err).Msg("Activity forwarder failed")
	}
}
