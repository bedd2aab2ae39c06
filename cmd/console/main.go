package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-console/internal/apiclient"
	"github.com/jwalitptl/clinic-console/internal/config"
	consoleHandler "github.com/jwalitptl/clinic-console/internal/handler/console"
	"github.com/jwalitptl/clinic-console/internal/handler/health"
	promHandler "github.com/jwalitptl/clinic-console/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/internal/registry"
	"github.com/jwalitptl/clinic-console/internal/router"
	consoleService "github.com/jwalitptl/clinic-console/internal/service/console"
	"github.com/jwalitptl/clinic-console/internal/store"
	"github.com/jwalitptl/clinic-console/internal/view"
	"github.com/jwalitptl/clinic-console/pkg/logger"
	"github.com/jwalitptl/clinic-console/pkg/messaging"
	"github.com/jwalitptl/clinic-console/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-console/pkg/metrics"
	"github.com/jwalitptl/clinic-console/pkg/validator"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize logger
	l := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Monitoring.Namespace, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Activity feed is optional; without Redis mutations are simply not announced.
	var publisher messaging.Publisher = messaging.Nop{}
	channel := ""
	if cfg.Redis.Enabled {
		broker, err := redis.NewRedisBroker(ctx, cfg.ToBrokerConfig(), l)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
		publisher = broker
		channel = cfg.Redis.Channel
	}

	// Initialize services
	client := apiclient.New(cfg.ToClientConfig(), m, l)
	resources := registry.Default()
	svc := consoleService.NewService(
		client,
		store.New(m),
		resources,
		publisher,
		consoleService.Config{ActivityChannel: channel},
		m,
		l,
	)

	// Initialize handlers
	validator.Register()
	gin.SetMode(gin.ReleaseMode)

	r := router.NewRouter(
		consoleHandler.NewHandler(svc, resources),
		health.NewHandler(client),
		promHandler.New(reg, m),
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			MetricsPath:      cfg.Monitoring.MetricsPath,
			Templates:        view.MustTemplates(),
			Security:         middleware.DefaultSecurityConfig(),
			CORSConfig:       middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		l.Info().Int("port", cfg.Server.Port).Str("api", cfg.API.BaseURL).Msg("console listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info().Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}
	l.Info().Msg("server exited")
}
