// Command chatops runs the chat backend's health surface: the /health HTTP
// routes, the grpc.health.v1 service and the background health monitor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/jonwraymond/chatops/auth"
	"github.com/jonwraymond/chatops/cache"
	"github.com/jonwraymond/chatops/config"
	"github.com/jonwraymond/chatops/datastore"
	"github.com/jonwraymond/chatops/events"
	"github.com/jonwraymond/chatops/health"
	"github.com/jonwraymond/chatops/observe"
	"github.com/jonwraymond/chatops/resilience"
	"github.com/jonwraymond/chatops/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "chatops: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(ctx, config.Options{ConfigFile: configFile})
	if err != nil {
		return err
	}

	logger := observe.NewLogger(cfg.Observe.Log.Level, cfg.LogFormat()).
		With(observe.F("service", cfg.Service.Name), observe.F("env", cfg.Env))

	obs, err := observe.NewObserver(ctx, observerConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer shutdown(logger, "observer", obs.Shutdown)

	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	mw := observe.NewMiddleware(observe.NewTracer(obs.Tracer()), metrics, logger)

	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 6,
		Jitter:      true,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn(ctx, "dependency connect retry",
				observe.F("attempt", attempt),
				observe.F("delay_ms", delay.Milliseconds()),
				observe.Err(err),
			)
		},
	})

	db, err := datastore.ConnectWithRetry(ctx, datastore.Config{
		URL:      cfg.Database.URL,
		Name:     cfg.Database.Name,
		MaxConns: cfg.Database.MaxConns,
	}, retry, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer shutdown(logger, "database", func(context.Context) error { return db.Close() })

	store, closeStore, err := openCacheStore(ctx, cfg, retry)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer shutdown(logger, "cache", func(context.Context) error { return closeStore() })

	facade, err := cache.NewFacade(store, cache.FacadeConfig{
		Policy:  cache.Policy{DefaultTTL: cfg.Cache.DefaultTTL, MaxTTL: cfg.Cache.MaxTTL},
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	agg := health.NewAggregator(health.AggregatorConfig{
		ProbeTimeout: cfg.Health.ProbeTimeout,
		Timeout:      cfg.Health.AggregateTimeout,
		Middleware:   mw,
	})
	agg.Register(health.ComponentDatabase, health.NewDatabaseProbe(db.Pinger))
	agg.Register(health.ComponentCache, health.NewCacheProbe(facade))
	endpoints := health.NewEndpoints(agg, health.EndpointsConfig{ReadyStatusCode: cfg.Health.ReadyStatusCode})

	routerCfg := server.Config{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		HSTS:        cfg.Env == config.EnvProd,
		Cache:       facade,
		Logger:      logger,
	}
	if cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus" {
		routerCfg.Metrics = promhttp.Handler()
	}
	if cfg.AdminEnabled() {
		routerCfg.Admin, err = auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret: []byte(cfg.Admin.JWTSecret),
			Issuer: cfg.Admin.JWTIssuer,
		})
		if err != nil {
			return fmt.Errorf("admin auth: %w", err)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.NewRouter(endpoints, routerCfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	monitorCfg := health.MonitorConfig{
		Service:  cfg.Service.Name,
		Interval: cfg.Health.MonitorInterval,
		Logger:   logger,
		Metrics:  metrics,
	}

	var (
		grpcServer *grpc.Server
		grpcHealth *server.GRPCHealth
	)
	if cfg.GRPC.Addr != "" {
		grpcServer, grpcHealth = server.NewGRPCServer(cfg.Service.Name)
		monitorCfg.Sinks = append(monitorCfg.Sinks, grpcHealth)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewPublisher(events.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.HealthTopic,
		})
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		defer shutdown(logger, "events", func(context.Context) error { return publisher.Close() })
		monitorCfg.Publisher = publisher
	}

	var lis net.Listener
	if grpcServer != nil {
		lis, err = net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "http server started", observe.F("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			logger.Info(gctx, "grpc server started", observe.F("addr", lis.Addr().String()))
			if err := grpcServer.Serve(lis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	if cfg.Health.MonitorInterval > 0 {
		monitor := health.NewMonitor(agg, monitorCfg)
		g.Go(func() error { return monitor.Run(gctx) })
	} else if grpcHealth != nil {
		grpcHealth.SetHealthy(true)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutdown started")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcServer != nil {
			grpcHealth.Shutdown()
			grpcServer.GracefulStop()
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "server failure", observe.Err(err))
		return err
	}
	logger.Info(context.Background(), "shutdown completed")
	return nil
}

func observerConfig(cfg *config.Config) observe.Config {
	return observe.Config{
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
		Environment: cfg.Env,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Observe.Tracing.Enabled,
			Exporter:  cfg.Observe.Tracing.Exporter,
			Endpoint:  cfg.Observe.Tracing.Endpoint,
			SamplePct: cfg.Observe.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Observe.Metrics.Enabled,
			Exporter: cfg.Observe.Metrics.Exporter,
			Endpoint: cfg.Observe.Metrics.Endpoint,
		},
		Logging: observe.LoggingConfig{
			Level:  cfg.Observe.Log.Level,
			Format: cfg.LogFormat(),
		},
	}
}

// openCacheStore returns the configured store and a close func.
func openCacheStore(ctx context.Context, cfg *config.Config, retry *resilience.Retry) (cache.KeyValueStore, func() error, error) {
	if cfg.Cache.Driver != "redis" {
		return cache.NewMemoryStore(), func() error { return nil }, nil
	}

	client, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewRedisStore(client, cfg.Redis.Prefix)
	if err := retry.Execute(ctx, store.Ping); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, client.Close, nil
}

func shutdown(logger observe.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error(ctx, "shutdown failed", observe.F("resource", name), observe.Err(err))
	}
}
