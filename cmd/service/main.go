package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // localhost-only ${PPROF_PORT}
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	application "dispatch/internal/app"
	"dispatch/internal/handlers/rest/courier_get"
	"dispatch/internal/handlers/rest/courier_post"
	"dispatch/internal/handlers/rest/courier_put"
	"dispatch/internal/handlers/rest/couriers_get"
	"dispatch/internal/handlers/rest/deliveries_get"
	"dispatch/internal/handlers/rest/delivery_accept_post"
	"dispatch/internal/handlers/rest/delivery_get"
	"dispatch/internal/handlers/rest/delivery_post"
	"dispatch/internal/handlers/rest/delivery_refuse_post"
	"dispatch/internal/handlers/rest/delivery_route_get"
	"dispatch/internal/handlers/rest/delivery_status_put"
	"dispatch/internal/handlers/rest/healthcheck_head"
	"dispatch/internal/handlers/rest/location_get"
	"dispatch/internal/handlers/rest/location_history_get"
	"dispatch/internal/handlers/rest/location_post"
	"dispatch/internal/handlers/rest/notification_delete"
	"dispatch/internal/handlers/rest/notifications_get"
	"dispatch/internal/handlers/rest/ping_get"
	"dispatch/internal/pkg/config"
	"dispatch/internal/pkg/dotenv"
	metrics_system "dispatch/internal/pkg/metrics"
	"dispatch/internal/pkg/middlewares/graceful_shutdown"
	"dispatch/internal/pkg/middlewares/metrics"
	"dispatch/internal/pkg/middlewares/rate_limiter"
	"dispatch/internal/pkg/middlewares/timeout"
	"dispatch/internal/pkg/postgres"
	"dispatch/internal/pkg/redisconn"
	"dispatch/pkg/logger"
	"dispatch/pkg/logger/zap_adapter"
	"dispatch/pkg/token_bucket"
)

func main() {
	zapLogger, err := zap_adapter.NewZapAdapter(os.Getenv("LOG_LEVEL"))
	if err != nil {
		stdlog.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := zapLogger.Sync(); err != nil {
			stdlog.Printf("failed to sync logger: %v", err)
		}
	}()

	var appLogger logger.Logger = zapLogger
	mainLog := appLogger.With()

	mainLog.Info("starting dispatch application")

	if _, err := os.Stat(".env"); err == nil {
		if err := dotenv.Load(); err != nil {
			mainLog.Error("failed to load .env file", logger.NewField("error", err))
			return
		}
	} else {
		mainLog.Warn("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		mainLog.Error("load config", logger.NewField("error", err))
		return
	}

	err = run(context.Background(), cfg, appLogger)
	if err != nil {
		mainLog.Error("application failed", logger.NewField("error", err))
		return
	}
}

//nolint:contextcheck // наследование от context.Background() здесь намеренное, это часть graceful shutdown
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	const (
		shutdownPeriod      = 15 * time.Second
		shutdownHardPeriod  = 3 * time.Second
		readinessDrainDelay = 5 * time.Second
	)

	// https://victoriametrics.com/blog/go-graceful-shutdown/#b-use-basecontext-to-provide-a-global-context-to-all-connections
	var isShuttingDown atomic.Bool

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runLog := log.With()

	pool, err := postgres.NewConnPool(ctx, log, &cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	redisClient, err := redisconn.NewClient(ctx, log, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		err := redisClient.Close()
		if err != nil {
			runLog.Error("failed to close redis connection",
				logger.NewField("error", err),
			)
		}
	}()

	businessApp, err := application.InitializeApplication(ctx, log, pool, pgxv5.DefaultCtxGetter, redisClient, cfg)
	if err != nil {
		return fmt.Errorf("business logic: %w", err)
	}

	metrics_system.StartSystemMetricsCollector()

	// ongoingCtx используется для BaseContext и не должен отменяться при SIGTERM.
	// Он отменяется только после server.Shutdown() для завершения in-flight запросов.
	ongoingCtx, stopOngoingGracefully := context.WithCancel(context.Background())
	defer stopOngoingGracefully()

	// основной http сервер
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: initRouter(ongoingCtx, log, &isShuttingDown, businessApp, cfg.Server),
		BaseContext: func(_ net.Listener) context.Context {
			return ongoingCtx
		},

		ReadHeaderTimeout: 5 * time.Second, // Slowloris DoS gosec G112
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		defer close(serverErr)
		runLog.Info("server starting",
			logger.NewField("port", cfg.Server.Port),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	// основной http сервер

	// pprof http сервер
	var pprofServer *http.Server
	var pprofServerErr chan error
	if cfg.Server.PprofEnabled {
		pprofServer = &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.PprofPort),
			Handler: initPprofRouter(&isShuttingDown),
			BaseContext: func(_ net.Listener) context.Context {
				return ongoingCtx
			},

			ReadHeaderTimeout: 5 * time.Second, // Slowloris DoS gosec G112
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		pprofServerErr = make(chan error, 1)
		go func() {
			defer close(pprofServerErr)
			runLog.Info("pprof server starting",
				logger.NewField("port", cfg.Server.PprofPort),
			)
			if err := pprofServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				pprofServerErr <- err
			}
		}()
	}
	// pprof http сервер

	select {
	case <-ctx.Done():
		runLog.Info("Shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case err := <-pprofServerErr: // при выключенном pprof канал nil и кейс игнорируется
		return fmt.Errorf("pprof server: %w", err)
	}

	stop()
	isShuttingDown.Store(true)

	time.Sleep(readinessDrainDelay)
	runLog.Info("draining requests")

	// shutdownCtx должен быть независим от ctx, который уже отменён на этом этапе.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()

	var shutdownErr error
	err = server.Shutdown(shutdownCtx)
	if pprofServer != nil {
		shutdownErr = pprofServer.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			runLog.Error("pprof server shutdown error", logger.NewField("error", shutdownErr))
		} else {
			runLog.Info("pprof server stopped")
		}
	}

	stopOngoingGracefully()
	if err != nil || shutdownErr != nil {
		runLog.Info("Graceful shutdown timeout, forcing close")
		time.Sleep(shutdownHardPeriod)
	}

	runLog.Info("Server stopped")
	return nil
}

func initRouter(ongoingCtx context.Context, log logger.Logger, isShuttingDown *atomic.Bool, app *application.Application, cfg config.HTTPServer) http.Handler {
	router := mux.NewRouter()

	router.Use(graceful_shutdown.Middleware(isShuttingDown, ongoingCtx))

	router.Use(timeout.Middleware(cfg.RequestTimeout))
	router.Use(metrics.Middleware(log))
	router.Use(rate_limiter.Middleware(log, cfg.RateLimiterQPS, token_bucket.NewTokenBucket(cfg.RateLimiterQPS, float64(cfg.RateLimiterBurst))))
	router.Handle("/metrics", promhttp.Handler())

	router.Handle("/healthcheck", healthcheck_head.New(isShuttingDown)).Methods("HEAD")
	router.Handle("/ping", ping_get.New(log)).Methods("GET")

	router.Handle("/courier/{id}", courier_get.New(log, app.ServiceCourier)).Methods("GET")
	router.Handle("/couriers", couriers_get.New(log, app.ServiceCourier)).Methods("GET")
	router.Handle("/courier", courier_post.New(log, app.ServiceCourier)).Methods("POST")
	router.Handle("/courier/{id}", courier_put.New(log, app.ServiceCourier)).Methods("PUT")

	router.Handle("/delivery", delivery_post.New(log, app.ServiceDispatch)).Methods("POST")
	router.Handle("/deliveries", deliveries_get.New(log, app.ServiceDispatch)).Methods("GET")
	router.Handle("/delivery/{id}", delivery_get.New(log, app.ServiceDispatch)).Methods("GET")
	router.Handle("/delivery/{id}/status", delivery_status_put.New(log, app.ServiceDispatch)).Methods("PUT")
	router.Handle("/delivery/{id}/route", delivery_route_get.New(log, app.ServiceDispatch)).Methods("GET")

	router.Handle("/delivery/{id}/accept", delivery_accept_post.New(log, app.ServiceAssignment)).Methods("POST")
	router.Handle("/delivery/{id}/refuse", delivery_refuse_post.New(log, app.ServiceAssignment)).Methods("POST")

	router.Handle("/courier/{id}/location", location_post.New(log, app.ServiceTracking)).Methods("POST")
	router.Handle("/courier/{id}/location", location_get.New(log, app.ServiceTracking)).Methods("GET")
	router.Handle("/courier/{id}/location/history", location_history_get.New(log, app.ServiceTracking)).Methods("GET")

	router.Handle("/courier/{id}/notifications", notifications_get.New(log, app.ServiceNotification)).Methods("GET")
	router.Handle("/notification/{id}", notification_delete.New(log, app.ServiceNotification)).Methods("DELETE")

	return router
}

func initPprofRouter(isShuttingDown *atomic.Bool) http.Handler {
	router := mux.NewRouter()

	router.Handle("/healthcheck", healthcheck_head.New(isShuttingDown)).Methods("HEAD")
	router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return router
}
