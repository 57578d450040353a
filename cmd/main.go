package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/pathfinder/internal/api"
	"github.com/UnknownOlympus/pathfinder/internal/config"
	"github.com/UnknownOlympus/pathfinder/internal/export"
	"github.com/UnknownOlympus/pathfinder/internal/geometry"
	"github.com/UnknownOlympus/pathfinder/internal/locsource"
	"github.com/UnknownOlympus/pathfinder/internal/metrics"
	"github.com/UnknownOlympus/pathfinder/internal/render"
	"github.com/UnknownOlympus/pathfinder/internal/repository"
	"github.com/UnknownOlympus/pathfinder/internal/service"
	"github.com/UnknownOlympus/pathfinder/internal/stream"
	"github.com/UnknownOlympus/pathfinder/internal/tracking"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

// pinger is implemented by geometry backends that depend on an external service.
type pinger interface {
	Ping(ctx context.Context) error
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// The database is only needed when PostGIS computes the geometry.
	var repo repository.Interface
	if geometry.BackendType(cfg.GeometryBackend) == geometry.BackendPostGIS {
		dtb, err := repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer dtb.Close()
		repo = repository.NewRepository(dtb, logger)
	}

	geoProvider, err := geometry.NewProvider(geometry.Config{
		Backend:    geometry.BackendType(cfg.GeometryBackend),
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geometry provider: %v", err)
	}
	health, _ := geoProvider.(pinger)
	logger.InfoContext(ctx, "Geometry provider initialized", "backend", cfg.GeometryBackend)

	source, closeSource, err := locsource.NewSource(locsource.Config{
		Type:         locsource.SourceType(cfg.Source.Type),
		MQTTBroker:   cfg.Source.MQTTBroker,
		MQTTTopic:    cfg.Source.MQTTTopic,
		MQTTClientID: cfg.Source.MQTTClientID,
		NATSURL:      cfg.Source.NATSURL,
		NATSSubject:  cfg.Source.NATSSubject,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("Failed to create location source: %v", err)
	}
	defer closeSource()
	logger.InfoContext(ctx, "Location source initialized", "type", cfg.Source.Type)

	// Rendering stays in-memory when no API key is configured; only map.png is unavailable.
	var mapClient render.StaticMapClient
	if cfg.MapsAPIKey != "" {
		client, clientErr := render.NewStaticMapClient(cfg.MapsAPIKey, cfg.MapsRateLimit)
		if clientErr != nil {
			log.Fatalf("Failed to create static map client: %v", clientErr)
		}
		mapClient = client
	}
	surface := render.NewMapSurface(mapClient, cfg.MapSize, logger)
	hub := stream.NewHub(logger)

	recorder := service.NewRecorder(
		logger,
		tracking.NewSession(geometry.NewInstrumentedProvider(geoProvider, cfg.GeometryBackend, appMetrics)),
		source,
		render.NewMulti(surface, hub),
		export.NewExporter(nil),
		appMetrics,
		locsource.Options{
			HighAccuracy: cfg.Fix.HighAccuracy,
			Timeout:      cfg.Fix.Timeout,
			MaximumAge:   cfg.Fix.MaximumAge,
		},
	)

	handler := api.NewSessionHandler(
		logger, recorder, fixFeed(source), surface, export.NewDirSink(cfg.ExportDir), hub,
	)

	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(logger, handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, health, cfg.Port)

	go func() {
		logger.InfoContext(ctx, "Starting session API", "addr", cfg.HTTPAddr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "Session API failed", "error", serveErr)
			stop()
		}
	}()

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = recorder.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "Failed to stop tracking", "error", err)
	}
	hub.Close()
	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "Failed to shut down session API", "error", err)
	}

	// Log graceful shutdown completion.
	logger.InfoContext(shutdownCtx, "Application stopped gracefully.")
}

// fixFeed returns the source as a push target for the session API, or nil when fixes
// arrive over a broker.
func fixFeed(source locsource.Source) interface {
	PublishMessage(msg locsource.Message) error
} {
	if feed, ok := source.(*locsource.Feed); ok {
		return feed
	}

	return nil
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - health: The geometry backend to ping, nil when it has no external dependency.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	health pinger,
	port int,
) {
	http.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if health != nil {
			if err := health.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      http.DefaultServeMux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
