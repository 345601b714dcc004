package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/goldtouch/messenger-relay/internal/booking"
	"github.com/goldtouch/messenger-relay/internal/comlog"
	"github.com/goldtouch/messenger-relay/internal/completion"
	"github.com/goldtouch/messenger-relay/internal/config"
	"github.com/goldtouch/messenger-relay/internal/crm"
	"github.com/goldtouch/messenger-relay/internal/dedup"
	"github.com/goldtouch/messenger-relay/internal/messenger"
	"github.com/goldtouch/messenger-relay/internal/ratelimit"
	"github.com/goldtouch/messenger-relay/internal/relay"
	"github.com/goldtouch/messenger-relay/internal/sms"
	"github.com/goldtouch/messenger-relay/internal/telemetry"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	loader := config.NewLoader(*configDir, logger)
	if err := loader.Load(); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := loader.Watch(); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	cfg := loader.Config()

	// Connect to PostgreSQL. Bookings and communication history fall back
	// to memory when the database is unreachable; the relay path itself
	// has no database dependency.
	var (
		bookingStore booking.Store
		comRecorder  comlog.Recorder
	)
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err == nil {
		if pingErr := dbPool.Ping(context.Background()); pingErr != nil {
			logger.Warn("database not reachable (bookings held in memory)", "error", pingErr)
			dbPool.Close()
			dbPool = nil
		}
	} else {
		logger.Warn("database config invalid (bookings held in memory)", "error", err)
		dbPool = nil
	}
	if dbPool != nil {
		defer dbPool.Close()
		bookingStore = booking.NewPostgresStore(dbPool)
		comRecorder = comlog.NewPostgresRecorder(dbPool)
		logger.Info("database connected")
	} else {
		bookingStore = booking.NewMemoryStore()
	}

	// Connect to Redis. Dedup and rate limiting fail open without it.
	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis not reachable (dedup and rate limiting disabled)", "error", err)
			rdb = nil
		} else {
			logger.Info("redis connected")
		}
	}

	metrics := telemetry.NewMetrics()

	smsClient := sms.NewClient(cfg.SMS)
	bookingMgr := booking.NewManager(bookingStore, smsClient, loader.Providers,
		cfg.Booking.ResponseWindow, metrics)

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go bookingMgr.RunSweeper(sweepCtx, cfg.Booking.SweepInterval)

	var crmRecorder crm.Recorder
	if cfg.CRM.Enabled {
		crmRecorder = crm.NewHubSpotClient(cfg.CRM)
	}

	handler := relay.NewHandler(
		loader.Config,
		completion.NewOpenAIClient(cfg.Completion),
		messenger.NewClient(cfg.Messenger),
		bookingMgr,
		crmRecorder,
		comRecorder,
		dedup.New(rdb, cfg.Messenger.DedupTTL),
		ratelimit.NewLimiter(rdb),
		metrics,
	)

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)

	r.Get("/healthz", healthHandler)
	r.Get("/webhook", handler.VerifyWebhook)
	r.Post("/webhook", handler.HandleWebhook)
	r.Post("/book", handler.HandleBook)
	r.Post("/sms-webhook", handler.HandleSMSWebhook)
	r.Post("/forms/webhook", handler.HandleFormWebhook)

	// Metrics on a separate listener, never exposed on the public port.
	if cfg.Telemetry.MetricsPort > 0 {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("relay starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("relay stopped")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"version": version,
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

func generateRequestID() string {
	now := time.Now()
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("req_%d_%s", now.UnixMilli(), hex.EncodeToString(b))
}
