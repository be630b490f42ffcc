package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/app"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/clock"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/config"
	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/storage/postgres"
	transporthttp "github.com/charlynbc/Entradas-de-teatro-sub000/internal/transport/http"
	"github.com/charlynbc/Entradas-de-teatro-sub000/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()
	cfg := config.Load(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(startupCtx).Err(); err != nil {
			logger.Printf("WARN: redis unreachable, gate rate limiting disabled: %v", err)
			redisClient = nil
		}
	}

	inventoryRepo := postgres.NewInventoryRepository(pool)
	inventorySvc := app.NewInventoryService(inventoryRepo, clock.NewSystem())
	allocationRepo := postgres.NewAllocationRepository(pool)
	allocationSvc := app.NewAllocationService(allocationRepo, clock.NewSystem())
	ticketRepo := postgres.NewTicketRepository(pool)

	var transitionOpts []app.TransitionServiceOption
	if cfg.AllowPublicReservation {
		transitionOpts = append(transitionOpts, app.WithPublicReservation())
	}
	transitionSvc := app.NewTransitionService(ticketRepo, clock.NewSystem(), transitionOpts...)

	queryRepo := postgres.NewQueryRepository(pool)
	querySvc := app.NewQueryService(queryRepo)

	auth := transporthttp.NewAuthenticator(cfg.JWTSecret)
	limiter := transporthttp.NewRateLimiter(redisClient, cfg.GateScanLimit)

	mux := http.NewServeMux()
	mux.Handle("/health", transporthttp.NewHealthHandler(pool))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/admin/events", auth.Require(transporthttp.HandleAdminEvents(inventorySvc)))
	mux.Handle("/admin/events/", auth.Require(transporthttp.HandleAdminEventActions(allocationSvc, querySvc)))
	mux.Handle("/tickets/", auth.Require(transporthttp.HandleTicketCommands(transitionSvc)))
	mux.Handle("/gate/", auth.Optional(limiter.Limit(transporthttp.HandleGateValidate(transitionSvc))))
	mux.Handle("/stock", auth.Require(transporthttp.HandleStock(querySvc)))
	mux.Handle("/", transporthttp.NotFoundHandler())

	corsOrigins := parseCSV(cfg.CORSOrigins)
	handler := transporthttp.RequestLogger(transporthttp.CORS(corsOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
