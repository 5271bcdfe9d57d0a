package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fieldserve/checkout-core/pkg/config"
	"github.com/fieldserve/checkout-core/pkg/idempotency"
	"github.com/fieldserve/checkout-core/pkg/logging"
	"github.com/fieldserve/checkout-core/pkg/metrics"
	"github.com/fieldserve/checkout-core/pkg/outbox"
	"github.com/fieldserve/checkout-core/pkg/shutdown"
	"github.com/fieldserve/checkout-core/pkg/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	cartapp "github.com/fieldserve/checkout-core/internal/cart/application"
	checkoutapp "github.com/fieldserve/checkout-core/internal/checkout/application"
	checkouthttp "github.com/fieldserve/checkout-core/internal/checkout/infrastructure/http"
	checkoutkafka "github.com/fieldserve/checkout-core/internal/checkout/infrastructure/kafka"
	checkoutpg "github.com/fieldserve/checkout-core/internal/checkout/infrastructure/postgres"
	directorypg "github.com/fieldserve/checkout-core/internal/directory/postgres"
	inventoryapp "github.com/fieldserve/checkout-core/internal/inventory/application"
	inventorypg "github.com/fieldserve/checkout-core/internal/inventory/infrastructure/postgres"
	"github.com/fieldserve/checkout-core/internal/pricing"
	"github.com/fieldserve/checkout-core/internal/tender/gateway"
)

func main() {
	log := logging.New("checkout-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "checkout-service", cfg.OTLPURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	for _, ensure := range []func(context.Context, *pgxpool.Pool) error{
		checkoutpg.EnsureSchema, inventorypg.EnsureSchema, directorypg.EnsureSchema,
	} {
		if err := ensure(ctx, pool); err != nil {
			log.Error("schema init failed", "err", err)
			os.Exit(1)
		}
	}

	redisDB := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(redisDB, 10*time.Minute)

	writer := checkoutkafka.NewWriter([]string{cfg.KafkaAddr})
	defer writer.Close()

	orderRepo := checkoutpg.NewRepository(log, pool)
	outboxStore := checkoutpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OrderTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, "checkout-service-relay")

	stockRepo := inventorypg.NewRepository(log, pool)
	stock := inventoryapp.NewService(log, stockRepo)
	customers := directorypg.NewRepository(log, pool)

	carts := cartapp.NewService(log, stock)
	engine := pricing.NewEngine(cfg.TaxRateBps)
	gw := gateway.NewSimulated(log)
	ctrl := checkoutapp.NewController(log, carts, engine, customers, gw, orderRepo, cfg.TaxRateBps)

	met := metrics.NewCheckoutMetrics()
	handler := checkouthttp.NewHandler(log, ctrl, carts, idem, met)

	r := chi.NewRouter()
	r.Mount("/", handler.Routes())
	r.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("checkout-service shutdown complete")
}
