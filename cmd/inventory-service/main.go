package main

import (
	"context"
	"os"
	"time"

	inventoryapp "github.com/fieldserve/checkout-core/internal/inventory/application"
	inventorykafka "github.com/fieldserve/checkout-core/internal/inventory/infrastructure/kafka"
	inventorypg "github.com/fieldserve/checkout-core/internal/inventory/infrastructure/postgres"
	"github.com/fieldserve/checkout-core/pkg/config"
	"github.com/fieldserve/checkout-core/pkg/idempotency"
	"github.com/fieldserve/checkout-core/pkg/logging"
	"github.com/fieldserve/checkout-core/pkg/shutdown"
	"github.com/fieldserve/checkout-core/pkg/tracing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := logging.New("inventory-service")

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "inventory-service", cfg.OTLPURL, log)
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

	if err := inventorypg.EnsureSchema(ctx, pool); err != nil {
		log.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	redisDB := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(redisDB, 10*time.Minute)

	repo := inventorypg.NewRepository(log, pool)
	svc := inventoryapp.NewService(log, repo)
	consumer := inventorykafka.NewConsumer(log, []string{cfg.KafkaAddr}, cfg.OrderTopic, "inventory-service", svc, idem)

	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("inventory-service shutdown")
}
