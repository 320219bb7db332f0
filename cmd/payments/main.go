package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-retail-orders/internal/config"
	kafkax "github.com/ariefcatur/go-retail-orders/internal/kafka"
	"github.com/ariefcatur/go-retail-orders/internal/logger"
	"github.com/ariefcatur/go-retail-orders/internal/orders"
	"github.com/ariefcatur/go-retail-orders/internal/payments"
	"github.com/ariefcatur/go-retail-orders/internal/postgres"
	"github.com/ariefcatur/go-retail-orders/internal/redisx"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/ariefcatur/go-retail-orders/internal/telemetry"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(logger.Config{
		IsDevelopment: !cfg.Production(),
		Encoding:      cfg.LogEncoding,
		Level:         cfg.LogLevel,
		Service:       cfg.ServiceName + "-payments",
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.InitTracer(ctx, cfg.ServiceName+"-payments", cfg.OTLPEndpoint)
	if err != nil {
		zl.Fatal("tracer", zap.Error(err))
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// DB
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	// Redis: status cache + dedup
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer untuk status-changed events
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, zl)
	prod.Start()
	defer func() {
		prod.Close()
		prod.WaitClosed()
	}()

	svc := sales.NewService(postgres.NewStore(pool), zl,
		sales.WithProducerName(cfg.ServiceName+"-payments"),
		sales.WithCache(redisx.NewCache(rdb)),
		sales.WithPublisher(kafkax.EventPublisher{P: prod}),
	)
	listener := &payments.Listener{
		Orders: svc,
		Dedup:  redisx.NewDeduper(rdb, cfg.ServiceName+"-payments"),
		Log:    zl,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.PaymentsGroup, orders.TopicPaymentConfirmed, cfg.PaymentsWorkers, zl)
	zl.Info("payments consumer started",
		zap.String("group", cfg.PaymentsGroup),
		zap.String("topic", orders.TopicPaymentConfirmed),
		zap.Int("workers", cfg.PaymentsWorkers),
	)
	if err := cons.Start(ctx, listener.Handle); err != nil {
		zl.Error("consumer exit", zap.Error(err))
	}
	zl.Info("shutting down consumer...")
}
