package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-retail-orders/internal/config"
	"github.com/ariefcatur/go-retail-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-retail-orders/internal/kafka"
	"github.com/ariefcatur/go-retail-orders/internal/logger"
	"github.com/ariefcatur/go-retail-orders/internal/memstore"
	"github.com/ariefcatur/go-retail-orders/internal/postgres"
	"github.com/ariefcatur/go-retail-orders/internal/redisx"
	"github.com/ariefcatur/go-retail-orders/internal/reporting"
	"github.com/ariefcatur/go-retail-orders/internal/sales"
	"github.com/ariefcatur/go-retail-orders/internal/telemetry"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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
		Service:       cfg.ServiceName,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zl *zap.Logger) error {
	tp, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(sctx)
	}()

	// Store
	var (
		store   sales.Store
		reports httpx.Reports
	)
	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memstore.New()
		store, reports = mem, mem
		zl.Warn("using in-memory store, data is lost on restart")
	default:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		sqlxDB := postgres.OpenSQLX(pool)
		defer sqlxDB.Close()
		store, reports = postgres.NewStore(pool), reporting.NewRepository(sqlxDB)
	}

	opts := []sales.Option{sales.WithProducerName(cfg.ServiceName)}

	// Redis
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		opts = append(opts, sales.WithCache(redisx.NewCache(rdb)))
	}

	// Kafka producer
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, zl)
		prod.Start()
		opts = append(opts, sales.WithPublisher(kafkax.EventPublisher{P: prod}))
	}

	svc := sales.NewService(store, zl, opts...)
	router := httpx.NewRouter(zl)
	oh := httpx.NewOrdersHandler(svc, reports, zl)
	oh.Issuer = cfg.Issuer
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down...")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(sctx)
		if prod != nil {
			prod.Close()      // tutup inbox -> flush & close writer
			prod.WaitClosed() // drain
		}
		return err
	})
	return g.Wait()
}
