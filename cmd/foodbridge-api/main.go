// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"foodbridge/internal/config"
	httptransport "foodbridge/internal/http"
	"foodbridge/internal/infra"
	"foodbridge/internal/logger"
	"foodbridge/internal/modules/fulfillment"
	"foodbridge/internal/modules/identity"
	"foodbridge/internal/modules/listing"
	"foodbridge/internal/modules/matching"
	"foodbridge/internal/modules/notify"
	"foodbridge/internal/modules/pricing"
)

func main() {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer func() { _ = redisClient.Close() }()

	var dispatcher notify.Dispatcher = notify.NewLogDispatcher(log)
	if cfg.Kafka.Brokers != "" {
		producer, err := infra.NewKafkaProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			log.Fatal("connect kafka", zap.Error(err))
		}
		defer func() { _ = producer.Close() }()
		dispatcher = notify.NewKafkaDispatcher(producer, cfg.Kafka.Topic, log)
	}

	quoter := pricing.NewService(cfg.Pricing)

	listingRepo := listing.NewCachedRepository(listing.NewStore(dbPool), redisClient, cfg.Redis.CacheTTL)
	listingSvc := listing.NewService(listingRepo, quoter, log)

	matchingSvc := matching.NewService(matching.NewStore(dbPool))

	fulfillmentSvc := fulfillment.NewService(fulfillment.Deps{
		Store:      fulfillment.NewStore(dbPool),
		Listings:   listingRepo,
		Directory:  identity.NewStore(dbPool),
		Matcher:    matchingSvc,
		Quoter:     quoter,
		Dispatcher: dispatcher,
		Cache:      listingRepo,
		Log:        log,
	})

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(fulfillmentSvc, listingSvc),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("foodbridge api listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server", zap.Error(err))
	}
}
