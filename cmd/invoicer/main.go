package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-backoffice.git/internal/config"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/invoice"
	kafkax "github.com/ariefcatur/go-shop-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/postgres"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/redisx"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/shop"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicInvoiceReady, 1024, log)
	prod.Start(ctx)

	svc := &invoice.Service{
		Orders:      &shop.OrderRepo{DB: db, Log: log},
		Redis:       rdb,
		Producer:    prod,
		Log:         log,
		ServiceName: cfg.ServiceName + "-invoicer",
	}

	group := getenv("INVOICER_GROUP", "invoicer-svc")
	workers := mustAtoi(os.Getenv("INVOICER_WORKERS"), "4")
	topics := []string{shop.TopicOrderCreated, shop.TopicOrderUpdated, shop.TopicOrdersDeleted}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topics, workers, log)

	go func() {
		log.Info("invoicer consumer started",
			zap.String("group", group),
			zap.Strings("topics", topics),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prod.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
