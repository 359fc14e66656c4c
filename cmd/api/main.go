package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-backoffice.git/internal/config"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/httpx"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per order topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pUpdated := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderUpdated, 1024, log)
	pUpdated.Start(ctx)
	pDeleted := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrdersDeleted, 1024, log)
	pDeleted.Start(ctx)

	// Repos & handlers
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Repo:            &shop.OrderRepo{DB: db, Log: log},
		Redis:           rdb,
		ProducerCreated: pCreated,
		ProducerUpdated: pUpdated,
		ProducerDeleted: pDeleted,
		Service:         cfg.ServiceName,
	}
	oh.Register(router)
	(&httpx.ProductsHandler{Catalog: &shop.CatalogRepo{DB: db}}).Register(router)
	(&httpx.CustomersHandler{Customers: &shop.CustomerRepo{DB: db}}).Register(router)
	(&httpx.PurchasesHandler{Purchases: &shop.PurchaseRepo{DB: db, Log: log}}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pCreated, pUpdated, pDeleted} {
		p.Close()
	}
	for _, p := range []*kafkax.Producer{pCreated, pUpdated, pDeleted} {
		p.WaitClosed()
	}
}
