package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/currency"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/session"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/storage"

	_ "github.com/lib/pq"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	cfg := config.Load()
	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	logger := logging.NewLoggerV2("storefront-service")
	logging.Infof("Starting storefront-service on port %d", cfg.Server.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := repository.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", logging.Fields{"error": err.Error()})
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	checks := map[string]handlers.Checker{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}

	var sessionStore session.Store
	if cfg.Features.EnableSessionPersistence {
		sessionStore = session.NewRedisStore(redisClient, cfg.Redis.SessionTTL)
	}
	sessions, err := session.NewManager(currency.DefaultTable(), currency.Code(cfg.Currency.Default), sessionStore, logging.NewLoggerV2("session"))
	if err != nil {
		logger.Fatal("Invalid default currency", logging.Fields{"error": err.Error(), "currency": cfg.Currency.Default})
	}
	go sessions.RunJanitor(ctx, sessionSweepInterval, cfg.Session.MaxAge)

	var (
		images     *storage.ImageStore
		mongoDB    *mongo.Database
		imageStore handlers.ImageStore
		remover    service.ImageRemover
	)
	if cfg.Features.EnableImageStore {
		mongoDB, images, err = initImageStore(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to connect to image store", logging.Fields{"error": err.Error()})
		}
		imageStore, remover = images, images
		checks["mongo"] = func(ctx context.Context) error {
			return mongoDB.Client().Ping(ctx, nil)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Features.EnableOrderEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	var notifier clients.NotificationSender
	if cfg.Features.EnableNotifications {
		notifier = clients.NewHTTPNotificationClient(cfg.NotificationService, logging.NewLoggerV2("notifications"))
	}

	productRepo := repository.NewPostgresProductRepository(db, logger)
	orderRepo := repository.NewPostgresOrderRepository(db, logger)
	productCache := repository.NewRedisProductCache(redisClient, cfg.Redis.TTL)

	catalogService := service.NewCatalogService(productRepo, productCache, remover, cfg.Features, logging.NewLoggerV2("catalog"))
	orderService := service.NewOrderService(orderRepo, publisher, logging.NewLoggerV2("orders"))
	storefrontService := service.NewStorefrontService(catalogService, sessions, logging.NewLoggerV2("storefront"))
	checkoutService := service.NewCheckoutService(sessions, orderService, publisher, notifier, logging.NewLoggerV2("checkout"))

	m := metrics.New()
	h := handlers.NewHandlers(storefrontService, checkoutService, catalogService, orderService, cfg, handlers.Options{
		Images:  imageStore,
		Metrics: m,
		Checks:  checks,
	})

	srv := server.New(h, m, cfg)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                cfg.Server.Port,
			"default_currency":    cfg.Currency.Default,
			"product_caching":     cfg.Features.EnableProductCaching,
			"order_events":        cfg.Features.EnableOrderEvents,
			"session_persistence": cfg.Features.EnableSessionPersistence,
			"image_store":         cfg.Features.EnableImageStore,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var consumer *events.KafkaConsumer
	if cfg.Features.EnableFulfilmentConsumer {
		consumer = events.NewKafkaConsumer(cfg.Kafka, orderService, logging.NewLoggerV2("fulfilment-consumer"))
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Fulfilment consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if consumer != nil {
		consumer.Stop()
	}
	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	if mongoDB != nil {
		if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
			logger.Warn("Failed to disconnect from MongoDB", logging.Fields{"error": err.Error()})
		}
	}

	logger.Info("Server exited")
	_ = logger.Sync()
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logging.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}

func initImageStore(ctx context.Context, cfg *config.Config) (*mongo.Database, *storage.ImageStore, error) {
	db, err := storage.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, nil, err
	}

	images, err := storage.NewImageStore(db, cfg.Mongo.Bucket, cfg.Server.PublicBaseURL, logging.NewLoggerV2("images"))
	if err != nil {
		_ = db.Client().Disconnect(ctx)
		return nil, nil, err
	}
	return db, images, nil
}
