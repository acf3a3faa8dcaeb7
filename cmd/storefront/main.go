package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/media"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/realtime"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/sequence"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/wishlist"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "storefront ", log.LstdFlags|log.Lmicroseconds|log.LUTC)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("db migrate: %v", err)
		}
	}

	catalogRepo := catalog.NewPostgresRepository(pool)
	cartRepo := cart.NewPostgresRepository(pool)
	wishlistRepo := wishlist.NewPostgresRepository(pool)
	identityRepo := identity.NewPostgresRepository(pool)
	orderRepo := order.NewPostgresRepository(pool, func(q db.Querier) order.CheckoutCart {
		return cartRepo.WithExecutor(q)
	})

	catalogSvc := catalog.NewService(catalogRepo)
	cartSvc := cart.NewService(cartRepo, catalogSvc)

	// --- AMQP ---
	hub := realtime.NewHub(logger)
	defer hub.Close()

	var (
		publisher order.Notifier = events.NopPublisher{}
		conn      *amqp.Connection
	)
	if cfg.EventsEnabled {
		seqDB, err := db.Open(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatalf("open sequence db: %v", err)
		}
		defer seqDB.Close()

		conn, err = events.Dial(cfg.RabbitURL)
		if err != nil {
			logger.Fatalf("rabbitmq: %v", err)
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn, sequence.NewRepository(seqDB), events.PublisherOptions{
			Producer:      events.ServiceName,
			CorrelationID: middleware.GetCorrelationID,
		})
		if err != nil {
			logger.Fatalf("publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Printf("events disabled; order events are not published")
	}

	pricing := order.Pricing{
		Standard:         cfg.StandardShippingFee,
		Express:          cfg.ExpressShippingFee,
		FreeStandardFrom: cfg.FreeShippingThreshold,
	}
	orderSvc := order.NewService(orderRepo, cartSvc, pricing, logger, publisher, hub)

	var consumer *events.Consumer
	if conn != nil {
		handler := events.ShipmentStatusUpdatedHandler(orderRepo, dedup.NewRepository(pool), orderSvc, logger, events.ShipmentStatusConsumerName)
		consumer, err = events.StartConsumer(ctx, conn, events.ShipmentStatusUpdatedRoutingKey, handler, logger)
		if err != nil {
			logger.Fatalf("start consumer: %v", err)
		}
	}

	// --- media ---
	var images media.ImageStore = media.Disabled{}
	if cfg.S3Bucket != "" {
		store, err := media.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			logger.Fatalf("s3: %v", err)
		}
		images = store
	}

	idTokens := identity.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	var tokens middleware.TokenParser
	if cfg.JWTSecret != "" {
		tokens = idTokens
	}

	// --- HTTP ---
	r := httpapi.NewRouter(httpapi.Deps{
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
		Tokens:         tokens,
		TrustHeaders:   cfg.TrustUserHeader,
		Identity:       identity.NewService(identityRepo, idTokens),
		Catalog:        catalogSvc,
		Cart:           cartSvc,
		Wishlist:       wishlist.NewService(wishlistRepo, catalogSvc, cartSvc),
		Orders:         orderSvc,
		Images:         images,
		OrderFeed:      hub,
		Ping:           pool.Ping,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("shutdown signal: %s", sig)
	case err := <-errCh:
		logger.Printf("fatal error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown: %v", err)
	}
	cancel()

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Printf("consumer close: %v", err)
		}
	}

	logger.Printf("shutdown complete")
}
