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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/vmelnikov/food_ordering/internal/cache"
	"github.com/vmelnikov/food_ordering/internal/cart"
	"github.com/vmelnikov/food_ordering/internal/config"
	"github.com/vmelnikov/food_ordering/internal/events"
	"github.com/vmelnikov/food_ordering/internal/httpserver"
	"github.com/vmelnikov/food_ordering/internal/kitchen"
	"github.com/vmelnikov/food_ordering/internal/logging"
	"github.com/vmelnikov/food_ordering/internal/menu"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/orders"
	"github.com/vmelnikov/food_ordering/internal/payments"
	"github.com/vmelnikov/food_ordering/internal/users"
	"github.com/vmelnikov/food_ordering/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	if err := database.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// Redis, Kafka and Elasticsearch are optional: the server degrades to
	// in-process carts, no events and LIKE search when they are absent.
	var redisCache *cache.Cache
	var cartStore cart.Store = cart.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisCache, err = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis error: %v", err)
		}
		cartStore = &cart.RedisStore{Cache: redisCache}
	} else {
		logger.Warn("redis not configured, carts are process-local")
	}

	var sink events.Sink = events.NopSink{}
	if len(cfg.KafkaBrokers) > 0 {
		sink = events.NewProducer(cfg.KafkaBrokers)
	} else {
		logger.Warn("kafka not configured, order events disabled")
	}

	var search *menu.Search
	if cfg.ESURL != "" {
		search, err = menu.NewSearch(cfg.ESURL, cfg.ESUser, cfg.ESPassword, menu.DefaultSearchIndex)
		if err != nil {
			log.Fatalf("elasticsearch error: %v", err)
		}
	} else {
		logger.Warn("elasticsearch not configured, search falls back to the database")
	}

	menuRepo := menu.NewRepo(database)
	menuService := menu.NewService(menuRepo, redisCache, search)
	cartService := cart.NewService(cartStore, menuService)
	userRepo := users.NewRepo(database)
	orderRepo := orders.NewRepo(database)
	orderService := orders.NewService(orderRepo, cartStore, menuService, userRepo, sink)
	kitchenService := kitchen.NewService(orderRepo, sink)
	paymentService := payments.NewService(database, orderRepo)

	if search != nil {
		go func() {
			reindexCtx := logging.IntoContext(context.Background(), logger)
			if err := menuService.ReindexSearch(reindexCtx); err != nil {
				logger.Error("search reindex failed", "error", err)
			}
		}()
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Menu:     &httpserver.MenuHandler{Menu: menuService},
		Cart:     &httpserver.CartHandler{Cart: cartService},
		Orders:   &httpserver.OrdersHandler{Orders: orderService},
		Kitchen:  &httpserver.KitchenHandler{Kitchen: kitchenService},
		Payments: &httpserver.PaymentsHandler{Payments: paymentService},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}
	if err := sink.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
