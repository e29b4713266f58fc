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

	"github.com/yusufkecer/macro-tracker-backend/internal/cache"
	"github.com/yusufkecer/macro-tracker-backend/internal/config"
	"github.com/yusufkecer/macro-tracker-backend/internal/db"
	"github.com/yusufkecer/macro-tracker-backend/internal/handler"
	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
	"github.com/yusufkecer/macro-tracker-backend/internal/metrics"
	"github.com/yusufkecer/macro-tracker-backend/internal/repository"
	"github.com/yusufkecer/macro-tracker-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	metrics.Register()

	var foodCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "macrotrack:",
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("[cache] redis unavailable, food lookups will not be cached: %v", err)
			redisCache.Close()
		} else {
			log.Printf("[cache] using redis at %s", cfg.RedisAddr)
			foodCache = redisCache
			defer redisCache.Close()
		}
		cancel()
	}

	accountRepo := repository.NewAccountRepository(database)
	profileRepo := repository.NewProfileRepository(database)
	foodLogRepo := repository.NewFoodLogRepository(database)
	snapshotRepo := repository.NewSnapshotRepository(database)
	resetTokenRepo := repository.NewResetTokenRepository(database)

	emailService := service.NewEmailService(cfg.ResendAPIKey, cfg.MailFrom)
	foodService := service.NewFoodService(service.FoodServiceConfig{
		USDABaseURL: cfg.USDABaseURL,
		USDAAPIKey:  cfg.USDAAPIKey,
		OFFBaseURL:  cfg.OFFBaseURL,
		Timeout:     cfg.FoodHTTPTimeout,
		CacheTTL:    cfg.CacheTTL,
	}, foodCache)

	calc := metabolic.NewCalculator(cfg.CalorieFloorKcal)

	r := handler.NewRouter(handler.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
	}, handler.Handlers{
		Auth:       handler.NewAuthHandler(cfg.JWTSecret, cfg.TokenTTL, accountRepo, resetTokenRepo, emailService),
		Calculator: handler.NewCalculatorHandler(calc),
		Profile:    handler.NewProfileHandler(accountRepo, profileRepo, calc),
		Metric:     handler.NewMetricHandler(snapshotRepo, calc),
		Diary:      handler.NewDiaryHandler(foodLogRepo, profileRepo, calc),
		Food:       handler.NewFoodHandler(foodService),
		Health:     handler.NewHealthHandler(database.PingContext),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server starting on %s (db: %s)", srv.Addr, database.Dialect)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
