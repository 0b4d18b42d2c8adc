package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vehicle-access-registry/internal/config"
	"github.com/iliyamo/vehicle-access-registry/internal/database"
	"github.com/iliyamo/vehicle-access-registry/internal/handler"
	"github.com/iliyamo/vehicle-access-registry/internal/middleware"
	"github.com/iliyamo/vehicle-access-registry/internal/queue"
	"github.com/iliyamo/vehicle-access-registry/internal/repository"
	"github.com/iliyamo/vehicle-access-registry/internal/router"
	"github.com/iliyamo/vehicle-access-registry/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("ensure schema: %v", err)
	}
	cancel()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	svc := service.NewAccessService(repository.NewSessionRepo(db), queue.NewPublisher())

	// Mirror gate events into logs/access.log in the background. The
	// consumer owns its reconnect loop.
	go func() {
		if err := queue.StartAccessConsumer(); err != nil {
			log.Printf("access consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAccess(e, handler.NewAccessHandler(svc),
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
