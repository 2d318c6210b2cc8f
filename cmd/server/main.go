package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ccalu/channelpulse/internal/config"
	"github.com/ccalu/channelpulse/internal/db"
	"github.com/ccalu/channelpulse/internal/handler"
	"github.com/ccalu/channelpulse/internal/middleware"
	"github.com/ccalu/channelpulse/internal/repository"
	"github.com/ccalu/channelpulse/internal/router"
	"github.com/ccalu/channelpulse/internal/service"
	"github.com/ccalu/channelpulse/internal/youtube"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "channelpulse")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL)

	if len(cfg.APIKeys) == 0 {
		log.Println("warning: no YouTube API keys configured, collection runs will fail")
	}
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	gateway := youtube.NewGateway(cfg.APIKeys, cfg.RateLimitMaxRequests, window, middleware.Logger)
	resolver := youtube.NewResolver(gateway, middleware.Logger)

	channelRepo := repository.NewChannelRepo(pool)
	snapshotRepo := repository.NewSnapshotRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)
	runRepo := repository.NewRunRepo(pool)

	collector := service.NewCollector(gateway, resolver, middleware.Logger)
	notifier := service.NewNotifier(notificationRepo, middleware.Logger)
	projector := service.NewProjector(pool)
	channelSvc := service.NewChannelService(channelRepo, cache)
	runSvc := service.NewRunService(
		channelRepo, snapshotRepo, runRepo, notificationRepo,
		collector, notifier, projector, cache, middleware.Logger,
	)

	handler.InitMetrics(pool, gateway.Pool())

	app := fiber.New(fiber.Config{
		AppName:      "ChannelPulse API",
		ServerHeader: "ChannelPulse",
	})

	router.Setup(app, &router.Handlers{
		Health:       handler.NewHealthHandler(pool, cache.Client(), gateway.Pool()),
		Channel:      handler.NewChannelHandler(channelSvc, channelRepo, snapshotRepo),
		Run:          handler.NewRunHandler(runRepo, runSvc),
		Notification: handler.NewNotificationHandler(notificationRepo, cache),
	}, cfg.CORSOrigins)

	worker := service.NewCollectionWorker(runSvc, cfg.CollectionHourUTC)
	go worker.Start(ctx)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutdown signal received")
		worker.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("ChannelPulse backend starting on :%s (env=%s, keys=%d)",
		cfg.Port, cfg.Environment, len(cfg.APIKeys))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
