package main

import (
	"cinema-seat-booking/config"
	"cinema-seat-booking/internal/cache"
	"cinema-seat-booking/internal/database"
	"cinema-seat-booking/internal/feed"
	"cinema-seat-booking/internal/handler"
	"cinema-seat-booking/internal/metrics"
	"cinema-seat-booking/internal/model"
	"cinema-seat-booking/internal/notify"
	"cinema-seat-booking/internal/queue"
	"cinema-seat-booking/internal/repository"
	"cinema-seat-booking/internal/service"
	"cinema-seat-booking/internal/worker"
	"cinema-seat-booking/migrations"
	"cinema-seat-booking/pkg/logger"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.Server.LogLevel)
	defer logger.Sync()
	log := logger.WithComponent("main")

	metrics.Register()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = migrations.Apply(migrateCtx, pool)
	cancel()
	if err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	opts := []service.Option{service.WithExclusiveBooking(cfg.Booking.Exclusive)}
	if cfg.Redis.SeatMapTTL > 0 {
		opts = append(opts, service.WithCache(cache.NewRedisSeatMapCache(rdb, cfg.Redis.SeatMapTTL)))
	}

	var notificationWorker worker.NotificationWorker
	if cfg.Webhook.URL != "" {
		q, closeQueue, err := newNotificationQueue(ctx, &cfg.Queue, rdb)
		if err != nil {
			log.Fatal("failed to initialize notification queue", zap.String("backend", cfg.Queue.Backend), zap.Error(err))
		}
		defer closeQueue()

		notificationWorker = worker.NewNotificationWorker(q, notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Timeout), cfg.Webhook.Timeout)
		if err := notificationWorker.Start(ctx); err != nil {
			log.Fatal("failed to start notification worker", zap.Error(err))
		}
		opts = append(opts, service.WithNotificationQueue(q))
		log.Info("webhook notifications enabled", zap.String("backend", cfg.Queue.Backend))
	} else {
		log.Info("WEBHOOK_URL not set, booking notifications disabled")
	}

	seatService := service.NewSeatService(repository.NewSeatRepository(pool), opts...)

	hub := feed.NewHub(ctx)
	listener := feed.NewListener(pool, feed.Channel, cfg.Feed.ReconnectWait, changeHandlers(seatService, hub)...)
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler.NewRouter(seatService, hub, cfg.Feed.ClientBuffer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listener.Run(gctx)
	})
	g.Go(func() error {
		log.Info("api listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// websocket connections are hijacked and not tracked by Shutdown
		hub.Send(feed.Shutdown{})
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
	}
	stop()
	if notificationWorker != nil {
		notificationWorker.Wait()
	}
	log.Info("server stopped")
}

func newNotificationQueue(ctx context.Context, cfg *config.QueueConfig, rdb *redis.Client) (queue.NotificationQueue, func(), error) {
	switch cfg.Backend {
	case "redis":
		q, err := queue.NewRedisStreamNotificationQueue(ctx, rdb, "", nil)
		return q, func() {}, err
	case "rabbitmq":
		q, err := queue.NewRabbitMQNotificationQueue(cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, err
		}
		return q, func() { _ = q.Close() }, nil
	case "memory":
		return queue.NewNotificationQueue(cfg.BufferSize), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown notification queue backend %q", cfg.Backend)
	}
}

// changeHandlers drops the cached seat map before fanning the event out, so a
// client that refetches on receipt never reads the pre-change map.
func changeHandlers(seatService service.SeatService, hub *feed.Hub) []feed.Handler {
	return []feed.Handler{
		func(ctx context.Context, _ model.ChangeEvent) { seatService.InvalidateSeatMap(ctx) },
		hub.Broadcast,
	}
}
