package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/fait-coop/scheduling/libs/config"
	"github.com/fait-coop/scheduling/libs/db"
	"github.com/fait-coop/scheduling/libs/grpcx"
	"github.com/fait-coop/scheduling/libs/kafkax"
	otelx "github.com/fait-coop/scheduling/libs/otel"
	"github.com/fait-coop/scheduling/libs/runtime"
	"github.com/fait-coop/scheduling/services/availability-service/internal/availability"
	"github.com/fait-coop/scheduling/services/availability-service/internal/cache"
	"github.com/fait-coop/scheduling/services/availability-service/internal/consumer"
	"github.com/fait-coop/scheduling/services/availability-service/internal/handlers"
	"github.com/fait-coop/scheduling/services/availability-service/internal/inbox"
	"github.com/fait-coop/scheduling/services/availability-service/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := config.LoadDotEnv(config.String("DOTENV_PATH", ".env")); err != nil {
		panic(err)
	}
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.Service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service), logger)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	column, err := storage.NewProviderColumn(pool, cfg.ProviderColumn)
	if err != nil {
		panic(err)
	}
	repo := storage.NewRepository(pool, column, logger)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var (
		rdb       *redis.Client
		slotCache availability.SlotCache
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		redisCache := cache.NewSlotCache(rdb, cfg.CacheTTL, logger)
		slotCache = redisCache
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("slot cache enabled", "redis_addr", cfg.RedisAddr, "ttl", cfg.CacheTTL.String())

		if cfg.KafkaBrokers != "" {
			inboxRepo := inbox.NewRepository(pool)
			eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaGroupID,
				Topics:  cfg.KafkaTopics,
			}, consumer.InvalidationHandler(redisCache, logger))
			go eventConsumer.Run(ctx)
			go pruneInbox(ctx, inboxRepo, cfg.InboxRetention, logger)

			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers, cfg.KafkaTopics...)})
			logger.Info("cache invalidation consumer started", "topics", cfg.KafkaTopics, "group_id", cfg.KafkaGroupID)
		}
	}

	svc := availability.NewService(repo, slotCache, logger, availability.ServiceConfig{
		SlotMinutes:  cfg.SlotMinutes,
		RangeDays:    cfg.RangeDays,
		FetchTimeout: cfg.FetchTimeout,
	})
	api := handlers.NewAvailabilityHandler(svc, logger)

	if cfg.GRPCPort != "" {
		grpcServer := grpcx.NewServer(logger)
		health := grpcx.RegisterHealth(grpcServer, cfg.Service, func(ctx context.Context) bool {
			return len(runtime.RunChecks(ctx, checks...)) == 0
		}, 10*time.Second, logger)
		go health.Run(ctx)
		go func() {
			if err := grpcx.Serve(ctx, grpcServer, net.JoinHostPort("", cfg.GRPCPort), logger); err != nil {
				logger.Error("grpc server error", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, logger, api, newRateLimit(cfg, rdb, logger), checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	runtime.Shutdown(logger, 10*time.Second,
		runtime.Step{Name: "http", Stop: srv.Shutdown},
		runtime.Step{Name: "otel", Stop: otelShutdown},
	)
}
