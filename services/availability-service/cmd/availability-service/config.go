package main

import (
	"strings"
	"time"

	"github.com/fait-coop/scheduling/libs/config"
	"github.com/fait-coop/scheduling/services/availability-service/internal/availability"
	"github.com/fait-coop/scheduling/services/availability-service/internal/cache"
	"github.com/fait-coop/scheduling/services/availability-service/internal/consumer"
)

type appConfig struct {
	Service     string
	Port        string
	GRPCPort    string
	DatabaseURL string

	ProviderColumn string
	SlotMinutes    int
	RangeDays      int
	FetchTimeout   time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	KafkaBrokers   string
	KafkaGroupID   string
	KafkaTopics    []string
	InboxRetention time.Duration

	JWTSecret          string
	JWTAudience        string
	JWTLeeway          time.Duration
	RateLimitPerMinute int
	RateLimitFailOpen  bool
	RequestTimeout     time.Duration
	CORSOrigins        []string
}

func loadConfig() (appConfig, error) {
	cfg := appConfig{
		Service:        config.String("SERVICE_NAME", "availability-service"),
		ProviderColumn: strings.TrimSpace(config.String("BOOKINGS_PROVIDER_COLUMN", "")),
		SlotMinutes:    config.PositiveInt("SLOT_DURATION_MINUTES", availability.DefaultSlotMinutes),
		RangeDays:      config.PositiveInt("DEFAULT_RANGE_DAYS", availability.DefaultRangeDays),
		FetchTimeout:   config.Seconds("FETCH_TIMEOUT_SECONDS", 3*time.Second),

		RedisAddr:     strings.TrimSpace(config.String("REDIS_ADDR", "")),
		RedisPassword: config.String("REDIS_PASSWORD", ""),
		RedisDB:       config.Int("REDIS_DB", 0),
		CacheTTL:      config.Seconds("SLOT_CACHE_TTL_SECONDS", cache.DefaultTTL),

		KafkaBrokers:   strings.TrimSpace(config.String("KAFKA_BROKERS", "")),
		KafkaGroupID:   config.String("KAFKA_GROUP_ID", "availability-service"),
		KafkaTopics:    config.List("KAFKA_INVALIDATION_TOPICS", strings.Join(consumer.DefaultTopics, ",")),
		InboxRetention: time.Duration(config.PositiveInt("INBOX_RETENTION_HOURS", 72)) * time.Hour,

		JWTSecret:          config.String("JWT_SECRET", ""),
		JWTAudience:        config.String("JWT_AUDIENCE", "authenticated"),
		JWTLeeway:          config.Seconds("JWT_LEEWAY_SECONDS", 30*time.Second),
		RateLimitPerMinute: config.PositiveInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitFailOpen:  config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		RequestTimeout:     config.Seconds("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
		CORSOrigins:        config.List("CORS_ALLOWED_ORIGINS", "*"),
	}

	var err error
	if cfg.Port, err = config.Port("PORT", "8090"); err != nil {
		return appConfig{}, err
	}
	// GRPC_PORT=0 turns the health endpoint off.
	if config.String("GRPC_PORT", "9093") != "0" {
		if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9093"); err != nil {
			return appConfig{}, err
		}
	}
	if cfg.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
		return appConfig{}, err
	}
	if cfg.RangeDays > availability.MaxRangeDays {
		cfg.RangeDays = availability.MaxRangeDays
	}
	if cfg.RedisDB < 0 {
		cfg.RedisDB = 0
	}
	return cfg, nil
}
