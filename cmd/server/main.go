package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"loftbase/identity/internal/audit"
	auditrepo "loftbase/identity/internal/audit/repository"
	"loftbase/identity/internal/config"
	"loftbase/identity/internal/db"
	healthhandler "loftbase/identity/internal/health/handler"
	identityhandler "loftbase/identity/internal/identity/handler"
	"loftbase/identity/internal/identity/service"
	"loftbase/identity/internal/security"
	"loftbase/identity/internal/server"
	"loftbase/identity/internal/server/middleware"
	"loftbase/identity/internal/session/store"
	"loftbase/identity/internal/telemetry"
	otelsetup "loftbase/identity/internal/telemetry/otel"
	"loftbase/identity/internal/telemetry/producer"
	userrepo "loftbase/identity/internal/user/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "identity").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}
	if lvl, lvlErr := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); lvlErr == nil && cfg.LogLevel != "" {
		logger = logger.Level(lvl)
	}

	minter, err := security.NewTokenMinter(cfg.JWTSecret)
	if err != nil {
		logger.Fatal().Err(err).Msg("token minter")
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database")
	}
	defer conn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis")
	}
	pingCancel()

	ctx := context.Background()
	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "identity", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry providers")
	}
	providers.SetGlobal()

	// Auth events go to Kafka when brokers are configured, otherwise to the
	// OTel log pipeline (a no-op when no OTLP endpoint is set either).
	var events telemetry.EventEmitter
	var kafkaProducer *producer.KafkaProducer
	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		kafkaProducer, err = producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if err != nil {
			logger.Fatal().Err(err).Msg("kafka producer")
		}
		events = kafkaProducer
		logger.Info().Strs("brokers", brokers).Str("topic", cfg.TelemetryKafkaTopic).Msg("auth events to kafka")
	} else {
		events = otelsetup.NewEventEmitter(providers.LoggerProvider)
	}

	users := userrepo.NewPostgresRepository(conn)
	sessions := store.NewRedisStore(redisClient, cfg.SessionLifetime())
	auth := service.NewAuthService(users, sessions, security.NewHasher(cfg.BcryptCost), minter)
	audits := audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.GetClientIP)

	router := server.NewRouter(
		identityhandler.NewAuthHandler(auth, events, audits, logger),
		healthhandler.NewChecker(conn, redisClient),
		logger,
	)
	srv := server.New(cfg.HTTPAddr, router, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("serve")
	}

	// Let in-flight async event emits finish before tearing down the pipeline.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if kafkaProducer != nil {
		_ = kafkaProducer.Close()
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := providers.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("telemetry shutdown")
	}
	logger.Info().Msg("stopped")
}
