package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rawnaqshop/dashboard-service/config"
	"github.com/rawnaqshop/dashboard-service/internal/listener"
	"github.com/rawnaqshop/dashboard-service/internal/notify"
	searchIdx "github.com/rawnaqshop/dashboard-service/internal/search"
	"github.com/rawnaqshop/dashboard-service/internal/server"
	"github.com/rawnaqshop/dashboard-service/internal/snapshot"
	"github.com/rawnaqshop/dashboard-service/internal/stats"
	pgstore "github.com/rawnaqshop/dashboard-service/internal/store/postgres"
	"github.com/rawnaqshop/dashboard-service/pkg/broker"
	"github.com/rawnaqshop/dashboard-service/pkg/cache"
	"github.com/rawnaqshop/dashboard-service/pkg/logger"
	"github.com/rawnaqshop/dashboard-service/pkg/postgres"
	"github.com/rawnaqshop/dashboard-service/pkg/search"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.Config{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
		logConfig.DisableCaller = cfg.Logger.DisableCaller
		logConfig.DisableStacktrace = cfg.Logger.DisableStacktrace
	}

	appLogger := logger.New(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	st := pgstore.NewPGStore(db)

	// 4. Initialize Redis (stock locks)
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Consumer (row-change events)
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Elasticsearch (product search)
	var productIndex *searchIdx.ProductIndex
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (search falls back to snapshot)", zap.Error(err))
	} else {
		productIndex = searchIdx.NewProductIndex(esClient, appLogger)
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Assemble the snapshot provider
	notifier := notify.Fanout{
		notify.NewLogNotifier(appLogger),
		notify.NewStoreNotifier(st, appLogger),
	}

	var indexer snapshot.Indexer
	if productIndex != nil {
		indexer = productIndex
	}
	provider := snapshot.NewProvider(
		st,
		snapshot.NewCache(),
		redisClient,
		indexer,
		notifier,
		appLogger,
		cfg.Snapshot.TTL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the cache; consumers fall back to on-demand fetch if this fails.
	go func() {
		if _, err := provider.Fetch(ctx, false); err != nil {
			appLogger.Warn("Initial snapshot fetch failed", zap.Error(err))
		}
	}()

	// 8. Start the change listener
	changeListener := listener.NewListener(kafkaConsumer, provider, appLogger)
	go changeListener.Start(ctx)

	// 9. Start HTTP server
	location, err := time.LoadLocation(cfg.Snapshot.StatsTimezone)
	if err != nil {
		appLogger.Warn("Invalid STATS_TIMEZONE, using UTC", zap.String("tz", cfg.Snapshot.StatsTimezone))
		location = time.UTC
	}

	var searcher server.Searcher
	if productIndex != nil {
		searcher = productIndex
	}
	handler := server.NewHandler(provider, searcher, appLogger, stats.Options{
		LowStockThreshold: cfg.Snapshot.LowStockThreshold,
		Location:          location,
	})
	router := server.NewRouter(handler, cfg.Server.AppEnv, cfg.Server.AllowOrigins, appLogger)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
