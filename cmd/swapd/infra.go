package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aescanero/swapd/internal/config"
	cachemem "github.com/aescanero/swapd/pkg/adapters/cache/memory"
	cacheredis "github.com/aescanero/swapd/pkg/adapters/cache/redis"
	queuemem "github.com/aescanero/swapd/pkg/adapters/queue/memory"
	queueredis "github.com/aescanero/swapd/pkg/adapters/queue/redis"
	storemem "github.com/aescanero/swapd/pkg/adapters/storage/memory"
	"github.com/aescanero/swapd/pkg/adapters/storage/postgres"
	"github.com/aescanero/swapd/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// infrastructure holds the adapters selected by configuration
type infrastructure struct {
	orders   ports.OrderRepository
	failures ports.FailureLog
	cache    ports.ActiveOrderCache
	queue    ports.JobQueue

	redisClient *goredis.Client
	db          *gorm.DB
}

func newInfrastructure(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	if cfg.UsesRedis() {
		infra.redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := infra.redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	switch cfg.Backends.Storage {
	case config.BackendPostgres:
		db, err := postgres.Open(cfg.Postgres.DSN, postgres.PoolConfig{
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}, logger.Named("gorm"))
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return nil, err
			}
		}
		infra.db = db
		infra.orders = postgres.NewOrderRepository(db, logger)
		infra.failures = postgres.NewFailureLog(db, logger)
		logger.Info("connected to Postgres")
	default:
		logger.Warn("using in-memory order storage; orders are lost on restart")
		infra.orders = storemem.NewOrderRepository()
		infra.failures = storemem.NewFailureLog()
	}

	switch cfg.Backends.Cache {
	case config.BackendRedis:
		infra.cache = cacheredis.NewActiveOrderCache(infra.redisClient, cfg.Redis.ActiveOrderTTL, logger)
	default:
		infra.cache = cachemem.NewActiveOrderCache(cfg.Redis.ActiveOrderTTL)
	}

	switch cfg.Backends.Queue {
	case config.BackendRedis:
		consumer := cfg.Queue.ConsumerName
		if consumer == "" {
			host, _ := os.Hostname()
			consumer = fmt.Sprintf("swapd-%s-%d", host, os.Getpid())
		}
		infra.queue = queueredis.NewStreamsQueue(infra.redisClient, queueredis.Config{
			Name:          cfg.Queue.Name,
			ConsumerGroup: cfg.Queue.ConsumerGroup,
			ConsumerName:  consumer,
			PollInterval:  cfg.Queue.PollInterval,
			ClaimIdle:     cfg.Queue.ClaimIdle,
			MaxLen:        cfg.Queue.MaxLen,
		}, logger)
	default:
		infra.queue = queuemem.NewInMemoryQueue(cfg.Queue.Capacity, cfg.Queue.PollInterval)
	}

	return infra, nil
}

func (i *infrastructure) close(logger *zap.Logger) {
	if err := i.queue.Close(); err != nil {
		logger.Error("queue close error", zap.Error(err))
	}

	if i.redisClient != nil {
		if err := i.redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	if i.db != nil {
		if sqlDB, err := i.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("database close error", zap.Error(err))
			}
		}
	}
}
