package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"storefront/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	mongoPoolSize  = 20
)

// Connections holds the storage clients shared by every request.
// Redis is nil when REDIS_HOST is not configured.
type Connections struct {
	Mongo *mongo.Client
	DB    *mongo.Database
	Redis *redis.Client

	log *zap.Logger
}

// Connect opens the Mongo database and, when configured, Redis.
func Connect(ctx context.Context, cfg config.Config, log *zap.Logger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conns := &Connections{log: log}

	if err := conns.connectMongo(ctx, cfg); err != nil {
		return nil, err
	}

	if cfg.RedisAddr != "" {
		if err := conns.connectRedis(ctx, cfg); err != nil {
			conns.Close(context.Background())
			return nil, err
		}
	} else {
		log.Warn("⚠️ REDIS_HOST vacío, caché de productos y rate limit desactivados")
	}

	return conns, nil
}

// =============================================
// MONGODB
// =============================================

func (c *Connections) connectMongo(ctx context.Context, cfg config.Config) error {
	if cfg.MongoURI == "" {
		return errors.New("MONGODB_URI no configurado")
	}

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(mongoPoolSize).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("conexión MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	c.Mongo = client
	c.DB = client.Database(cfg.MongoDatabase)
	c.log.Info("✅ Conectado a MongoDB", zap.String("database", cfg.MongoDatabase))
	return nil
}

// =============================================
// REDIS
// =============================================

func (c *Connections) connectRedis(ctx context.Context, cfg config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("conexión Redis: %w", err)
	}

	c.Redis = client
	c.log.Info("✅ Conectado a Redis", zap.String("addr", cfg.RedisAddr))
	return nil
}

// Close releases every open client.
func (c *Connections) Close(ctx context.Context) {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.log.Warn("cierre Redis", zap.Error(err))
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			c.log.Warn("cierre MongoDB", zap.Error(err))
		}
	}
	c.log.Info("🔌 Conexiones cerradas")
}
