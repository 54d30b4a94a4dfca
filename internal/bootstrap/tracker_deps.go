// Package bootstrap wires the application graph.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"tracker_server/adapter/out/mongodb"
	"tracker_server/adapter/out/persistence"
	"tracker_server/adapter/out/provider"
	"tracker_server/config"
	"tracker_server/core/port/in"
	"tracker_server/core/service/auth"
	ordersvc "tracker_server/core/service/order"
	"tracker_server/core/service/parse"
	"tracker_server/core/service/sync"
	"tracker_server/infra/database"
	"tracker_server/pkg/cache"
	"tracker_server/pkg/logger"
	"tracker_server/pkg/snowflake"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies holds every constructed adapter and service.
type Dependencies struct {
	// Infrastructure
	DB    *pgxpool.Pool
	SQLX  *sqlx.DB
	Redis *redis.Client
	Mongo *mongo.Client

	// Outbound adapters
	Gmail *provider.GmailAdapter

	// Services
	OAuthService *auth.OAuthService
	OrderService in.OrderService
	SyncService  in.SyncService
}

// NewDependencies builds the dependency graph. The returned cleanup
// closes every connection it opened, in reverse order.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	if err := snowflake.Init(int64(cfg.NodeID)); err != nil {
		return nil, nil, fmt.Errorf("init snowflake: %w", err)
	}

	pool, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	db, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect sqlx: %w", err)
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		db.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
	if err != nil {
		redisClient.Close()
		db.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.WithError(err).Warn("mongodb disconnect failed")
		}
		if err := redisClient.Close(); err != nil {
			logger.WithError(err).Warn("redis close failed")
		}
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("sqlx close failed")
		}
		pool.Close()
	}

	// Raw message cache keeps fetched mail bodies out of the Gmail hot path.
	messageCache := mongodb.NewMessageCacheAdapter(
		mongoClient.Database(cfg.MongoDBName), cfg.MessageCacheTTLDays)
	if err := messageCache.EnsureIndexes(context.Background()); err != nil {
		logger.WithError(err).Warn("message cache index setup failed")
	}

	gmail := provider.NewGmailAdapter(&provider.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		FetchWorkers: cfg.SyncFetchWorkers,
	})

	orderRepo := persistence.NewOrderAdapter(db)
	oauthRepo := persistence.NewOAuthAdapter(db)
	stateStore := persistence.NewRedisOAuthStateStore(redisClient, cfg.OAuthStateTTL)
	syncLock := persistence.NewRedisSyncLock(redisClient, cfg.SyncLockTTL)

	redisCache := cache.NewRedisCache(redisClient)
	orderCache := persistence.NewRedisOrderCache(redisCache,
		time.Duration(cfg.CacheOrderTTLMin)*time.Minute)

	oauthService := auth.NewOAuthService(oauthRepo, stateStore, gmail)
	orderService := ordersvc.NewService(orderRepo, orderCache)
	syncService := sync.NewService(
		gmail,
		orderRepo,
		messageCache,
		syncLock,
		oauthService,
		parse.NewParser(cfg.PlatformKeyword),
		orderCache,
		sync.Config{
			MaxMessages:   cfg.SyncMaxMessages,
			SearchQueries: cfg.SearchQueries,
		},
	)

	logger.Info("Dependencies initialized")

	return &Dependencies{
		DB:           pool,
		SQLX:         db,
		Redis:        redisClient,
		Mongo:        mongoClient,
		Gmail:        gmail,
		OAuthService: oauthService,
		OrderService: orderService,
		SyncService:  syncService,
	}, cleanup, nil
}
