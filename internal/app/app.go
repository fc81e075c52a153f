package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Roroshi7/TaskManager/internal/config"
	"github.com/Roroshi7/TaskManager/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type App struct {
	cfg    config.Config
	store  *store.Manager
	redis  *redis.Client
	router *gin.Engine
	log    zerolog.Logger
}

func New(cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	a.store = store.NewManager(store.Dial(cfg.PG.DSN), store.Options{
		MaxAttempts: cfg.PG.MaxRetries,
		RetryDelay:  cfg.PG.RetryDelay.Duration(),
		OnConnect: func(ctx context.Context, _ *pgxpool.Pool) error {
			return runMigrations(cfg.PG.DSN, "./migrations")
		},
		Logger: log,
	})

	// The process starts even when the store is down: requests fail until a
	// later call re-establishes the connection.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := a.store.EnsureConnected(ctx); err != nil {
		log.Warn().Err(err).Msg("starting without store connection")
	}

	rdb, err := newRedis(cfg.Redis)
	if err != nil {
		a.store.Close()
		return nil, err
	}
	a.redis = rdb

	a.router = newRouter(cfg, a.store, a.redis, log)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.store.Close()
	return nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(dsn string, migrationsDir string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func newRouter(cfg config.Config, st *store.Manager, rdb *redis.Client, log zerolog.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, st, rdb)
	return r
}
