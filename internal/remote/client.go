// Package remote composes the backend handle shared by the API server and the
// terminal client: auth provider, relational store, object storage and the
// realtime change feed.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crwn/internal/auth"
	"crwn/internal/cache"
	"crwn/internal/config"
	"crwn/internal/database"
	"crwn/internal/observability"
	"crwn/internal/realtime"
	"crwn/internal/repository"
	"crwn/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Watched lists the tables whose inserts are published on the feed, with the
// columns subscribers filter on.
var Watched = []realtime.Watch{
	{Table: "notifications", Columns: []string{"user_id"}},
	{Table: "posts", Columns: []string{"user_id"}},
	{Table: "likes", Columns: []string{"post_id", "user_id"}},
	{Table: "follows", Columns: []string{"following_id"}},
}

// Client is the backend handle.
type Client struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Auth     *auth.Provider
	Storage  storage.Provider
	Realtime realtime.Feed

	Users         repository.UserRepository
	Profiles      repository.ProfileRepository
	Posts         repository.PostRepository
	Follows       repository.FollowRepository
	Notifications repository.NotificationRepository
	Settings      repository.SettingsRepository

	// MaxUploadBytes bounds a single image upload; zero means unbounded.
	MaxUploadBytes int64
}

// Options carries the pieces New wires together.
type Options struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Feed           realtime.Feed
	Storage        storage.Provider
	JWTSecret      string
	MaxUploadBytes int64
}

// New wires a client from already opened resources. A nil Feed becomes a
// process-local feed.
func New(opts Options) (*Client, error) {
	if opts.DB == nil {
		return nil, errors.New("remote: database is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("remote: storage is required")
	}
	if opts.Feed == nil {
		opts.Feed = realtime.NewLocalFeed()
	}
	if err := realtime.WatchTables(opts.DB, opts.Feed, Watched...); err != nil {
		return nil, fmt.Errorf("watch tables: %w", err)
	}

	users := repository.NewUserRepository(opts.DB)
	return &Client{
		DB:             opts.DB,
		Redis:          opts.Redis,
		Auth:           auth.NewProvider(users, opts.Redis, opts.JWTSecret),
		Storage:        opts.Storage,
		Realtime:       opts.Feed,
		Users:          users,
		Profiles:       repository.NewProfileRepository(opts.DB),
		Posts:          repository.NewPostRepository(opts.DB),
		Follows:        repository.NewFollowRepository(opts.DB),
		Notifications:  repository.NewNotificationRepository(opts.DB),
		Settings:       repository.NewSettingsRepository(opts.DB),
		MaxUploadBytes: opts.MaxUploadBytes,
	}, nil
}

// Connect opens every backing resource described by cfg.
func Connect(ctx context.Context, cfg *config.Config) (*Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb = cache.InitRedis(cfg.RedisURL)
	}

	feed, err := realtime.New(realtime.Options{
		Driver:  cfg.RealtimeDriver,
		Redis:   rdb,
		NATSURL: cfg.NATSURL,
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageDir, cfg.StoragePublicURL)
	if err != nil {
		_ = feed.Close()
		return nil, err
	}

	c, err := New(Options{
		DB:             db,
		Redis:          rdb,
		Feed:           feed,
		Storage:        store,
		JWTSecret:      cfg.JWTSecret,
		MaxUploadBytes: int64(cfg.ImageMaxUploadSizeMB) << 20,
	})
	if err != nil {
		_ = feed.Close()
		return nil, err
	}

	observability.GlobalLogger.InfoContext(ctx, "remote client ready",
		slog.String("db_driver", cfg.DBDriver),
		slog.String("realtime_driver", feed.Driver()),
		slog.Bool("redis", rdb != nil),
	)
	return c, nil
}

// Bucket returns the named storage bucket.
func (c *Client) Bucket(name string) (storage.Bucket, error) {
	return c.Storage.Bucket(name)
}

// Close releases the feed, Redis and database connections.
func (c *Client) Close() error {
	var errs []error
	if c.Realtime != nil {
		errs = append(errs, c.Realtime.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
