// Package server initializes and runs the blog API server. It wires the
// database, cache and object-store backed services together and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/goblog/internal/logging"
	"github.com/dmitrijs2005/goblog/internal/server/cache"
	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/httpapi"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/goblog/internal/server/revocation"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	cache  *cache.RedisCache
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	redisCache := cache.NewRedisCache(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisCache.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cache init error: %w", err)
	}

	revocations, err := revocation.NewStore(redisCache,
		cfg.RevocationRetentionDuration, cfg.TokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("revocation store error: %w", err)
	}

	userService := services.NewUserService(db, rm, revocations, cfg)
	postService := services.NewPostService(db, rm, redisCache, cfg.PostCacheTTL, logger)
	favoriteService := services.NewFavoriteService(db, rm, logger)
	categoryService := services.NewCategoryService(db, rm)
	pictureService := services.NewPictureService(cfg)

	server := httpapi.NewServer(cfg.EndpointAddrHTTP, logger, []byte(cfg.SecretKey), revocations,
		userService, postService, favoriteService, categoryService, pictureService)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		cache:  redisCache,
		server: server,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
	if err := app.cache.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	app.logger.Info(ctx, "app stopped")
}
