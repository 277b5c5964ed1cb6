package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/namestofaces/internal/middleware"
	"github.com/dfryer1193/namestofaces/internal/rest"
	"github.com/dfryer1193/namestofaces/people/application"
	"github.com/dfryer1193/namestofaces/people/domain"
	"github.com/dfryer1193/namestofaces/people/events"
	"github.com/dfryer1193/namestofaces/people/persistence"
	"github.com/dfryer1193/namestofaces/shared/config"
	"github.com/dfryer1193/namestofaces/shared/db"
	"github.com/dfryer1193/namestofaces/shared/db/sqlite"
	"github.com/dfryer1193/namestofaces/shared/logging"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout   = 5 * time.Second
	defaultConfigPath = "./config.yaml"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		// logger is not configured yet
		logging.InitializeLogger("info")
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.InitializeLogger(cfg.LogLevel)

	prefs, closeStore, err := openPreferenceStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store.Type).Msg("Failed to open preference store")
	}
	defer closeStore()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := events.NewHub()
	go hub.Run(ctx)

	images := persistence.NewImageRepository(cfg.DocumentsDir)
	people := application.NewCollectionService(prefs, images,
		application.WithNotifier(hub),
		application.WithImageProcessor(application.NewImageProcessor(cfg.Image.JPEGQuality)),
	)
	defer func() {
		if err := people.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close collection service")
		}
	}()
	people.Load(ctx)
	people.StartAutoLock(cfg.AutoLockAfter)

	vault := application.NewPasswordVault(persistence.NewSecretRepository(prefs))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(people, vault, hub, cfg.Image.ThumbnailSize).SetRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		log.Info().Msg("Starting server on port :" + fmt.Sprint(cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server")
	}

	// leave the collection flushed and locked
	people.SetLocked(shutdownCtx, true)

	log.Info().Msg("Server stopped")
}

func openPreferenceStore(cfg config.StoreConfig) (domain.PreferenceStore, func(), error) {
	switch cfg.Type {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}

		log.Info().Str("addr", cfg.RedisAddr).Msg("Using redis preference store")
		return persistence.NewRedisPreferenceRepository(client), func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close redis client")
			}
		}, nil

	default:
		var database db.Database = sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: cfg.SQLitePath})
		if err := database.Connect(); err != nil {
			return nil, nil, err
		}

		log.Info().Str("path", cfg.SQLitePath).Msg("Using sqlite preference store")
		return persistence.NewPreferenceRepository(database.DB()), func() {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}, nil
	}
}
