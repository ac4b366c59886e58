// Package main runs the campus organizations HTTP API with graceful shutdown.
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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campus-orgs/backend/config"
	"github.com/campus-orgs/backend/internal/auth"
	"github.com/campus-orgs/backend/internal/events"
	"github.com/campus-orgs/backend/internal/feed"
	"github.com/campus-orgs/backend/internal/middleware"
	"github.com/campus-orgs/backend/internal/models"
	"github.com/campus-orgs/backend/internal/organizations"
	"github.com/campus-orgs/backend/internal/uploads"
	"github.com/campus-orgs/backend/internal/users"
	"github.com/campus-orgs/backend/internal/worker"
	"github.com/campus-orgs/backend/pkg/database"
	"github.com/campus-orgs/backend/pkg/queue"
	"github.com/campus-orgs/backend/pkg/redis"
	"github.com/campus-orgs/backend/pkg/response"
	"github.com/campus-orgs/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	if err := rootCmd(logger).Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func rootCmd(logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "campus-orgs",
		Short:        "Campus organizations API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(logger)
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(logger)
		},
	})

	var down bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if down {
				return database.MigrateDown(cfg.Database.DSN(), logger)
			}
			return database.Migrate(cfg.Database.DSN(), logger)
		},
	}
	migrateCmd.Flags().BoolVarP(&down, "down", "d", false, "Roll back all migrations")
	root.AddCommand(migrateCmd)
	return root
}

func serve(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetime) * time.Minute,
	}, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			AssetsBucket:         cfg.AWS.AssetsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger).WithCleanupDelay(cfg.Upload.CleanupDelay())
	orgFeed := feed.NewRedisPubSub(rdb.Client, logger)

	authHandler := auth.NewHandler(auth.NewRepository(pool), jwtService, logger)

	orgRepo := organizations.NewRepository(pool)
	orgService := organizations.NewService(orgRepo, jobQueue, orgFeed, logger)
	orgHandler := organizations.NewHandler(orgService)

	eventHandler := events.NewHandler(events.NewService(events.NewRepository(pool), orgFeed, logger))
	userHandler := users.NewHandler(users.NewRepository(pool), orgService)
	// appCtx ends open feed sockets and the cleanup worker on shutdown.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()
	feedHandler := feed.NewHandler(appCtx, orgFeed, middleware.OriginChecker(cfg.Server.CORSAllowedOrigins), logger)

	var objects uploads.ObjectStore
	if s3Client != nil {
		objects = s3Client
	}
	uploadHandler := uploads.NewHandler(objects, cfg.Upload.MaxUploadBytes(), logger)

	requireMember := middleware.RequireOrgRole(orgService)
	requireManager := middleware.RequireOrgRole(orgService, models.RoleOwner, models.RoleAdmin)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/signin", authHandler.Signin)
		authGroup.GET("/username-available", authHandler.UsernameAvailable)
		authGroup.GET("/email-available", authHandler.EmailAvailable)
	}

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	orgHandler.Register(api, requireMember)
	eventHandler.Register(api, requireMember, requireManager)
	userHandler.Register(api)
	uploadHandler.Register(api)
	api.GET("/organizations/:id/feed", requireMember, feedHandler.Serve)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	if s3Client != nil {
		cleanup := worker.NewAssetCleanupProcessor(orgRepo, s3Client, jobQueue, logger)
		go cleanup.Run(appCtx)
		logger.Info("asset cleanup worker started")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	}

	appCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
