package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tush00nka/filestash/internal/backend"
	"tush00nka/filestash/internal/config"
	"tush00nka/filestash/internal/handler"
	"tush00nka/filestash/internal/pkg/auth"
	"tush00nka/filestash/internal/pkg/mail"
	"tush00nka/filestash/internal/repository"
	"tush00nka/filestash/internal/service"
	"tush00nka/filestash/internal/storage"
	"tush00nka/filestash/internal/ws"
)

// Run wires the stores, services and handlers and serves until shutdown.
func Run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.NewDB(cfg.DSN())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		return err
	}

	rdb, err := repository.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	blobs, err := storage.NewS3Storage(ctx, storage.Options{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
	})
	if err != nil {
		return err
	}
	if err := blobs.HealthCheck(ctx); err != nil {
		logger.Warn("object storage is not reachable yet", "error", err)
	}

	tokens := auth.NewTokenIssuer(cfg.JWTKey, cfg.SessionTTL)

	factory := backend.NewFactory(backend.Deps{
		Files:       repository.NewFileRepository(db),
		Users:       repository.NewUserRepository(db),
		Accounts:    repository.NewAccountRepository(db),
		Challenges:  repository.NewChallengeRepository(rdb),
		Sessions:    repository.NewSessionRepository(rdb),
		Storage:     blobs,
		Mailer:      mail.NewLogSender(cfg.MailFrom, logger),
		Tokens:      tokens,
		CodeTTL:     cfg.CodeTTL,
		MaxAttempts: cfg.CodeAttempts,
	})

	userService := service.NewUserService(factory, cfg.DefaultAvatar)
	fileService := service.NewFileService(factory, repository.NewUsageCache(rdb, cfg.UsageCacheTTL), service.FileOptions{
		Bucket:         cfg.Bucket,
		PublicEndpoint: cfg.PublicEndpoint,
		ProjectID:      cfg.ProjectID,
		Capacity:       cfg.StorageCapacity,
		ViewURLExpiry:  cfg.ViewURLExpiry,
	})

	hub := ws.NewHub(ws.HubOptions{MaxConnectionsPerUser: cfg.SearchConnections})
	upgrader := ws.NewUpgrader(cfg.AllowedOrigins, cfg.IsDevelopment())

	server := NewServer(userService, Handlers{
		Users:  handler.NewUserHandler(userService, cfg.SessionTTL, cfg.SecureCookies),
		Files:  handler.NewFileHandler(fileService, cfg.MaxUploadSize),
		Search: handler.NewSearchHandler(fileService, hub, upgrader, cfg.SearchDebounce),
	}, hub, cfg.AllowedOrigins, logger)

	if err := server.Run(cfg.ServerPort); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
