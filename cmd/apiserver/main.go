package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reelchat/internal/config"
	"reelchat/internal/handlers/apiserver"
	appKafka "reelchat/internal/kafka"
	"reelchat/internal/logging"
	appRedis "reelchat/internal/redis"
	"reelchat/internal/services"
	"reelchat/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("REELCHAT_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.AppName+"-api", cfg.LogLevel)
	slog.Info("api server config loaded", "version", cfg.AppVersion)

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Token 黑名单
	blacklist, closeBlacklist, err := appRedis.OpenBlacklist(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeBlacklist()

	// 4. 领域事件发布
	var publisher services.EventPublisher = services.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = appKafka.NewEventPublisher(producer, cfg.Kafka.EventsTopic)
		slog.Info("publishing domain events", "topic", cfg.Kafka.EventsTopic, "brokers", cfg.Kafka.Brokers)
	} else {
		slog.Warn("kafka disabled, domain events are dropped")
	}

	// 5. 初始化 Services
	friendships := services.NewFriendshipService(db, publisher)
	svc := apiserver.Services{
		Auth:        services.NewAuthService(db, blacklist, cfg.Auth),
		Users:       services.NewUserService(db, friendships),
		Ledger:      services.NewFriendRequestService(db, publisher),
		Friendships: friendships,
		Rooms:       services.NewRoomService(db, publisher),
	}

	// 6. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      apiserver.NewRouter(svc, cfg, blacklist),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("api server listening", "addr", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down api server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	slog.Info("api server stopped")
	return nil
}
