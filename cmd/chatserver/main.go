package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"reelchat/internal/config"
	"reelchat/internal/handlers/chatserver"
	appKafka "reelchat/internal/kafka"
	kafkahandlers "reelchat/internal/kafka/handlers"
	"reelchat/internal/logging"
	appRedis "reelchat/internal/redis"
	"reelchat/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		slog.Error("chat server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. 加载配置
	cfg, err := config.LoadConfig(os.Getenv("REELCHAT_CONFIG"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.AppName+"-chat", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blacklist, closeBlacklist, err := appRedis.OpenBlacklist(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeBlacklist()

	// 2. WebSocket Hub
	hub := websocket.NewHub()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	// 3. Kafka 事件消费者。每个实例使用独立的 group，保证所有实例都收到全部事件。
	if cfg.Kafka.Enabled {
		consumer := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
		defer consumer.Close()
		logic := kafkahandlers.NewEventConsumerLogic(hub)
		groupID := instanceGroup(cfg.Kafka.ConsumerGroup)

		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("consuming domain events", "topic", cfg.Kafka.EventsTopic, "group", groupID)
			err := consumer.Consume(ctx, []string{cfg.Kafka.EventsTopic}, groupID, logic.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("event consumer stopped", "err", err)
				stop()
			}
		}()
	} else {
		slog.Warn("kafka disabled, no events will reach websocket clients")
	}

	// 4. HTTP 服务器
	wsHandler := chatserver.NewWebSocketHandler(hub, blacklist, cfg)
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)
	mux.HandleFunc("/healthz", wsHandler.Health)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        mux,
		ReadTimeout:    cfg.Server.ReadTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("chat server listening", "addr", serverAddr, "path", cfg.Server.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("chat server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down chat server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		slog.Warn("chat server shutdown", "err", err)
	}
	wg.Wait()
	slog.Info("chat server stopped")
	return nil
}

func instanceGroup(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = fmt.Sprintf("pid%d", os.Getpid())
	}
	return base + "-" + host
}
