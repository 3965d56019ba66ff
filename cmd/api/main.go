package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lukewhite/docuchat/internal/config"
	"github.com/lukewhite/docuchat/internal/handler"
	"github.com/lukewhite/docuchat/internal/handler/events"
	agentservice "github.com/lukewhite/docuchat/internal/service/agent"
	chatservice "github.com/lukewhite/docuchat/internal/service/chat"
	"github.com/lukewhite/docuchat/internal/service/conversation"
	knowledgeservice "github.com/lukewhite/docuchat/internal/service/knowledge"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store := conversation.NewService(logger)
	agentClient := agentservice.NewClient(agentservice.Config{
		BaseURL: cfg.Agent.BaseURL,
		AgentID: cfg.Agent.AgentID,
		Timeout: cfg.Agent.Timeout,
	}, logger)
	pipeline := chatservice.NewPipeline(store, agentClient, logger)

	hub := events.NewHub(logger)

	notifier := knowledgeservice.NewNotifier(cfg.Knowledge.BaseID, logger)
	notifier.OnUploadSuccess(func() {
		hub.PublishKnowledgeEvent("upload")
	})
	notifier.OnDeleteSuccess(func() {
		hub.PublishKnowledgeEvent("delete")
	})

	router := handler.NewRouter(store, pipeline, notifier, hub, logger)

	logger.Info("docuchat backend starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("agentBaseUrl", cfg.Agent.BaseURL),
		zap.String("agentId", cfg.Agent.AgentID))

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
