package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/nearcade-kakao-bot/internal/botbuilder"
	appcfg "github.com/park285/nearcade-kakao-bot/internal/config"
	"github.com/park285/nearcade-kakao-bot/internal/irisfast"
	"github.com/park285/nearcade-kakao-bot/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	deps, err := botbuilder.New(initCtx, cfg, logger)
	initCancel()
	if err != nil {
		logger.Fatal("init_failed", zap.Error(err))
	}

	deps.WS.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := deps.WS.Connect(cctx); err != nil {
		// Connect already scheduled reconnects; keep running.
		logger.Warn("ws_connect_failed", zap.Error(err))
	}
	cancel()

	logger.Info("bot_started",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("transport", cfg.TransportMode),
		zap.String("store", cfg.StoreBackend),
		zap.Bool("dryrun", cfg.EgressDryRun),
	)

	<-ctx.Done()
	logger.Info("bot_stopping")

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := deps.Close(sctx); err != nil {
		logger.Warn("shutdown_incomplete", zap.Error(err))
	}
}
