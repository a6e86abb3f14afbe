package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/gogo/debatebridge/internal/adapter/debateclient"
	"github.com/xiaot623/gogo/debatebridge/internal/adapter/publisher"
	"github.com/xiaot623/gogo/debatebridge/internal/config"
	"github.com/xiaot623/gogo/debatebridge/internal/eventbus"
	redismirror "github.com/xiaot623/gogo/debatebridge/internal/eventbus/redis"
	"github.com/xiaot623/gogo/debatebridge/internal/logging"
	"github.com/xiaot623/gogo/debatebridge/internal/metrics"
	"github.com/xiaot623/gogo/debatebridge/internal/repository"
	"github.com/xiaot623/gogo/debatebridge/internal/service"
	"github.com/xiaot623/gogo/debatebridge/internal/tools"
	httpserver "github.com/xiaot623/gogo/debatebridge/internal/transport/http"
	v1 "github.com/xiaot623/gogo/debatebridge/internal/transport/http/v1"
	"github.com/xiaot623/gogo/debatebridge/internal/transport/rpc"
	"github.com/xiaot623/gogo/debatebridge/policy"
)

const publishTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting debate bridge",
		"http_port", cfg.HTTPPort,
		"rpc_port", cfg.RPCPort,
		"upstream_url", cfg.UpstreamURL,
		"database", cfg.DatabaseURL,
		"publishing", cfg.PublishURL != "",
		"redis_mirror", cfg.RedisURL != "",
	)

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize event mirror
	var mirror eventbus.Mirror = eventbus.NoOp{}
	if cfg.RedisURL != "" {
		rm, err := redismirror.NewMirrorFromURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to initialize redis mirror", "error", err)
			os.Exit(1)
		}
		mirror = rm
	}
	defer mirror.Close()

	m := metrics.New("debatebridge")

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Error("failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	// Initialize service
	upstream := debateclient.NewClient(cfg.UpstreamURL, cfg.UpstreamAPIKey)
	pub := publisher.NewClient(cfg.PublishURL, cfg.PublishAPIKey, publishTimeout)
	svc := service.New(cfg, upstream, pub, db, mirror, m, logger)

	registry := tools.NewRegistry()
	if err := tools.RegisterDebateTools(registry, svc); err != nil {
		logger.Error("failed to register tools", "error", err)
		os.Exit(1)
	}
	router := tools.NewRouter(registry, policyEngine, cfg.MaxAgents, m, logger)

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go svc.RunIdleMonitor(monitorCtx)

	// HTTP server
	server := httpserver.NewServer(v1.NewHandler(svc, router, db), m.Handler())
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("http api started", "port", cfg.HTTPPort)

	// RPC server
	var rpcServer *rpc.Server
	if cfg.RPCPort > 0 {
		rpcServer, err = rpc.NewServer(router, logger)
		if err != nil {
			logger.Error("failed to initialize rpc server", "error", err)
			os.Exit(1)
		}
		go func() {
			addr := fmt.Sprintf(":%d", cfg.RPCPort)
			if err := rpcServer.Start(addr); err != nil {
				logger.Error("rpc server failed", "error", err)
				os.Exit(1)
			}
		}()
		logger.Info("rpc api started", "port", cfg.RPCPort)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down debate bridge")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown http server gracefully", "error", err)
	}
	if rpcServer != nil {
		if err := rpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown rpc server gracefully", "error", err)
		}
	}
	stopMonitor()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("upstream streams did not stop in time", "error", err)
	}

	logger.Info("debate bridge stopped")
}
