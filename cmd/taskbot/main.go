package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/adapters/duckdb"
	"github.com/Tafzeel99/todo-agent/internal/config"
	"github.com/Tafzeel99/todo-agent/internal/core/lang"
	"github.com/Tafzeel99/todo-agent/internal/core/parser"
	"github.com/Tafzeel99/todo-agent/internal/core/services"
	"github.com/Tafzeel99/todo-agent/pkg/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting taskbot")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := duckdb.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open task store: %w", err)
	}
	defer store.Close()

	agent := services.NewAgent(
		logger,
		parser.New(lang.MustLoad()),
		services.NewDispatcher(store, logger, time.Duration(cfg.StoreTimeout)),
		services.NewContextTracker(cfg.ContextRefs, cfg.ContextConversations),
		services.NewEventBus(logger),
	)

	return server.New(logger, agent).Run(ctx, cfg.HTTPAddr)
}
