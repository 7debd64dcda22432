package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/analyzer"
	"github.com/papersnap/ocr-worker/internal/api"
	"github.com/papersnap/ocr-worker/internal/config"
	"github.com/papersnap/ocr-worker/internal/engine"
	"github.com/papersnap/ocr-worker/internal/metrics"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	version    = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("ocrworker version %s\n", version)
			return
		}
	}

	flag.Parse()

	if err := config.LoadEnvFiles(); err != nil {
		log.Printf("Warning: failed to load .env files: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	m := metrics.New()

	registry := engine.NewRegistry(cfg.Engines, engine.DefaultProbes(cfg.Engines), logger)
	invokers := map[string]engine.Invoker{
		engine.Tesseract: engine.NewTesseractInvoker(cfg.Engines.Tesseract, logger),
		engine.Surya:     engine.NewSuryaInvoker(cfg.Engines.Surya, logger),
		engine.GCV:       engine.NewGCVInvoker(cfg.Engines.GCV, logger),
		engine.DeepSeek:  engine.NewDeepSeekInvoker(cfg.Engines.DeepSeek, logger),
	}
	orchestrator := engine.NewOrchestrator(registry, invokers, logger, m)
	service := analyzer.New(registry, orchestrator, logger, m)

	registry.Refresh(context.Background())
	for _, desc := range registry.List() {
		logger.Info("engine state",
			zap.String("engine", desc.ID),
			zap.Bool("enabled", desc.Enabled),
			zap.Bool("available", desc.Available),
			zap.String("reason", desc.Reason),
		)
	}

	server := api.New(cfg, service, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}
