package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/config"
	"github.com/greenbasket/greenbasket/internal/core"
	"github.com/greenbasket/greenbasket/internal/di"
	"github.com/greenbasket/greenbasket/internal/ports"
)

func main() {
	// A .env file is optional; deployments set environment variables directly
	_ = godotenv.Load()

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Fail fast on configuration errors before any adapter is constructed
	if err := container.Invoke(func(cfg *config.Config) error { return cfg.Validate() }); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	transports []ports.Transport,
	assistant ports.LLMAssistant,
	factorCache core.FactorCache,
	history ports.HistoryStore,
) error {
	defer logger.Sync()

	// Start the transports
	for _, transport := range transports {
		if err := transport.Start(); err != nil {
			logger.Error("Failed to start transport", zap.Error(err))
			return err
		}
	}
	logger.Info("Greenbasket is ready", zap.Int("transports", len(transports)))

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the transports
	for _, transport := range transports {
		if err := transport.Stop(); err != nil {
			logger.Error("Failed to stop transport", zap.Error(err))
		}
	}

	// Close any resources that need closing
	if closer, ok := assistant.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close AI assistant", zap.Error(err))
		}
	}

	// Stop the cache if needed
	if stopper, ok := factorCache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	// Close the history store if one is configured
	if history != nil {
		if err := history.Close(); err != nil {
			logger.Error("Failed to close history store", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
