// Main entry point of the menu bot. Initializes configuration, logging,
// storage, the data and session layers and the transport adapters, then
// waits for a termination signal and shuts everything down in reverse order.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"menubot/bot-app/pkg/adapter"
	"menubot/bot-app/pkg/config"
	"menubot/bot-app/pkg/data"
	"menubot/bot-app/pkg/event"
	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/session"
	"menubot/bot-app/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := log.NewLogger(cfg, log.LevelInfo)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	store, err := storage.NewStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	eventManager := event.NewEventManager(logger)

	dataManager, err := data.NewDataManager(store, eventManager, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create data manager: %w", err)
	}

	sessionManager := session.NewSessionManager(dataManager, logger)
	defer sessionManager.Stop()

	adapterManager := adapter.NewAdapterManager(sessionManager, logger)
	adapterManager.Register("cli", func(am *adapter.AdapterManager) (adapter.AdapterInstance, error) {
		return adapter.NewCLIAdapter(am, cfg, logger)
	})
	adapterManager.Register("telegram", func(am *adapter.AdapterManager) (adapter.AdapterInstance, error) {
		return adapter.NewTelegramAdapter(am, cfg, logger)
	})
	defer adapterManager.Shutdown()

	if cfg.TelegramToken != "" {
		if _, err := adapterManager.AdapterAdd("telegram"); err != nil {
			return fmt.Errorf("failed to start telegram adapter: %w", err)
		}
	} else {
		logger.Info(ctx, "No telegram token configured, starting console only", nil)
		if _, err := adapterManager.AdapterAdd("cli"); err != nil {
			return fmt.Errorf("failed to start cli adapter: %w", err)
		}
	}

	logger.Info(ctx, "Menu bot started", nil)
	<-sigChan
	logger.Info(ctx, "Shutting down", nil)
	return nil
}
