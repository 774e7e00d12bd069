package storage

import (
	"fmt"
	"path/filepath"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// Storage represents the main storage implementation.
type Storage struct {
	db     Database
	logger *log.Logger
	ButtonStore
	ContentStore
	AdminStore
}

// NewStorage creates a new Storage instance and initializes the database.
func NewStorage(config *model.Config, logger *log.Logger) (*Storage, error) {
	dbDriver, err := validateDBDriver(config.DatabaseType)
	if err != nil {
		return nil, fmt.Errorf("invalid database driver '%s': %w", config.DatabaseType, err)
	}

	db, err := NewDatabase(dbDriver, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database instance: %w", err)
	}

	dataSourceName := filepath.Join(config.DatabaseDir, config.DatabaseFile)

	if err := db.Open(dataSourceName); err != nil {
		return nil, fmt.Errorf("failed to open database connection '%s': %w", dataSourceName, err)
	}

	storage := &Storage{
		db:     db,
		logger: logger,
	}

	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	storage.ButtonStore = NewButtonStorage(storage)
	storage.ContentStore = NewContentStorage(storage)
	storage.AdminStore = NewAdminStorage(storage)

	return storage, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// GetDatabase returns the database instance
func (s *Storage) GetDatabase() Database {
	return s.db
}
