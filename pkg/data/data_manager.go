// Package data provides managers over the storage layer. Managers own the
// business rules and locking; stores own persistence.
package data

import (
	"menubot/bot-app/pkg/event"
	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
	"menubot/bot-app/pkg/storage"
)

// DataManager is an aggregation of all entity managers.
type DataManager struct {
	ButtonManager  *ButtonManager
	ContentManager *ContentManager
	AdminManager   *AdminManager
	EventManager   *event.EventManager
	Logger         *log.Logger
	Config         *model.Config
}

// NewDataManager creates a new DataManager instance with all entity managers.
func NewDataManager(store *storage.Storage, eventManager *event.EventManager, cfg *model.Config, logger *log.Logger) (*DataManager, error) {
	dm := &DataManager{
		EventManager: eventManager,
		Logger:       logger,
		Config:       cfg,
	}

	dm.ButtonManager = NewButtonManager(store, eventManager, cfg, logger)
	dm.ContentManager = NewContentManager(store, eventManager, logger)
	dm.AdminManager = NewAdminManager(store, eventManager, logger)

	return dm, nil
}
