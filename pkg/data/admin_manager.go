package data

import (
	"context"

	"menubot/bot-app/pkg/event"
	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
	"menubot/bot-app/pkg/storage"
)

// AdminManager wraps the admin store with bootstrap logic and event
// publication.
type AdminManager struct {
	adminStore storage.AdminStore
	eventMgr   *event.EventManager
	logger     *log.Logger
}

// NewAdminManager creates a new AdminManager instance.
func NewAdminManager(store *storage.Storage, eventMgr *event.EventManager, logger *log.Logger) *AdminManager {
	return &AdminManager{
		adminStore: store.AdminStore,
		eventMgr:   eventMgr,
		logger:     logger,
	}
}

// AdminAdd registers a user as admin. Re-adding an existing admin is a
// no-op.
func (m *AdminManager) AdminAdd(userID int64, displayName string) error {
	if err := m.adminStore.AdminAdd(model.AdminEntry{UserID: userID, DisplayName: displayName}); err != nil {
		return err
	}

	m.eventMgr.Publish(event.Event{Type: event.AdminAdded, Data: model.AdminEntry{UserID: userID, DisplayName: displayName}})
	return nil
}

// AdminList returns all registered admins.
func (m *AdminManager) AdminList() ([]model.AdminEntry, error) {
	return m.adminStore.AdminList()
}

// IsAdmin reports whether a user is in the admin set.
func (m *AdminManager) IsAdmin(userID int64) (bool, error) {
	return m.adminStore.AdminCheck(userID)
}

// EnsureBootstrap seeds the admin set on first interaction: the configured
// bootstrap admin is always registered, and when the set is still empty the
// interacting user becomes the first admin.
func (m *AdminManager) EnsureBootstrap(cfg *model.Config, userID int64, displayName string) error {
	ctx := context.Background()

	if cfg.BootstrapAdminID != 0 {
		if err := m.AdminAdd(cfg.BootstrapAdminID, cfg.BootstrapAdminName); err != nil {
			return err
		}
	}

	count, err := m.adminStore.AdminCount()
	if err != nil {
		return err
	}
	if count == 0 {
		m.logger.Info(ctx, "Admin set empty, registering first user", log.Fields{"userID": userID})
		return m.AdminAdd(userID, displayName)
	}
	return nil
}
