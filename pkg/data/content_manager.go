package data

import (
	"menubot/bot-app/pkg/event"
	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
	"menubot/bot-app/pkg/storage"
)

// ContentManager wraps the content store with event publication.
type ContentManager struct {
	contentStore storage.ContentStore
	eventMgr     *event.EventManager
	logger       *log.Logger
}

// NewContentManager creates a new ContentManager instance.
func NewContentManager(store *storage.Storage, eventMgr *event.EventManager, logger *log.Logger) *ContentManager {
	return &ContentManager{
		contentStore: store.ContentStore,
		eventMgr:     eventMgr,
		logger:       logger,
	}
}

// ContentAdd attaches a content item to a button and returns its id.
func (m *ContentManager) ContentAdd(item model.ContentItem) (int, error) {
	id, err := m.contentStore.ContentAdd(item)
	if err != nil {
		return 0, err
	}

	item.ID = id
	m.eventMgr.Publish(event.Event{Type: event.ContentAdded, Data: item})
	return id, nil
}

// ContentGet returns the content items of a button in insertion order.
func (m *ContentManager) ContentGet(buttonID int) ([]*model.ContentItem, error) {
	return m.contentStore.ContentGet(buttonID)
}

// ContentClear removes all content items of a button.
func (m *ContentManager) ContentClear(buttonID int) error {
	if err := m.contentStore.ContentClear(buttonID); err != nil {
		return err
	}

	m.eventMgr.Publish(event.Event{Type: event.ContentCleared, Data: buttonID})
	return nil
}
