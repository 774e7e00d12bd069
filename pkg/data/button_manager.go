package data

import (
	"context"
	"sync"

	"menubot/bot-app/pkg/event"
	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
	"menubot/bot-app/pkg/storage"
)

// ButtonManager wraps the button store with tree-level locking and event
// publication. The mutex serializes every tree mutation: the move operation
// is a read-then-swap and two concurrent moves under the same parent must
// not interleave. Tree-wide granularity is coarser than strictly needed but
// mutations are short and rare compared to reads.
type ButtonManager struct {
	buttonStore storage.ButtonStore
	eventMgr    *event.EventManager
	cfg         *model.Config
	logger      *log.Logger
	treeMu      sync.Mutex
}

// NewButtonManager creates a new ButtonManager instance.
func NewButtonManager(store *storage.Storage, eventMgr *event.EventManager, cfg *model.Config, logger *log.Logger) *ButtonManager {
	return &ButtonManager{
		buttonStore: store.ButtonStore,
		eventMgr:    eventMgr,
		cfg:         cfg,
		logger:      logger,
	}
}

// ButtonAdd creates a new button under the given parent and returns its id.
func (m *ButtonManager) ButtonAdd(name string, parentID int) (int, error) {
	m.treeMu.Lock()
	defer m.treeMu.Unlock()

	id, err := m.buttonStore.ButtonAdd(model.ButtonInfo{Name: name, ParentID: parentID})
	if err != nil {
		return 0, err
	}

	m.eventMgr.Publish(event.Event{Type: event.ButtonAdded, Data: model.ButtonInfo{ID: id, Name: name, ParentID: parentID}})
	return id, nil
}

// ButtonChildren lists the direct children of a parent in display order.
func (m *ButtonManager) ButtonChildren(parentID int) ([]*model.Button, error) {
	return m.buttonStore.ButtonChildren(parentID)
}

// ButtonByID returns a single button, or nil when it does not exist.
func (m *ButtonManager) ButtonByID(id int) (*model.Button, error) {
	buttons, err := m.buttonStore.ButtonGet(model.ButtonInfo{ID: id}, model.ButtonFilter{ID: true})
	if err != nil {
		return nil, err
	}
	if len(buttons) == 0 {
		return nil, nil
	}
	return buttons[0], nil
}

// ChildByName resolves a display label to a child of the given parent by
// exact name match. Returns nil when no child matches; sibling names are
// expected to be unique, on duplicates the lowest (order_index, id) wins.
func (m *ButtonManager) ChildByName(parentID int, name string) (*model.Button, error) {
	buttons, err := m.buttonStore.ButtonGet(
		model.ButtonInfo{ParentID: parentID, Name: name},
		model.ButtonFilter{ParentID: true, Name: true})
	if err != nil {
		return nil, err
	}
	if len(buttons) == 0 {
		return nil, nil
	}
	return buttons[0], nil
}

// ButtonParent returns the parent id of a button.
func (m *ButtonManager) ButtonParent(buttonID int) (int, error) {
	return m.buttonStore.ButtonParent(buttonID)
}

// ButtonRename changes a button's display name.
func (m *ButtonManager) ButtonRename(buttonID int, newName string) error {
	m.treeMu.Lock()
	defer m.treeMu.Unlock()

	if err := m.buttonStore.ButtonRename(buttonID, newName); err != nil {
		return err
	}

	m.eventMgr.Publish(event.Event{Type: event.ButtonRenamed, Data: model.ButtonInfo{ID: buttonID, Name: newName}})
	return nil
}

// ButtonDelete removes a button using the configured cascade policy.
func (m *ButtonManager) ButtonDelete(buttonID int) error {
	m.treeMu.Lock()
	defer m.treeMu.Unlock()

	policy := m.cfg.CascadePolicyValue()
	if err := m.buttonStore.ButtonDelete(buttonID, policy); err != nil {
		return err
	}

	m.eventMgr.Publish(event.Event{Type: event.ButtonDeleted, Data: model.ButtonInfo{ID: buttonID}})
	return nil
}

// ButtonMove reorders a button among its siblings with wraparound swap
// semantics.
func (m *ButtonManager) ButtonMove(buttonID int, direction model.MoveDirection) error {
	m.treeMu.Lock()
	defer m.treeMu.Unlock()

	if err := m.buttonStore.ButtonMove(buttonID, direction); err != nil {
		m.logger.Error(context.Background(), "Button move failed", log.Fields{"error": err, "buttonID": buttonID})
		return err
	}

	m.eventMgr.Publish(event.Event{Type: event.ButtonMoved, Data: model.ButtonInfo{ID: buttonID}})
	return nil
}
