package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// handleButtonAddPrompt starts the two-step button addition: it records the
// target parent and waits for the next free-text input as the new name.
func handleButtonAddPrompt(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "button add") {
		return nil, nil
	}
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("button add: %w", model.ErrInvalidInput)
	}

	parentID, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, fmt.Errorf("button add parent %q: %w", cmd.Args[0], model.ErrInvalidInput)
	}

	session.Pending = model.PendingOp{Kind: model.PendingButtonName, ParentID: parentID}
	return []model.Render{model.RenderPrompt{Text: "Enter name for new button:"}}, nil
}

// finishButtonAdd resolves a pending button addition with the captured name.
func (sm *SessionManager) finishButtonAdd(session *model.Session, name string) ([]model.Render, error) {
	parentID := session.Pending.ParentID
	session.Pending = model.PendingOp{}

	if _, err := sm.dataManager.ButtonManager.ButtonAdd(name, parentID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// The target parent vanished while the name was being typed.
			sm.logger.Warn(context.Background(), "Pending add target is gone", log.Fields{"sessionID": session.ID, "parentID": parentID})
			return []model.Render{model.RenderText{Text: "That button no longer exists."}}, nil
		}
		return nil, fmt.Errorf("failed to add button: %w", err)
	}

	menu, err := sm.menuRender(session, fmt.Sprintf("Button '%s' added", name))
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// handleButtonMove reorders a button among its siblings. A stale id is a
// silent no-op.
func handleButtonMove(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "button move") {
		return nil, nil
	}
	if len(cmd.Args) < 2 {
		return nil, fmt.Errorf("button move: %w", model.ErrInvalidInput)
	}

	buttonID, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, fmt.Errorf("button move id %q: %w", cmd.Args[0], model.ErrInvalidInput)
	}
	direction := model.MoveDirection(cmd.Args[1])
	if !direction.Valid() {
		return nil, fmt.Errorf("button move direction %q: %w", cmd.Args[1], model.ErrInvalidInput)
	}

	if err := sm.dataManager.ButtonManager.ButtonMove(buttonID, direction); err != nil {
		return nil, fmt.Errorf("failed to move button: %w", err)
	}

	menu, err := sm.menuRender(session, "Order updated")
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// handleButtonDelete removes a button with the configured cascade policy.
func handleButtonDelete(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "button delete") {
		return nil, nil
	}
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("button delete: %w", model.ErrInvalidInput)
	}

	buttonID, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, fmt.Errorf("button delete id %q: %w", cmd.Args[0], model.ErrInvalidInput)
	}

	err = sm.dataManager.ButtonManager.ButtonDelete(buttonID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to delete button: %w", err)
	}

	// If the cursor sat inside the deleted subtree, nav back recovers at
	// the root via the missing-parent path.
	menu, err := sm.menuRender(session, "Button deleted")
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// handleButtonRename renames a button in place. The new name is everything
// after the id, joined back together.
func handleButtonRename(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "button rename") {
		return nil, nil
	}
	if len(cmd.Args) < 2 {
		return []model.Render{model.RenderPrompt{Text: "Send the new name."}}, nil
	}

	buttonID, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, fmt.Errorf("button rename id %q: %w", cmd.Args[0], model.ErrInvalidInput)
	}
	newName := strings.Join(cmd.Args[1:], " ")

	err = sm.dataManager.ButtonManager.ButtonRename(buttonID, newName)
	if errors.Is(err, model.ErrNotFound) {
		return []model.Render{model.RenderText{Text: "That button no longer exists."}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rename button: %w", err)
	}

	menu, err := sm.menuRender(session, fmt.Sprintf("Renamed to '%s'", newName))
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}
