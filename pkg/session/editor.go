package session

import (
	"context"
	"fmt"
	"strconv"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// Editor mode transitions. All of them are admin-gated: a non-admin request
// is silently dropped so editor affordances stay invisible to regular users.

// handleEditorButtons switches the session into the buttons editor.
func handleEditorButtons(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "editor buttons") {
		return nil, nil
	}

	session.EditorMode = model.ModeButtons

	menu, err := sm.menuRender(session, "Buttons editor mode active")
	if err != nil {
		return nil, err
	}
	addHere := model.RenderManage{
		Title: "Click any button to manage it or use the option below:",
		Actions: []model.ManageAction{
			{
				Label:   "Add New Button Here",
				Command: model.Command{Scope: "button", Operation: "add", Args: []string{strconv.Itoa(session.CurrentButtonID)}},
			},
		},
	}
	return []model.Render{menu, addHere}, nil
}

// handleEditorPosts switches the session into the posts editor.
func handleEditorPosts(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "editor posts") {
		return nil, nil
	}

	session.EditorMode = model.ModePosts

	menu, err := sm.menuRender(session, "Posts editor mode active. Navigate to the button where you want to add content.")
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// handleEditorStop leaves any editor mode, dropping a pending operation.
// The cursor stays where it is.
func handleEditorStop(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	session.EditorMode = model.ModeNone
	session.Pending = model.PendingOp{}

	menu, err := sm.menuRender(session, "Editing stopped")
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// requireAdmin checks admin privilege for an editor action. Unauthorized
// attempts are logged and dropped without any user-visible response.
func (sm *SessionManager) requireAdmin(session *model.Session, action string) bool {
	if sm.isAdmin(session) {
		return true
	}
	sm.logger.Warn(context.Background(), "Unauthorized editor action dropped", log.Fields{
		"sessionID": session.ID,
		"userID":    session.UserID,
		"action":    action,
		"error":     model.ErrUnauthorized,
	})
	return false
}

// buttonManageRender builds the management context shown when an admin
// enters a button in the buttons editor.
func buttonManageRender(button *model.Button) model.Render {
	id := strconv.Itoa(button.ID)
	return model.RenderManage{
		Button: button,
		Title:  fmt.Sprintf("Managing button: %s", button.Name),
		Actions: []model.ManageAction{
			{Label: "Up", Command: model.Command{Scope: "button", Operation: "move", Args: []string{id, string(model.MoveUp)}}},
			{Label: "Down", Command: model.Command{Scope: "button", Operation: "move", Args: []string{id, string(model.MoveDown)}}},
			{Label: "Left", Command: model.Command{Scope: "button", Operation: "move", Args: []string{id, string(model.MoveLeft)}}},
			{Label: "Right", Command: model.Command{Scope: "button", Operation: "move", Args: []string{id, string(model.MoveRight)}}},
			{Label: "Rename", Command: model.Command{Scope: "button", Operation: "rename", Args: []string{id}}},
			{Label: "Delete", Command: model.Command{Scope: "button", Operation: "delete", Args: []string{id}}},
			{Label: "Add Sub-Button", Command: model.Command{Scope: "button", Operation: "add", Args: []string{id}}},
		},
	}
}

// contentManageRender builds the management context shown when an admin
// enters a button in the posts editor.
func contentManageRender(button *model.Button) model.Render {
	id := strconv.Itoa(button.ID)
	return model.RenderManage{
		Button: button,
		Title:  fmt.Sprintf("Managing content for: %s", button.Name),
		Actions: []model.ManageAction{
			{Label: "Add Content", Command: model.Command{Scope: "content", Operation: "add", Args: []string{id}}},
			{Label: "Clear Content", Command: model.Command{Scope: "content", Operation: "clear", Args: []string{id}}},
		},
	}
}
