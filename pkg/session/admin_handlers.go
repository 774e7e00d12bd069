package session

import (
	"context"
	"fmt"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// handleAdminList shows the current admin set together with the add-admin
// action.
func handleAdminList(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "admin list") {
		return nil, nil
	}

	admins, err := sm.dataManager.AdminManager.AdminList()
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	return []model.Render{
		model.RenderAdminList{Admins: admins},
		model.RenderManage{
			Title: "Admin management",
			Actions: []model.ManageAction{
				{Label: "Add Admin", Command: model.Command{Scope: "admin", Operation: "add"}},
			},
		},
	}, nil
}

// handleAdminAddPrompt starts the two-step admin addition. The previous
// editor mode is recorded so it can be restored once the identity resolves.
func handleAdminAddPrompt(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "admin add") {
		return nil, nil
	}

	session.Pending = model.PendingOp{Kind: model.PendingAdminID, PrevMode: session.EditorMode}
	return []model.Render{model.RenderPrompt{Text: "Send the user id of the new admin or forward a message from them."}}, nil
}

// finishAdminAdd resolves a pending admin addition with a verified identity.
func (sm *SessionManager) finishAdminAdd(session *model.Session, userID int64, displayName string) ([]model.Render, error) {
	prevMode := session.Pending.PrevMode
	session.Pending = model.PendingOp{}
	session.EditorMode = prevMode

	if displayName == "" {
		displayName = "Unknown"
	}

	if err := sm.dataManager.AdminManager.AdminAdd(userID, displayName); err != nil {
		return nil, fmt.Errorf("failed to add admin: %w", err)
	}

	sm.logger.Info(context.Background(), "Admin added via session", log.Fields{"sessionID": session.ID, "newAdminID": userID})
	return []model.Render{model.RenderText{Text: fmt.Sprintf("Added %s (%d) as admin.", displayName, userID)}}, nil
}
