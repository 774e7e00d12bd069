package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// Reserved navigation labels. These exact strings are owned by the core:
// adapters present them as keyboard buttons and the navigation engine maps
// them back to commands before any other interpretation of free text.
const (
	LabelBack          = "Back"
	LabelMainMenu      = "Main Menu"
	LabelStopEditing   = "Stop Editing"
	LabelButtonsEditor = "Buttons Editor"
	LabelPostsEditor   = "Posts Editor"
	LabelAdmins        = "Admins"
)

// reservedCommand maps a reserved label to its command. The second return
// is false for ordinary text.
func reservedCommand(text string) (model.Command, bool) {
	switch text {
	case LabelBack:
		return model.Command{Scope: "nav", Operation: "back"}, true
	case LabelMainMenu:
		return model.Command{Scope: "nav", Operation: "main"}, true
	case LabelStopEditing:
		return model.Command{Scope: "editor", Operation: "stop"}, true
	case LabelButtonsEditor:
		return model.Command{Scope: "editor", Operation: "buttons"}, true
	case LabelPostsEditor:
		return model.Command{Scope: "editor", Operation: "posts"}, true
	case LabelAdmins:
		return model.Command{Scope: "admin", Operation: "list"}, true
	}
	return model.Command{}, false
}

// handleSessionStart resets the session and renders the entry menu. The
// bootstrap admin is seeded here, mirroring first-run behavior.
func handleSessionStart(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	ctx := context.Background()
	sm.logger.Info(ctx, "Handling session start", log.Fields{"sessionID": session.ID})

	session.Reset()

	if err := sm.dataManager.AdminManager.EnsureBootstrap(sm.dataManager.Config, session.UserID, session.DisplayName); err != nil {
		return nil, fmt.Errorf("failed to bootstrap admins: %w", err)
	}

	welcome := "Welcome to the lectures bot"
	if sm.isAdmin(session) {
		welcome = "Admin panel"
	}

	menu, err := sm.menuRender(session, welcome)
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// handleInputText is the entry point for free text: a typed message or a
// reply-keyboard press. Precedence is fixed: pending multi-step operations
// first, with reserved labels cancelling a pending button-name capture, then
// reserved labels, then navigation.
func handleInputText(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	ctx := context.Background()
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("input text: %w", model.ErrInvalidInput)
	}
	text := cmd.Args[0]

	switch session.Pending.Kind {
	case model.PendingButtonName:
		// Reserved labels cancel the pending add and are reprocessed as
		// ordinary navigation. This is the only way out of a stuck
		// "awaiting name" state.
		if reserved, ok := reservedCommand(text); ok {
			sm.logger.Info(ctx, "Pending button add cancelled by reserved label", log.Fields{"sessionID": session.ID, "label": text})
			session.Pending = model.PendingOp{}
			return sm.dispatch(session, reserved)
		}
		return sm.finishButtonAdd(session, text)

	case model.PendingAdminID:
		// Any text is an identity attempt here; invalid input re-prompts
		// and the pending state is kept.
		if id, err := strconv.ParseInt(text, 10, 64); err == nil {
			return sm.finishAdminAdd(session, id, "")
		}
		sm.logger.Debug(ctx, "Invalid admin identity input", log.Fields{"sessionID": session.ID})
		return []model.Render{model.RenderPrompt{Text: "Invalid input. Send a numeric user id or forward a message from the user."}}, nil
	}

	if reserved, ok := reservedCommand(text); ok {
		return sm.dispatch(session, reserved)
	}

	return sm.navigate(session, text)
}

// handleInputIdentity carries a forwarded-message origin: args are the user
// id and an optional display name. It only means something while an admin
// addition is pending.
func handleInputIdentity(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	ctx := context.Background()
	if session.Pending.Kind != model.PendingAdminID {
		sm.logger.Debug(ctx, "Identity assertion outside admin add, ignored", log.Fields{"sessionID": session.ID})
		return nil, nil
	}
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("input identity: %w", model.ErrInvalidInput)
	}

	id, err := strconv.ParseInt(cmd.Args[0], 10, 64)
	if err != nil {
		return []model.Render{model.RenderPrompt{Text: "Invalid input. Send a numeric user id or forward a message from the user."}}, nil
	}

	name := ""
	if len(cmd.Args) > 1 {
		name = cmd.Args[1]
	}
	return sm.finishAdminAdd(session, id, name)
}

// navigate resolves a text label against the children of the cursor node.
// Unrecognized labels yield no renders and leave the cursor untouched.
func (sm *SessionManager) navigate(session *model.Session, label string) ([]model.Render, error) {
	ctx := context.Background()

	button, err := sm.dataManager.ButtonManager.ChildByName(session.CurrentButtonID, label)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve label: %w", err)
	}
	if button == nil {
		// Arbitrary user text, deliberately ignored.
		sm.logger.Debug(ctx, "Unrecognized label", log.Fields{"sessionID": session.ID, "label": label})
		return nil, nil
	}

	var renders []model.Render

	// Editing takes precedence over browsing: in an editor mode entering a
	// node yields its management context instead of leaf content.
	switch session.EditorMode {
	case model.ModeButtons:
		renders = append(renders, buttonManageRender(button))
	case model.ModePosts:
		renders = append(renders, contentManageRender(button))
	}

	children, err := sm.dataManager.ButtonManager.ButtonChildren(button.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	if len(children) > 0 {
		session.CurrentButtonID = button.ID
		menu, err := sm.menuRender(session, "Entering "+button.Name)
		if err != nil {
			return nil, err
		}
		return append(renders, menu), nil
	}

	if session.EditorMode == model.ModeNone {
		contentRenders, err := sm.contentRenders(button.ID)
		if err != nil {
			return nil, err
		}
		return contentRenders, nil
	}

	return renders, nil
}

// handleNavBack moves the cursor one level up. At the root it stays put.
func handleNavBack(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if session.CurrentButtonID == model.RootID {
		menu, err := sm.menuRender(session, "You are at the main menu")
		if err != nil {
			return nil, err
		}
		return []model.Render{menu}, nil
	}

	parentID, err := sm.dataManager.ButtonManager.ButtonParent(session.CurrentButtonID)
	if errors.Is(err, model.ErrNotFound) {
		// Cursor points at a deleted button; recover at the root.
		parentID = model.RootID
	} else if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}

	session.CurrentButtonID = parentID
	menu, err := sm.menuRender(session, "Going back")
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// handleNavMain resets the session to the root in browsing mode, dropping
// any pending operation.
func handleNavMain(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	session.Reset()
	menu, err := sm.menuRender(session, "Main menu")
	if err != nil {
		return nil, err
	}
	return []model.Render{menu}, nil
}

// menuRender builds the navigable menu for the session's cursor: the child
// labels in sibling order plus the session's navigation and editor labels.
func (sm *SessionManager) menuRender(session *model.Session, title string) (model.Render, error) {
	children, err := sm.dataManager.ButtonManager.ButtonChildren(session.CurrentButtonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	labels := make([]string, 0, len(children))
	for _, child := range children {
		labels = append(labels, child.Name)
	}

	var nav []string
	if session.CurrentButtonID != model.RootID {
		nav = append(nav, LabelBack, LabelMainMenu)
	}
	if sm.isAdmin(session) {
		if session.EditorMode != model.ModeNone {
			nav = append(nav, LabelStopEditing)
		} else {
			nav = append(nav, LabelButtonsEditor, LabelPostsEditor)
			if session.CurrentButtonID == model.RootID {
				nav = append(nav, LabelAdmins)
			}
		}
	}

	return model.RenderMenu{Title: title, Labels: labels, NavLabels: nav}, nil
}

// contentRenders fetches a leaf's content items and renders each by kind.
// Unknown kinds are skipped with a log line rather than failing the event.
func (sm *SessionManager) contentRenders(buttonID int) ([]model.Render, error) {
	ctx := context.Background()

	items, err := sm.dataManager.ContentManager.ContentGet(buttonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	if len(items) == 0 {
		return []model.Render{model.RenderText{Text: "No content available here yet."}}, nil
	}

	var renders []model.Render
	for _, item := range items {
		switch item.Kind {
		case model.ContentText:
			renders = append(renders, model.RenderText{Text: item.Text})
		case model.ContentPhoto, model.ContentVideo, model.ContentDocument, model.ContentAudio, model.ContentVoice:
			renders = append(renders, model.RenderContent{Kind: item.Kind, FileID: item.FileID, Text: item.Text})
		default:
			sm.logger.Warn(ctx, "Skipping content item of unknown kind", log.Fields{"contentID": item.ID, "buttonID": buttonID})
		}
	}
	return renders, nil
}
