package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"menubot/bot-app/pkg/model"
)

// handleContentAdd attaches a content item to a button. Args are the button
// id, the kind, the opaque file reference ("-" for none), an optional media
// group token ("-" for none) and any remaining args joined as text.
func handleContentAdd(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "content add") {
		return nil, nil
	}
	if len(cmd.Args) < 2 {
		return []model.Render{model.RenderPrompt{Text: "Send the content to attach."}}, nil
	}

	buttonID, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, fmt.Errorf("content add id %q: %w", cmd.Args[0], model.ErrInvalidInput)
	}

	kind := model.ParseContentKind(cmd.Args[1])
	if kind == model.ContentUnknown {
		return nil, fmt.Errorf("content kind %q: %w", cmd.Args[1], model.ErrInvalidInput)
	}

	item := model.ContentItem{ButtonID: buttonID, Kind: kind}
	if len(cmd.Args) > 2 && cmd.Args[2] != "-" {
		item.FileID = cmd.Args[2]
	}
	if len(cmd.Args) > 3 && cmd.Args[3] != "-" {
		item.MediaGroupID = cmd.Args[3]
	}
	if len(cmd.Args) > 4 {
		item.Text = strings.Join(cmd.Args[4:], " ")
	}

	if _, err := sm.dataManager.ContentManager.ContentAdd(item); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return []model.Render{model.RenderText{Text: "That button no longer exists."}}, nil
		}
		return nil, fmt.Errorf("failed to add content: %w", err)
	}

	return []model.Render{model.RenderText{Text: "Content added."}}, nil
}

// handleContentClear removes every content item of a button.
func handleContentClear(sm *SessionManager, session *model.Session, cmd model.Command) ([]model.Render, error) {
	if !sm.requireAdmin(session, "content clear") {
		return nil, nil
	}
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("content clear: %w", model.ErrInvalidInput)
	}

	buttonID, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return nil, fmt.Errorf("content clear id %q: %w", cmd.Args[0], model.ErrInvalidInput)
	}

	if err := sm.dataManager.ContentManager.ContentClear(buttonID); err != nil {
		return nil, fmt.Errorf("failed to clear content: %w", err)
	}

	return []model.Render{model.RenderText{Text: "Content cleared."}}, nil
}
