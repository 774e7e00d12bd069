// Package session implements per-user conversation state: the navigation
// engine, the editor state machine and the command routing between adapters
// and the data layer.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"menubot/bot-app/pkg/data"
	"menubot/bot-app/pkg/event"
	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

// CommandHandler is a function type for command handlers.
type CommandHandler func(*SessionManager, *model.Session, model.Command) ([]model.Render, error)

// SessionManager manages multiple concurrent sessions. Commands are pushed
// onto a single queue and executed by one goroutine, so the inputs of any
// one session are processed strictly in arrival order.
type SessionManager struct {
	sessions        map[string]*model.Session
	sessionMu       sync.RWMutex
	dataManager     *data.DataManager
	commandHandlers map[string]map[string]CommandHandler
	commandQueue    chan commandExecution
	cleanupTicker   *time.Ticker
	done            chan struct{}
	closeOnce       sync.Once
	logger          *log.Logger

	sessionTimeout  time.Duration
	cleanupInterval time.Duration
}

// commandExecution represents a command to be executed in a session, its
// result and error.
type commandExecution struct {
	session *model.Session
	command model.Command
	result  chan []model.Render
	err     chan error
}

// NewSessionManager creates the manager and starts the command execution and
// cleanup goroutines.
func NewSessionManager(dataManager *data.DataManager, logger *log.Logger) *SessionManager {
	cfg := dataManager.Config

	sm := &SessionManager{
		sessions:        make(map[string]*model.Session),
		dataManager:     dataManager,
		commandQueue:    make(chan commandExecution),
		done:            make(chan struct{}),
		logger:          logger,
		sessionTimeout:  time.Duration(cfg.SessionTimeoutMinutes) * time.Minute,
		cleanupInterval: time.Duration(cfg.SessionCleanupMinutes) * time.Minute,
	}
	sm.initCommandHandlers()
	sm.startCleanupRoutine()
	go sm.commandExecutor()

	dataManager.EventManager.Subscribe(event.ButtonDeleted, sm.handleButtonDeleted)

	logger.Info(context.Background(), "SessionManager created", nil)
	return sm
}

// handleButtonDeleted resets the cursor of any session left pointing at a
// button that no longer exists after a delete cascade. Navigation keeps its
// own missing-parent recovery for deletes that race an in-flight command.
func (sm *SessionManager) handleButtonDeleted(e event.Event) {
	ctx := context.Background()

	sm.sessionMu.Lock()
	defer sm.sessionMu.Unlock()

	for _, session := range sm.sessions {
		if session.CurrentButtonID == model.RootID {
			continue
		}
		button, err := sm.dataManager.ButtonManager.ButtonByID(session.CurrentButtonID)
		if err != nil {
			sm.logger.Error(ctx, "Cursor check failed after delete", log.Fields{"error": err, "sessionID": session.ID})
			continue
		}
		if button == nil {
			sm.logger.Info(ctx, "Cursor pointed into deleted subtree, resetting to root", log.Fields{
				"sessionID": session.ID,
				"buttonID":  session.CurrentButtonID,
			})
			session.CurrentButtonID = model.RootID
		}
	}
}

// initCommandHandlers initializes the command handlers map.
func (sm *SessionManager) initCommandHandlers() {
	sm.commandHandlers = map[string]map[string]CommandHandler{
		"session": {
			"start": handleSessionStart,
		},
		"input": {
			"text":     handleInputText,
			"identity": handleInputIdentity,
		},
		"nav": {
			"back": handleNavBack,
			"main": handleNavMain,
		},
		"editor": {
			"buttons": handleEditorButtons,
			"posts":   handleEditorPosts,
			"stop":    handleEditorStop,
		},
		"button": {
			"add":    handleButtonAddPrompt,
			"move":   handleButtonMove,
			"delete": handleButtonDelete,
			"rename": handleButtonRename,
		},
		"content": {
			"add":   handleContentAdd,
			"clear": handleContentClear,
		},
		"admin": {
			"list": handleAdminList,
			"add":  handleAdminAddPrompt,
		},
	}
}

// SessionGetOrCreate returns the session for the given key, creating it with
// default state on first interaction.
func (sm *SessionManager) SessionGetOrCreate(key string, userID int64, displayName string) *model.Session {
	sm.sessionMu.Lock()
	defer sm.sessionMu.Unlock()

	if session, exists := sm.sessions[key]; exists {
		session.LastActivity = time.Now()
		if displayName != "" {
			session.DisplayName = displayName
		}
		return session
	}

	session := &model.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		DisplayName:     displayName,
		CurrentButtonID: model.RootID,
		LastActivity:    time.Now(),
	}
	sm.sessions[key] = session
	sm.logger.Info(context.Background(), "New session created", log.Fields{"sessionID": session.ID, "userID": userID})
	return session
}

// SessionGet retrieves a session by its key.
func (sm *SessionManager) SessionGet(key string) (*model.Session, bool) {
	sm.sessionMu.RLock()
	defer sm.sessionMu.RUnlock()
	session, exists := sm.sessions[key]
	return session, exists
}

// SessionDelete removes a session.
func (sm *SessionManager) SessionDelete(key string) {
	sm.sessionMu.Lock()
	defer sm.sessionMu.Unlock()
	delete(sm.sessions, key)
}

// CommandRun executes a command for a specific session key and returns the
// render instructions for the adapter.
func (sm *SessionManager) CommandRun(key string, cmd model.Command) ([]model.Render, error) {
	ctx := context.Background()

	session, exists := sm.SessionGet(key)
	if !exists {
		sm.logger.Error(ctx, "Session not found", log.Fields{"key": key})
		return nil, errors.New("session not found")
	}

	sm.logger.Command(ctx, "Command received", log.Fields{
		"sessionID": session.ID,
		"scope":     cmd.Scope,
		"operation": cmd.Operation,
		"args":      cmd.Args,
	})

	result := make(chan []model.Render)
	errChan := make(chan error)

	select {
	case sm.commandQueue <- commandExecution{session: session, command: cmd, result: result, err: errChan}:
	case <-sm.done:
		return nil, errors.New("session manager stopped")
	}

	select {
	case res := <-result:
		return res, nil
	case e := <-errChan:
		sm.logger.Error(ctx, "Command execution failed", log.Fields{"sessionID": session.ID, "error": e})
		return nil, e
	}
}

// commandExecutor processes commands from the queue one at a time.
func (sm *SessionManager) commandExecutor() {
	for {
		select {
		case cmd := <-sm.commandQueue:
			renders, err := sm.dispatch(cmd.session, cmd.command)
			if err != nil {
				cmd.err <- err
			} else {
				cmd.result <- renders
			}
		case <-sm.done:
			return
		}
	}
}

// dispatch routes a command to its handler within the session context.
func (sm *SessionManager) dispatch(session *model.Session, cmd model.Command) ([]model.Render, error) {
	ctx := context.Background()
	session.LastActivity = time.Now()

	scopeHandlers, ok := sm.commandHandlers[cmd.Scope]
	if !ok {
		sm.logger.Warn(ctx, "Invalid command scope", log.Fields{"scope": cmd.Scope})
		return nil, fmt.Errorf("invalid command scope %q", cmd.Scope)
	}

	handler, ok := scopeHandlers[cmd.Operation]
	if !ok {
		sm.logger.Warn(ctx, "Invalid command operation", log.Fields{"scope": cmd.Scope, "operation": cmd.Operation})
		return nil, fmt.Errorf("invalid command operation %q", cmd.Operation)
	}

	return handler(sm, session, cmd)
}

// isAdmin resolves the admin check for a session, treating lookup failures
// as non-admin.
func (sm *SessionManager) isAdmin(session *model.Session) bool {
	ok, err := sm.dataManager.AdminManager.IsAdmin(session.UserID)
	if err != nil {
		sm.logger.Error(context.Background(), "Admin check failed", log.Fields{"error": err, "userID": session.UserID})
		return false
	}
	return ok
}

// startCleanupRoutine starts a goroutine that periodically evicts idle
// sessions. Session state is ephemeral by design, so eviction only resets a
// returning user to the main menu.
func (sm *SessionManager) startCleanupRoutine() {
	sm.cleanupTicker = time.NewTicker(sm.cleanupInterval)
	go func() {
		for {
			select {
			case <-sm.cleanupTicker.C:
				sm.cleanupInactiveSessions()
			case <-sm.done:
				sm.cleanupTicker.Stop()
				return
			}
		}
	}()
}

// cleanupInactiveSessions removes sessions idle longer than the timeout.
func (sm *SessionManager) cleanupInactiveSessions() {
	sm.sessionMu.Lock()
	defer sm.sessionMu.Unlock()

	now := time.Now()
	for key, session := range sm.sessions {
		if now.Sub(session.LastActivity) > sm.sessionTimeout {
			sm.logger.Info(context.Background(), "Removing inactive session", log.Fields{"sessionID": session.ID})
			delete(sm.sessions, key)
		}
	}
}

// Stop terminates the command executor and the cleanup routine.
func (sm *SessionManager) Stop() {
	sm.closeOnce.Do(func() {
		close(sm.done)
	})
}
