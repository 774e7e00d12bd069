package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menubot/bot-app/pkg/data"
	"menubot/bot-app/pkg/event"
	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
	"menubot/bot-app/pkg/storage"
)

const (
	adminUserID   = int64(1000)
	regularUserID = int64(2000)
)

// newTestEnv builds the full stack on a throwaway database, with one
// pre-registered admin so that the first interacting user is not promoted.
func newTestEnv(t *testing.T) (*SessionManager, *data.DataManager) {
	t.Helper()

	dir := t.TempDir()
	cfg := &model.Config{
		DatabaseType:          "sqlite",
		DatabaseDir:           dir,
		DatabaseFile:          "test.db",
		LogFolder:             filepath.Join(dir, "logs"),
		CommandLog:            "commands.log",
		ErrorLog:              "errors.log",
		InfoLog:               "info.log",
		SessionTimeoutMinutes: 30,
		SessionCleanupMinutes: 5,
	}

	logger, err := log.NewLogger(cfg, log.LevelError)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	store, err := storage.NewStorage(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	eventManager := event.NewEventManager(logger)
	dataManager, err := data.NewDataManager(store, eventManager, cfg, logger)
	require.NoError(t, err)

	require.NoError(t, dataManager.AdminManager.AdminAdd(adminUserID, "admin"))

	sm := NewSessionManager(dataManager, logger)
	t.Cleanup(sm.Stop)

	return sm, dataManager
}

func startSession(t *testing.T, sm *SessionManager, key string, userID int64) *model.Session {
	t.Helper()
	session := sm.SessionGetOrCreate(key, userID, "tester")
	_, err := sm.CommandRun(key, model.Command{Scope: "session", Operation: "start"})
	require.NoError(t, err)
	return session
}

func sendText(t *testing.T, sm *SessionManager, key, text string) []model.Render {
	t.Helper()
	renders, err := sm.CommandRun(key, model.Command{Scope: "input", Operation: "text", Args: []string{text}})
	require.NoError(t, err)
	return renders
}

func firstMenu(t *testing.T, renders []model.Render) model.RenderMenu {
	t.Helper()
	for _, r := range renders {
		if menu, ok := r.(model.RenderMenu); ok {
			return menu
		}
	}
	t.Fatalf("no menu render in %v", renders)
	return model.RenderMenu{}
}

func TestSessionStartWelcome(t *testing.T) {
	sm, _ := newTestEnv(t)

	session := startSession(t, sm, "u:regular", regularUserID)
	renders, err := sm.CommandRun("u:regular", model.Command{Scope: "session", Operation: "start"})
	require.NoError(t, err)

	menu := firstMenu(t, renders)
	assert.Equal(t, "Welcome to the lectures bot", menu.Title)
	assert.Equal(t, model.RootID, session.CurrentButtonID)
	assert.NotContains(t, menu.NavLabels, LabelButtonsEditor)

	startSession(t, sm, "u:admin", adminUserID)
	renders, err = sm.CommandRun("u:admin", model.Command{Scope: "session", Operation: "start"})
	require.NoError(t, err)

	menu = firstMenu(t, renders)
	assert.Equal(t, "Admin panel", menu.Title)
	assert.Contains(t, menu.NavLabels, LabelButtonsEditor)
	assert.Contains(t, menu.NavLabels, LabelAdmins)
}

func TestFirstUserBecomesAdmin(t *testing.T) {
	sm, dm := newTestEnv(t)

	// The fixture admin is the only admin, so a fresh user stays regular.
	startSession(t, sm, "u:late", regularUserID)
	ok, err := dm.AdminManager.IsAdmin(regularUserID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNavigateDescend(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)
	_, err = dm.ButtonManager.ButtonAdd("Algebra", math)
	require.NoError(t, err)
	_, err = dm.ButtonManager.ButtonAdd("Physics", model.RootID)
	require.NoError(t, err)

	session := startSession(t, sm, "u:r", regularUserID)

	renders := sendText(t, sm, "u:r", "Math")
	menu := firstMenu(t, renders)
	assert.Equal(t, "Entering Math", menu.Title)
	assert.Equal(t, []string{"Algebra"}, menu.Labels)
	assert.Equal(t, math, session.CurrentButtonID)
	assert.Contains(t, menu.NavLabels, LabelBack)
	assert.Contains(t, menu.NavLabels, LabelMainMenu)
}

func TestNavigateUnrecognized(t *testing.T) {
	sm, dm := newTestEnv(t)

	_, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)

	session := startSession(t, sm, "u:r", regularUserID)

	renders := sendText(t, sm, "u:r", "Chemistry")
	assert.Empty(t, renders)
	assert.Equal(t, model.RootID, session.CurrentButtonID)
}

func TestNavigateLeafContent(t *testing.T) {
	sm, dm := newTestEnv(t)

	leaf, err := dm.ButtonManager.ButtonAdd("Lecture 1", model.RootID)
	require.NoError(t, err)
	_, err = dm.ContentManager.ContentAdd(model.ContentItem{ButtonID: leaf, Kind: model.ContentText, Text: "Welcome to lecture 1"})
	require.NoError(t, err)
	_, err = dm.ContentManager.ContentAdd(model.ContentItem{ButtonID: leaf, Kind: model.ContentPhoto, FileID: "photo-1"})
	require.NoError(t, err)

	session := startSession(t, sm, "u:r", regularUserID)

	renders := sendText(t, sm, "u:r", "Lecture 1")
	require.Len(t, renders, 2)
	text, ok := renders[0].(model.RenderText)
	require.True(t, ok)
	assert.Equal(t, "Welcome to lecture 1", text.Text)
	content, ok := renders[1].(model.RenderContent)
	require.True(t, ok)
	assert.Equal(t, model.ContentPhoto, content.Kind)
	assert.Equal(t, "photo-1", content.FileID)

	// Entering a leaf does not move the cursor.
	assert.Equal(t, model.RootID, session.CurrentButtonID)
}

func TestNavigateEmptyLeaf(t *testing.T) {
	sm, dm := newTestEnv(t)

	_, err := dm.ButtonManager.ButtonAdd("Empty", model.RootID)
	require.NoError(t, err)

	startSession(t, sm, "u:r", regularUserID)

	renders := sendText(t, sm, "u:r", "Empty")
	require.Len(t, renders, 1)
	text, ok := renders[0].(model.RenderText)
	require.True(t, ok)
	assert.Equal(t, "No content available here yet.", text.Text)
}

func TestNavBack(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)
	_, err = dm.ButtonManager.ButtonAdd("Algebra", math)
	require.NoError(t, err)

	session := startSession(t, sm, "u:r", regularUserID)

	sendText(t, sm, "u:r", "Math")
	require.Equal(t, math, session.CurrentButtonID)

	sendText(t, sm, "u:r", LabelBack)
	assert.Equal(t, model.RootID, session.CurrentButtonID)

	// Back at the root stays at the root.
	sendText(t, sm, "u:r", LabelBack)
	assert.Equal(t, model.RootID, session.CurrentButtonID)
}

func TestNavBackRecoversFromDeletedCursor(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)
	_, err = dm.ButtonManager.ButtonAdd("Algebra", math)
	require.NoError(t, err)

	session := startSession(t, sm, "u:r", regularUserID)
	sendText(t, sm, "u:r", "Math")
	require.Equal(t, math, session.CurrentButtonID)

	require.NoError(t, dm.ButtonManager.ButtonDelete(math))

	sendText(t, sm, "u:r", LabelBack)
	assert.Equal(t, model.RootID, session.CurrentButtonID)
}

func TestButtonDeleteResetsStrandedCursor(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)
	algebra, err := dm.ButtonManager.ButtonAdd("Algebra", math)
	require.NoError(t, err)
	_, err = dm.ButtonManager.ButtonAdd("Linear", algebra)
	require.NoError(t, err)

	session := startSession(t, sm, "u:r", regularUserID)
	sendText(t, sm, "u:r", "Math")
	sendText(t, sm, "u:r", "Algebra")
	require.Equal(t, algebra, session.CurrentButtonID)

	require.NoError(t, dm.ButtonManager.ButtonDelete(math))

	// The delete event fans out asynchronously.
	require.Eventually(t, func() bool {
		current, exists := sm.SessionGet("u:r")
		return exists && current.CurrentButtonID == model.RootID
	}, time.Second, 10*time.Millisecond)
}

func TestEditorGatedForRegularUsers(t *testing.T) {
	sm, _ := newTestEnv(t)

	session := startSession(t, sm, "u:r", regularUserID)

	renders := sendText(t, sm, "u:r", LabelButtonsEditor)
	assert.Empty(t, renders)
	assert.Equal(t, model.ModeNone, session.EditorMode)
}

func TestEditorButtonsMode(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)

	session := startSession(t, sm, "u:a", adminUserID)

	renders := sendText(t, sm, "u:a", LabelButtonsEditor)
	assert.Equal(t, model.ModeButtons, session.EditorMode)

	var foundAdd bool
	for _, r := range renders {
		if manage, ok := r.(model.RenderManage); ok {
			for _, action := range manage.Actions {
				if action.Label == "Add New Button Here" {
					foundAdd = true
				}
			}
		}
	}
	assert.True(t, foundAdd)

	// Entering a node now yields its management context, not content.
	renders = sendText(t, sm, "u:a", "Math")
	require.NotEmpty(t, renders)
	manage, ok := renders[0].(model.RenderManage)
	require.True(t, ok)
	assert.Equal(t, math, manage.Button.ID)
	assert.Equal(t, "Managing button: Math", manage.Title)
}

func TestEditorStopKeepsCursor(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)
	_, err = dm.ButtonManager.ButtonAdd("Algebra", math)
	require.NoError(t, err)

	session := startSession(t, sm, "u:a", adminUserID)
	sendText(t, sm, "u:a", "Math")
	sendText(t, sm, "u:a", LabelButtonsEditor)
	require.Equal(t, model.ModeButtons, session.EditorMode)

	sendText(t, sm, "u:a", LabelStopEditing)
	assert.Equal(t, model.ModeNone, session.EditorMode)
	assert.Equal(t, math, session.CurrentButtonID)
}

func TestButtonAddFlow(t *testing.T) {
	sm, dm := newTestEnv(t)

	session := startSession(t, sm, "u:a", adminUserID)
	sendText(t, sm, "u:a", LabelButtonsEditor)

	renders, err := sm.CommandRun("u:a", model.Command{Scope: "button", Operation: "add", Args: []string{"0"}})
	require.NoError(t, err)
	require.Len(t, renders, 1)
	_, ok := renders[0].(model.RenderPrompt)
	require.True(t, ok)
	require.Equal(t, model.PendingButtonName, session.Pending.Kind)

	sendText(t, sm, "u:a", "Lectures")
	assert.Equal(t, model.PendingNone, session.Pending.Kind)

	button, err := dm.ButtonManager.ChildByName(model.RootID, "Lectures")
	require.NoError(t, err)
	require.NotNil(t, button)
}

func TestReservedLabelCancelsPendingAdd(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)

	session := startSession(t, sm, "u:a", adminUserID)
	sendText(t, sm, "u:a", LabelButtonsEditor)
	sendText(t, sm, "u:a", "Math")

	_, err = sm.CommandRun("u:a", model.Command{Scope: "button", Operation: "add", Args: []string{"0"}})
	require.NoError(t, err)
	require.Equal(t, model.PendingButtonName, session.Pending.Kind)

	sendText(t, sm, "u:a", LabelMainMenu)

	assert.Equal(t, model.PendingNone, session.Pending.Kind)
	assert.Equal(t, model.ModeNone, session.EditorMode)
	assert.Equal(t, model.RootID, session.CurrentButtonID)

	// No button was created from the reserved label.
	button, err := dm.ButtonManager.ChildByName(model.RootID, LabelMainMenu)
	require.NoError(t, err)
	assert.Nil(t, button)
	_ = math
}

func TestPendingAddTargetDeleted(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)

	session := startSession(t, sm, "u:a", adminUserID)
	_, err = sm.CommandRun("u:a", model.Command{Scope: "button", Operation: "add", Args: []string{"1"}})
	require.NoError(t, err)
	require.Equal(t, model.PendingButtonName, session.Pending.Kind)

	require.NoError(t, dm.ButtonManager.ButtonDelete(math))

	renders := sendText(t, sm, "u:a", "Calculus")
	require.Len(t, renders, 1)
	text, ok := renders[0].(model.RenderText)
	require.True(t, ok)
	assert.Equal(t, "That button no longer exists.", text.Text)
	assert.Equal(t, model.PendingNone, session.Pending.Kind)
}

func TestAdminAddNumericFlow(t *testing.T) {
	sm, dm := newTestEnv(t)

	session := startSession(t, sm, "u:a", adminUserID)

	_, err := sm.CommandRun("u:a", model.Command{Scope: "admin", Operation: "add"})
	require.NoError(t, err)
	require.Equal(t, model.PendingAdminID, session.Pending.Kind)

	// Invalid input re-prompts without leaving the pending state.
	renders := sendText(t, sm, "u:a", "not a number")
	require.Len(t, renders, 1)
	_, ok := renders[0].(model.RenderPrompt)
	require.True(t, ok)
	assert.Equal(t, model.PendingAdminID, session.Pending.Kind)

	sendText(t, sm, "u:a", "31337")
	assert.Equal(t, model.PendingNone, session.Pending.Kind)

	isAdmin, err := dm.AdminManager.IsAdmin(31337)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestAdminAddForwardedIdentity(t *testing.T) {
	sm, dm := newTestEnv(t)

	session := startSession(t, sm, "u:a", adminUserID)

	_, err := sm.CommandRun("u:a", model.Command{Scope: "admin", Operation: "add"})
	require.NoError(t, err)

	_, err = sm.CommandRun("u:a", model.Command{Scope: "input", Operation: "identity", Args: []string{"555", "bob"}})
	require.NoError(t, err)
	assert.Equal(t, model.PendingNone, session.Pending.Kind)

	isAdmin, err := dm.AdminManager.IsAdmin(555)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	admins, err := dm.AdminManager.AdminList()
	require.NoError(t, err)
	var found bool
	for _, admin := range admins {
		if admin.UserID == 555 {
			found = true
			assert.Equal(t, "bob", admin.DisplayName)
		}
	}
	assert.True(t, found)
}

func TestIdentityIgnoredOutsideAdminAdd(t *testing.T) {
	sm, dm := newTestEnv(t)

	startSession(t, sm, "u:a", adminUserID)

	renders, err := sm.CommandRun("u:a", model.Command{Scope: "input", Operation: "identity", Args: []string{"777", "mallory"}})
	require.NoError(t, err)
	assert.Empty(t, renders)

	isAdmin, err := dm.AdminManager.IsAdmin(777)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestAdminListGated(t *testing.T) {
	sm, _ := newTestEnv(t)

	startSession(t, sm, "u:r", regularUserID)
	renders := sendText(t, sm, "u:r", LabelAdmins)
	assert.Empty(t, renders)

	startSession(t, sm, "u:a", adminUserID)
	renders = sendText(t, sm, "u:a", LabelAdmins)
	require.NotEmpty(t, renders)
	list, ok := renders[0].(model.RenderAdminList)
	require.True(t, ok)
	require.Len(t, list.Admins, 1)
	assert.Equal(t, adminUserID, list.Admins[0].UserID)
}

func TestMainMenuResetsEverything(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)
	_, err = dm.ButtonManager.ButtonAdd("Algebra", math)
	require.NoError(t, err)

	session := startSession(t, sm, "u:a", adminUserID)
	sendText(t, sm, "u:a", "Math")
	sendText(t, sm, "u:a", LabelButtonsEditor)

	sendText(t, sm, "u:a", LabelMainMenu)
	assert.Equal(t, model.RootID, session.CurrentButtonID)
	assert.Equal(t, model.ModeNone, session.EditorMode)
	assert.Equal(t, model.PendingNone, session.Pending.Kind)
}

func TestRenameViaCommand(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)

	startSession(t, sm, "u:a", adminUserID)

	_, err = sm.CommandRun("u:a", model.Command{Scope: "button", Operation: "rename", Args: []string{"1", "Advanced", "Math"}})
	require.NoError(t, err)

	button, err := dm.ButtonManager.ButtonByID(math)
	require.NoError(t, err)
	require.NotNil(t, button)
	assert.Equal(t, "Advanced Math", button.Name)
}

func TestSessionCommandsGatedForRegularUsers(t *testing.T) {
	sm, dm := newTestEnv(t)

	math, err := dm.ButtonManager.ButtonAdd("Math", model.RootID)
	require.NoError(t, err)

	startSession(t, sm, "u:r", regularUserID)

	cases := []model.Command{
		{Scope: "button", Operation: "add", Args: []string{"0"}},
		{Scope: "button", Operation: "move", Args: []string{"1", "up"}},
		{Scope: "button", Operation: "delete", Args: []string{"1"}},
		{Scope: "button", Operation: "rename", Args: []string{"1", "Hacked"}},
		{Scope: "content", Operation: "add", Args: []string{"1", "text", "-", "-", "spam"}},
		{Scope: "content", Operation: "clear", Args: []string{"1"}},
		{Scope: "admin", Operation: "add"},
	}
	for _, cmd := range cases {
		renders, err := sm.CommandRun("u:r", cmd)
		require.NoError(t, err)
		assert.Empty(t, renders, "%s %s should be dropped", cmd.Scope, cmd.Operation)
	}

	button, err := dm.ButtonManager.ButtonByID(math)
	require.NoError(t, err)
	require.NotNil(t, button)
	assert.Equal(t, "Math", button.Name)

	items, err := dm.ContentManager.ContentGet(math)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContentAddAndClearViaCommands(t *testing.T) {
	sm, dm := newTestEnv(t)

	leaf, err := dm.ButtonManager.ButtonAdd("Leaf", model.RootID)
	require.NoError(t, err)

	startSession(t, sm, "u:a", adminUserID)

	_, err = sm.CommandRun("u:a", model.Command{
		Scope: "content", Operation: "add",
		Args: []string{"1", "photo", "file-123", "album-9", "a", "caption"},
	})
	require.NoError(t, err)

	items, err := dm.ContentManager.ContentGet(leaf)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.ContentPhoto, items[0].Kind)
	assert.Equal(t, "file-123", items[0].FileID)
	assert.Equal(t, "album-9", items[0].MediaGroupID)
	assert.Equal(t, "a caption", items[0].Text)

	_, err = sm.CommandRun("u:a", model.Command{Scope: "content", Operation: "clear", Args: []string{"1"}})
	require.NoError(t, err)

	items, err = dm.ContentManager.ContentGet(leaf)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContentAddUnknownKindRejected(t *testing.T) {
	sm, dm := newTestEnv(t)

	_, err := dm.ButtonManager.ButtonAdd("Leaf", model.RootID)
	require.NoError(t, err)

	startSession(t, sm, "u:a", adminUserID)

	_, err = sm.CommandRun("u:a", model.Command{
		Scope: "content", Operation: "add",
		Args: []string{"1", "hologram", "-", "-"},
	})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSessionCleanupRemovesIdle(t *testing.T) {
	sm, _ := newTestEnv(t)

	session := startSession(t, sm, "u:idle", regularUserID)
	session.LastActivity = session.LastActivity.Add(-31 * time.Minute)

	sm.cleanupInactiveSessions()

	_, exists := sm.SessionGet("u:idle")
	assert.False(t, exists)
}
