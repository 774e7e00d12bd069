package event

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
)

func newTestLogger(t *testing.T) *log.Logger {
	t.Helper()
	cfg := &model.Config{
		LogFolder:  filepath.Join(t.TempDir(), "logs"),
		CommandLog: "commands.log",
		ErrorLog:   "errors.log",
		InfoLog:    "info.log",
	}
	logger, err := log.NewLogger(cfg, log.LevelError)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger
}

func TestPublishReachesSubscriber(t *testing.T) {
	em := NewEventManager(newTestLogger(t))

	got := make(chan Event, 1)
	em.Subscribe(ButtonAdded, func(e Event) { got <- e })

	em.Publish(Event{Type: ButtonAdded, Data: model.ButtonInfo{ID: 1, Name: "Math"}})

	select {
	case e := <-got:
		info, ok := e.Data.(model.ButtonInfo)
		require.True(t, ok)
		assert.Equal(t, "Math", info.Name)
	case <-time.After(time.Second):
		t.Fatal("subscriber was not called")
	}
}

func TestPublishSkipsOtherTypes(t *testing.T) {
	em := NewEventManager(newTestLogger(t))

	got := make(chan Event, 1)
	em.Subscribe(ButtonDeleted, func(e Event) { got <- e })

	em.Publish(Event{Type: ButtonAdded})

	select {
	case <-got:
		t.Fatal("handler called for an unsubscribed type")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPanickingHandlerDoesNotAffectOthers(t *testing.T) {
	em := NewEventManager(newTestLogger(t))

	em.Subscribe(ButtonMoved, func(Event) { panic("boom") })
	got := make(chan struct{}, 1)
	em.Subscribe(ButtonMoved, func(Event) { got <- struct{}{} })

	em.Publish(Event{Type: ButtonMoved})

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("second subscriber was not called")
	}
}
