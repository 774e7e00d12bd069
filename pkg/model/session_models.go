package model

import "time"

// EditorMode gates how navigation input is interpreted for a session.
type EditorMode string

const (
	ModeNone    EditorMode = ""
	ModeButtons EditorMode = "buttons"
	ModePosts   EditorMode = "posts"
)

// PendingKind tags the multi-step operation a session is waiting to finish.
type PendingKind int

const (
	PendingNone PendingKind = iota
	PendingButtonName
	PendingAdminID
)

// PendingOp is the in-flight multi-step operation of a session. ParentID is
// meaningful only for PendingButtonName. PrevMode records the editor mode to
// restore when a PendingAdminID operation resolves.
type PendingOp struct {
	Kind     PendingKind
	ParentID int
	PrevMode EditorMode
}

// Session represents the ephemeral per-user conversation state. It is held
// in memory only and is lost on process restart.
type Session struct {
	ID              string
	UserID          int64
	DisplayName     string
	CurrentButtonID int
	EditorMode      EditorMode
	Pending         PendingOp
	LastActivity    time.Time
}

// Reset returns the session to its default browsing state at the root.
func (s *Session) Reset() {
	s.CurrentButtonID = RootID
	s.EditorMode = ModeNone
	s.Pending = PendingOp{}
}

// Command represents a parsed instruction routed through a session.
type Command struct {
	Scope     string
	Operation string
	Args      []string
}
