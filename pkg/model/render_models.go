package model

// Render is an abstract outbound instruction. The core emits renders; an
// adapter translates them into platform UI. The core never formats
// platform-specific markup.
type Render interface {
	renderKind() string
}

// RenderMenu asks the adapter to present the given sibling labels as a
// navigable list, followed by the session's navigation/editor labels.
type RenderMenu struct {
	Title     string
	Labels    []string
	NavLabels []string
}

// RenderText asks the adapter to display plain text verbatim.
type RenderText struct {
	Text string
}

// RenderContent asks the adapter to deliver one content item by its kind.
// Text items carry Text; media kinds carry the opaque FileID reference.
type RenderContent struct {
	Kind   ContentKind
	FileID string
	Text   string
}

// ManageAction is one management option offered for a button.
type ManageAction struct {
	Label   string
	Command Command
}

// RenderManage asks the adapter to show management options for a button,
// typically as an inline keyboard.
type RenderManage struct {
	Button  *Button
	Title   string
	Actions []ManageAction
}

// RenderAdminList asks the adapter to display the current admin set.
type RenderAdminList struct {
	Admins []AdminEntry
}

// RenderPrompt asks the adapter to request free-text input from the user.
type RenderPrompt struct {
	Text string
}

func (RenderMenu) renderKind() string      { return "menu" }
func (RenderText) renderKind() string      { return "text" }
func (RenderContent) renderKind() string   { return "content" }
func (RenderManage) renderKind() string    { return "manage" }
func (RenderAdminList) renderKind() string { return "admin_list" }
func (RenderPrompt) renderKind() string    { return "prompt" }
