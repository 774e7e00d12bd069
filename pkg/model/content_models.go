package model

// ContentKind identifies how a content item is rendered.
type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentPhoto    ContentKind = "photo"
	ContentVideo    ContentKind = "video"
	ContentDocument ContentKind = "document"
	ContentAudio    ContentKind = "audio"
	ContentVoice    ContentKind = "voice"
	// ContentUnknown marks a kind read from storage that this version does
	// not recognize. Unknown items are skipped at render time.
	ContentUnknown ContentKind = ""
)

// ParseContentKind maps a stored kind string to a ContentKind, returning
// ContentUnknown for anything outside the fixed set.
func ParseContentKind(s string) ContentKind {
	switch ContentKind(s) {
	case ContentText, ContentPhoto, ContentVideo, ContentDocument, ContentAudio, ContentVoice:
		return ContentKind(s)
	}
	return ContentUnknown
}

// ContentItem represents one piece of content attached to a button. Text
// items carry their payload in Text; every other kind stores an opaque
// platform file reference in FileID.
type ContentItem struct {
	ID           int         `json:"id"`
	ButtonID     int         `json:"button_id"`
	Kind         ContentKind `json:"kind"`
	FileID       string      `json:"file_id,omitempty"`
	Text         string      `json:"text,omitempty"`
	MediaGroupID string      `json:"media_group_id,omitempty"`
}

// AdminEntry represents one privileged user. DisplayName is informational
// only; membership is a plain set keyed by UserID.
type AdminEntry struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
}
