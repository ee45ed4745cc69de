package dto

import "time"

// Activity event types emitted on the session feed.
const (
	ActivityRubricAdded    = "rubric.added"
	ActivityRubricEdited   = "rubric.edited"
	ActivityRubricDeleted  = "rubric.deleted"
	ActivityRubricResolved = "rubric.resolved"
	ActivityScriptUploaded = "script.uploaded"
	ActivityScriptGraded   = "script.graded"
	ActivitySchemeChanged  = "scheme.changed"
)

// ActivityEvent is one entry on a session's live feed. Payload carries
// event-specific fields, e.g. the serialized rubric item.
type ActivityEvent struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	File      string         `json:"file_idx,omitempty"`
	Page      string         `json:"page_idx,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}
