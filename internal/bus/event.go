package bus

import "time"

// Event kinds published by the workspace. Subscribers filter by prefix, so
// "meeting." receives every meeting event and "toast." every toast.
const (
	KindTaskAdded   = "task.added"
	KindTaskUpdated = "task.updated"
	KindTaskDeleted = "task.deleted"

	KindMemberAdded   = "member.added"
	KindMemberUpdated = "member.updated"
	KindMemberDeleted = "member.deleted"

	KindProjectAdded   = "project.added"
	KindProjectUpdated = "project.updated"
	KindProjectDeleted = "project.deleted"

	KindClientAdded   = "client.added"
	KindClientUpdated = "client.updated"
	KindClientDeleted = "client.deleted"

	KindNoteAdded   = "note.added"
	KindNoteUpdated = "note.updated"
	KindNoteDeleted = "note.deleted"

	KindMeetingAdded         = "meeting.added"
	KindMeetingUpdated       = "meeting.updated"
	KindMeetingDeleted       = "meeting.deleted"
	KindMeetingStatusChanged = "meeting.status_changed"

	KindConversationAdded   = "conversation.added"
	KindConversationUpdated = "conversation.updated"
	KindConversationDeleted = "conversation.deleted"
	KindConversationTyping  = "conversation.typing"

	KindMessageAdded         = "message.added"
	KindMessageStatusChanged = "message.status_changed"
	KindMessagesRead         = "message.read"

	KindWorkspaceReset = "workspace.reset"

	KindToastSuccess = "toast.success"
	KindToastError   = "toast.error"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Change is the payload for entity mutation events.
type Change struct {
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"` // owning conversation for messages
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// Toast is the payload for user-facing notifications.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
