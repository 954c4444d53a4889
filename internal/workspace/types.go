package workspace

import (
	"time"

	"github.com/matheus3301/teamspace/internal/status"
)

// Collection names a persisted collection. The value doubles as the blob key.
type Collection string

const (
	Tasks         Collection = "tasks"
	TeamMembers   Collection = "teamMembers"
	Projects      Collection = "projects"
	Clients       Collection = "clients"
	Notes         Collection = "notes"
	Conversations Collection = "conversations"
	Meetings      Collection = "meetings"
)

// Collections lists every persisted collection in blob order.
var Collections = []Collection{Tasks, TeamMembers, Projects, Clients, Notes, Conversations, Meetings}

// ParseCollection maps a blob name to a Collection.
func ParseCollection(s string) (Collection, bool) {
	for _, c := range Collections {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// TaskStatus is the workflow column of a task.
type TaskStatus string

const (
	TaskTodo      TaskStatus = "todo"
	TaskInProcess TaskStatus = "inProcess"
	TaskCompleted TaskStatus = "completed"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Task is a unit of work assigned to team members.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	AssignedTo  []string   `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
}

// TeamMember is a person in the workspace.
type TeamMember struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar,omitempty"`
	IsOnline   bool      `json:"isOnline"`
	LastActive time.Time `json:"lastActive"`
}

// ProjectFile is an uploaded file kept inline as a data URI.
type ProjectFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
}

// Project groups tasks, members, clients and files. Task ids are not
// validated, so a project can reference tasks that no longer exist.
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Members     []string      `json:"members"`
	Clients     []string      `json:"clients"`
	StartDate   *time.Time    `json:"startDate,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	Tasks       []string      `json:"tasks"`
	Files       []ProjectFile `json:"files"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Client is an external customer.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteVersion is a previous revision of a note's content.
type NoteVersion struct {
	Title   string    `json:"title"`
	Content string    `json:"content"`
	SavedAt time.Time `json:"savedAt"`
}

// Note is a shared document with an edit history.
type Note struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	CreatedBy string        `json:"createdBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Tags      []string      `json:"tags"`
	ProjectID string        `json:"projectId,omitempty"`
	Versions  []NoteVersion `json:"versions"`
}

// Meeting is a scheduled call. Status is derived from the time window and is
// not authoritative.
type Meeting struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	StartTime      time.Time      `json:"startTime"`
	EndTime        time.Time      `json:"endTime"`
	Participants   []string       `json:"participants"`
	CreatedBy      string         `json:"createdBy,omitempty"`
	Status         status.Meeting `json:"status"`
	Link           string         `json:"link,omitempty"`
	ProjectID      string         `json:"projectId,omitempty"`
	ConversationID string         `json:"conversationId,omitempty"`
}

// Attachment is a file sent with a message.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Message is one chat message within a conversation.
type Message struct {
	ID          string          `json:"id"`
	SenderID    string          `json:"senderId"`
	Content     string          `json:"content"`
	Timestamp   time.Time       `json:"timestamp"`
	Read        bool            `json:"read"`
	Status      status.Delivery `json:"status"`
	Attachments []Attachment    `json:"attachments"`
	MeetingID   string          `json:"meetingId,omitempty"`
}

// Conversation is an ordered message thread between members.
type Conversation struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Participants  []string  `json:"participants"`
	IsGroup       bool      `json:"isGroup"`
	Messages      []Message `json:"messages"`
	TypingUsers   []string  `json:"typingUsers"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	MeetingIDs    []string  `json:"meetingIds"`
}

// Snapshot is the full workspace state. Its JSON field names are the blob keys.
type Snapshot struct {
	Tasks         []Task         `json:"tasks"`
	TeamMembers   []TeamMember   `json:"teamMembers"`
	Projects      []Project      `json:"projects"`
	Clients       []Client       `json:"clients"`
	Notes         []Note         `json:"notes"`
	Conversations []Conversation `json:"conversations"`
	Meetings      []Meeting      `json:"meetings"`
}

func (t Task) entityID() string { return t.ID }
func (m TeamMember) entityID() string { return m.ID }
func (p Project) entityID() string { return p.ID }
func (c Client) entityID() string { return c.ID }
func (n Note) entityID() string { return n.ID }
func (m Meeting) entityID() string { return m.ID }
func (c Conversation) entityID() string { return c.ID }
func (m Message) entityID() string { return m.ID }
