package workspace

import (
	"context"
	"slices"
	"strings"

	"github.com/matheus3301/teamspace/internal/bus"
	"github.com/matheus3301/teamspace/internal/outbox"
	"github.com/matheus3301/teamspace/internal/status"
	"go.uber.org/zap"
)

func (c *Conversation) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	if len(c.Participants) == 0 {
		return invalid("conversation needs at least one participant")
	}
	if len(c.Participants) > 2 {
		c.IsGroup = true
	}
	if c.IsGroup && c.Name == "" {
		return invalid("group conversation name is required")
	}
	return nil
}

// AddConversation starts an empty conversation.
func (w *Workspace) AddConversation(ctx context.Context, c Conversation) (Conversation, error) {
	if err := c.normalize(); err != nil {
		return Conversation{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		c.ID = w.newID()
		c.Messages = []Message{}
		c.TypingUsers = []string{}
		c.MeetingIDs = nil
		c.LastMessageAt = w.clock.Now()
		s.Conversations = append(s.Conversations, c.clone())
		return outcome{
			events: []bus.Event{event(bus.KindConversationAdded, bus.Change{ID: c.ID})},
			toast:  &bus.Toast{Title: "Conversation started", Description: c.Name},
		}, nil
	})
	if err != nil {
		return Conversation{}, err
	}
	return c, nil
}

// UpdateConversation changes a conversation's name and participants. Its
// messages, typing set and meeting links are kept.
func (w *Workspace) UpdateConversation(ctx context.Context, c Conversation) (Conversation, error) {
	if err := c.normalize(); err != nil {
		return Conversation{}, err
	}
	var out Conversation
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Conversations, c.ID)
		if i < 0 {
			return outcome{}, notFound("conversation", c.ID)
		}
		cur := &s.Conversations[i]
		cur.Name = c.Name
		cur.Participants = slices.Clone(c.Participants)
		cur.IsGroup = c.IsGroup
		out = cur.clone()
		return outcome{
			events: []bus.Event{event(bus.KindConversationUpdated, bus.Change{ID: c.ID})},
			toast:  &bus.Toast{Title: "Conversation updated", Description: c.Name},
		}, nil
	})
	if err != nil {
		return Conversation{}, err
	}
	return out, nil
}

// DeleteConversation removes a conversation, unlinks its meetings and cancels
// any delivery still pending for its messages.
func (w *Workspace) DeleteConversation(ctx context.Context, id string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		var ok bool
		if s.Conversations, ok = removeEntity(s.Conversations, id); !ok {
			return outcome{}, notFound("conversation", id)
		}
		w.cascade(s, Conversations, id)
		return outcome{
			events: []bus.Event{event(bus.KindConversationDeleted, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Conversation deleted"},
		}, nil
	})
}

// LinkMeeting attaches a meeting to a conversation.
func (w *Workspace) LinkMeeting(ctx context.Context, conversationID, meetingID string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Meetings, meetingID)
		if i < 0 {
			return outcome{}, notFound("meeting", meetingID)
		}
		if err := linkConversation(s, meetingID, conversationID); err != nil {
			return outcome{}, err
		}
		s.Meetings[i].ConversationID = conversationID
		return outcome{
			events: []bus.Event{
				event(bus.KindConversationUpdated, bus.Change{ID: conversationID}),
				event(bus.KindMeetingUpdated, bus.Change{ID: meetingID}),
			},
		}, nil
	})
}

// SetTyping adds or removes userID from the conversation's typing set.
func (w *Workspace) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Conversations, conversationID)
		if i < 0 {
			return outcome{}, notFound("conversation", conversationID)
		}
		c := &s.Conversations[i]
		was := slices.Contains(c.TypingUsers, userID)
		if was == typing {
			return outcome{unchanged: true}, nil
		}
		if typing {
			c.TypingUsers = addID(c.TypingUsers, userID)
		} else {
			c.TypingUsers, _ = removeID(c.TypingUsers, userID)
		}
		return outcome{events: []bus.Event{event(bus.KindConversationTyping, bus.Change{ID: userID, Parent: conversationID})}}, nil
	})
}

// MessageOptions carries the optional parts of a new message.
type MessageOptions struct {
	Attachments []Attachment
	MeetingID   string
}

// AddMessage appends a message in the sending state and hands it to the
// delivery pipeline once the change is persisted.
func (w *Workspace) AddMessage(ctx context.Context, conversationID, senderID, content string, opts MessageOptions) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(opts.Attachments) == 0 {
		return Message{}, invalid("message is empty")
	}
	if senderID == "" {
		return Message{}, invalid("message sender is required")
	}
	var msg Message
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Conversations, conversationID)
		if i < 0 {
			return outcome{}, notFound("conversation", conversationID)
		}
		c := &s.Conversations[i]
		now := w.clock.Now()
		msg = Message{
			ID:          w.newID(),
			SenderID:    senderID,
			Content:     content,
			Timestamp:   now,
			Status:      status.Sending,
			Attachments: slices.Clone(opts.Attachments),
			MeetingID:   opts.MeetingID,
		}
		for j := range msg.Attachments {
			if msg.Attachments[j].ID == "" {
				msg.Attachments[j].ID = w.newID()
			}
		}
		c.Messages = append(c.Messages, msg.clone())
		c.TypingUsers, _ = removeID(c.TypingUsers, senderID)
		c.LastMessageAt = now
		return outcome{
			events: []bus.Event{event(bus.KindMessageAdded, bus.Change{ID: msg.ID, Parent: conversationID, To: string(msg.Status)})},
			after:  func() { w.dispatchMessage(conversationID, msg) },
		}, nil
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// RetryMessage re-sends a message whose delivery failed.
func (w *Workspace) RetryMessage(ctx context.Context, conversationID, messageID string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Conversations, conversationID)
		if i < 0 {
			return outcome{}, notFound("conversation", conversationID)
		}
		c := &s.Conversations[i]
		j := indexOf(c.Messages, messageID)
		if j < 0 {
			return outcome{}, notFound("message", messageID)
		}
		m := &c.Messages[j]
		if m.Status != status.Errored {
			return outcome{}, invalid("message %q is %s, only failed messages can be retried", messageID, m.Status)
		}
		if err := status.AdvanceDelivery(m.Status, status.Sending); err != nil {
			return outcome{}, err
		}
		m.Status = status.Sending
		msg := m.clone()
		return outcome{
			events: []bus.Event{event(bus.KindMessageStatusChanged, bus.Change{ID: messageID, Parent: conversationID, From: string(status.Errored), To: string(status.Sending)})},
			after:  func() { w.dispatchMessage(conversationID, msg) },
		}, nil
	})
}

// dispatchMessage schedules delivery under the store lock, so a conversation
// deleted since the message was added gets no timer, and one deleted later
// cancels it.
func (w *Workspace) dispatchMessage(conversationID string, msg Message) {
	if w.dispatch == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if indexOf(w.state.Conversations, conversationID) < 0 {
		w.logger.Debug("conversation gone, delivery not scheduled",
			zap.String("conversation_id", conversationID),
			zap.String("message_id", msg.ID))
		return
	}
	env := outbox.Envelope{
		ConversationID: conversationID,
		MessageID:      msg.ID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
	}
	w.dispatch.Dispatch(env, func(d status.Delivery) {
		w.applyDelivery(conversationID, msg.ID, d)
	})
}

// applyDelivery records the result of a delivery attempt. The conversation or
// message may have been deleted meanwhile, in which case nothing happens.
// A message never moves backwards, so a late delivery leaves read messages read.
func (w *Workspace) applyDelivery(conversationID, messageID string, next status.Delivery) {
	_ = w.mutate(context.Background(), func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Conversations, conversationID)
		if i < 0 {
			return outcome{unchanged: true}, nil
		}
		c := &s.Conversations[i]
		j := indexOf(c.Messages, messageID)
		if j < 0 {
			return outcome{unchanged: true}, nil
		}
		m := &c.Messages[j]
		prev := m.Status
		if prev == next {
			return outcome{unchanged: true}, nil
		}
		if err := status.AdvanceDelivery(prev, next); err != nil {
			w.logger.Debug("delivery result ignored",
				zap.String("conversation_id", conversationID),
				zap.String("message_id", messageID),
				zap.Error(err))
			return outcome{unchanged: true}, nil
		}
		m.Status = next
		events := []bus.Event{event(bus.KindMessageStatusChanged, bus.Change{ID: messageID, Parent: conversationID, From: string(prev), To: string(next)})}
		if next == status.Errored {
			events = append(events, bus.Event{Kind: bus.KindToastError, Payload: bus.Toast{Title: "Message not delivered", Description: "Retry to send it again"}})
		}
		return outcome{events: events}, nil
	})
}

// MarkMessagesAsRead marks every message in the conversation that readerID did
// not send as read, and returns how many changed. The reader's own messages are
// never touched.
func (w *Workspace) MarkMessagesAsRead(ctx context.Context, conversationID, readerID string) (int, error) {
	n := 0
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Conversations, conversationID)
		if i < 0 {
			return outcome{}, notFound("conversation", conversationID)
		}
		msgs := s.Conversations[i].Messages
		for j := range msgs {
			m := &msgs[j]
			if m.SenderID == readerID || (m.Read && m.Status == status.Read) {
				continue
			}
			m.Read = true
			m.Status = status.Read
			n++
		}
		if n == 0 {
			return outcome{unchanged: true}, nil
		}
		return outcome{events: []bus.Event{event(bus.KindMessagesRead, bus.Change{ID: conversationID, To: readerID})}}, nil
	})
	return n, err
}

// UnreadCount counts messages in the conversation that readerID has not read
// and did not send.
func (w *Workspace) UnreadCount(conversationID, readerID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := indexOf(w.state.Conversations, conversationID)
	if i < 0 {
		return 0
	}
	n := 0
	for _, m := range w.state.Conversations[i].Messages {
		if !m.Read && m.SenderID != readerID {
			n++
		}
	}
	return n
}

// Conversation returns a single conversation with its messages.
func (w *Workspace) Conversation(id string) (Conversation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := indexOf(w.state.Conversations, id)
	if i < 0 {
		return Conversation{}, notFound("conversation", id)
	}
	return w.state.Conversations[i].clone(), nil
}

// Conversations lists conversations, most recently active first.
func (w *Workspace) Conversations() []Conversation {
	w.mu.Lock()
	out := cloneAll(w.state.Conversations, Conversation.clone)
	w.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Conversation) int { return b.LastMessageAt.Compare(a.LastMessageAt) })
	return out
}
