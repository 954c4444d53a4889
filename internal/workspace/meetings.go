package workspace

import (
	"context"
	"slices"
	"strings"

	"github.com/matheus3301/teamspace/internal/bus"
	"github.com/matheus3301/teamspace/internal/status"
	"go.uber.org/zap"
)

func (m *Meeting) normalize() error {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return invalid("meeting title is required")
	}
	if m.StartTime.IsZero() || m.EndTime.IsZero() {
		return invalid("meeting start and end times are required")
	}
	if !m.EndTime.After(m.StartTime) {
		return invalid("meeting must end after it starts")
	}
	if m.Status != "" && !m.Status.Valid() {
		return invalid("unknown meeting status %q", m.Status)
	}
	if m.Participants == nil {
		m.Participants = []string{}
	}
	return nil
}

// linkConversation points meeting id at conversation convID, detaching it
// from any other conversation. Caller holds w.mu.
func linkConversation(s *Snapshot, id, convID string) error {
	if convID != "" && indexOf(s.Conversations, convID) < 0 {
		return notFound("conversation", convID)
	}
	for i := range s.Conversations {
		if s.Conversations[i].ID == convID {
			s.Conversations[i].MeetingIDs = addID(s.Conversations[i].MeetingIDs, id)
		} else {
			s.Conversations[i].MeetingIDs, _ = removeID(s.Conversations[i].MeetingIDs, id)
		}
	}
	return nil
}

// AddMeeting schedules a meeting. Its status is derived from the current time.
func (w *Workspace) AddMeeting(ctx context.Context, m Meeting) (Meeting, error) {
	if err := m.normalize(); err != nil {
		return Meeting{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		m.ID = w.newID()
		if err := linkConversation(s, m.ID, m.ConversationID); err != nil {
			return outcome{}, err
		}
		m.Status = status.DeriveMeeting(m.Status, m.StartTime, m.EndTime, w.clock.Now())
		s.Meetings = append(s.Meetings, m.clone())
		return outcome{
			events: []bus.Event{event(bus.KindMeetingAdded, bus.Change{ID: m.ID, To: string(m.Status)})},
			toast:  &bus.Toast{Title: "Meeting scheduled", Description: m.Title},
		}, nil
	})
	if err != nil {
		return Meeting{}, err
	}
	return m, nil
}

// UpdateMeeting replaces the meeting with the same id and re-derives its
// status. A canceled meeting stays canceled. Requesting canceled goes
// through the same transition check as CancelMeeting.
func (w *Workspace) UpdateMeeting(ctx context.Context, m Meeting) (Meeting, error) {
	if err := m.normalize(); err != nil {
		return Meeting{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Meetings, m.ID)
		if i < 0 {
			return outcome{}, notFound("meeting", m.ID)
		}
		if err := linkConversation(s, m.ID, m.ConversationID); err != nil {
			return outcome{}, err
		}
		stored := s.Meetings[i]
		prev := stored.Status
		now := w.clock.Now()
		if m.Status == status.Canceled {
			from := status.DeriveMeeting(prev, stored.StartTime, stored.EndTime, now)
			if err := status.TransitionMeeting(from, status.Canceled); err != nil {
				return outcome{}, err
			}
		}
		if prev == status.Canceled {
			m.Status = status.Canceled
		}
		m.Status = status.DeriveMeeting(m.Status, m.StartTime, m.EndTime, now)
		s.Meetings[i] = m.clone()
		return outcome{
			events: []bus.Event{event(bus.KindMeetingUpdated, bus.Change{ID: m.ID, From: string(prev), To: string(m.Status)})},
			toast:  &bus.Toast{Title: "Meeting updated", Description: m.Title},
		}, nil
	})
	if err != nil {
		return Meeting{}, err
	}
	return m, nil
}

// DeleteMeeting removes a meeting and unlinks it from conversations and messages.
func (w *Workspace) DeleteMeeting(ctx context.Context, id string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		var ok bool
		if s.Meetings, ok = removeEntity(s.Meetings, id); !ok {
			return outcome{}, notFound("meeting", id)
		}
		w.cascade(s, Meetings, id)
		return outcome{
			events: []bus.Event{event(bus.KindMeetingDeleted, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Meeting deleted"},
		}, nil
	})
}

// JoinMeeting marks a scheduled meeting ongoing ahead of its start time. The
// next status refresh derives the status from the clock again.
func (w *Workspace) JoinMeeting(ctx context.Context, id string) (Meeting, error) {
	return w.setMeetingStatus(ctx, id, status.Ongoing, "Joined meeting")
}

// CancelMeeting moves a meeting to the terminal canceled state.
func (w *Workspace) CancelMeeting(ctx context.Context, id string) (Meeting, error) {
	return w.setMeetingStatus(ctx, id, status.Canceled, "Meeting canceled")
}

func (w *Workspace) setMeetingStatus(ctx context.Context, id string, to status.Meeting, title string) (Meeting, error) {
	var out Meeting
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Meetings, id)
		if i < 0 {
			return outcome{}, notFound("meeting", id)
		}
		m := &s.Meetings[i]
		from := m.Status
		// A meeting past its end is completed even if no refresh has run yet.
		if status.DeriveMeeting(from, m.StartTime, m.EndTime, w.clock.Now()) == status.Completed {
			from = status.Completed
		}
		if err := status.TransitionMeeting(from, to); err != nil {
			return outcome{}, err
		}
		out = m.clone()
		if from == to {
			return outcome{unchanged: true}, nil
		}
		m.Status = to
		out.Status = to
		return outcome{
			events: []bus.Event{event(bus.KindMeetingStatusChanged, bus.Change{ID: id, From: string(from), To: string(to)})},
			toast:  &bus.Toast{Title: title, Description: m.Title},
		}, nil
	})
	if err != nil {
		return Meeting{}, err
	}
	return out, nil
}

// RefreshMeetingStatuses re-derives every meeting's status from the clock and
// returns how many changed. Nothing is persisted when nothing changed.
func (w *Workspace) RefreshMeetingStatuses(ctx context.Context) int {
	changed := 0
	_ = w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		now := w.clock.Now()
		var events []bus.Event
		for i := range s.Meetings {
			m := &s.Meetings[i]
			next := status.DeriveMeeting(m.Status, m.StartTime, m.EndTime, now)
			if next == m.Status {
				continue
			}
			events = append(events, event(bus.KindMeetingStatusChanged, bus.Change{ID: m.ID, From: string(m.Status), To: string(next)}))
			m.Status = next
		}
		changed = len(events)
		return outcome{events: events, unchanged: changed == 0}, nil
	})
	if changed > 0 {
		w.logger.Debug("meeting statuses refreshed", zap.Int("changed", changed))
	}
	return changed
}

// Meeting returns a single meeting.
func (w *Workspace) Meeting(id string) (Meeting, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := indexOf(w.state.Meetings, id)
	if i < 0 {
		return Meeting{}, notFound("meeting", id)
	}
	return w.state.Meetings[i].clone(), nil
}

// Meetings lists all meetings ordered by start time.
func (w *Workspace) Meetings() []Meeting {
	w.mu.Lock()
	out := cloneAll(w.state.Meetings, Meeting.clone)
	w.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Meeting) int { return a.StartTime.Compare(b.StartTime) })
	return out
}
