package workspace

import "slices"

// Queries hand out deep copies so callers can never mutate the store.

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneAll[T any](items []T, clone func(T) T) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = clone(it)
	}
	return out
}

func (t Task) clone() Task {
	t.AssignedTo = slices.Clone(t.AssignedTo)
	t.DueDate = clonePtr(t.DueDate)
	return t
}

func (m TeamMember) clone() TeamMember { return m }

func (c Client) clone() Client { return c }

func (p Project) clone() Project {
	p.Members = slices.Clone(p.Members)
	p.Clients = slices.Clone(p.Clients)
	p.Tasks = slices.Clone(p.Tasks)
	p.Files = slices.Clone(p.Files)
	p.StartDate = clonePtr(p.StartDate)
	p.Deadline = clonePtr(p.Deadline)
	return p
}

func (n Note) clone() Note {
	n.Tags = slices.Clone(n.Tags)
	n.Versions = slices.Clone(n.Versions)
	return n
}

func (m Meeting) clone() Meeting {
	m.Participants = slices.Clone(m.Participants)
	return m
}

func (m Message) clone() Message {
	m.Attachments = slices.Clone(m.Attachments)
	return m
}

func (c Conversation) clone() Conversation {
	c.Participants = slices.Clone(c.Participants)
	c.TypingUsers = slices.Clone(c.TypingUsers)
	c.MeetingIDs = slices.Clone(c.MeetingIDs)
	c.Messages = cloneAll(c.Messages, Message.clone)
	return c
}

func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		Tasks:         cloneAll(s.Tasks, Task.clone),
		TeamMembers:   cloneAll(s.TeamMembers, TeamMember.clone),
		Projects:      cloneAll(s.Projects, Project.clone),
		Clients:       cloneAll(s.Clients, Client.clone),
		Notes:         cloneAll(s.Notes, Note.clone),
		Conversations: cloneAll(s.Conversations, Conversation.clone),
		Meetings:      cloneAll(s.Meetings, Meeting.clone),
	}
}
