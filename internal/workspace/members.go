package workspace

import (
	"context"
	"strings"

	"github.com/matheus3301/teamspace/internal/bus"
)

func (m *TeamMember) normalize() error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return invalid("member name is required")
	}
	return nil
}

// AddTeamMember creates a team member.
func (w *Workspace) AddTeamMember(ctx context.Context, m TeamMember) (TeamMember, error) {
	if err := m.normalize(); err != nil {
		return TeamMember{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		m.ID = w.newID()
		if m.LastActive.IsZero() {
			m.LastActive = w.clock.Now()
		}
		s.TeamMembers = append(s.TeamMembers, m)
		return outcome{
			events: []bus.Event{event(bus.KindMemberAdded, bus.Change{ID: m.ID})},
			toast:  &bus.Toast{Title: "Team member added", Description: m.Name},
		}, nil
	})
	if err != nil {
		return TeamMember{}, err
	}
	return m, nil
}

// UpdateTeamMember replaces the member with the same id.
func (w *Workspace) UpdateTeamMember(ctx context.Context, m TeamMember) (TeamMember, error) {
	if err := m.normalize(); err != nil {
		return TeamMember{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.TeamMembers, m.ID)
		if i < 0 {
			return outcome{}, notFound("team member", m.ID)
		}
		s.TeamMembers[i] = m
		return outcome{
			events: []bus.Event{event(bus.KindMemberUpdated, bus.Change{ID: m.ID})},
			toast:  &bus.Toast{Title: "Team member updated", Description: m.Name},
		}, nil
	})
	if err != nil {
		return TeamMember{}, err
	}
	return m, nil
}

// SetMemberPresence flips a member's online flag and bumps lastActive.
func (w *Workspace) SetMemberPresence(ctx context.Context, id string, online bool) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.TeamMembers, id)
		if i < 0 {
			return outcome{}, notFound("team member", id)
		}
		s.TeamMembers[i].IsOnline = online
		s.TeamMembers[i].LastActive = w.clock.Now()
		return outcome{events: []bus.Event{event(bus.KindMemberUpdated, bus.Change{ID: id})}}, nil
	})
}

// DeleteTeamMember removes a member and every reference to them: task
// assignments, project and meeting rosters, typing indicators.
func (w *Workspace) DeleteTeamMember(ctx context.Context, id string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		var ok bool
		if s.TeamMembers, ok = removeEntity(s.TeamMembers, id); !ok {
			return outcome{}, notFound("team member", id)
		}
		w.cascade(s, TeamMembers, id)
		return outcome{
			events: []bus.Event{event(bus.KindMemberDeleted, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Team member removed"},
		}, nil
	})
}

// TeamMember returns a single member.
func (w *Workspace) TeamMember(id string) (TeamMember, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := indexOf(w.state.TeamMembers, id)
	if i < 0 {
		return TeamMember{}, notFound("team member", id)
	}
	return w.state.TeamMembers[i], nil
}

// TeamMembers lists all members.
func (w *Workspace) TeamMembers() []TeamMember {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneAll(w.state.TeamMembers, TeamMember.clone)
}
