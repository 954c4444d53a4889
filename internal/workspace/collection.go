package workspace

import (
	"context"
	"encoding/json"
	"fmt"
)

// List returns a copy of one collection.
func (w *Workspace) List(c Collection) (any, error) {
	switch c {
	case Tasks:
		return w.Tasks(TaskFilter{}), nil
	case TeamMembers:
		return w.TeamMembers(), nil
	case Projects:
		return w.Projects(), nil
	case Clients:
		return w.Clients(), nil
	case Notes:
		return w.Notes(), nil
	case Conversations:
		return w.Conversations(), nil
	case Meetings:
		return w.Meetings(), nil
	}
	return nil, invalid("unknown collection %q", c)
}

// Upsert decodes a JSON entity for collection c and adds it when it has no id,
// or updates the existing entity otherwise.
func (w *Workspace) Upsert(ctx context.Context, c Collection, data []byte) (any, error) {
	switch c {
	case Tasks:
		return upsert(ctx, data, func(v Task) string { return v.ID }, w.AddTask, w.UpdateTask)
	case TeamMembers:
		return upsert(ctx, data, func(v TeamMember) string { return v.ID }, w.AddTeamMember, w.UpdateTeamMember)
	case Projects:
		return upsert(ctx, data, func(v Project) string { return v.ID }, w.AddProject, w.UpdateProject)
	case Clients:
		return upsert(ctx, data, func(v Client) string { return v.ID }, w.AddClient, w.UpdateClient)
	case Notes:
		return upsert(ctx, data, func(v Note) string { return v.ID }, w.AddNote, w.UpdateNote)
	case Conversations:
		return upsert(ctx, data, func(v Conversation) string { return v.ID }, w.AddConversation, w.UpdateConversation)
	case Meetings:
		return upsert(ctx, data, func(v Meeting) string { return v.ID }, w.AddMeeting, w.UpdateMeeting)
	}
	return nil, invalid("unknown collection %q", c)
}

func upsert[T any](ctx context.Context, data []byte, id func(T) string, add, update func(context.Context, T) (T, error)) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: decode entity: %v", ErrInvalid, err)
	}
	if id(v) == "" {
		return add(ctx, v)
	}
	return update(ctx, v)
}

// Delete removes the entity id from collection c, resolving its cascades.
func (w *Workspace) Delete(ctx context.Context, c Collection, id string) error {
	switch c {
	case Tasks:
		return w.DeleteTask(ctx, id)
	case TeamMembers:
		return w.DeleteTeamMember(ctx, id)
	case Projects:
		return w.DeleteProject(ctx, id)
	case Clients:
		return w.DeleteClient(ctx, id)
	case Notes:
		return w.DeleteNote(ctx, id)
	case Conversations:
		return w.DeleteConversation(ctx, id)
	case Meetings:
		return w.DeleteMeeting(ctx, id)
	}
	return invalid("unknown collection %q", c)
}

// Counts reports the size of every collection.
func (w *Workspace) Counts() map[Collection]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := &w.state
	return map[Collection]int{
		Tasks:         len(s.Tasks),
		TeamMembers:   len(s.TeamMembers),
		Projects:      len(s.Projects),
		Clients:       len(s.Clients),
		Notes:         len(s.Notes),
		Conversations: len(s.Conversations),
		Meetings:      len(s.Meetings),
	}
}
