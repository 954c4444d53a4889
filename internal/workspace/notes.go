package workspace

import (
	"context"
	"strings"

	"github.com/matheus3301/teamspace/internal/bus"
)

func (n *Note) normalize() error {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return invalid("note title is required")
	}
	return nil
}

// AddNote creates a note with an empty history.
func (w *Workspace) AddNote(ctx context.Context, n Note) (Note, error) {
	if err := n.normalize(); err != nil {
		return Note{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		now := w.clock.Now()
		n.ID = w.newID()
		n.CreatedAt = now
		n.UpdatedAt = now
		n.Versions = []NoteVersion{}
		s.Notes = append(s.Notes, n.clone())
		return outcome{
			events: []bus.Event{event(bus.KindNoteAdded, bus.Change{ID: n.ID})},
			toast:  &bus.Toast{Title: "Note created", Description: n.Title},
		}, nil
	})
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

// UpdateNote replaces the note's editable fields. When the title or content
// changed, the previous revision is appended to the note's history. The
// history itself cannot be overwritten through an update.
func (w *Workspace) UpdateNote(ctx context.Context, n Note) (Note, error) {
	if err := n.normalize(); err != nil {
		return Note{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Notes, n.ID)
		if i < 0 {
			return outcome{}, notFound("note", n.ID)
		}
		prev := s.Notes[i]
		n.CreatedAt = prev.CreatedAt
		n.Versions = prev.Versions
		n.UpdatedAt = w.clock.Now()
		if prev.Title != n.Title || prev.Content != n.Content {
			n.Versions = append(n.Versions, NoteVersion{Title: prev.Title, Content: prev.Content, SavedAt: prev.UpdatedAt})
		}
		s.Notes[i] = n.clone()
		return outcome{
			events: []bus.Event{event(bus.KindNoteUpdated, bus.Change{ID: n.ID})},
			toast:  &bus.Toast{Title: "Note saved", Description: n.Title},
		}, nil
	})
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

// RestoreNoteVersion makes version idx the current content. The content being
// replaced is itself kept as a new version.
func (w *Workspace) RestoreNoteVersion(ctx context.Context, id string, idx int) (Note, error) {
	var out Note
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Notes, id)
		if i < 0 {
			return outcome{}, notFound("note", id)
		}
		n := &s.Notes[i]
		if idx < 0 || idx >= len(n.Versions) {
			return outcome{}, invalid("note %q has no version %d", id, idx)
		}
		v := n.Versions[idx]
		n.Versions = append(n.Versions, NoteVersion{Title: n.Title, Content: n.Content, SavedAt: n.UpdatedAt})
		n.Title = v.Title
		n.Content = v.Content
		n.UpdatedAt = w.clock.Now()
		out = n.clone()
		return outcome{
			events: []bus.Event{event(bus.KindNoteUpdated, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Version restored", Description: n.Title},
		}, nil
	})
	if err != nil {
		return Note{}, err
	}
	return out, nil
}

// DeleteNote removes a note.
func (w *Workspace) DeleteNote(ctx context.Context, id string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		var ok bool
		if s.Notes, ok = removeEntity(s.Notes, id); !ok {
			return outcome{}, notFound("note", id)
		}
		w.cascade(s, Notes, id)
		return outcome{
			events: []bus.Event{event(bus.KindNoteDeleted, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Note deleted"},
		}, nil
	})
}

// Note returns a single note.
func (w *Workspace) Note(id string) (Note, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := indexOf(w.state.Notes, id)
	if i < 0 {
		return Note{}, notFound("note", id)
	}
	return w.state.Notes[i].clone(), nil
}

// Notes lists all notes.
func (w *Workspace) Notes() []Note {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneAll(w.state.Notes, Note.clone)
}
