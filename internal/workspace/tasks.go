package workspace

import (
	"context"
	"slices"
	"strings"

	"github.com/matheus3301/teamspace/internal/bus"
)

func (t *Task) normalize() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return invalid("task title is required")
	}
	switch t.Status {
	case "":
		t.Status = TaskTodo
	case TaskTodo, TaskInProcess, TaskCompleted:
	default:
		return invalid("unknown task status %q", t.Status)
	}
	switch t.Priority {
	case "":
		t.Priority = PriorityMedium
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return invalid("unknown task priority %q", t.Priority)
	}
	if t.AssignedTo == nil {
		t.AssignedTo = []string{}
	}
	return nil
}

// AddTask creates a task. If it names a project, the project's task list is
// updated too.
func (w *Workspace) AddTask(ctx context.Context, t Task) (Task, error) {
	if err := t.normalize(); err != nil {
		return Task{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		t.ID = w.newID()
		t.CreatedAt = w.clock.Now()
		s.Tasks = append(s.Tasks, t.clone())
		if t.ProjectID != "" {
			if i := indexOf(s.Projects, t.ProjectID); i >= 0 {
				s.Projects[i].Tasks = addID(s.Projects[i].Tasks, t.ID)
			}
		}
		return outcome{
			events: []bus.Event{event(bus.KindTaskAdded, bus.Change{ID: t.ID})},
			toast:  &bus.Toast{Title: "Task created", Description: t.Title},
		}, nil
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// UpdateTask replaces the task with the same id.
func (w *Workspace) UpdateTask(ctx context.Context, t Task) (Task, error) {
	if err := t.normalize(); err != nil {
		return Task{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Tasks, t.ID)
		if i < 0 {
			return outcome{}, notFound("task", t.ID)
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = s.Tasks[i].CreatedAt
		}
		s.Tasks[i] = t.clone()
		if t.ProjectID != "" {
			if j := indexOf(s.Projects, t.ProjectID); j >= 0 {
				s.Projects[j].Tasks = addID(s.Projects[j].Tasks, t.ID)
			}
		}
		return outcome{
			events: []bus.Event{event(bus.KindTaskUpdated, bus.Change{ID: t.ID})},
			toast:  &bus.Toast{Title: "Task updated", Description: t.Title},
		}, nil
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task and drops it from every project.
func (w *Workspace) DeleteTask(ctx context.Context, id string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		var ok bool
		if s.Tasks, ok = removeEntity(s.Tasks, id); !ok {
			return outcome{}, notFound("task", id)
		}
		w.cascade(s, Tasks, id)
		return outcome{
			events: []bus.Event{event(bus.KindTaskDeleted, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Task deleted"},
		}, nil
	})
}

// Task returns a single task.
func (w *Workspace) Task(id string) (Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := indexOf(w.state.Tasks, id)
	if i < 0 {
		return Task{}, notFound("task", id)
	}
	return w.state.Tasks[i].clone(), nil
}

// TaskFilter narrows a task listing. Zero fields match everything.
type TaskFilter struct {
	Status     TaskStatus
	Priority   Priority
	AssigneeID string
	ProjectID  string
}

func (f TaskFilter) match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssigneeID != "" && !slices.Contains(t.AssignedTo, f.AssigneeID) {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	return true
}

// Tasks lists tasks matching f, earliest due date first. Tasks without a due
// date come last, ordered by creation time.
func (w *Workspace) Tasks(f TaskFilter) []Task {
	w.mu.Lock()
	var out []Task
	for _, t := range w.state.Tasks {
		if f.match(t) {
			out = append(out, t.clone())
		}
	}
	w.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Task) int {
		switch {
		case a.DueDate != nil && b.DueDate != nil:
			if c := a.DueDate.Compare(*b.DueDate); c != 0 {
				return c
			}
		case a.DueDate != nil:
			return -1
		case b.DueDate != nil:
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}
