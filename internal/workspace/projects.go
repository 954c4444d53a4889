package workspace

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/matheus3301/teamspace/internal/bus"
)

func (p *Project) normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return invalid("project name is required")
	}
	if p.StartDate != nil && p.Deadline != nil && p.Deadline.Before(*p.StartDate) {
		return invalid("project deadline is before its start date")
	}
	if p.Tasks == nil {
		p.Tasks = []string{}
	}
	if p.Files == nil {
		p.Files = []ProjectFile{}
	}
	return nil
}

// AddProject creates a project.
func (w *Workspace) AddProject(ctx context.Context, p Project) (Project, error) {
	if err := p.normalize(); err != nil {
		return Project{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		p.ID = w.newID()
		p.CreatedAt = w.clock.Now()
		s.Projects = append(s.Projects, p.clone())
		return outcome{
			events: []bus.Event{event(bus.KindProjectAdded, bus.Change{ID: p.ID})},
			toast:  &bus.Toast{Title: "Project created", Description: p.Name},
		}, nil
	})
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

// UpdateProject replaces the project with the same id. Task ids are stored as
// given and may reference tasks that no longer exist.
func (w *Workspace) UpdateProject(ctx context.Context, p Project) (Project, error) {
	if err := p.normalize(); err != nil {
		return Project{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Projects, p.ID)
		if i < 0 {
			return outcome{}, notFound("project", p.ID)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = s.Projects[i].CreatedAt
		}
		s.Projects[i] = p.clone()
		return outcome{
			events: []bus.Event{event(bus.KindProjectUpdated, bus.Change{ID: p.ID})},
			toast:  &bus.Toast{Title: "Project updated", Description: p.Name},
		}, nil
	})
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

// DeleteProject removes a project and clears it from tasks, notes and meetings.
func (w *Workspace) DeleteProject(ctx context.Context, id string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		var ok bool
		if s.Projects, ok = removeEntity(s.Projects, id); !ok {
			return outcome{}, notFound("project", id)
		}
		w.cascade(s, Projects, id)
		return outcome{
			events: []bus.Event{event(bus.KindProjectDeleted, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Project deleted"},
		}, nil
	})
}

// AddProjectFile stores data inline on the project as a base64 data URI.
func (w *Workspace) AddProjectFile(ctx context.Context, projectID, name, mimeType string, data []byte, uploadedBy string) (ProjectFile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ProjectFile{}, invalid("file name is required")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	f := ProjectFile{
		Name:       name,
		Type:       mimeType,
		Size:       int64(len(data)),
		URL:        "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		UploadedBy: uploadedBy,
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Projects, projectID)
		if i < 0 {
			return outcome{}, notFound("project", projectID)
		}
		f.ID = w.newID()
		f.UploadedAt = w.clock.Now()
		s.Projects[i].Files = append(s.Projects[i].Files, f)
		return outcome{
			events: []bus.Event{event(bus.KindProjectUpdated, bus.Change{ID: projectID})},
			toast:  &bus.Toast{Title: "File uploaded", Description: name},
		}, nil
	})
	if err != nil {
		return ProjectFile{}, err
	}
	return f, nil
}

// RemoveProjectFile deletes one file from a project.
func (w *Workspace) RemoveProjectFile(ctx context.Context, projectID, fileID string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Projects, projectID)
		if i < 0 {
			return outcome{}, notFound("project", projectID)
		}
		files := s.Projects[i].Files
		j := -1
		for k := range files {
			if files[k].ID == fileID {
				j = k
				break
			}
		}
		if j < 0 {
			return outcome{}, notFound("file", fileID)
		}
		s.Projects[i].Files = append(files[:j], files[j+1:]...)
		return outcome{
			events: []bus.Event{event(bus.KindProjectUpdated, bus.Change{ID: projectID})},
			toast:  &bus.Toast{Title: "File removed"},
		}, nil
	})
}

// Project returns a single project.
func (w *Workspace) Project(id string) (Project, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := indexOf(w.state.Projects, id)
	if i < 0 {
		return Project{}, notFound("project", id)
	}
	return w.state.Projects[i].clone(), nil
}

// Projects lists all projects.
func (w *Workspace) Projects() []Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneAll(w.state.Projects, Project.clone)
}
