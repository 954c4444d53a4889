package workspace

import (
	"context"
	"strings"

	"github.com/matheus3301/teamspace/internal/bus"
)

func (c *Client) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("client name is required")
	}
	return nil
}

// AddClient creates a client.
func (w *Workspace) AddClient(ctx context.Context, c Client) (Client, error) {
	if err := c.normalize(); err != nil {
		return Client{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		c.ID = w.newID()
		c.CreatedAt = w.clock.Now()
		s.Clients = append(s.Clients, c)
		return outcome{
			events: []bus.Event{event(bus.KindClientAdded, bus.Change{ID: c.ID})},
			toast:  &bus.Toast{Title: "Client added", Description: c.Name},
		}, nil
	})
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

// UpdateClient replaces the client with the same id.
func (w *Workspace) UpdateClient(ctx context.Context, c Client) (Client, error) {
	if err := c.normalize(); err != nil {
		return Client{}, err
	}
	err := w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		i := indexOf(s.Clients, c.ID)
		if i < 0 {
			return outcome{}, notFound("client", c.ID)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.Clients[i].CreatedAt
		}
		s.Clients[i] = c
		return outcome{
			events: []bus.Event{event(bus.KindClientUpdated, bus.Change{ID: c.ID})},
			toast:  &bus.Toast{Title: "Client updated", Description: c.Name},
		}, nil
	})
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

// DeleteClient removes a client and drops it from every project.
func (w *Workspace) DeleteClient(ctx context.Context, id string) error {
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		var ok bool
		if s.Clients, ok = removeEntity(s.Clients, id); !ok {
			return outcome{}, notFound("client", id)
		}
		w.cascade(s, Clients, id)
		return outcome{
			events: []bus.Event{event(bus.KindClientDeleted, bus.Change{ID: id})},
			toast:  &bus.Toast{Title: "Client removed"},
		}, nil
	})
}

// Clients lists all clients.
func (w *Workspace) Clients() []Client {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneAll(w.state.Clients, Client.clone)
}
