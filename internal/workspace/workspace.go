// Package workspace is the single state store behind the application. It holds
// every collection in memory, persists all of them to a key-value blob store
// after each mutation, and publishes change and toast events on the bus.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/matheus3301/teamspace/internal/bus"
	"github.com/matheus3301/teamspace/internal/clock"
	"github.com/matheus3301/teamspace/internal/outbox"
	"github.com/matheus3301/teamspace/internal/status"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when an id does not match any entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned for entities missing required fields.
	ErrInvalid = errors.New("invalid")
)

// BlobStore is the durable key-value store the workspace persists to.
// Get returns nil data for keys that were never written. Delete ignores
// missing keys.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, blobs map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Dispatcher hands new messages to the delivery pipeline.
type Dispatcher interface {
	Dispatch(env outbox.Envelope, done func(status.Delivery))
	Cancel(conversationID string) int
}

// Options configures a Workspace. Blobs is required.
type Options struct {
	Blobs      BlobStore
	Bus        *bus.Bus
	Clock      clock.Clock
	Dispatcher Dispatcher
	Logger     *zap.Logger
	NewID      func() string
}

// Workspace is the state store. All methods are safe for concurrent use.
type Workspace struct {
	mu    sync.Mutex
	state Snapshot

	blobs    BlobStore
	bus      *bus.Bus
	clock    clock.Clock
	dispatch Dispatcher
	logger   *zap.Logger
	newID    func() string
}

// New creates an empty workspace. Call Load to populate it.
func New(opts Options) *Workspace {
	w := &Workspace{
		blobs:    opts.Blobs,
		bus:      opts.Bus,
		clock:    opts.Clock,
		dispatch: opts.Dispatcher,
		logger:   opts.Logger,
		newID:    opts.NewID,
	}
	if w.clock == nil {
		w.clock = clock.Real{}
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.newID == nil {
		w.newID = uuid.NewString
	}
	return w
}

// Load reads every collection from the blob store. A collection whose blob is
// missing, unreadable or corrupt is replaced by the seed dataset. Load never
// fails; it returns the collections that fell back to seed data.
func (w *Workspace) Load(ctx context.Context) []Collection {
	seed, err := loadSeed()
	if err != nil {
		// The seed is embedded, so this only happens on a broken build.
		w.logger.Error("seed dataset unusable, falling back to empty collections", zap.Error(err))
		seed = &Snapshot{}
	}

	var loaded Snapshot
	var seeded []Collection
	for _, c := range Collections {
		data, err := w.blobs.Get(ctx, string(c))
		switch {
		case err != nil:
			w.logger.Warn("read blob failed, using seed data", zap.String("collection", string(c)), zap.Error(err))
		case len(data) == 0:
			w.logger.Info("no stored blob, using seed data", zap.String("collection", string(c)))
		default:
			if err := loaded.decode(c, data); err != nil {
				w.logger.Warn("corrupt blob, using seed data", zap.String("collection", string(c)), zap.Error(err))
			} else {
				continue
			}
		}
		loaded.copyFrom(seed, c)
		seeded = append(seeded, c)
	}

	w.mu.Lock()
	w.state = loaded
	perr := w.persistLocked(ctx)
	w.mu.Unlock()
	if perr != nil {
		w.logger.Error("persist after load failed", zap.Error(perr))
	}
	w.logger.Info("workspace loaded", zap.Int("seeded", len(seeded)))
	return seeded
}

// Reset discards every stored collection and starts over from the seed
// dataset. Pending deliveries are cancelled. If the blobs cannot be deleted
// nothing changes.
func (w *Workspace) Reset(ctx context.Context) error {
	seed, err := loadSeed()
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	keys := make([]string, len(Collections))
	for i, c := range Collections {
		keys[i] = string(c)
	}
	return w.mutate(ctx, func(s *Snapshot) (outcome, error) {
		if err := w.blobs.Delete(ctx, keys...); err != nil {
			return outcome{}, fmt.Errorf("delete blobs: %w", err)
		}
		if w.dispatch != nil {
			for _, c := range s.Conversations {
				w.dispatch.Cancel(c.ID)
			}
		}
		*s = *seed.clone()
		return outcome{
			events: []bus.Event{{Kind: bus.KindWorkspaceReset}},
			toast:  &bus.Toast{Title: "Workspace reset"},
		}, nil
	})
}

// Snapshot returns a deep copy of the whole workspace.
func (w *Workspace) Snapshot() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.clone()
}

// outcome describes what a mutation did, for publishing after the lock is released.
type outcome struct {
	events    []bus.Event
	toast     *bus.Toast
	unchanged bool
	after     func()
}

func event(kind string, change bus.Change) bus.Event {
	return bus.Event{Kind: kind, Payload: change}
}

// mutate runs fn under the store lock, persists the full state, and then
// publishes the outcome. Persistence failures do not fail the mutation: the
// in-memory state stays authoritative and an error toast is shown instead.
func (w *Workspace) mutate(ctx context.Context, fn func(s *Snapshot) (outcome, error)) error {
	w.mu.Lock()
	out, err := fn(&w.state)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	var perr error
	if !out.unchanged {
		perr = w.persistLocked(ctx)
	}
	w.mu.Unlock()

	for _, evt := range out.events {
		w.bus.Publish(evt)
	}
	if perr != nil {
		w.logger.Error("persist workspace failed", zap.Error(perr))
		w.bus.Emit(bus.KindToastError, bus.Toast{Title: "Changes not saved", Description: perr.Error()})
	} else if out.toast != nil {
		w.bus.Emit(bus.KindToastSuccess, *out.toast)
	}
	if out.after != nil {
		out.after()
	}
	return nil
}

// persistLocked rewrites every collection blob. Caller holds w.mu.
func (w *Workspace) persistLocked(ctx context.Context) error {
	blobs := make(map[string][]byte, len(Collections))
	for _, c := range Collections {
		data, err := w.state.encode(c)
		if err != nil {
			return fmt.Errorf("encode %s: %w", c, err)
		}
		blobs[string(c)] = data
	}
	return w.blobs.Put(ctx, blobs)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// encode serialises one collection. Nil slices are written as [] rather than null.
func (s *Snapshot) encode(c Collection) ([]byte, error) {
	switch c {
	case Tasks:
		return json.Marshal(nonNil(s.Tasks))
	case TeamMembers:
		return json.Marshal(nonNil(s.TeamMembers))
	case Projects:
		return json.Marshal(nonNil(s.Projects))
	case Clients:
		return json.Marshal(nonNil(s.Clients))
	case Notes:
		return json.Marshal(nonNil(s.Notes))
	case Conversations:
		return json.Marshal(nonNil(s.Conversations))
	case Meetings:
		return json.Marshal(nonNil(s.Meetings))
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}

func (s *Snapshot) decode(c Collection, data []byte) error {
	switch c {
	case Tasks:
		return json.Unmarshal(data, &s.Tasks)
	case TeamMembers:
		return json.Unmarshal(data, &s.TeamMembers)
	case Projects:
		return json.Unmarshal(data, &s.Projects)
	case Clients:
		return json.Unmarshal(data, &s.Clients)
	case Notes:
		return json.Unmarshal(data, &s.Notes)
	case Conversations:
		return json.Unmarshal(data, &s.Conversations)
	case Meetings:
		return json.Unmarshal(data, &s.Meetings)
	}
	return fmt.Errorf("unknown collection %q", c)
}

func (s *Snapshot) copyFrom(src *Snapshot, c Collection) {
	cp := src.clone()
	switch c {
	case Tasks:
		s.Tasks = cp.Tasks
	case TeamMembers:
		s.TeamMembers = cp.TeamMembers
	case Projects:
		s.Projects = cp.Projects
	case Clients:
		s.Clients = cp.Clients
	case Notes:
		s.Notes = cp.Notes
	case Conversations:
		s.Conversations = cp.Conversations
	case Meetings:
		s.Meetings = cp.Meetings
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
