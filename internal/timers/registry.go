// Package timers keeps one-shot timers keyed by entity id so that deleting an
// entity can cancel the work scheduled against it.
package timers

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry owns a set of pending one-shot timers.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*entry
	seq     uint64
	stopped bool
	running sync.WaitGroup
	logger  *zap.Logger
}

type entry struct {
	seq   uint64
	timer *time.Timer
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		pending: make(map[string]*entry),
		logger:  logger,
	}
}

// Schedule runs fn once after d. A pending timer with the same key is
// replaced. Scheduling on a stopped registry is a no-op.
func (r *Registry) Schedule(key string, d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		r.logger.Debug("registry stopped, timer dropped", zap.String("key", key))
		return
	}
	if old, ok := r.pending[key]; ok {
		old.timer.Stop()
	}
	r.seq++
	seq := r.seq
	e := &entry{seq: seq}
	e.timer = time.AfterFunc(d, func() { r.fire(key, seq, fn) })
	r.pending[key] = e
}

// fire runs fn only if the entry is still the current one for key. A timer
// that fired while Cancel held the lock finds its entry gone and does nothing.
func (r *Registry) fire(key string, seq uint64, fn func()) {
	r.mu.Lock()
	e, ok := r.pending[key]
	if !ok || e.seq != seq || r.stopped {
		r.mu.Unlock()
		return
	}
	delete(r.pending, key)
	r.running.Add(1)
	r.mu.Unlock()

	defer r.running.Done()
	fn()
}

// Cancel stops the timer for key. Returns false if none was pending.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(r.pending, key)
	return true
}

// CancelPrefix stops every timer whose key starts with prefix and returns how
// many were cancelled.
func (r *Registry) CancelPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, e := range r.pending {
		if strings.HasPrefix(key, prefix) {
			e.timer.Stop()
			delete(r.pending, key)
			n++
		}
	}
	return n
}

// Pending reports how many timers have not fired yet.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Stop cancels everything, rejects further scheduling and waits for
// callbacks that are already running. It must not be called from a callback.
func (r *Registry) Stop() {
	r.mu.Lock()
	for key, e := range r.pending {
		e.timer.Stop()
		delete(r.pending, key)
	}
	r.stopped = true
	r.mu.Unlock()

	r.running.Wait()
}
