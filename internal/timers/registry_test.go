package timers

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	r := NewRegistry(nil)
	done := make(chan struct{})
	r.Schedule("c1/m1", 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	waitPending(t, r, 0)
}

func TestCancelPreventsFire(t *testing.T) {
	r := NewRegistry(nil)
	var fired atomic.Bool
	r.Schedule("c1/m1", 20*time.Millisecond, func() { fired.Store(true) })

	if !r.Cancel("c1/m1") {
		t.Fatal("Cancel() = false, want true")
	}
	if r.Cancel("c1/m1") {
		t.Error("second Cancel() = true, want false")
	}

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled timer fired")
	}
}

func TestCancelPrefix(t *testing.T) {
	r := NewRegistry(nil)
	var fired atomic.Int32
	inc := func() { fired.Add(1) }

	r.Schedule("c1/m1", 30*time.Millisecond, inc)
	r.Schedule("c1/m2", 30*time.Millisecond, inc)
	r.Schedule("c2/m1", 30*time.Millisecond, inc)

	if n := r.CancelPrefix("c1/"); n != 2 {
		t.Errorf("CancelPrefix() = %d, want 2", n)
	}
	if n := r.Pending(); n != 1 {
		t.Errorf("Pending() = %d, want 1", n)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d timers, want 1", got)
	}
}

func TestScheduleReplacesSameKey(t *testing.T) {
	r := NewRegistry(nil)
	var first, second atomic.Bool
	r.Schedule("k", 20*time.Millisecond, func() { first.Store(true) })
	r.Schedule("k", 20*time.Millisecond, func() { second.Store(true) })

	if n := r.Pending(); n != 1 {
		t.Errorf("Pending() = %d, want 1", n)
	}
	time.Sleep(80 * time.Millisecond)
	if first.Load() {
		t.Error("replaced timer fired")
	}
	if !second.Load() {
		t.Error("replacement timer did not fire")
	}
}

func TestStop(t *testing.T) {
	r := NewRegistry(nil)
	var fired atomic.Bool
	r.Schedule("k", 20*time.Millisecond, func() { fired.Store(true) })
	r.Stop()

	r.Schedule("k2", time.Millisecond, func() { fired.Store(true) })
	if n := r.Pending(); n != 0 {
		t.Errorf("Pending() after Stop = %d, want 0", n)
	}
	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("timer fired after Stop")
	}
}

func TestStopWaitsForRunningCallback(t *testing.T) {
	r := NewRegistry(nil)
	started := make(chan struct{})
	var finished atomic.Bool
	r.Schedule("conv-1/msg-1", time.Millisecond, func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})
	<-started

	r.Stop()
	if !finished.Load() {
		t.Error("Stop returned before the running callback finished")
	}
}

func waitPending(t *testing.T, r *Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r.Pending() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Pending() = %d, want %d", r.Pending(), want)
}
