package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("task.", 10)
	defer unsub()

	b.Emit(KindTaskAdded, Change{ID: "t1"})

	select {
	case evt := <-ch:
		if evt.Kind != KindTaskAdded {
			t.Errorf("got kind %q, want %s", evt.Kind, KindTaskAdded)
		}
		change, ok := evt.Payload.(Change)
		if !ok || change.ID != "t1" {
			t.Errorf("payload = %#v, want Change{ID: t1}", evt.Payload)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("meeting.", 10)
	defer unsub()

	b.Emit(KindTaskDeleted, Change{ID: "t1"})
	b.Emit(KindMeetingStatusChanged, Change{ID: "m1", From: "scheduled", To: "ongoing"})

	select {
	case evt := <-ch:
		if evt.Kind != KindMeetingStatusChanged {
			t.Errorf("got kind %q, want %s", evt.Kind, KindMeetingStatusChanged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// The task event must not have been delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmptyNamespaceMatchesAll(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("", 10)
	defer unsub()

	b.Emit(KindToastSuccess, Toast{Title: "Task added"})
	b.Emit(KindMessageAdded, Change{ID: "m1", Parent: "c1"})

	for _, want := range []string{KindToastSuccess, KindMessageAdded} {
		select {
		case evt := <-ch:
			if evt.Kind != want {
				t.Errorf("got kind %q, want %q", evt.Kind, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("task.", 10)
	unsub()
	unsub() // second call is a no-op

	b.Emit(KindTaskAdded, nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
	if n := b.Subscribers(); n != 0 {
		t.Errorf("Subscribers() = %d, want 0", n)
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("toast.", 1)
	defer unsub()

	b.Emit(KindToastSuccess, Toast{Title: "one"})
	// Buffer is full; this one is dropped rather than blocking.
	b.Emit(KindToastError, Toast{Title: "two"})

	evt := <-ch
	if evt.Kind != KindToastSuccess {
		t.Errorf("got %q, want %s", evt.Kind, KindToastSuccess)
	}
	if n := b.Dropped(); n != 1 {
		t.Errorf("Dropped() = %d, want 1", n)
	}
}

func TestNilBusPublish(t *testing.T) {
	var b *Bus
	b.Emit(KindTaskAdded, nil) // must not panic
}
