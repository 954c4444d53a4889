package workspace

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/teamspace/internal/bus"
	"github.com/matheus3301/teamspace/internal/outbox"
	"github.com/matheus3301/teamspace/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyTransport struct {
	failures atomic.Int32
}

func (f *flakyTransport) Deliver(context.Context, outbox.Envelope) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("connection reset")
	}
	return nil
}

func TestAddMessageIsDeliveredAfterDelay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ws.SetTyping(ctx, "conversation-1", "member-2", true))
	f.clock.Advance(time.Minute)

	msg, err := f.ws.AddMessage(ctx, "conversation-1", "member-2", "on my way", MessageOptions{})
	require.NoError(t, err)
	assert.Equal(t, status.Sending, msg.Status)
	assert.False(t, msg.Read)

	c, err := f.ws.Conversation("conversation-1")
	require.NoError(t, err)
	assert.NotContains(t, c.TypingUsers, "member-2")
	assert.Equal(t, epoch.Add(time.Minute), c.LastMessageAt)
	assert.Equal(t, msg.ID, c.Messages[len(c.Messages)-1].ID)

	require.Eventually(t, func() bool {
		return messageStatus(t, f.ws, "conversation-1", msg.ID) == status.Delivered
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDeliveryAfterConversationDeletedIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg, err := f.ws.AddMessage(ctx, "conversation-1", "member-1", "bye", MessageOptions{})
	require.NoError(t, err)

	require.NoError(t, f.ws.DeleteConversation(ctx, "conversation-1"))

	// Drive the stale callback directly, as if its timer had already fired.
	f.ws.applyDelivery("conversation-1", msg.ID, status.Delivered)
	time.Sleep(60 * time.Millisecond)

	_, err = f.ws.Conversation("conversation-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.ws.Conversations(), 0)
}

func TestDispatchSkipsDeletedConversation(t *testing.T) {
	f := newFixture(t, withDelivery(outbox.Loopback{}, time.Hour))
	ctx := context.Background()
	msg, err := f.ws.AddMessage(ctx, "conversation-1", "member-1", "see you", MessageOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.reg.Pending())

	require.NoError(t, f.ws.DeleteConversation(ctx, "conversation-1"))
	assert.Equal(t, 0, f.reg.Pending())

	// A dispatch that lost the race with the delete schedules nothing.
	f.ws.dispatchMessage("conversation-1", msg)
	assert.Equal(t, 0, f.reg.Pending())
}

func TestLateDeliveryKeepsReadMessagesRead(t *testing.T) {
	f := newFixture(t, withDelivery(nil, 30*time.Millisecond))
	ctx := context.Background()
	msg, err := f.ws.AddMessage(ctx, "conversation-1", "member-2", "ping", MessageOptions{})
	require.NoError(t, err)

	n, err := f.ws.MarkMessagesAsRead(ctx, "conversation-1", "member-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Eventually(t, func() bool { return f.reg.Pending() == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, status.Read, messageStatus(t, f.ws, "conversation-1", msg.ID))
}

func TestFailedDeliveryCanBeRetried(t *testing.T) {
	tr := &flakyTransport{}
	tr.failures.Store(1)
	f := newFixture(t, withDelivery(tr, 10*time.Millisecond))
	ctx := context.Background()
	toasts, cancel := f.bus.Subscribe("toast.error", 4)
	defer cancel()

	msg, err := f.ws.AddMessage(ctx, "conversation-1", "member-1", "hello?", MessageOptions{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return messageStatus(t, f.ws, "conversation-1", msg.ID) == status.Errored
	}, time.Second, 5*time.Millisecond)
	evt := <-toasts
	assert.Equal(t, "Message not delivered", evt.Payload.(bus.Toast).Title)

	require.NoError(t, f.ws.RetryMessage(ctx, "conversation-1", msg.ID))
	require.Eventually(t, func() bool {
		return messageStatus(t, f.ws, "conversation-1", msg.ID) == status.Delivered
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, f.ws.RetryMessage(ctx, "conversation-1", msg.ID), ErrInvalid)
}

func TestMarkMessagesAsReadSkipsOwnMessages(t *testing.T) {
	f := newFixture(t, withDelivery(nil, time.Hour))
	ctx := context.Background()
	own, err := f.ws.AddMessage(ctx, "conversation-1", "member-3", "mine", MessageOptions{})
	require.NoError(t, err)
	other, err := f.ws.AddMessage(ctx, "conversation-1", "member-1", "theirs", MessageOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.ws.UnreadCount("conversation-1", "member-3"))

	_, err = f.ws.MarkMessagesAsRead(ctx, "conversation-1", "member-3")
	require.NoError(t, err)

	c, err := f.ws.Conversation("conversation-1")
	require.NoError(t, err)
	for _, m := range c.Messages {
		if m.SenderID == "member-3" {
			assert.NotEqual(t, status.Read, m.Status, "own message %s", m.ID)
			continue
		}
		assert.True(t, m.Read, m.ID)
		assert.Equal(t, status.Read, m.Status, m.ID)
	}
	assert.Equal(t, status.Sending, messageStatus(t, f.ws, "conversation-1", own.ID))
	assert.Equal(t, status.Read, messageStatus(t, f.ws, "conversation-1", other.ID))
	assert.Equal(t, 0, f.ws.UnreadCount("conversation-1", "member-3"))

	n, err := f.ws.MarkMessagesAsRead(ctx, "conversation-1", "member-3")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = f.ws.MarkMessagesAsRead(ctx, "missing", "member-3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddMessageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ws.AddMessage(ctx, "conversation-1", "member-1", "   ", MessageOptions{})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = f.ws.AddMessage(ctx, "missing", "member-1", "hi", MessageOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.reg.Pending())
}

func TestSetTypingPublishesOnlyChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events, cancel := f.bus.Subscribe("conversation.typing", 4)
	defer cancel()

	require.NoError(t, f.ws.SetTyping(ctx, "conversation-1", "member-1", true))
	require.NoError(t, f.ws.SetTyping(ctx, "conversation-1", "member-1", true))
	require.NoError(t, f.ws.SetTyping(ctx, "conversation-1", "member-1", false))

	assert.Len(t, events, 2)
}

func TestConversationsOrderedByActivity(t *testing.T) {
	f := newFixture(t, withDelivery(nil, time.Hour))
	ctx := context.Background()
	f.clock.Advance(time.Hour)
	c, err := f.ws.AddConversation(ctx, Conversation{Name: "Design", Participants: []string{"member-1", "member-2", "member-3"}})
	require.NoError(t, err)
	assert.True(t, c.IsGroup)

	assert.Equal(t, c.ID, f.ws.Conversations()[0].ID)

	f.clock.Advance(time.Hour)
	_, err = f.ws.AddMessage(ctx, "conversation-1", "member-1", "bump", MessageOptions{})
	require.NoError(t, err)
	assert.Equal(t, "conversation-1", f.ws.Conversations()[0].ID)

	_, err = f.ws.AddConversation(ctx, Conversation{Participants: []string{"a", "b", "c"}})
	assert.ErrorIs(t, err, ErrInvalid)
}
