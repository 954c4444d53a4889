package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/matheus3301/teamspace/internal/bus"
	"github.com/matheus3301/teamspace/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshMeetingStatusesFollowsClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// meeting-1 runs 10:00-11:00 on Jan 6; the clock starts at 09:00.
	tests := []struct {
		name string
		at   time.Time
		want status.Meeting
	}{
		{"before start", epoch, status.Scheduled},
		{"at start", epoch.Add(time.Hour), status.Ongoing},
		{"inside window", epoch.Add(90 * time.Minute), status.Ongoing},
		{"at end", epoch.Add(2 * time.Hour), status.Ongoing},
		{"after end", epoch.Add(2*time.Hour + time.Second), status.Completed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.clock.Set(tt.at)
			f.ws.RefreshMeetingStatuses(ctx)
			m, err := f.ws.Meeting("meeting-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Status)
		})
	}
}

func TestRefreshHoldsForAllMeetings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for h := 0; h < 24*4; h += 3 {
		f.clock.Set(epoch.Add(time.Duration(h) * time.Hour))
		f.ws.RefreshMeetingStatuses(ctx)
		now := f.clock.Now()
		for _, m := range f.ws.Meetings() {
			switch {
			case m.Status == status.Canceled:
			case !now.Before(m.StartTime) && !now.After(m.EndTime):
				assert.Equal(t, status.Ongoing, m.Status, "%s at %s", m.ID, now)
			case now.After(m.EndTime):
				assert.Equal(t, status.Completed, m.Status, "%s at %s", m.ID, now)
			default:
				assert.Equal(t, status.Scheduled, m.Status, "%s at %s", m.ID, now)
			}
		}
	}
}

func TestRefreshOnlyPersistsChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events, cancel := f.bus.Subscribe("meeting.", 8)
	defer cancel()
	puts := f.blobs.putCount()

	assert.Equal(t, 0, f.ws.RefreshMeetingStatuses(ctx))
	assert.Equal(t, puts, f.blobs.putCount())

	f.clock.Set(epoch.Add(90 * time.Minute))
	assert.Equal(t, 1, f.ws.RefreshMeetingStatuses(ctx))
	assert.Equal(t, puts+1, f.blobs.putCount())

	evt := <-events
	assert.Equal(t, bus.KindMeetingStatusChanged, evt.Kind)
	assert.Equal(t, bus.Change{ID: "meeting-1", From: "scheduled", To: "ongoing"}, evt.Payload)
}

func TestMissedMeetingGoesStraightToCompleted(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(epoch.Add(72 * time.Hour))
	f.ws.RefreshMeetingStatuses(context.Background())

	for _, m := range f.ws.Meetings() {
		assert.Equal(t, status.Completed, m.Status, m.ID)
	}
}

func TestCanceledIsSticky(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.ws.CancelMeeting(ctx, "meeting-2")
	require.NoError(t, err)
	assert.Equal(t, status.Canceled, m.Status)

	f.clock.Set(m.StartTime.Add(time.Minute))
	f.ws.RefreshMeetingStatuses(ctx)
	m, _ = f.ws.Meeting("meeting-2")
	assert.Equal(t, status.Canceled, m.Status)

	m.Title = "Design review (moved)"
	m, err = f.ws.UpdateMeeting(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, status.Canceled, m.Status)

	_, err = f.ws.JoinMeeting(ctx, "meeting-2")
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
}

func TestUpdateMeetingStatusUsesTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past, err := f.ws.AddMeeting(ctx, Meeting{
		Title:     "Retro",
		StartTime: epoch.Add(-2 * time.Hour),
		EndTime:   epoch.Add(-time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, status.Completed, past.Status)

	_, err = f.ws.CancelMeeting(ctx, past.ID)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)

	past.Status = status.Canceled
	_, err = f.ws.UpdateMeeting(ctx, past)
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
	stored, _ := f.ws.Meeting(past.ID)
	assert.Equal(t, status.Completed, stored.Status)

	// A meeting that has not ended can be canceled through an update.
	upcoming, err := f.ws.Meeting("meeting-1")
	require.NoError(t, err)
	upcoming.Status = status.Canceled
	upcoming, err = f.ws.UpdateMeeting(ctx, upcoming)
	require.NoError(t, err)
	assert.Equal(t, status.Canceled, upcoming.Status)

	// Any other requested status is re-derived from the clock.
	other, err := f.ws.Meeting("meeting-2")
	require.NoError(t, err)
	other.Status = status.Completed
	other, err = f.ws.UpdateMeeting(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, status.Scheduled, other.Status)
}

func TestJoinMeeting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.ws.JoinMeeting(ctx, "meeting-1")
	require.NoError(t, err)
	assert.Equal(t, status.Ongoing, m.Status)

	// Joining twice is a no-op.
	_, err = f.ws.JoinMeeting(ctx, "meeting-1")
	require.NoError(t, err)

	f.clock.Set(epoch.Add(3 * time.Hour))
	_, err = f.ws.JoinMeeting(ctx, "meeting-1")
	assert.ErrorIs(t, err, status.ErrInvalidTransition)
	_, err = f.ws.CancelMeeting(ctx, "meeting-1")
	assert.ErrorIs(t, err, status.ErrInvalidTransition)

	_, err = f.ws.JoinMeeting(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddMeetingDerivesStatusAndLinksConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.ws.AddMeeting(ctx, Meeting{
		Title:          "Standup",
		StartTime:      epoch.Add(-5 * time.Minute),
		EndTime:        epoch.Add(10 * time.Minute),
		Participants:   []string{"member-1"},
		ConversationID: "conversation-1",
	})
	require.NoError(t, err)
	assert.Equal(t, status.Ongoing, m.Status)

	c, err := f.ws.Conversation("conversation-1")
	require.NoError(t, err)
	assert.Contains(t, c.MeetingIDs, m.ID)

	_, err = f.ws.AddMeeting(ctx, Meeting{
		Title:          "Ghost",
		StartTime:      epoch,
		EndTime:        epoch.Add(time.Hour),
		ConversationID: "nope",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkMeetingMovesBetweenConversations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.ws.AddConversation(ctx, Conversation{Participants: []string{"member-1", "member-3"}})
	require.NoError(t, err)

	require.NoError(t, f.ws.LinkMeeting(ctx, c.ID, "meeting-1"))

	old, _ := f.ws.Conversation("conversation-1")
	assert.NotContains(t, old.MeetingIDs, "meeting-1")
	linked, _ := f.ws.Conversation(c.ID)
	assert.Equal(t, []string{"meeting-1"}, linked.MeetingIDs)
	m, _ := f.ws.Meeting("meeting-1")
	assert.Equal(t, c.ID, m.ConversationID)
}
