package status

import "time"

// Meeting is the lifecycle state of a meeting.
type Meeting string

const (
	Scheduled Meeting = "scheduled"
	Ongoing   Meeting = "ongoing"
	Completed Meeting = "completed"
	Canceled  Meeting = "canceled"
)

// meetingTransitions covers explicit user actions only (join, cancel).
// Time-driven changes go through DeriveMeeting.
var meetingTransitions = map[Meeting][]Meeting{
	Scheduled: {Ongoing, Canceled},
	Ongoing:   {Canceled},
	Completed: {},
	Canceled:  {},
}

// Valid reports whether m is a known meeting state.
func (m Meeting) Valid() bool {
	_, ok := meetingTransitions[m]
	return ok
}

// TransitionMeeting validates an explicit meeting state change.
func TransitionMeeting(from, to Meeting) error {
	return transition(meetingTransitions, from, to)
}

// DeriveMeeting computes a meeting's state from its time window.
// Canceled is terminal and never re-derived. A meeting inside
// [start, end] is ongoing, one past end is completed, anything else is
// scheduled. A meeting nobody joined still ends up completed.
func DeriveMeeting(current Meeting, start, end, now time.Time) Meeting {
	if current == Canceled {
		return Canceled
	}
	switch {
	case !now.Before(start) && !now.After(end):
		return Ongoing
	case now.After(end):
		return Completed
	default:
		return Scheduled
	}
}
