package workspace

import "go.uber.org/zap"

// relation strips references to a deleted entity from one place in the
// workspace and returns how many references it removed.
type relation struct {
	name  string
	strip func(w *Workspace, s *Snapshot, id string) int
}

// relations declares, per collection, everything that refers to its entities.
// Deleting an entity resolves all of them in one cascade step.
var relations = map[Collection][]relation{
	TeamMembers: {
		{"task.assignedTo", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Tasks {
				var k int
				s.Tasks[i].AssignedTo, k = removeID(s.Tasks[i].AssignedTo, id)
				n += k
			}
			return n
		}},
		{"project.members", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Projects {
				var k int
				s.Projects[i].Members, k = removeID(s.Projects[i].Members, id)
				n += k
			}
			return n
		}},
		{"meeting.participants", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Meetings {
				var k int
				s.Meetings[i].Participants, k = removeID(s.Meetings[i].Participants, id)
				n += k
			}
			return n
		}},
		{"conversation.typingUsers", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Conversations {
				var k int
				s.Conversations[i].TypingUsers, k = removeID(s.Conversations[i].TypingUsers, id)
				n += k
			}
			return n
		}},
	},
	Tasks: {
		{"project.tasks", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Projects {
				var k int
				s.Projects[i].Tasks, k = removeID(s.Projects[i].Tasks, id)
				n += k
			}
			return n
		}},
	},
	Clients: {
		{"project.clients", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Projects {
				var k int
				s.Projects[i].Clients, k = removeID(s.Projects[i].Clients, id)
				n += k
			}
			return n
		}},
	},
	Projects: {
		{"task.projectId", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Tasks {
				if s.Tasks[i].ProjectID == id {
					s.Tasks[i].ProjectID = ""
					n++
				}
			}
			return n
		}},
		{"note.projectId", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Notes {
				if s.Notes[i].ProjectID == id {
					s.Notes[i].ProjectID = ""
					n++
				}
			}
			return n
		}},
		{"meeting.projectId", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Meetings {
				if s.Meetings[i].ProjectID == id {
					s.Meetings[i].ProjectID = ""
					n++
				}
			}
			return n
		}},
	},
	Meetings: {
		{"conversation.meetingIds", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Conversations {
				var k int
				s.Conversations[i].MeetingIDs, k = removeID(s.Conversations[i].MeetingIDs, id)
				n += k
			}
			return n
		}},
		{"message.meetingId", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Conversations {
				msgs := s.Conversations[i].Messages
				for j := range msgs {
					if msgs[j].MeetingID == id {
						msgs[j].MeetingID = ""
						n++
					}
				}
			}
			return n
		}},
	},
	Conversations: {
		{"meeting.conversationId", func(_ *Workspace, s *Snapshot, id string) int {
			n := 0
			for i := range s.Meetings {
				if s.Meetings[i].ConversationID == id {
					s.Meetings[i].ConversationID = ""
					n++
				}
			}
			return n
		}},
		{"outbox.pending", func(w *Workspace, _ *Snapshot, id string) int {
			if w.dispatch == nil {
				return 0
			}
			return w.dispatch.Cancel(id)
		}},
	},
}

// cascade resolves every relation declared for c after the entity id was
// removed. Caller holds w.mu.
func (w *Workspace) cascade(s *Snapshot, c Collection, id string) {
	for _, rel := range relations[c] {
		if n := rel.strip(w, s, id); n > 0 {
			w.logger.Debug("cascade cleanup",
				zap.String("collection", string(c)),
				zap.String("id", id),
				zap.String("relation", rel.name),
				zap.Int("removed", n))
		}
	}
}
