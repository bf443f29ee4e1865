package syllabus

import (
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/syllabus/core/user"
)

// Audit actions
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionCompleted     = "completed"
	ActionApproved      = "approved"
	ActionTopicApproved = "topic_approved"
	ActionAllApproved   = "all_approved"
)

// Event is an immutable audit record of one write to a Document.
type Event struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"documentId"`
	Action        string    `json:"action"`
	ActorID       string    `json:"actorId"`
	ActorName     string    `json:"actorName"`
	WeekNumber    *int      `json:"weekNumber,omitempty"`
	TopicIndex    *int      `json:"topicIndex,omitempty"`
	SubtopicIndex *int      `json:"subtopicIndex,omitempty"`
	Version       int       `json:"version"` // document version produced by this write
	CreatedAt     time.Time `json:"createdAt"`
}

func newEvent(action string, actor user.Principal) Event {
	return Event{
		ID:        uuid.New().String(),
		Action:    action,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: NowFunc().UTC(),
	}
}

func (ev Event) atTopic(weekNumber, topicIndex int) Event {
	ev.WeekNumber = &weekNumber
	ev.TopicIndex = &topicIndex
	return ev
}

func (ev Event) atSubtopic(ref Ref) Event {
	ev = ev.atTopic(ref.WeekNumber, ref.TopicIndex)
	ev.SubtopicIndex = &ref.SubtopicIndex
	return ev
}
