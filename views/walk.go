// Package views projects a syllabus document onto what a producer, a reviewer or a reader may see and do.
package views

import (
	"github.com/trezcool/syllabus/client"
	"github.com/trezcool/syllabus/core/syllabus"
)

// Action is an affordance offered on a node of the tree.
type Action string

const (
	ActionComplete     Action = "complete"
	ActionApprove      Action = "approve"
	ActionApproveTopic Action = "approve-topic"
	ActionApproveAll   Action = "approve-all"
)

// Badge marks the approval state of a completed subtopic or of an approved topic.
type Badge string

const (
	BadgeNone     Badge = ""
	BadgePending  Badge = "(Pending Approval)"
	BadgeApproved Badge = "(Approved)"
)

// BadgeOf returns the badge shown next to st, whatever the viewer's role.
func BadgeOf(st syllabus.Subtopic) Badge {
	switch {
	case st.PendingApproval():
		return BadgePending
	case st.IsCompleted() && st.Approved:
		return BadgeApproved
	}
	return BadgeNone
}

// ActionPolicy decides which affordances a role gets on each node.
type ActionPolicy interface {
	Subtopic(t syllabus.Topic, st syllabus.Subtopic) []Action
	Topic(t syllabus.Topic) []Action
	Document(d syllabus.Document) []Action
}

// Producer may only complete incomplete subtopics.
type Producer struct{}

func (Producer) Subtopic(_ syllabus.Topic, st syllabus.Subtopic) []Action {
	if st.IsCompleted() {
		return nil
	}
	return []Action{ActionComplete}
}

func (Producer) Topic(syllabus.Topic) []Action { return nil }

func (Producer) Document(syllabus.Document) []Action { return nil }

// Reviewer approves pending subtopics, topics with pending work and, once loaded, the whole document.
type Reviewer struct{}

func (Reviewer) Subtopic(_ syllabus.Topic, st syllabus.Subtopic) []Action {
	if !st.PendingApproval() {
		return nil
	}
	return []Action{ActionApprove}
}

func (Reviewer) Topic(t syllabus.Topic) []Action {
	if !t.HasPendingWork() {
		return nil
	}
	return []Action{ActionApproveTopic}
}

func (Reviewer) Document(syllabus.Document) []Action { return []Action{ActionApproveAll} }

// Reader sees the tree without any affordance.
type Reader struct{}

func (Reader) Subtopic(syllabus.Topic, syllabus.Subtopic) []Action { return nil }
func (Reader) Topic(syllabus.Topic) []Action                       { return nil }
func (Reader) Document(syllabus.Document) []Action                 { return nil }

// PolicyFor returns the policy of a session role.
func PolicyFor(role client.Role) ActionPolicy {
	switch role {
	case client.RoleProducer:
		return Producer{}
	case client.RoleReviewer:
		return Reviewer{}
	default:
		return Reader{}
	}
}

type (
	Tree struct {
		DocumentID string          `json:"documentId"`
		OwnerKind  string          `json:"ownerKind"`
		OwnerID    string          `json:"ownerId"`
		Month      string          `json:"month"`
		Version    int             `json:"version"`
		State      string          `json:"state"`
		Counts     syllabus.Counts `json:"counts"`
		Actions    []Action        `json:"actions,omitempty"`
		Weeks      []WeekNode      `json:"weeks"`
	}

	WeekNode struct {
		WeekNumber int             `json:"weekNumber"`
		State      string          `json:"state"`
		Counts     syllabus.Counts `json:"counts"`
		Topics     []TopicNode     `json:"topics"`
	}

	TopicNode struct {
		WeekNumber int             `json:"weekNumber"`
		Index      int             `json:"index"`
		Title      string          `json:"title"`
		Approved   bool            `json:"approved"`
		State      string          `json:"state"`
		Counts     syllabus.Counts `json:"counts"`
		Badge      Badge           `json:"badge,omitempty"`
		Actions    []Action        `json:"actions,omitempty"`
		Subtopics  []SubtopicNode  `json:"subtopics"`
	}

	SubtopicNode struct {
		Ref      syllabus.Ref `json:"-"`
		Title    string       `json:"title"`
		Status   string       `json:"status"`
		Approved bool         `json:"approved"`
		Badge    Badge        `json:"badge,omitempty"`
		Actions  []Action     `json:"actions,omitempty"`
	}
)

// Walk visits every week, topic and subtopic of d and asks policy for the affordances of each.
func Walk(d syllabus.Document, policy ActionPolicy) Tree {
	progress := syllabus.ComputeProgress(d)
	tree := Tree{
		DocumentID: d.ID,
		OwnerKind:  d.OwnerKind,
		OwnerID:    d.OwnerID,
		Month:      d.Month,
		Version:    d.Version,
		State:      progress.State,
		Counts:     progress.Counts,
		Actions:    policy.Document(d),
		Weeks:      make([]WeekNode, 0, len(d.Weeks)),
	}

	for i, w := range d.Weeks {
		wp := progress.Weeks[i]
		wn := WeekNode{
			WeekNumber: w.WeekNumber,
			State:      wp.State,
			Counts:     wp.Counts,
			Topics:     make([]TopicNode, 0, len(w.Topics)),
		}
		for j, t := range w.Topics {
			tn := TopicNode{
				WeekNumber: w.WeekNumber,
				Index:      j,
				Title:      t.Title,
				Approved:   t.Approved,
				State:      wp.Topics[j].State,
				Counts:     wp.Topics[j].Counts,
				Actions:    policy.Topic(t),
				Subtopics:  make([]SubtopicNode, 0, len(t.Subtopics)),
			}
			if t.Approved {
				tn.Badge = BadgeApproved
			}
			for k, st := range t.Subtopics {
				tn.Subtopics = append(tn.Subtopics, SubtopicNode{
					Ref:      syllabus.Ref{WeekNumber: w.WeekNumber, TopicIndex: j, SubtopicIndex: k},
					Title:    st.Title,
					Status:   st.Status,
					Approved: st.Approved,
					Badge:    BadgeOf(st),
					Actions:  policy.Subtopic(t, st),
				})
			}
			wn.Topics = append(wn.Topics, tn)
		}
		tree.Weeks = append(tree.Weeks, wn)
	}
	return tree
}

// Topic returns the node of the topic at topicIndex in week weekNumber.
func (t Tree) Topic(weekNumber, topicIndex int) (TopicNode, bool) {
	for _, w := range t.Weeks {
		if w.WeekNumber != weekNumber {
			continue
		}
		if topicIndex < 0 || topicIndex >= len(w.Topics) {
			return TopicNode{}, false
		}
		return w.Topics[topicIndex], true
	}
	return TopicNode{}, false
}

// Subtopic returns the node of the subtopic addressed by ref.
func (t Tree) Subtopic(ref syllabus.Ref) (SubtopicNode, bool) {
	tn, ok := t.Topic(ref.WeekNumber, ref.TopicIndex)
	if !ok || ref.SubtopicIndex < 0 || ref.SubtopicIndex >= len(tn.Subtopics) {
		return SubtopicNode{}, false
	}
	return tn.Subtopics[ref.SubtopicIndex], true
}

// PendingBadges counts the subtopics showing BadgePending.
func (t Tree) PendingBadges() int {
	var n int
	for _, w := range t.Weeks {
		for _, tn := range w.Topics {
			for _, st := range tn.Subtopics {
				if st.Badge == BadgePending {
					n++
				}
			}
		}
	}
	return n
}

func hasAction(actions []Action, a Action) bool {
	for _, have := range actions {
		if have == a {
			return true
		}
	}
	return false
}
