package syllabus

import (
	"strconv"
	"time"
)

// Statuses
const (
	StatusIncomplete = "incomplete"
	StatusCompleted  = "completed"
)

var NowFunc = time.Now // mockable

// Document is the syllabus of one owner (course or subject) for one month.
// At most one Document exists per (OwnerKind, OwnerID, Month).
type Document struct {
	ID        string    `json:"id"`
	OwnerKind string    `json:"ownerKind"`
	OwnerID   string    `json:"ownerId"`
	Month     string    `json:"month"` // YYYY-MM
	Weeks     []Week    `json:"weeks"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

type Week struct {
	WeekNumber int     `json:"weekNumber" validate:"required,gt=0"`
	Topics     []Topic `json:"topics" validate:"required,dive"`
}

type Topic struct {
	Title     string     `json:"title" validate:"max=500"`
	Status    string     `json:"status" validate:"required,max=32"`
	Approved  bool       `json:"approved"`
	Subtopics []Subtopic `json:"subtopics" validate:"required,dive"`
}

// HasPendingWork reports whether a reviewer still has something to approve on t.
func (t Topic) HasPendingWork() bool {
	if !t.Approved {
		return true
	}
	for _, st := range t.Subtopics {
		if st.PendingApproval() {
			return true
		}
	}
	return false
}

type Subtopic struct {
	Title    string `json:"title" validate:"max=500"`
	Status   string `json:"status" validate:"required,subtopicstatus"`
	Approved bool   `json:"approved"`

	// Completed is the legacy boolean form of Status. Accepted on input, folded into Status, never emitted.
	Completed *bool `json:"completed,omitempty" validate:"-"`
}

func (st Subtopic) IsCompleted() bool { return st.Status == StatusCompleted }

// PendingApproval reports whether st is completed but not yet approved.
func (st Subtopic) PendingApproval() bool { return st.IsCompleted() && !st.Approved }

// Ref addresses a subtopic: week by number, topic and subtopic by zero-based index.
type Ref struct {
	WeekNumber    int
	TopicIndex    int
	SubtopicIndex int
}

func (r Ref) String() string {
	return "week " + strconv.Itoa(r.WeekNumber) +
		" topic " + strconv.Itoa(r.TopicIndex) +
		" subtopic " + strconv.Itoa(r.SubtopicIndex)
}

// NewDocument contains the information needed to create a Document.
type NewDocument struct {
	OwnerID string `json:"ownerId" validate:"required,max=64"`
	Month   string `json:"month" validate:"required,month"`
	Weeks   []Week `json:"weeks"`
}

// UpdateDocument replaces the weeks of an existing Document.
type UpdateDocument struct {
	Weeks []Week `json:"weeks"`
}

// Clone returns a deep copy of d, safe to mutate.
func (d Document) Clone() Document {
	c := d
	c.Weeks = CloneWeeks(d.Weeks)
	return c
}

// CloneWeeks deep-copies weeks, preserving nil slices.
func CloneWeeks(weeks []Week) []Week {
	if weeks == nil {
		return nil
	}
	out := make([]Week, len(weeks))
	for i, w := range weeks {
		out[i] = w
		if w.Topics != nil {
			out[i].Topics = make([]Topic, len(w.Topics))
			for j, t := range w.Topics {
				out[i].Topics[j] = t
				if t.Subtopics != nil {
					out[i].Topics[j].Subtopics = append([]Subtopic(nil), t.Subtopics...)
					if len(t.Subtopics) == 0 {
						out[i].Topics[j].Subtopics = []Subtopic{}
					}
				}
			}
		}
	}
	return out
}
