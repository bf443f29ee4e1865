package syllabus

// Aggregated states
const (
	StateEmpty           = "empty"
	StateIncomplete      = "incomplete"
	StatePendingApproval = "pending_approval"
	StateApproved        = "approved"
)

type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Approved  int `json:"approved"`
	Pending   int `json:"pending"`
}

func (c *Counts) add(o Counts) {
	c.Total += o.Total
	c.Completed += o.Completed
	c.Approved += o.Approved
	c.Pending += o.Pending
}

// State derives the aggregated state from the subtopic counts.
func (c Counts) State() string {
	switch {
	case c.Total == 0:
		return StateEmpty
	case c.Completed < c.Total:
		return StateIncomplete
	case c.Approved < c.Total:
		return StatePendingApproval
	default:
		return StateApproved
	}
}

type (
	Progress struct {
		Counts
		State string         `json:"state"`
		Weeks []WeekProgress `json:"weeks"`
	}

	WeekProgress struct {
		Counts
		WeekNumber int             `json:"weekNumber"`
		State      string          `json:"state"`
		Topics     []TopicProgress `json:"topics"`
	}

	TopicProgress struct {
		Counts
		State          string `json:"state"`
		Approved       bool   `json:"approved"`
		HasPendingWork bool   `json:"hasPendingWork"`
	}
)

// TopicCounts counts the subtopics of t.
func TopicCounts(t Topic) Counts {
	c := Counts{Total: len(t.Subtopics)}
	for _, st := range t.Subtopics {
		if st.IsCompleted() {
			c.Completed++
			if st.Approved {
				c.Approved++
			} else {
				c.Pending++
			}
		}
	}
	return c
}

// ComputeProgress derives the progress of every topic, week and of the whole document.
// Nothing here is stored; it is recomputed from the leaves on every read.
func ComputeProgress(d Document) Progress {
	p := Progress{Weeks: make([]WeekProgress, 0, len(d.Weeks))}
	for _, w := range d.Weeks {
		wp := WeekProgress{WeekNumber: w.WeekNumber, Topics: make([]TopicProgress, 0, len(w.Topics))}
		for _, t := range w.Topics {
			tc := TopicCounts(t)
			wp.Topics = append(wp.Topics, TopicProgress{
				Counts:         tc,
				State:          tc.State(),
				Approved:       t.Approved,
				HasPendingWork: t.HasPendingWork(),
			})
			wp.add(tc)
		}
		wp.State = wp.Counts.State()
		p.Weeks = append(p.Weeks, wp)
		p.add(wp.Counts)
	}
	p.State = p.Counts.State()
	return p
}
