package syllabus

import "github.com/pkg/errors"

// Week returns the week numbered n.
func (d *Document) Week(n int) (*Week, error) {
	for i := range d.Weeks {
		if d.Weeks[i].WeekNumber == n {
			return &d.Weeks[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "week %d", n)
}

// Topic returns the topic at index idx of the week numbered weekNumber.
func (d *Document) Topic(weekNumber, idx int) (*Topic, error) {
	w, err := d.Week(weekNumber)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(w.Topics) {
		return nil, errors.Wrapf(ErrNotFound, "week %d topic %d", weekNumber, idx)
	}
	return &w.Topics[idx], nil
}

// Subtopic returns the subtopic addressed by ref.
func (d *Document) Subtopic(ref Ref) (*Subtopic, error) {
	t, err := d.Topic(ref.WeekNumber, ref.TopicIndex)
	if err != nil {
		return nil, err
	}
	if ref.SubtopicIndex < 0 || ref.SubtopicIndex >= len(t.Subtopics) {
		return nil, errors.Wrap(ErrNotFound, ref.String())
	}
	return &t.Subtopics[ref.SubtopicIndex], nil
}

// Complete moves st from incomplete to completed. Completing twice is an ErrInvalidState.
func (st *Subtopic) Complete() error {
	if st.IsCompleted() {
		return errors.Wrap(ErrInvalidState, "subtopic is already completed")
	}
	st.Status = StatusCompleted
	st.Approved = false
	return nil
}

// Approve approves a completed, unapproved subtopic.
func (st *Subtopic) Approve() error {
	if !st.IsCompleted() {
		return errors.Wrap(ErrInvalidState, "subtopic is not completed yet")
	}
	if st.Approved {
		return errors.Wrap(ErrInvalidState, "subtopic is already approved")
	}
	st.Approved = true
	return nil
}

// Approve sets the topic's own approval and approves every pending subtopic.
// Incomplete subtopics are left untouched. Reports whether anything changed.
func (t *Topic) Approve() bool {
	changed := !t.Approved
	t.Approved = true
	for i := range t.Subtopics {
		if t.Subtopics[i].PendingApproval() {
			t.Subtopics[i].Approved = true
			changed = true
		}
	}
	return changed
}

// CompleteSubtopic marks the subtopic addressed by ref as completed.
func CompleteSubtopic(d *Document, ref Ref) error {
	st, err := d.Subtopic(ref)
	if err != nil {
		return err
	}
	return errors.Wrap(st.Complete(), ref.String())
}

// ApproveSubtopic approves the subtopic addressed by ref.
func ApproveSubtopic(d *Document, ref Ref) error {
	st, err := d.Subtopic(ref)
	if err != nil {
		return err
	}
	return errors.Wrap(st.Approve(), ref.String())
}

// ApproveTopic approves a topic and cascades to its pending subtopics.
func ApproveTopic(d *Document, weekNumber, topicIndex int) (bool, error) {
	t, err := d.Topic(weekNumber, topicIndex)
	if err != nil {
		return false, err
	}
	return t.Approve(), nil
}

// ApproveAll approves every topic of every week of d.
func ApproveAll(d *Document) bool {
	var changed bool
	for i := range d.Weeks {
		for j := range d.Weeks[i].Topics {
			if d.Weeks[i].Topics[j].Approve() {
				changed = true
			}
		}
	}
	return changed
}
