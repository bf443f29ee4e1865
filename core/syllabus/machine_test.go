package syllabus

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() Document {
	return Document{
		ID:        "doc",
		OwnerKind: "subject",
		OwnerID:   "math",
		Month:     "2024-03",
		Version:   1,
		Weeks: []Week{
			{WeekNumber: 1, Topics: []Topic{
				{Title: "Algebra", Status: StatusIncomplete, Subtopics: []Subtopic{
					{Title: "Algebra Basics", Status: StatusIncomplete},
					{Title: "Equations", Status: StatusCompleted},
					{Title: "Inequalities", Status: StatusCompleted, Approved: true},
				}},
			}},
			{WeekNumber: 3, Topics: []Topic{
				{Title: "Geometry", Status: StatusIncomplete, Subtopics: []Subtopic{}},
			}},
		},
	}
}

// assertChainHolds checks that no subtopic is approved before being completed.
func assertChainHolds(t *testing.T, d Document) {
	t.Helper()
	for _, w := range d.Weeks {
		for _, tp := range w.Topics {
			for _, st := range tp.Subtopics {
				if st.Approved {
					assert.Equal(t, StatusCompleted, st.Status, "approved subtopic %q must be completed", st.Title)
				}
			}
		}
	}
}

func TestCompleteSubtopic(t *testing.T) {
	tests := []struct {
		name    string
		ref     Ref
		wantErr error
	}{
		{name: "incomplete", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 0}},
		{name: "already completed", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 1}, wantErr: ErrInvalidState},
		{name: "already approved", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 2}, wantErr: ErrInvalidState},
		{name: "unknown week", ref: Ref{WeekNumber: 2, TopicIndex: 0, SubtopicIndex: 0}, wantErr: ErrNotFound},
		{name: "unknown topic", ref: Ref{WeekNumber: 1, TopicIndex: 1, SubtopicIndex: 0}, wantErr: ErrNotFound},
		{name: "unknown subtopic", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 3}, wantErr: ErrNotFound},
		{name: "negative index", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: -1}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDoc()
			before := d.Clone()
			err := CompleteSubtopic(&d, tt.ref)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				assert.Equal(t, before, d, "failed transitions must not modify the document")
				return
			}
			require.NoError(t, err)
			st, _ := d.Subtopic(tt.ref)
			assert.Equal(t, StatusCompleted, st.Status)
			assert.False(t, st.Approved)
		})
	}
}

func TestApproveSubtopic(t *testing.T) {
	tests := []struct {
		name    string
		ref     Ref
		wantErr error
	}{
		{name: "pending approval", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 1}},
		{name: "not completed", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 0}, wantErr: ErrInvalidState},
		{name: "already approved", ref: Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 2}, wantErr: ErrInvalidState},
		{name: "unknown", ref: Ref{WeekNumber: 3, TopicIndex: 0, SubtopicIndex: 0}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDoc()
			err := ApproveSubtopic(&d, tt.ref)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			st, _ := d.Subtopic(tt.ref)
			assert.True(t, st.Approved)
			assertChainHolds(t, d)
		})
	}
}

func TestApproveTopic(t *testing.T) {
	d := sampleDoc()

	changed, err := ApproveTopic(&d, 1, 0)
	require.NoError(t, err)
	assert.True(t, changed)

	topic := d.Weeks[0].Topics[0]
	assert.True(t, topic.Approved)
	assert.False(t, topic.Subtopics[0].Approved, "incomplete subtopics stay unapproved")
	assert.True(t, topic.Subtopics[1].Approved, "pending subtopics are approved")
	assert.False(t, topic.HasPendingWork())
	assertChainHolds(t, d)

	changed, err = ApproveTopic(&d, 1, 0)
	require.NoError(t, err)
	assert.False(t, changed, "approving twice is a no-op")

	// a topic without subtopics can still be approved
	changed, err = ApproveTopic(&d, 3, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, d.Weeks[1].Topics[0].Approved)

	_, err = ApproveTopic(&d, 1, 5)
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestApproveAll(t *testing.T) {
	d := sampleDoc()
	require.NoError(t, CompleteSubtopic(&d, Ref{WeekNumber: 1}))

	assert.True(t, ApproveAll(&d))
	p := ComputeProgress(d)
	assert.Equal(t, 0, p.Pending)
	assert.Equal(t, StateApproved, p.Weeks[0].State)
	for _, w := range d.Weeks {
		for _, tp := range w.Topics {
			assert.True(t, tp.Approved)
		}
	}
	assertChainHolds(t, d)

	assert.False(t, ApproveAll(&d), "approving everything twice is a no-op")
}

func TestChainIsMonotonic(t *testing.T) {
	d := sampleDoc()
	ref := Ref{WeekNumber: 1}

	require.NoError(t, CompleteSubtopic(&d, ref))
	require.NoError(t, ApproveSubtopic(&d, ref))

	// nothing moves an approved subtopic backwards
	assert.Error(t, CompleteSubtopic(&d, ref))
	assert.Error(t, ApproveSubtopic(&d, ref))
	ApproveAll(&d)
	st, _ := d.Subtopic(ref)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.True(t, st.Approved)
}

func TestClone(t *testing.T) {
	d := sampleDoc()
	c := d.Clone()
	c.Weeks[0].Topics[0].Subtopics[0].Title = "changed"
	c.Weeks[0].Topics[0].Title = "changed"
	assert.Equal(t, "Algebra Basics", d.Weeks[0].Topics[0].Subtopics[0].Title)
	assert.Equal(t, "Algebra", d.Weeks[0].Topics[0].Title)
	assert.NotNil(t, c.Weeks[1].Topics[0].Subtopics, "empty subtopics stay non-nil")
}
