package views_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/syllabus/client"
	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/views"
)

var basics = syllabus.Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 0}

func algebra() syllabus.Document {
	return syllabus.Document{
		ID:        "doc-1",
		OwnerKind: "subject",
		OwnerID:   "math",
		Month:     "2024-03",
		Version:   1,
		Weeks: syllabus.Normalize([]syllabus.Week{
			{WeekNumber: 1, Topics: []syllabus.Topic{
				{Title: "Algebra", Subtopics: []syllabus.Subtopic{{Title: "Algebra Basics"}, {Title: "Equations"}}},
			}},
			{WeekNumber: 2, Topics: []syllabus.Topic{{Title: "Revision"}}},
		}),
	}
}

func completed(title string) syllabus.Subtopic {
	return syllabus.Subtopic{Title: title, Status: syllabus.StatusCompleted}
}

// fivePending has 2 weeks, 3 topics and 5 subtopics waiting for approval.
func fivePending() syllabus.Document {
	return syllabus.Document{
		OwnerID: "math",
		Month:   "2024-06",
		Weeks: syllabus.Normalize([]syllabus.Week{
			{WeekNumber: 1, Topics: []syllabus.Topic{
				{Title: "Fractions", Subtopics: []syllabus.Subtopic{completed("Halves"), completed("Thirds")}},
				{Title: "Decimals", Subtopics: []syllabus.Subtopic{completed("Tenths"), completed("Rounding")}},
			}},
			{WeekNumber: 2, Topics: []syllabus.Topic{
				{Title: "Percentages", Subtopics: []syllabus.Subtopic{completed("Discounts")}},
			}},
		}),
	}
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, views.Producer{}, views.PolicyFor(client.RoleProducer))
	assert.Equal(t, views.Reviewer{}, views.PolicyFor(client.RoleReviewer))
	assert.Equal(t, views.Reader{}, views.PolicyFor(client.RoleReader))
	assert.Equal(t, views.Reader{}, views.PolicyFor(""))
}

func TestWalk(t *testing.T) {
	d := algebra()

	t.Run("producer", func(t *testing.T) {
		tree := views.Walk(d, views.Producer{})
		assert.Empty(t, tree.Actions)
		require.Len(t, tree.Weeks, 2)
		assert.Equal(t, syllabus.StateIncomplete, tree.State)

		st, ok := tree.Subtopic(basics)
		require.True(t, ok)
		assert.Equal(t, []views.Action{views.ActionComplete}, st.Actions)
		assert.Equal(t, views.BadgeNone, st.Badge)

		tn, ok := tree.Topic(2, 0)
		require.True(t, ok)
		assert.Empty(t, tn.Actions)
		assert.Empty(t, tn.Subtopics)
	})

	t.Run("reviewer", func(t *testing.T) {
		tree := views.Walk(d, views.Reviewer{})
		assert.Equal(t, []views.Action{views.ActionApproveAll}, tree.Actions)

		st, _ := tree.Subtopic(basics)
		assert.Empty(t, st.Actions, "nothing to approve before completion")

		tn, ok := tree.Topic(2, 0)
		require.True(t, ok)
		assert.Equal(t, []views.Action{views.ActionApproveTopic}, tn.Actions, "empty topic can still be approved")
	})

	t.Run("reader", func(t *testing.T) {
		tree := views.Walk(d, views.Reader{})
		assert.Empty(t, tree.Actions)
		for _, w := range tree.Weeks {
			for _, tn := range w.Topics {
				assert.Empty(t, tn.Actions)
				for _, st := range tn.Subtopics {
					assert.Empty(t, st.Actions)
				}
			}
		}
	})

	t.Run("out of range", func(t *testing.T) {
		tree := views.Walk(d, views.Reviewer{})
		_, ok := tree.Topic(3, 0)
		assert.False(t, ok)
		_, ok = tree.Topic(1, 1)
		assert.False(t, ok)
		_, ok = tree.Subtopic(syllabus.Ref{WeekNumber: 1, TopicIndex: 0, SubtopicIndex: 2})
		assert.False(t, ok)
	})
}

func TestWalk_badgesFollowTheChain(t *testing.T) {
	d := algebra()

	// producer completes "Algebra Basics"
	require.NoError(t, syllabus.CompleteSubtopic(&d, basics))
	producer := views.Walk(d, views.Producer{})
	reviewer := views.Walk(d, views.Reviewer{})

	st, _ := producer.Subtopic(basics)
	assert.Equal(t, views.BadgePending, st.Badge)
	assert.Empty(t, st.Actions, "completion cannot be repeated")

	st, _ = reviewer.Subtopic(basics)
	assert.Equal(t, views.BadgePending, st.Badge)
	assert.Equal(t, []views.Action{views.ActionApprove}, st.Actions)
	assert.Equal(t, 1, reviewer.PendingBadges())

	// reviewer approves it
	require.NoError(t, syllabus.ApproveSubtopic(&d, basics))
	for _, policy := range []views.ActionPolicy{views.Producer{}, views.Reviewer{}} {
		st, _ = views.Walk(d, policy).Subtopic(basics)
		assert.Equal(t, views.BadgeApproved, st.Badge)
		assert.Empty(t, st.Actions)
	}

	equations, _ := views.Walk(d, views.Producer{}).Subtopic(syllabus.Ref{WeekNumber: 1, SubtopicIndex: 1})
	assert.Equal(t, []views.Action{views.ActionComplete}, equations.Actions)
}

func TestWalk_approvedTopic(t *testing.T) {
	d := fivePending()
	_, err := syllabus.ApproveTopic(&d, 2, 0)
	require.NoError(t, err)

	tree := views.Walk(d, views.Reviewer{})
	tn, _ := tree.Topic(2, 0)
	assert.True(t, tn.Approved)
	assert.Equal(t, views.BadgeApproved, tn.Badge)
	assert.Empty(t, tn.Actions)
	assert.Equal(t, syllabus.StateApproved, tn.State)
	assert.Equal(t, 4, tree.PendingBadges())
}
