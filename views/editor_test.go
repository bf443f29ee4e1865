package views_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/views"
)

func TestEditor(t *testing.T) {
	api := newFakeAPI()
	ctx := context.Background()
	editor := views.NewEditor(api, views.DraftOf(march, nil))

	assert.Equal(t, 1, editor.AddWeek())
	assert.Equal(t, 2, editor.AddWeek())

	idx, err := editor.AddTopic(1, "Algebra")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	idx, err = editor.AddSubtopic(1, 0, "Algebra Basics")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	idx, err = editor.AddSubtopic(1, 0, "Equations")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	draft := editor.Draft()
	require.Len(t, draft.Weeks, 2)
	topic := draft.Weeks[0].Topics[0]
	assert.Equal(t, syllabus.StatusIncomplete, topic.Status)
	assert.False(t, topic.Approved)
	for _, st := range topic.Subtopics {
		assert.Equal(t, syllabus.StatusIncomplete, st.Status)
		assert.False(t, st.Approved)
	}
	assert.NotNil(t, draft.Weeks[1].Topics)

	t.Run("draft is a copy", func(t *testing.T) {
		draft.Weeks[0].Topics[0].Title = "changed"
		assert.Equal(t, "Algebra", editor.Draft().Weeks[0].Topics[0].Title)
	})

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, editor.RenameTopic(1, 0, "Linear Algebra"))
		require.NoError(t, editor.RenameSubtopic(syllabus.Ref{WeekNumber: 1, SubtopicIndex: 1}, "Linear Equations"))
		d := editor.Draft()
		assert.Equal(t, "Linear Algebra", d.Weeks[0].Topics[0].Title)
		assert.Equal(t, "Linear Equations", d.Weeks[0].Topics[0].Subtopics[1].Title)
	})

	t.Run("unknown nodes", func(t *testing.T) {
		_, err := editor.AddTopic(7, "Nope")
		assert.Equal(t, syllabus.ErrNotFound, errors.Cause(err))
		_, err = editor.AddSubtopic(1, 3, "Nope")
		assert.Equal(t, syllabus.ErrNotFound, errors.Cause(err))
		assert.Error(t, editor.RenameTopic(2, 0, "Nope"))
		assert.Error(t, editor.RenameSubtopic(syllabus.Ref{WeekNumber: 1, SubtopicIndex: 5}, "Nope"))
	})

	t.Run("renumber", func(t *testing.T) {
		assert.EqualError(t, editor.RenumberWeek(2, 1), "week 1 already exists")
		require.NoError(t, editor.RenumberWeek(2, 4))
		require.NoError(t, editor.RenumberWeek(4, 4))
		assert.Equal(t, 4, editor.Draft().Weeks[1].WeekNumber)
		assert.Error(t, editor.RenumberWeek(2, 3))
	})

	t.Run("save creates then updates", func(t *testing.T) {
		resp, err := editor.Save(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Document.ID)
		assert.Equal(t, resp.Document.ID, editor.Draft().ID)

		_, err = editor.AddTopic(4, "Revision")
		require.NoError(t, err)
		resp2, err := editor.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, resp.Document.ID, resp2.Document.ID)
		assert.Equal(t, 2, resp2.Document.Version)
		assert.Len(t, resp2.Document.Weeks[1].Topics, 1)
		assert.Equal(t, 2, api.saves)
	})
}

func TestEditor_Save_normalizesBeforeValidating(t *testing.T) {
	api := newFakeAPI()
	ctx := context.Background()

	editor := views.NewEditor(api, views.Draft{
		OwnerID: march.OwnerID,
		Month:   march.Month,
		Weeks: []syllabus.Week{{WeekNumber: 1, Topics: []syllabus.Topic{
			{Title: "No status, no subtopics"},
			{Title: "Legacy", Subtopics: []syllabus.Subtopic{{Title: "Old flag", Completed: new(bool)}}},
		}}},
	})
	resp, err := editor.Save(ctx)
	require.NoError(t, err)

	topics := resp.Document.Weeks[0].Topics
	assert.Equal(t, syllabus.StatusIncomplete, topics[0].Status)
	assert.NotNil(t, topics[0].Subtopics)
	assert.Empty(t, topics[0].Subtopics)
	assert.Equal(t, syllabus.StatusIncomplete, topics[1].Subtopics[0].Status)
	assert.Nil(t, topics[1].Subtopics[0].Completed)
}

func TestEditor_Save_rejectsMalformedTrees(t *testing.T) {
	tests := []struct {
		name      string
		weeks     []syllabus.Week
		wantField string
	}{
		{name: "no weeks", weeks: nil, wantField: "weeks"},
		{
			name:      "week without number",
			weeks:     []syllabus.Week{{Topics: []syllabus.Topic{{Title: "Orphan"}}}},
			wantField: "weeks[0].weekNumber",
		},
		{
			name: "duplicate week number",
			weeks: []syllabus.Week{
				{WeekNumber: 1, Topics: []syllabus.Topic{}},
				{WeekNumber: 1, Topics: []syllabus.Topic{}},
			},
			wantField: "weeks[1].weekNumber",
		},
		{
			name: "unknown subtopic status",
			weeks: []syllabus.Week{{WeekNumber: 1, Topics: []syllabus.Topic{
				{Title: "T", Subtopics: []syllabus.Subtopic{{Title: "S", Status: "done"}}},
			}}},
			wantField: "weeks[0].topics[0].subtopics[0].status",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			editor := views.NewEditor(api, views.Draft{OwnerID: "math", Month: "2024-03", Weeks: tt.weeks})

			_, err := editor.Save(context.Background())
			var shapeErr *syllabus.ShapeError
			require.True(t, errors.As(err, &shapeErr), "got %v", err)
			assert.Contains(t, shapeErr.FieldMap(), tt.wantField)
			assert.Zero(t, api.saves, "nothing is submitted")
		})
	}
}
