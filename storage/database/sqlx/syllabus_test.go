package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/syllabus"
	"github.com/trezcool/syllabus/tests"
)

func newDocument(ownerID, month string) syllabus.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return syllabus.Document{
		OwnerKind: core.OwnerKindSubject,
		OwnerID:   ownerID,
		Month:     month,
		Version:   1,
		Weeks: []syllabus.Week{
			{WeekNumber: 1, Topics: []syllabus.Topic{
				{Title: "Algebra", Status: syllabus.StatusIncomplete, Subtopics: []syllabus.Subtopic{
					{Title: "Algebra Basics", Status: syllabus.StatusIncomplete},
				}},
				{Title: "", Status: syllabus.StatusIncomplete, Subtopics: []syllabus.Subtopic{}},
			}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSyllabusRepository_Documents(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewSyllabusRepository(db)
	ctx := context.Background()

	d, err := repo.CreateDocument(ctx, newDocument("math", "2024-03"))
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)

	_, err = repo.CreateDocument(ctx, newDocument("math", "2024-03"))
	assert.Equal(t, syllabus.ErrExists, err, "one document per owner and month")
	_, err = repo.CreateDocument(ctx, newDocument("math", "2024-04"))
	assert.NoError(t, err)

	got, err := repo.GetDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Weeks, got.Weeks)
	assert.NotNil(t, got.Weeks[0].Topics[1].Subtopics, "empty subtopics survive the round trip")
	assert.True(t, d.CreatedAt.Equal(got.CreatedAt))

	found, err := repo.FindDocument(ctx, syllabus.KeyOf(d))
	require.NoError(t, err)
	assert.Equal(t, d.ID, found.ID)

	_, err = repo.FindDocument(ctx, syllabus.Key{OwnerKind: core.OwnerKindSubject, OwnerID: "math", Month: "2023-01"})
	assert.Equal(t, syllabus.ErrNotFound, err)
	_, err = repo.GetDocument(ctx, "not-a-uuid")
	assert.Equal(t, syllabus.ErrNotFound, err)

	next := got.Clone()
	next.Weeks[0].Topics[0].Subtopics[0].Status = syllabus.StatusCompleted
	next.Version = 2
	saved, err := repo.UpdateDocument(ctx, next, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	// a writer still holding version 1 lost the race
	stale := got.Clone()
	stale.Version = 2
	_, err = repo.UpdateDocument(ctx, stale, 1)
	assert.Equal(t, syllabus.ErrVersionConflict, err)

	got, err = repo.GetDocument(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, syllabus.StatusCompleted, got.Weeks[0].Topics[0].Subtopics[0].Status)
}

func TestSyllabusRepository_Events(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewSyllabusRepository(db)
	ctx := context.Background()

	d, err := repo.CreateDocument(ctx, newDocument("math", "2024-03"))
	require.NoError(t, err)

	week, topic, sub := 1, 0, 0
	now := time.Now().UTC()
	err = core.InTx(ctx, db, func(exec core.DBExecutor) error {
		if err := repo.AddEvent(ctx, syllabus.Event{DocumentID: d.ID, Action: syllabus.ActionCreated, ActorID: "c1", Version: 1, CreatedAt: now}, exec); err != nil {
			return err
		}
		return repo.AddEvent(ctx, syllabus.Event{
			DocumentID: d.ID, Action: syllabus.ActionCompleted, ActorID: "t1", ActorName: "Tina",
			WeekNumber: &week, TopicIndex: &topic, SubtopicIndex: &sub, Version: 2, CreatedAt: now,
		}, exec)
	})
	require.NoError(t, err)

	events, err := repo.ListEvents(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, syllabus.ActionCreated, events[0].Action)
	assert.Nil(t, events[0].WeekNumber)
	assert.Empty(t, events[0].ActorName)
	assert.Equal(t, syllabus.ActionCompleted, events[1].Action)
	assert.Equal(t, "Tina", events[1].ActorName)
	require.NotNil(t, events[1].SubtopicIndex)
	assert.Equal(t, 0, *events[1].SubtopicIndex)

	// rolled back writes leave nothing behind
	_ = core.InTx(ctx, db, func(exec core.DBExecutor) error {
		_ = repo.AddEvent(ctx, syllabus.Event{DocumentID: d.ID, Action: syllabus.ActionApproved, ActorID: "c1", Version: 3, CreatedAt: now}, exec)
		return syllabus.ErrVersionConflict
	})
	events, err = repo.ListEvents(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
