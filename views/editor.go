package views

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/client"
	"github.com/trezcool/syllabus/core/syllabus"
)

// Saver stores a draft. Implemented by *client.Client.
type Saver interface {
	SaveDocument(ctx context.Context, req client.SaveRequest) (client.DocumentResponse, error)
}

// Draft is a tree being authored. It is created on the first save when ID is empty.
type Draft struct {
	ID      string          `json:"id,omitempty"`
	OwnerID string          `json:"ownerId"`
	Month   string          `json:"month"`
	Weeks   []syllabus.Week `json:"weeks"`
}

// DraftOf starts a draft from d, or an empty scaffold for sel when there is no document yet.
func DraftOf(sel Selection, d *syllabus.Document) Draft {
	if d == nil {
		return Draft{OwnerID: sel.OwnerID, Month: sel.Month, Weeks: []syllabus.Week{}}
	}
	return Draft{ID: d.ID, OwnerID: d.OwnerID, Month: d.Month, Weeks: syllabus.CloneWeeks(d.Weeks)}
}

type Editor struct {
	saver Saver
	draft Draft
}

func NewEditor(saver Saver, draft Draft) *Editor {
	draft.Weeks = syllabus.CloneWeeks(draft.Weeks)
	return &Editor{saver: saver, draft: draft}
}

// Draft returns a copy of the draft being edited.
func (e *Editor) Draft() Draft {
	d := e.draft
	d.Weeks = syllabus.CloneWeeks(e.draft.Weeks)
	return d
}

// AddWeek appends a week numbered after the current week count and returns its number.
func (e *Editor) AddWeek() int {
	n := len(e.draft.Weeks) + 1
	e.draft.Weeks = append(e.draft.Weeks, syllabus.Week{WeekNumber: n, Topics: []syllabus.Topic{}})
	return n
}

// AddTopic appends an incomplete topic without subtopics to the week numbered weekNumber
// and returns its index.
func (e *Editor) AddTopic(weekNumber int, title string) (int, error) {
	d := e.doc()
	w, err := d.Week(weekNumber)
	if err != nil {
		return 0, err
	}
	w.Topics = append(w.Topics, syllabus.Topic{
		Title:     title,
		Status:    syllabus.StatusIncomplete,
		Subtopics: []syllabus.Subtopic{},
	})
	return len(w.Topics) - 1, nil
}

// AddSubtopic appends an incomplete subtopic to a topic and returns its index.
func (e *Editor) AddSubtopic(weekNumber, topicIndex int, title string) (int, error) {
	d := e.doc()
	t, err := d.Topic(weekNumber, topicIndex)
	if err != nil {
		return 0, err
	}
	t.Subtopics = append(t.Subtopics, syllabus.Subtopic{Title: title, Status: syllabus.StatusIncomplete})
	return len(t.Subtopics) - 1, nil
}

func (e *Editor) RenameTopic(weekNumber, topicIndex int, title string) error {
	d := e.doc()
	t, err := d.Topic(weekNumber, topicIndex)
	if err != nil {
		return err
	}
	t.Title = title
	return nil
}

func (e *Editor) RenameSubtopic(ref syllabus.Ref, title string) error {
	d := e.doc()
	st, err := d.Subtopic(ref)
	if err != nil {
		return err
	}
	st.Title = title
	return nil
}

// RenumberWeek changes the number of a week. Weeks carry no title; their number is their name.
func (e *Editor) RenumberWeek(from, to int) error {
	d := e.doc()
	w, err := d.Week(from)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if _, err = d.Week(to); err == nil {
		return errors.Errorf("week %d already exists", to)
	}
	w.WeekNumber = to
	return nil
}

// Save normalizes the draft, validates its shape and only then submits it.
// A *syllabus.ShapeError is returned without anything being submitted.
func (e *Editor) Save(ctx context.Context) (client.DocumentResponse, error) {
	e.draft.Weeks = syllabus.Normalize(e.draft.Weeks)
	if err := syllabus.ValidateShape(e.draft.Weeks); err != nil {
		return client.DocumentResponse{}, err
	}

	resp, err := e.saver.SaveDocument(ctx, client.SaveRequest{
		ID:      e.draft.ID,
		OwnerID: e.draft.OwnerID,
		Month:   e.draft.Month,
		Weeks:   syllabus.CloneWeeks(e.draft.Weeks),
	})
	if err != nil {
		return client.DocumentResponse{}, err
	}
	e.draft = DraftOf(Selection{}, &resp.Document)
	return resp, nil
}

// doc wraps the draft weeks so that the document lookups address them in place.
func (e *Editor) doc() *syllabus.Document {
	return &syllabus.Document{Weeks: e.draft.Weeks}
}
