package syllabus

import (
	"fmt"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core"
)

var (
	shapeOnce      sync.Once
	shapeValidate  *validator.Validate
	shapeTranslate ut.Translator
)

type shapeDoc struct {
	Weeks []Week `json:"weeks" validate:"required,min=1,dive"`
}

func shapeValidator() (*validator.Validate, ut.Translator) {
	shapeOnce.Do(func() {
		shapeTranslate = core.NewTranslator()
		shapeValidate = core.NewValidate(shapeTranslate)
	})
	return shapeValidate, shapeTranslate
}

// FoldLegacy folds the legacy `completed` boolean of every subtopic into its status.
// An explicit status wins over the boolean.
func FoldLegacy(weeks []Week) {
	for i := range weeks {
		for j := range weeks[i].Topics {
			sts := weeks[i].Topics[j].Subtopics
			for k := range sts {
				if sts[k].Completed == nil {
					continue
				}
				if sts[k].Status == "" {
					sts[k].Status = StatusIncomplete
					if *sts[k].Completed {
						sts[k].Status = StatusCompleted
					}
				}
				sts[k].Completed = nil
			}
		}
	}
}

// Normalize fills in what an authoring tree may leave out: missing statuses become
// "incomplete" and missing topic or subtopic arrays become empty arrays.
// Week numbers are not invented; a week without one still fails ValidateShape.
func Normalize(weeks []Week) []Week {
	FoldLegacy(weeks)
	if weeks == nil {
		weeks = []Week{}
	}
	for i := range weeks {
		if weeks[i].Topics == nil {
			weeks[i].Topics = []Topic{}
		}
		for j := range weeks[i].Topics {
			t := &weeks[i].Topics[j]
			if t.Status == "" {
				t.Status = StatusIncomplete
			}
			if t.Subtopics == nil {
				t.Subtopics = []Subtopic{}
			}
			for k := range t.Subtopics {
				if t.Subtopics[k].Status == "" {
					t.Subtopics[k].Status = StatusIncomplete
				}
			}
		}
	}
	return weeks
}

// ValidateShape checks that weeks is a non-empty sequence of weeks with a positive, unique weekNumber
// and a topics array, that every topic has a status and a subtopics array, and that every subtopic
// has a valid status and is never approved before being completed.
// It returns a *ShapeError listing every offending JSON path.
func ValidateShape(weeks []Week) error {
	validate, translator := shapeValidator()

	var flds []core.FieldError
	if err := validate.Struct(shapeDoc{Weeks: weeks}); err != nil {
		vErr, ok := core.TranslateValidationErrors(err, translator, nil).(*core.ValidationError)
		if !ok {
			return errors.Wrap(err, "validating syllabus shape")
		}
		flds = append(flds, vErr.Fields...)
	}

	seen := make(map[int]int, len(weeks))
	for i, w := range weeks {
		if w.WeekNumber > 0 {
			if prev, ok := seen[w.WeekNumber]; ok {
				flds = append(flds, core.FieldError{
					Field: fmt.Sprintf("weeks[%d].weekNumber", i),
					Error: fmt.Sprintf("duplicates weeks[%d].weekNumber", prev),
				})
			} else {
				seen[w.WeekNumber] = i
			}
		}
		for j, t := range w.Topics {
			for k, st := range t.Subtopics {
				if st.Approved && !st.IsCompleted() {
					flds = append(flds, core.FieldError{
						Field: fmt.Sprintf("weeks[%d].topics[%d].subtopics[%d].approved", i, j, k),
						Error: "cannot be approved before being completed",
					})
				}
			}
		}
	}

	if len(flds) > 0 {
		return &ShapeError{Fields: flds}
	}
	return nil
}

// checkProgressPreserved rejects a save that would move a leaf along the progress chain.
// Weeks are matched by number, topics and subtopics by position. Positions only present in next
// must be incomplete and unapproved; positions only present in stored must not carry any progress.
func checkProgressPreserved(stored, next []Week) error {
	byNumber := make(map[int]Week, len(stored))
	for _, w := range stored {
		byNumber[w.WeekNumber] = w
	}

	for _, w := range next {
		old, ok := byNumber[w.WeekNumber]
		delete(byNumber, w.WeekNumber)
		for j, t := range w.Topics {
			var oldTopic *Topic
			if ok && j < len(old.Topics) {
				oldTopic = &old.Topics[j]
			}
			if err := checkTopic(w.WeekNumber, j, oldTopic, t); err != nil {
				return err
			}
		}
		if ok {
			for j := len(w.Topics); j < len(old.Topics); j++ {
				if hasProgress(old.Topics[j]) {
					return errors.Wrapf(ErrInvalidState, "week %d topic %d has progress and cannot be removed", w.WeekNumber, j)
				}
			}
		}
	}

	for n, w := range byNumber {
		for _, t := range w.Topics {
			if hasProgress(t) {
				return errors.Wrapf(ErrInvalidState, "week %d has progress and cannot be removed", n)
			}
		}
	}
	return nil
}

func checkTopic(weekNumber, idx int, old *Topic, t Topic) error {
	if old == nil {
		if t.Approved {
			return errors.Wrapf(ErrInvalidState, "week %d topic %d cannot be created approved", weekNumber, idx)
		}
	} else if old.Approved != t.Approved {
		return errors.Wrapf(ErrInvalidState, "week %d topic %d approval cannot be changed by saving", weekNumber, idx)
	}

	for k, st := range t.Subtopics {
		ref := Ref{WeekNumber: weekNumber, TopicIndex: idx, SubtopicIndex: k}
		if old == nil || k >= len(old.Subtopics) {
			if st.IsCompleted() || st.Approved {
				return errors.Wrapf(ErrInvalidState, "%s must start incomplete", ref)
			}
			continue
		}
		prev := old.Subtopics[k]
		if prev.Status != st.Status || prev.Approved != st.Approved {
			return errors.Wrapf(ErrInvalidState, "%s progress cannot be changed by saving", ref)
		}
	}
	if old != nil {
		for k := len(t.Subtopics); k < len(old.Subtopics); k++ {
			if old.Subtopics[k].IsCompleted() {
				ref := Ref{WeekNumber: weekNumber, TopicIndex: idx, SubtopicIndex: k}
				return errors.Wrapf(ErrInvalidState, "%s has progress and cannot be removed", ref)
			}
		}
	}
	return nil
}

func hasProgress(t Topic) bool {
	if t.Approved {
		return true
	}
	for _, st := range t.Subtopics {
		if st.IsCompleted() {
			return true
		}
	}
	return false
}
