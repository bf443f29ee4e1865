package owner

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/syllabus/core"
)

// Owner is a course or a subject that syllabus documents belong to.
type Owner struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Name           string    `json:"name"`
	TeacherIDs     []string  `json:"teacherIds"`
	ReviewerEmails []string  `json:"reviewerEmails"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
	UpdatedAt      time.Time `json:"updatedAt"` // UTC
}

// HasTeacher reports whether the teacher identified by id is assigned to o.
func (o Owner) HasTeacher(id string) bool {
	if id == "" {
		return false
	}
	for _, tid := range o.TeacherIDs {
		if tid == id {
			return true
		}
	}
	return false
}

// NewOwner contains information needed to register an Owner.
// ID is the course or subject identifier known to the rest of the platform; a UUID is generated when empty.
type NewOwner struct {
	ID             string   `json:"id" validate:"omitempty,max=64,slug"`
	Kind           string   `json:"kind" validate:"required,ownerkind"`
	Name           string   `json:"name" validate:"required,max=255"`
	TeacherIDs     []string `json:"teacherIds" validate:"omitempty,dive,required"`
	ReviewerEmails []string `json:"reviewerEmails" validate:"omitempty,dive,email"`
}

func (no *NewOwner) Validate(validate *validator.Validate) error {
	no.ID = core.CleanString(no.ID)
	no.Kind = core.CleanString(no.Kind, true /* lower */)
	no.Name = core.CleanString(no.Name)
	no.TeacherIDs = cleanAll(no.TeacherIDs, false)
	no.ReviewerEmails = cleanAll(no.ReviewerEmails, true)
	return validate.Struct(no)
}

// UpdateOwner defines what may be changed on an existing Owner.
// Nil slices leave the current values untouched; empty slices clear them.
type UpdateOwner struct {
	Name           string   `json:"name" validate:"omitempty,max=255"`
	TeacherIDs     []string `json:"teacherIds" validate:"omitempty,dive,required"`
	ReviewerEmails []string `json:"reviewerEmails" validate:"omitempty,dive,email"`
}

func (uo *UpdateOwner) Validate(validate *validator.Validate) error {
	uo.Name = core.CleanString(uo.Name)
	uo.TeacherIDs = cleanAll(uo.TeacherIDs, false)
	uo.ReviewerEmails = cleanAll(uo.ReviewerEmails, true)
	return validate.Struct(uo)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Kind      string `query:"kind"`
	TeacherID string `query:"teacherId"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
	qf.TeacherID = core.CleanString(qf.TeacherID)
}

func cleanAll(vals []string, lower bool) []string {
	if vals == nil {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, core.CleanString(v, lower))
	}
	return out
}
