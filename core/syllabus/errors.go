package syllabus

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core"
)

var (
	// errors
	ErrNotFound        = errors.New("syllabus not found")
	ErrExists          = errors.New("a syllabus already exists for this owner and month")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrForbidden       = errors.New("not allowed to perform this action on this syllabus")
	ErrVersionConflict = errors.New("syllabus was modified concurrently, please retry")
)

// ShapeError reports a syllabus tree that does not have the required shape.
type ShapeError struct {
	Fields []core.FieldError
}

func (err *ShapeError) Error() string {
	if len(err.Fields) == 0 {
		return "invalid syllabus shape"
	}
	parts := make([]string, 0, len(err.Fields))
	for _, fe := range err.Fields {
		parts = append(parts, fe.Field+": "+fe.Error)
	}
	return "invalid syllabus shape: " + strings.Join(parts, "; ")
}

// FieldMap returns the shape errors keyed by JSON path.
func (err *ShapeError) FieldMap() map[string]string {
	return core.ValidationError{Fields: err.Fields}.FieldMap()
}

func IsInvalidShape(err error) bool {
	_, ok := errors.Cause(err).(*ShapeError)
	return ok
}
