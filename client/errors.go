package client

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core/syllabus"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("permission denied")
	ErrInvalidState = errors.New("invalid state")
)

// APIError is a failed response. Message is the server's `error` field, verbatim.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("request failed: %s", http.StatusText(err.StatusCode))
	}
	return err.Message
}

// Is maps the status code onto the typed errors, so that errors.Is(err, ErrNotFound) works.
func (err *APIError) Is(target error) bool {
	return target != nil && target == err.kind()
}

func (err *APIError) kind() error {
	switch err.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusConflict:
		return ErrInvalidState
	}
	return nil
}

// Message returns what to show for err: the server's message when there is one, a generic one otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var shapeErr *syllabus.ShapeError
	if errors.As(err, &shapeErr) {
		return shapeErr.Error()
	}
	return "something went wrong, please try again"
}
