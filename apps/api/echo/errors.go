package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/owner"
	"github.com/trezcool/syllabus/core/syllabus"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// errorBody is the wire format of every failure.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body := classify(err)

		if code == http.StatusInternalServerError {
			msg := http.StatusText(http.StatusInternalServerError)
			p, _ := getContextPrincipal(ctx)
			logger.Error(msg, errors.Wrap(err, msg), p)

			if ctx.Echo().Debug {
				body.Error = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// classify maps err to a status code and a response body.
func classify(err error) (int, errorBody) {
	cause := errors.Cause(err)

	switch cause {
	case syllabus.ErrNotFound, owner.ErrNotFound:
		return http.StatusNotFound, errorBody{Error: cause.Error()}
	case syllabus.ErrForbidden:
		return http.StatusForbidden, errorBody{Error: cause.Error()}
	case syllabus.ErrInvalidState, syllabus.ErrExists, syllabus.ErrVersionConflict, owner.ErrExists:
		// the wrapped message names what was refused, e.g. the id of the existing syllabus
		return http.StatusConflict, errorBody{Error: err.Error()}
	}

	switch origErr := cause.(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, errorBody{Error: messageOf(origErr)}
		}
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, errorBody{Error: messageOf(origErr)}
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Error()
		}
		return http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fldErrs}
	case *core.ValidationError:
		return http.StatusBadRequest, errorBody{Error: origErr.Error(), Fields: origErr.FieldMap()}
	case *syllabus.ShapeError:
		return http.StatusBadRequest, errorBody{Error: "invalid syllabus shape", Fields: origErr.FieldMap()}
	}

	// any other error is a server error
	return http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)}
}

func messageOf(herr *echo.HTTPError) string {
	if m, ok := herr.Message.(string); ok {
		return m
	}
	return http.StatusText(herr.Code)
}
