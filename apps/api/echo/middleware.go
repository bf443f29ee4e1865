package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/syllabus/core/user"
)

// principalMiddleware lets the request through only if allowed approves the caller.
func principalMiddleware(allowed func(user.Principal) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context principal")
			}
			if allowed(p) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return principalMiddleware(user.Principal.IsAdmin)
}

func readerMiddleware() echo.MiddlewareFunc {
	return principalMiddleware(user.Principal.CanRead)
}
