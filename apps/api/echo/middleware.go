package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// roleMiddleware lets through callers having any of roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Actor().HasRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ctxStudentOrRoleMiddleware lets through the student identified by the "id" path param,
// and callers having any of roles.
func ctxStudentOrRoleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			actor := claims.Actor()
			if actor.HasRole(roles...) || (actor.HasRole(RoleStudent) && actor.ID == ctx.Param("id")) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
