package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/auth"
)

// requirePerm is the role gate: it lets through principals granted `perm` only.
func requirePerm(perm auth.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := principal(ctx)
			if err != nil {
				return err
			}
			if !p.Can(perm) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// requireRole lets through principals of `role` only.
func requireRole(role auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := principal(ctx)
			if err != nil {
				return err
			}
			if !p.Is(role) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
