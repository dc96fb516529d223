package session

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/bookstore/internal/apperr"
)

const principalKey = "principal"

// Principal is the authenticated identity for one request. It lives in
// the echo context set by Authenticate, never in any global state.
type Principal struct {
	Username string
	Role     string
}

func FromContext(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

func (s *Store) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(CookieName)
		if err != nil {
			return apperr.Unauthorized("Authentication required")
		}

		user, err := s.Resolve(cookie.Value)
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				return apperr.Unauthorized("Authentication required")
			}
			return err
		}

		c.Set(principalKey, Principal{Username: user.Username, Role: user.Role})
		return next(c)
	}
}

// RequireRole gates a route on an exact role match, mirroring the
// single-authority user model.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := FromContext(c)
			if !ok {
				return apperr.Unauthorized("Authentication required")
			}
			if p.Role != role {
				return apperr.Forbidden("Access denied")
			}
			return next(c)
		}
	}
}
