package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KlausAbut/flowboard-app/domain"
)

const userContextKey = "flowboard.user"

// RequireUser authenticates the request from the ordered credential sources
// (cookie, then bearer header), resolves the subject against the store, and
// attaches the public identity to the context. Failures short-circuit before
// any handler runs.
func RequireUser(auth Authenticator, store Storage) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cred := RequestCredential(c)
			if cred == "" {
				return errJSON(c, http.StatusUnauthorized, "unauthenticated")
			}
			subject, err := auth.VerifyToken(cred)
			if err != nil {
				return errJSON(c, http.StatusUnauthorized, "invalid_token")
			}
			user, err := store.UserByID(c.Request().Context(), subject)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return errJSON(c, http.StatusUnauthorized, "user_not_found")
				}
				c.Logger().Error(err)
				return errJSON(c, http.StatusInternalServerError, "server_error")
			}
			c.Set(userContextKey, user.Public())
			return next(c)
		}
	}
}

// CurrentUser returns the identity attached by RequireUser.
func CurrentUser(c echo.Context) (domain.PublicUser, bool) {
	user, ok := c.Get(userContextKey).(domain.PublicUser)
	return user, ok
}
