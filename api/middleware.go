package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const userIDContextKey = "userID"

// requireSession rejects requests without a valid session and stores the
// session owner on the context.
func requireSession(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := auth.UserIDFromRequest(c.Request())
			if err != nil {
				return c.String(http.StatusUnauthorized, err.Error())
			}
			c.Set(userIDContextKey, id)
			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDContextKey).(string)
	return id
}
