package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"taskflow/domain"
)

func getUsers(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, ok, err := requireUser(c, store, auth)
		if !ok {
			return err
		}
		users, err := store.ListUsers(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, users)
	}
}

// getAssignableUsers serves the hierarchy-filtered candidate list: peers
// and juniors of the caller, never the caller itself.
func getAssignableUsers(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, ok, err := requireUser(c, store, auth)
		if !ok {
			return err
		}
		roster, err := store.ListUsers(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, domain.AssignableUsers(roster, actor))
	}
}
