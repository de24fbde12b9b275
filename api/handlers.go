package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskflow/domain"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, auth Authenticator, issuer TokenIssuer, events EventPublisher, logger *log.Logger) {
	e.POST("/api/auth/register", registerUser(store, issuer, events))
	e.POST("/api/auth/login", loginUser(store, issuer))
	e.GET("/api/auth/me", getMe(store, auth))

	e.GET("/api/users", getUsers(store, auth))
	e.GET("/api/users/assignable", getAssignableUsers(store, auth))

	e.GET("/api/tasks", getTasks(store, auth, logger))
	e.GET("/api/tasks/:id", getTask(store, auth))
	e.POST("/api/tasks", postTask(store, auth, events))
	e.PATCH("/api/tasks/:id", patchTask(store, auth, events))
	e.POST("/api/tasks/:id/comments", postComment(store, auth, events))

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// jsonError renders the error wire format shared by all endpoints.
func jsonError(c echo.Context, status int, detail string) error {
	return c.JSON(status, errorResponse{Detail: detail})
}

// decodeBody reads a size-capped JSON request body into out.
func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

// requireUser authenticates the request and resolves the acting user's
// profile. When the returned bool is false the response has already been
// written and the accompanying error must be returned from the handler.
func requireUser(c echo.Context, store Storage, auth Authenticator) (domain.User, bool, error) {
	userID, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if authErr != nil {
		return domain.User{}, false, jsonError(c, http.StatusUnauthorized, "Invalid token")
	}

	user, err := store.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		var nf NotFoundError
		if errors.As(err, &nf) {
			return domain.User{}, false, jsonError(c, http.StatusUnauthorized, "User not found")
		}
		c.Logger().Error(err)
		return domain.User{}, false, jsonError(c, http.StatusInternalServerError, err.Error())
	}
	return user, true, nil
}

// populateParticipants attaches assignee/assigner summaries from the roster.
func populateParticipants(tasks []domain.Task, roster []domain.User) {
	byID := make(map[string]domain.User, len(roster))
	for _, u := range roster {
		byID[u.ID] = u
	}
	for i := range tasks {
		if u, ok := byID[tasks[i].AssignedTo]; ok {
			s := u.Summary()
			tasks[i].AssignedToUser = &s
		}
		if u, ok := byID[tasks[i].AssignedBy]; ok {
			s := u.Summary()
			tasks[i].AssignedByUser = &s
		}
	}
}
