package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"taskflow/domain"
)

func registerUser(store Storage, issuer TokenIssuer, events EventPublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var req registerRequest
		if err := decodeBody(c, &req); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}
		if req.Email == "" || req.Name == "" || req.Password == "" {
			return jsonError(c, http.StatusBadRequest, "Missing required fields")
		}
		if !req.Role.Valid() {
			return jsonError(c, http.StatusBadRequest, "Invalid role")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "cannot hash password")
		}

		user := domain.User{
			ID:        uuid.NewString(),
			Email:     req.Email,
			Name:      req.Name,
			Role:      req.Role,
			RoleLevel: req.Role.Level(),
			CreatedAt: time.Now().UTC(),
		}
		if err := store.CreateUser(ctx, user, string(hash)); err != nil {
			var exists AlreadyExistsError
			if errors.As(err, &exists) {
				return jsonError(c, http.StatusBadRequest, "Email already registered")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}

		token, err := issuer.IssueToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "cannot create token")
		}

		publish(events, user.ID, newEvent(domain.EventUserRegistered, "user", user.ID, struct {
			Role domain.Role `json:"role"`
		}{user.Role}))

		return c.JSON(http.StatusOK, authResponse{AccessToken: token, TokenType: "bearer", User: user})
	}
}

func loginUser(store Storage, issuer TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}

		user, hash, err := store.GetCredentials(ctx, req.Email)
		if err != nil {
			var nf NotFoundError
			if errors.As(err, &nf) {
				return jsonError(c, http.StatusBadRequest, "Invalid credentials")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			return jsonError(c, http.StatusBadRequest, "Invalid credentials")
		}

		token, err := issuer.IssueToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, "cannot create token")
		}

		return c.JSON(http.StatusOK, authResponse{AccessToken: token, TokenType: "bearer", User: user})
	}
}

func getMe(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok, err := requireUser(c, store, auth)
		if !ok {
			return err
		}
		return c.JSON(http.StatusOK, user)
	}
}
