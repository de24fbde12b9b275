package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskflow/domain"
)

func getTasks(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		user, ok, authErr := requireUser(c, store, auth)
		metrics.ObserveAuth(time.Since(authStart))
		if !ok {
			metrics.SetErrorStage("auth")
			err = authErr
			return err
		}

		fetchStart := time.Now()
		tasks, fetchErr := store.ListTasksForUser(ctx, user.ID)
		if fetchErr == nil {
			var roster []domain.User
			roster, fetchErr = store.ListUsers(ctx)
			if fetchErr == nil {
				populateParticipants(tasks, roster)
			}
		}
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = jsonError(c, http.StatusInternalServerError, fetchErr.Error())
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, ok, err := requireUser(c, store, auth)
		if !ok {
			return err
		}

		task, err := loadVisibleTask(c, store, user.ID)
		if err != nil {
			return err
		}

		roster, rosterErr := store.ListUsers(ctx)
		if rosterErr != nil {
			c.Logger().Error(rosterErr)
		} else {
			single := []domain.Task{task}
			populateParticipants(single, roster)
			task = single[0]
		}
		return c.JSON(http.StatusOK, task)
	}
}

func postTask(store Storage, auth Authenticator, events EventPublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		actor, ok, err := requireUser(c, store, auth)
		if !ok {
			return err
		}

		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}
		if req.Title == "" || req.Description == "" || req.AssignedTo == "" {
			return jsonError(c, http.StatusBadRequest, "Missing required fields")
		}
		if req.Priority == "" {
			req.Priority = domain.PriorityMedium
		}
		if !req.Priority.Valid() {
			return jsonError(c, http.StatusBadRequest, "Invalid priority")
		}

		assignee, err := store.GetUserByID(ctx, req.AssignedTo)
		if err != nil {
			var nf NotFoundError
			if errors.As(err, &nf) {
				return jsonError(c, http.StatusNotFound, "Assignee not found")
			}
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}
		if !domain.CanAssign(actor, assignee) {
			return jsonError(c, http.StatusForbidden, "Cannot assign task to this user based on role hierarchy")
		}

		now := time.Now().UTC()
		task := domain.Task{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			Status:      domain.StatusAssigned,
			Priority:    req.Priority,
			AssignedTo:  req.AssignedTo,
			AssignedBy:  actor.ID,
			DueDate:     req.DueDate,
			Comments:    []domain.Comment{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.CreateTask(ctx, task); err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}

		publish(events, actor.ID, newEvent(domain.EventTaskCreated, "task", task.ID, struct {
			Title      string `json:"title"`
			AssignedTo string `json:"assignedTo"`
		}{task.Title, task.AssignedTo}))

		return c.JSON(http.StatusOK, task)
	}
}

func patchTask(store Storage, auth Authenticator, events EventPublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, ok, err := requireUser(c, store, auth)
		if !ok {
			return err
		}

		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}

		task, err := loadVisibleTask(c, store, user.ID)
		if err != nil {
			return err
		}

		if req.Status != nil {
			if !req.Status.Valid() {
				return jsonError(c, http.StatusBadRequest, "Invalid status")
			}
			task.Status = *req.Status
		}
		if req.Priority != nil {
			if !req.Priority.Valid() {
				return jsonError(c, http.StatusBadRequest, "Invalid priority")
			}
			task.Priority = *req.Priority
		}
		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.DueDate != nil {
			task.DueDate = req.DueDate
		}
		task.UpdatedAt = time.Now().UTC()

		if err := store.UpdateTask(ctx, task); err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}

		publish(events, user.ID, newEvent(domain.EventTaskUpdated, "task", task.ID, struct {
			Status domain.Status `json:"status"`
		}{task.Status}))

		return c.JSON(http.StatusOK, task)
	}
}

func postComment(store Storage, auth Authenticator, events EventPublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, ok, err := requireUser(c, store, auth)
		if !ok {
			return err
		}

		var req commentRequest
		if err := decodeBody(c, &req); err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid body")
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return jsonError(c, http.StatusBadRequest, "Comment text is required")
		}

		task, err := loadVisibleTask(c, store, user.ID)
		if err != nil {
			return err
		}

		comment := domain.Comment{
			ID:        uuid.NewString(),
			Text:      text,
			Author:    user.ID,
			Timestamp: time.Now().UTC(),
		}
		task.Comments = append(task.Comments, comment)
		task.UpdatedAt = comment.Timestamp

		if err := store.UpdateTask(ctx, task); err != nil {
			c.Logger().Error(err)
			return jsonError(c, http.StatusInternalServerError, err.Error())
		}

		publish(events, user.ID, newEvent(domain.EventCommentAdded, "task", task.ID, struct {
			CommentID string `json:"commentId"`
		}{comment.ID}))

		return c.JSON(http.StatusOK, comment)
	}
}

// loadVisibleTask fetches the task and enforces the participant access rule.
// On failure the response has been written and the returned error must be
// propagated from the handler.
func loadVisibleTask(c echo.Context, store Storage, userID string) (domain.Task, error) {
	task, err := store.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		var nf NotFoundError
		if errors.As(err, &nf) {
			return domain.Task{}, jsonError(c, http.StatusNotFound, "Task not found")
		}
		c.Logger().Error(err)
		return domain.Task{}, jsonError(c, http.StatusInternalServerError, err.Error())
	}
	if !task.VisibleTo(userID) {
		return domain.Task{}, jsonError(c, http.StatusForbidden, "Access denied")
	}
	return task, nil
}
