package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskflow/domain"
)

const (
	userPartition = "user"
	taskPartition = "task"
)

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	userTable   *aztables.Client
	taskTable   *aztables.Client
	eventsQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, usersTable, tasksTable, eventsQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	ut := svc.NewClient(usersTable)
	tt := svc.NewClient(tasksTable)

	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{userTable: ut, taskTable: tt, eventsQueue: eq}, nil
}

type userEntity struct {
	aztables.Entity
	Email        string `json:"Email"`
	Name         string `json:"Name"`
	Role         string `json:"Role"`
	PasswordHash string `json:"PasswordHash"`
	CreatedAt    string `json:"CreatedAt"`
}

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Status      string `json:"Status"`
	Priority    string `json:"Priority"`
	AssignedTo  string `json:"AssignedTo"`
	AssignedBy  string `json:"AssignedBy"`
	DueDate     string `json:"DueDate"`
	Comments    string `json:"Comments"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

// CreateUser persists a new account. The email must be unique across the
// roster; the check is a scan, so a concurrent duplicate registration can
// slip through and wins last-write at the table.
func (s *Storage) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	if _, _, err := s.GetCredentials(ctx, user.Email); err == nil {
		return alreadyExistsError{entity: "user", key: user.Email}
	} else {
		var nf notFoundError
		if !errors.As(err, &nf) {
			return err
		}
	}

	ent := userEntity{
		Entity:       aztables.Entity{PartitionKey: userPartition, RowKey: user.ID},
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.userTable.AddEntity(ctx, data, nil)
	if isStatus(err, 409) {
		return alreadyExistsError{entity: "user", key: user.ID}
	}
	return err
}

// GetUserByID retrieves a single profile.
func (s *Storage) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	resp, err := s.userTable.GetEntity(ctx, userPartition, id, nil)
	if err != nil {
		if isStatus(err, 404) {
			return domain.User{}, notFoundError{entity: "user", key: id}
		}
		return domain.User{}, err
	}
	var ent userEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.User{}, err
	}
	return userFromEntity(ent), nil
}

// GetCredentials looks up a user by email and returns the profile together
// with the stored password hash.
func (s *Storage) GetCredentials(ctx context.Context, email string) (domain.User, string, error) {
	filter := "PartitionKey eq '" + userPartition + "' and Email eq '" + escapeODataString(email) + "'"
	pager := s.userTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return domain.User{}, "", err
		}
		for _, e := range resp.Entities {
			var ent userEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return domain.User{}, "", err
			}
			return userFromEntity(ent), ent.PasswordHash, nil
		}
	}
	return domain.User{}, "", notFoundError{entity: "user", key: email}
}

// ListUsers retrieves the full roster.
func (s *Storage) ListUsers(ctx context.Context) ([]domain.User, error) {
	filter := "PartitionKey eq '" + userPartition + "'"
	pager := s.userTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	users := []domain.User{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent userEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			users = append(users, userFromEntity(ent))
		}
	}
	return users, nil
}

// CreateTask persists a new task.
func (s *Storage) CreateTask(ctx context.Context, task domain.Task) error {
	ent, err := entityFromTask(task)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.taskTable.AddEntity(ctx, data, nil)
	if isStatus(err, 409) {
		return alreadyExistsError{entity: "task", key: task.ID}
	}
	return err
}

// GetTask retrieves a single task.
func (s *Storage) GetTask(ctx context.Context, id string) (domain.Task, error) {
	resp, err := s.taskTable.GetEntity(ctx, taskPartition, id, nil)
	if err != nil {
		if isStatus(err, 404) {
			return domain.Task{}, notFoundError{entity: "task", key: id}
		}
		return domain.Task{}, err
	}
	var ent taskEntity
	if err := json.Unmarshal(resp.Value, &ent); err != nil {
		return domain.Task{}, err
	}
	return taskFromEntity(ent)
}

// UpdateTask replaces the stored task. Concurrent writers are not
// reconciled; the last write wins.
func (s *Storage) UpdateTask(ctx context.Context, task domain.Task) error {
	ent, err := entityFromTask(task)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.taskTable.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return err
}

// ListTasksForUser retrieves every task the user participates in as
// assignee or assigner.
func (s *Storage) ListTasksForUser(ctx context.Context, userID string) ([]domain.Task, error) {
	id := escapeODataString(userID)
	filter := "PartitionKey eq '" + taskPartition + "' and (AssignedTo eq '" + id + "' or AssignedBy eq '" + id + "')"
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(e, &ent); err != nil {
				return nil, err
			}
			task, err := taskFromEntity(ent)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// EnqueueEvent ships an activity feed envelope to the events queue.
func (s *Storage) EnqueueEvent(ctx context.Context, userID string, ev domain.Event) error {
	env := domain.EventEnvelope{UserID: userID, Event: ev}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = s.eventsQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}

func userFromEntity(ent userEntity) domain.User {
	role := domain.Role(ent.Role)
	return domain.User{
		ID:        ent.RowKey,
		Email:     ent.Email,
		Name:      ent.Name,
		Role:      role,
		RoleLevel: role.Level(),
		CreatedAt: parseEntityTime(ent.CreatedAt),
	}
}

func entityFromTask(task domain.Task) (taskEntity, error) {
	comments := task.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	blob, err := json.Marshal(comments)
	if err != nil {
		return taskEntity{}, err
	}
	due := ""
	if task.DueDate != nil {
		due = task.DueDate.UTC().Format(time.RFC3339Nano)
	}
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: taskPartition, RowKey: task.ID},
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		AssignedTo:  task.AssignedTo,
		AssignedBy:  task.AssignedBy,
		DueDate:     due,
		Comments:    string(blob),
		CreatedAt:   task.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   task.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func taskFromEntity(ent taskEntity) (domain.Task, error) {
	task := domain.Task{
		ID:          ent.RowKey,
		Title:       ent.Title,
		Description: ent.Description,
		Status:      domain.Status(ent.Status),
		Priority:    domain.Priority(ent.Priority),
		AssignedTo:  ent.AssignedTo,
		AssignedBy:  ent.AssignedBy,
		Comments:    []domain.Comment{},
		CreatedAt:   parseEntityTime(ent.CreatedAt),
		UpdatedAt:   parseEntityTime(ent.UpdatedAt),
	}
	if ent.DueDate != "" {
		due := parseEntityTime(ent.DueDate)
		task.DueDate = &due
	}
	if ent.Comments != "" {
		if err := json.Unmarshal([]byte(ent.Comments), &task.Comments); err != nil {
			return domain.Task{}, err
		}
	}
	return task, nil
}

func parseEntityTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// escapeODataString doubles single quotes for safe literal embedding in
// table query filters.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func isStatus(err error, status int) bool {
	if err == nil {
		return false
	}
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}
