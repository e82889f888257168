package services

import (
	"context"
	"errors"
	"time"

	"github.com/mkravets/todo-api/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskAccessDenied     = errors.New("task access denied")
)

type AuthService interface {
	// Register creates a user with the given email and password.
	//
	// It hashes the password and generates a unique ID. The stored
	// hash never leaves the service.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login authenticates the user by email and password and issues
	// a signed, time-bound access token carrying the user identity.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// VerifyToken parses and validates the given access token and
	// returns the identity encoded in it.
	//
	// It returns ErrInvalidToken if the token is malformed,
	// tampered with or expired.
	VerifyToken(token string) (*Identity, error)
}

type TaskService interface {
	// CreateTask persists a new task owned by the caller. The owner
	// is always taken from params.OwnerID, which handlers fill from
	// the authenticated identity, so an owner supplied in a request
	// body can never be honored.
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTasksByOwner returns all tasks of the given owner matching
	// every supplied filter dimension. An empty result is a valid
	// response, not an error.
	GetTasksByOwner(ctx context.Context, ownerID string, filter TaskFilter) ([]*models.Task, error)

	// GetTaskByID returns the task with the given ID regardless of
	// the caller, or ErrTaskNotFound.
	GetTaskByID(ctx context.Context, taskID string) (*models.Task, error)

	// UpdateTask merges the non-nil fields of params into the task
	// and persists it.
	//
	// It returns ErrTaskNotFound if the task doesn't exist or
	// ErrTaskAccessDenied if the caller is not the owner.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// DeleteTask removes the task and returns its prior state.
	//
	// It returns ErrTaskNotFound if the task doesn't exist or
	// ErrTaskAccessDenied if the caller is not the owner.
	DeleteTask(ctx context.Context, taskID, callerID string) (*models.Task, error)
}

type RegisterParams struct {
	Email    string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Identity is the decoded caller identity attached to
// authenticated requests.
type Identity struct {
	UserID string
	Email  string
}

type CreateTaskParams struct {
	OwnerID     string
	Title       string
	Description string
	DueDate     *time.Time
	Tags        []string
}

// TaskFilter narrows a task listing. Nil or empty fields impose no
// constraint; supplied dimensions combine with logical AND, while
// Tags matches a task that carries any of the requested tags.
type TaskFilter struct {
	CreatedAt *time.Time
	DueDate   *time.Time
	Tags      []string
}

type UpdateTaskParams struct {
	ID          string
	CallerID    string
	Title       *string
	Description *string
	DueDate     *time.Time
	Completed   *bool
	Tags        []string
}
