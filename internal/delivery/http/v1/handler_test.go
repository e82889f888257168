package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkravets/todo-api/internal/models"
	"github.com/mkravets/todo-api/internal/services"
)

// In-memory stand-ins for the pgx-backed services. They mirror the
// service contracts (sentinel errors, owner checks, partial merges)
// so handler tests can drive full request flows without a store.

type fakeAuthService struct {
	usersByEmail map[string]*models.User
	identities   map[string]services.Identity
	nextID       int
}

func newFakeAuthService() *fakeAuthService {
	return &fakeAuthService{
		usersByEmail: make(map[string]*models.User),
		identities:   make(map[string]services.Identity),
	}
}

func (f *fakeAuthService) Register(_ context.Context, params services.RegisterParams) (*models.User, error) {
	if _, exists := f.usersByEmail[params.Email]; exists {
		return nil, services.ErrUserAlreadyExists
	}

	f.nextID++
	now := time.Now()
	user := &models.User{
		ID:        fmt.Sprintf("user-%d", f.nextID),
		Email:     params.Email,
		Password:  params.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.usersByEmail[user.Email] = user
	return user, nil
}

func (f *fakeAuthService) Login(_ context.Context, params services.LoginParams) (*services.LoginResult, error) {
	user, exists := f.usersByEmail[params.Email]
	if !exists {
		return nil, services.ErrUserNotFound
	}
	if user.Password != params.Password {
		return nil, services.ErrUserPasswordMismatch
	}

	token := fmt.Sprintf("token-%s-%d", user.ID, len(f.identities))
	f.identities[token] = services.Identity{
		UserID: user.ID,
		Email:  user.Email,
	}
	return &services.LoginResult{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) VerifyToken(token string) (*services.Identity, error) {
	identity, exists := f.identities[token]
	if !exists {
		return nil, services.ErrInvalidToken
	}
	return &identity, nil
}

type fakeTaskService struct {
	tasks  map[string]*models.Task
	order  []string
	nextID int
}

func newFakeTaskService() *fakeTaskService {
	return &fakeTaskService{
		tasks: make(map[string]*models.Task),
	}
}

func (f *fakeTaskService) CreateTask(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	f.nextID++
	now := time.Now()
	task := &models.Task{
		ID:          fmt.Sprintf("task-%d", f.nextID),
		OwnerID:     params.OwnerID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Completed:   false,
		Tags:        params.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	f.tasks[task.ID] = task
	f.order = append(f.order, task.ID)
	return copyTask(task), nil
}

func (f *fakeTaskService) GetTasksByOwner(_ context.Context, ownerID string, filter services.TaskFilter) ([]*models.Task, error) {
	result := make([]*models.Task, 0)
	for _, id := range f.order {
		task := f.tasks[id]
		if task.OwnerID != ownerID {
			continue
		}
		if filter.CreatedAt != nil && task.CreatedAt.Before(*filter.CreatedAt) {
			continue
		}
		if filter.DueDate != nil && (task.DueDate == nil || task.DueDate.Before(*filter.DueDate)) {
			continue
		}
		if len(filter.Tags) > 0 && !tagsOverlap(task.Tags, filter.Tags) {
			continue
		}
		result = append(result, copyTask(task))
	}
	return result, nil
}

func (f *fakeTaskService) GetTaskByID(_ context.Context, taskID string) (*models.Task, error) {
	task, exists := f.tasks[taskID]
	if !exists {
		return nil, services.ErrTaskNotFound
	}
	return copyTask(task), nil
}

func (f *fakeTaskService) UpdateTask(_ context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	task, exists := f.tasks[params.ID]
	if !exists {
		return nil, services.ErrTaskNotFound
	}
	if task.OwnerID != params.CallerID {
		return nil, services.ErrTaskAccessDenied
	}

	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.DueDate != nil {
		task.DueDate = params.DueDate
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}
	if params.Tags != nil {
		task.Tags = params.Tags
	}
	task.UpdatedAt = time.Now()
	return copyTask(task), nil
}

func (f *fakeTaskService) DeleteTask(_ context.Context, taskID, callerID string) (*models.Task, error) {
	task, exists := f.tasks[taskID]
	if !exists {
		return nil, services.ErrTaskNotFound
	}
	if task.OwnerID != callerID {
		return nil, services.ErrTaskAccessDenied
	}

	delete(f.tasks, taskID)
	for i, id := range f.order {
		if id == taskID {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return copyTask(task), nil
}

func tagsOverlap(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func copyTask(task *models.Task) *models.Task {
	cp := *task
	cp.Tags = append([]string(nil), task.Tags...)
	if task.DueDate != nil {
		due := *task.DueDate
		cp.DueDate = &due
	}
	return &cp
}

type testEnv struct {
	router *gin.Engine
	auth   *fakeAuthService
	tasks  *fakeTaskService
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)

	auth := newFakeAuthService()
	tasks := newFakeTaskService()
	handler := New(zerolog.Nop(), auth, tasks)

	router := gin.New()

	authRouter := router.Group("/auth")
	authRouter.POST("/register", handler.HandleRegister)
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/profile", handler.HandleAuthMiddleware, handler.HandleProfile)

	taskRouter := router.Group("/tasks", handler.HandleAuthMiddleware)
	taskRouter.POST("", handler.HandleCreateTask)
	taskRouter.GET("", handler.HandleGetTasks)
	taskRouter.GET("/:id", handler.HandleGetTask)
	taskRouter.PUT("/:id", handler.HandleUpdateTask)
	taskRouter.DELETE("/:id", handler.HandleDeleteTask)

	return &testEnv{
		router: router,
		auth:   auth,
		tasks:  tasks,
	}
}
