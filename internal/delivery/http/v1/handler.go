package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkravets/todo-api/internal/services"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleProfile(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
}

type handlerImpl struct {
	logger zerolog.Logger
	auth   services.AuthService
	tasks  services.TaskService
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
) Handler {
	return &handlerImpl{
		logger: logger,
		auth:   authService,
		tasks:  taskService,
	}
}
