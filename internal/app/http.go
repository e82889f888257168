package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/mkravets/todo-api/internal/config"
	"github.com/mkravets/todo-api/internal/delivery/http/v1"
	"github.com/mkravets/todo-api/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	jwtCfg := config.Global().JWT

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
	)
	taskService := services.NewTaskService(
		globalLogger,
		globalPostgresPool,
	)
	v1Handler := v1.New(globalLogger, authService, taskService)

	authRouter := router.Group("/auth")
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/login", v1Handler.HandleLogin)
	authRouter.POST("/profile", v1Handler.HandleAuthMiddleware, v1Handler.HandleProfile)

	taskRouter := router.Group("/tasks", v1Handler.HandleAuthMiddleware)
	taskRouter.POST("", v1Handler.HandleCreateTask)
	taskRouter.GET("", v1Handler.HandleGetTasks)
	taskRouter.GET("/:id", v1Handler.HandleGetTask)
	taskRouter.PUT("/:id", v1Handler.HandleUpdateTask)
	taskRouter.DELETE("/:id", v1Handler.HandleDeleteTask)
}
