package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkravets/todo-api/internal/services"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=255"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("email", req.Email).
		Msg("register request")

	user, err := h.auth.Register(c, services.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, registerResponse{
		ID:    user.ID,
		Email: user.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=255"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			abort(c, newUnauthorizedError("invalid credentials"))
		case errors.Is(err, services.ErrUserPasswordMismatch):
			abort(c, newUnauthorizedError("invalid credentials"))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
	})
}

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// HandleProfile echoes the identity decoded from the bearer token.
func (h *handlerImpl) HandleProfile(c *gin.Context) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	email, _ := getStringFromContext(c, userEmailCtxKey)

	c.JSON(http.StatusOK, profileResponse{
		ID:    userID,
		Email: email,
	})
}
