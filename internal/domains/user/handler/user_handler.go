package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pointshop-backend/internal/domains/user/model"
	"pointshop-backend/internal/domains/user/service"
	"pointshop-backend/internal/shared/middleware"
	"pointshop-backend/internal/shared/response"
	"pointshop-backend/pkg/logger"
)

type UserHandler struct {
	service service.Service
}

func NewUserHandler(service service.Service) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes mounts the open auth routes on public and the profile on protected
func (h *UserHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	users := public.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
	}

	profile := protected.Group("/users")
	{
		profile.GET("/profile", h.GetProfile)
		profile.PUT("/profile", h.UpdateProfile)
	}
}

// Register - POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// Login - POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// GetProfile - GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// UpdateProfile - PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	var req model.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	var userErr *model.UserError
	if !errors.As(err, &userErr) {
		// Never expose internals, the cause goes to the log
		logger.Error("User request failed", err)
		response.InternalServerError(c)
		return
	}

	switch userErr.Code {
	// 400 Bad Request
	case model.ErrCodeValidation:
		var fieldErrs validation.Errors
		if errors.As(userErr.Err, &fieldErrs) {
			response.ErrorWithDetails(c, http.StatusBadRequest, userErr.Code, userErr.Message, fieldErrs)
			return
		}
		response.ErrorResponse(c, http.StatusBadRequest, userErr.Code, userErr.Message)

	// 401 Unauthorized
	case model.ErrCodeInvalidCredentials:
		response.ErrorResponse(c, http.StatusUnauthorized, userErr.Code, userErr.Message)

	// 404 Not Found
	case model.ErrCodeUserNotFound:
		response.ErrorResponse(c, http.StatusNotFound, userErr.Code, userErr.Message)

	// 409 Conflict
	case model.ErrCodeEmailTaken, model.ErrCodeUsernameTaken:
		response.ErrorResponse(c, http.StatusConflict, userErr.Code, userErr.Message)

	default:
		logger.Error("User request failed", err)
		response.InternalServerError(c)
	}
}

func (h *UserHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeValidation, "Invalid request body")
		return false
	}
	return true
}
