package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	apierrors "github.com/nirmaan-tracker/nirmaan-api/internal/errors"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"go.uber.org/zap"
)

// UserHandler serves account management.
type UserHandler struct {
	userService *services.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers lists accounts, optionally filtered by role, status and q.
func (h *UserHandler) ListUsers(c *gin.Context) {
	var filter repository.UserFilter
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		if !role.Valid() {
			apierrors.BadRequest(c, "Invalid role")
			return
		}
		filter.Role = &role
	}
	if raw := c.Query("status"); raw != "" {
		status := models.UserStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		filter.Status = &status
	}
	filter.Search = c.Query("q")

	users, err := h.userService.ListUsers(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDTOs(users),
	})
}

// GetUser returns one account.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser stores a new account. When no password is given one is
// generated and returned once in temp_password.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		FirstName string          `json:"first_name"`
		LastName  string          `json:"last_name"`
		Email     string          `json:"email"`
		Username  string          `json:"username"`
		Phone     string          `json:"phone"`
		Role      models.UserRole `json:"role"`
		Password  string          `json:"password"`
	}

	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, generated, err := h.userService.CreateUser(services.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Phone:     req.Phone,
		Role:      req.Role,
		Password:  req.Password,
		Actor:     viewer,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := gin.H{"user": dto.ToUserDTO(*user)}
	if generated != "" {
		resp["temp_password"] = generated
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateUser applies a partial edit. Deactivating a user with pending tasks is refused.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		FirstName *string            `json:"first_name"`
		LastName  *string            `json:"last_name"`
		Email     *string            `json:"email"`
		Username  *string            `json:"username"`
		Phone     *string            `json:"phone"`
		Role      *models.UserRole   `json:"role"`
		Status    *models.UserStatus `json:"status"`
		Password  *string            `json:"password"`
	}

	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(id, services.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Phone:     req.Phone,
		Role:      req.Role,
		Status:    req.Status,
		Password:  req.Password,
		Actor:     viewer,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes an account with no pending tasks. Admin only.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id", "user")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(id, viewer); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
