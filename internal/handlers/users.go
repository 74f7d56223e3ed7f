package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
)

// UserStore is the user administration persistence
type UserStore interface {
	ListUsers(ctx context.Context, search string) ([]models.User, error)
	CreateUser(ctx context.Context, arg db.CreateUserParams) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UsersHandler is the admin-only user management API
type UsersHandler struct {
	store UserStore
}

func NewUsersHandler(store UserStore) *UsersHandler {
	return &UsersHandler{store: store}
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	IsAdmin  bool   `json:"is_admin"`
}

// ListUsers returns users, optionally filtered by a username substring
// GET /api/users?q=
func (h *UsersHandler) ListUsers(c fiber.Ctx) error {
	users, err := h.store.ListUsers(c.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list users")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to list users")
	}
	return c.JSON(users)
}

// CreateUser adds an account
// POST /api/users
func (h *UsersHandler) CreateUser(c fiber.Ctx) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		return utils.NewInternalError(err)
	}

	user, err := h.store.CreateUser(c.Context(), db.CreateUserParams{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return utils.NewConflictError("username already exists")
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to create user")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to create user")
	}

	logger.Log.Info().Int64("user_id", user.ID).Str("username", user.Username).Bool("is_admin", user.IsAdmin).Msg("User created")
	return c.Status(fiber.StatusCreated).JSON(user)
}

// DeleteUser removes an account. Admins cannot delete themselves.
// DELETE /api/users/:id
func (h *UsersHandler) DeleteUser(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return utils.NewBadRequestError("invalid user id", nil)
	}

	if identity, ok := middleware.GetIdentity(c); ok && identity.UserID == id {
		return utils.NewBadRequestError("cannot delete your own account", nil)
	}

	if err := h.store.DeleteUser(c.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return utils.NewNotFoundError("user")
		}
		return utils.NewInternalError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
