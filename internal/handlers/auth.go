package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
)

// AccountStore is the account lookup used by login and /me
type AccountStore interface {
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListCompaniesForUser(ctx context.Context, userID int64) ([]models.Company, error)
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(identity models.Identity) (string, time.Time, error)
}

// AuthHandler handles login and the current-user endpoint
type AuthHandler struct {
	store  AccountStore
	tokens TokenIssuer
}

func NewAuthHandler(store AccountStore, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks credentials and returns a token
// POST /api/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.store.GetUserByUsername(c.Context(), req.Username)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		logger.Log.Error().Err(err).Msg("Failed to load user for login")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to log in")
	}
	if err != nil || !services.CheckPassword(user.PasswordHash, req.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, services.ErrInvalidCredentials.Error())
	}

	identity := models.Identity{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
	token, expires, err := h.tokens.Issue(identity)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to issue token")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to log in")
	}

	logger.Log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User logged in")

	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expires.UTC(),
		"user":       identity,
	})
}

// Me returns the caller and the companies they can use
// GET /api/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return utils.NewUnauthorizedError("unauthorized - identity not found")
	}

	user, err := h.store.GetUserByID(c.Context(), identity.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return utils.NewUnauthorizedError("user no longer exists")
	}
	if err != nil {
		return utils.NewInternalError(err)
	}

	var companies []models.Company
	if user.IsAdmin {
		companies, err = h.store.ListCompanies(c.Context())
	} else {
		companies, err = h.store.ListCompaniesForUser(c.Context(), user.ID)
	}
	if err != nil {
		return utils.NewInternalError(err)
	}

	return c.JSON(fiber.Map{
		"user":      user,
		"companies": companies,
	})
}
