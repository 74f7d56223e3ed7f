package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
)

const (
	identityKey  = "identity"
	companyIDKey = "company_id"
)

// TokenVerifier validates a bearer token
type TokenVerifier interface {
	Verify(raw string) (*models.Identity, error)
}

// CompanyAccessChecker answers whether a non-admin user is linked to a company
type CompanyAccessChecker interface {
	UserHasCompany(ctx context.Context, userID, companyID int64) (bool, error)
}

// JWTAuth validates the bearer token and stores the identity in Locals
func JWTAuth(verifier TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.NewUnauthorizedError("Missing authorization token")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			return utils.NewUnauthorizedError("Invalid authorization header format")
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			return utils.NewUnauthorizedError("Invalid or expired token")
		}

		SetIdentity(c, identity)
		return c.Next()
	}
}

// RequireAdmin rejects non-admin identities. Must run after JWTAuth.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return utils.NewUnauthorizedError("unauthorized - identity not found")
		}
		if !identity.IsAdmin {
			return utils.NewForbiddenError("admin access required")
		}
		return c.Next()
	}
}

// CompanyAccess parses the :id route param and checks the caller may use that company.
// Admins pass for every company.
func CompanyAccess(checker CompanyAccessChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		identity, ok := GetIdentity(c)
		if !ok {
			return utils.NewUnauthorizedError("unauthorized - identity not found")
		}

		companyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || companyID <= 0 {
			return utils.NewBadRequestError("invalid company id", nil)
		}

		if !identity.IsAdmin {
			allowed, err := checker.UserHasCompany(c.Context(), identity.UserID, companyID)
			if err != nil {
				logger.Log.Error().Err(err).Int64("user_id", identity.UserID).Int64("company_id", companyID).Msg("Failed to check company access")
				return utils.NewInternalError(err)
			}
			if !allowed {
				return utils.NewForbiddenError("no access to this company")
			}
		}

		c.Locals(companyIDKey, companyID)
		return c.Next()
	}
}

// GetIdentity returns the identity set by JWTAuth
func GetIdentity(c fiber.Ctx) (*models.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*models.Identity)
	return identity, ok && identity != nil
}

// SetIdentity stores an identity in Locals
func SetIdentity(c fiber.Ctx, identity *models.Identity) {
	c.Locals(identityKey, identity)
}

// GetCompanyID returns the company id set by CompanyAccess
func GetCompanyID(c fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(companyIDKey).(int64)
	return id, ok
}
