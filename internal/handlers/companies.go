package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
)

// CompanyStore is the company and membership persistence
type CompanyStore interface {
	CreateCompany(ctx context.Context, arg db.CreateCompanyParams) (models.Company, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListCompaniesForUser(ctx context.Context, userID int64) ([]models.Company, error)
	DeleteCompany(ctx context.Context, id int64) error
	AddUserToCompany(ctx context.Context, userID, companyID int64) error
	RemoveUserFromCompany(ctx context.Context, userID, companyID int64) error
	ListCompanyUsers(ctx context.Context, companyID int64) ([]models.User, error)
}

// ReportForgetter drops cached reports
type ReportForgetter interface {
	Forget(ctx context.Context, companyID int64)
}

// ArchivePurger removes the archived uploads of a company
type ArchivePurger interface {
	PurgeCompanyUploads(ctx context.Context, companyID int64) (int, error)
}

const purgeTimeout = 2 * time.Minute

// CompaniesHandler manages companies and user associations
type CompaniesHandler struct {
	store   CompanyStore
	reports ReportForgetter
	purger  ArchivePurger
}

// NewCompaniesHandler creates a companies handler. purger may be nil.
func NewCompaniesHandler(store CompanyStore, reports ReportForgetter, purger ArchivePurger) *CompaniesHandler {
	return &CompaniesHandler{store: store, reports: reports, purger: purger}
}

type CreateCompanyRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	CNPJ    string  `json:"cnpj" validate:"required,max=32"`
}

// ListCompanies returns every company for admins and the associated ones otherwise
// GET /api/companies
func (h *CompaniesHandler) ListCompanies(c fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return utils.NewUnauthorizedError("unauthorized - identity not found")
	}

	var (
		companies []models.Company
		err       error
	)
	if identity.IsAdmin {
		companies, err = h.store.ListCompanies(c.Context())
	} else {
		companies, err = h.store.ListCompaniesForUser(c.Context(), identity.UserID)
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list companies")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to list companies")
	}

	return c.JSON(companies)
}

// CreateCompany adds a company
// POST /api/companies
func (h *CompaniesHandler) CreateCompany(c fiber.Ctx) error {
	var req CreateCompanyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	name := strings.TrimSpace(req.Name)
	cnpj := strings.TrimSpace(req.CNPJ)
	if name == "" || cnpj == "" {
		return utils.NewBadRequestError("name and cnpj are required", nil)
	}

	var address *string
	if req.Address != nil {
		if a := strings.TrimSpace(*req.Address); a != "" {
			address = &a
		}
	}

	company, err := h.store.CreateCompany(c.Context(), db.CreateCompanyParams{
		Name:    name,
		Address: address,
		CNPJ:    cnpj,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to create company")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to create company")
	}

	logger.Log.Info().Int64("company_id", company.ID).Str("name", company.Name).Msg("Company created")
	return c.Status(fiber.StatusCreated).JSON(company)
}

// DeleteCompany removes a company with all of its upload batches and archived files
// DELETE /api/companies/:id
func (h *CompaniesHandler) DeleteCompany(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return utils.NewBadRequestError("invalid company id", nil)
	}

	if err := h.store.DeleteCompany(c.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return utils.NewNotFoundError("company")
		}
		return utils.NewInternalError(err)
	}

	h.reports.Forget(c.Context(), id)
	h.purgeArchives(id)
	return c.SendStatus(fiber.StatusNoContent)
}

// purgeArchives deletes the company's archived uploads in the background
func (h *CompaniesHandler) purgeArchives(companyID int64) {
	if h.purger == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()

		n, err := h.purger.PurgeCompanyUploads(ctx, companyID)
		if err != nil {
			logger.Log.Warn().Err(err).Int64("company_id", companyID).Int("deleted", n).Msg("Failed to purge archived uploads")
			return
		}
		logger.Log.Info().Int64("company_id", companyID).Int("deleted", n).Msg("Purged archived uploads")
	}()
}

// AddUser links a user to a company
// POST /api/companies/:id/users/:userId
func (h *CompaniesHandler) AddUser(c fiber.Ctx) error {
	companyID, userID, err := membershipParams(c)
	if err != nil {
		return err
	}

	if err := h.store.AddUserToCompany(c.Context(), userID, companyID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return utils.NewNotFoundError("user or company")
		}
		return utils.NewInternalError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveUser unlinks a user from a company
// DELETE /api/companies/:id/users/:userId
func (h *CompaniesHandler) RemoveUser(c fiber.Ctx) error {
	companyID, userID, err := membershipParams(c)
	if err != nil {
		return err
	}

	if err := h.store.RemoveUserFromCompany(c.Context(), userID, companyID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return utils.NewNotFoundError("association")
		}
		return utils.NewInternalError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListUsers returns the users linked to a company
// GET /api/companies/:id/users
func (h *CompaniesHandler) ListUsers(c fiber.Ctx) error {
	companyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || companyID <= 0 {
		return utils.NewBadRequestError("invalid company id", nil)
	}

	users, err := h.store.ListCompanyUsers(c.Context(), companyID)
	if err != nil {
		return utils.NewInternalError(err)
	}
	return c.JSON(users)
}

func membershipParams(c fiber.Ctx) (int64, int64, error) {
	companyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || companyID <= 0 {
		return 0, 0, utils.NewBadRequestError("invalid company id", nil)
	}
	userID, err := strconv.ParseInt(c.Params("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return 0, 0, utils.NewBadRequestError("invalid user id", nil)
	}
	return companyID, userID, nil
}
