package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
)

const archiveTimeout = 30 * time.Second

// Parser turns an uploaded spreadsheet into a report
type Parser interface {
	ParseFile(file io.Reader, filename string) (*services.ParseResult, error)
}

// ReportManager stores batches and rebuilds the latest report of a company
type ReportManager interface {
	Save(ctx context.Context, companyID int64, report *models.Report) error
	Latest(ctx context.Context, companyID int64) (*models.Report, error)
}

// Archiver keeps a copy of the raw upload
type Archiver interface {
	ArchiveUpload(ctx context.Context, companyID int64, filename string, data []byte) (string, error)
}

// UploadHandler handles spreadsheet uploads and the last-upload lookup
type UploadHandler struct {
	parser    Parser
	validator *services.FileValidator
	reports   ReportManager
	access    middleware.CompanyAccessChecker
	companies CompanyGetter
	archiver  Archiver
}

// CompanyGetter loads one company
type CompanyGetter interface {
	GetCompany(ctx context.Context, id int64) (models.Company, error)
}

// NewUploadHandler creates an upload handler. archiver may be nil.
func NewUploadHandler(parser Parser, validator *services.FileValidator, reports ReportManager, access middleware.CompanyAccessChecker, companies CompanyGetter, archiver Archiver) *UploadHandler {
	return &UploadHandler{
		parser:    parser,
		validator: validator,
		reports:   reports,
		access:    access,
		companies: companies,
		archiver:  archiver,
	}
}

// Upload parses a spreadsheet and returns its report. With a company_id the items
// are stored as that company's newest batch.
// POST /api/upload (multipart: file, company_id?)
func (h *UploadHandler) Upload(c fiber.Ctx) error {
	// 1. Read the file part
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "file is required")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "failed to read uploaded file")
	}

	// 2. Validate name, size and content
	if result := h.validator.Validate(data, fileHeader.Filename); !result.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid file",
			"details": result.Errors,
		})
	}

	// 3. Resolve the optional company
	companyID, err := h.resolveCompany(c)
	if err != nil {
		return err
	}

	// 4. Parse
	result, err := h.parser.ParseFile(bytes.NewReader(data), fileHeader.Filename)
	if err != nil {
		logger.Log.Warn().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to parse upload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "failed to parse file",
			"details": err.Error(),
		})
	}

	logger.Log.Info().
		Str("filename", fileHeader.Filename).
		Int("accepted", result.Accepted).
		Int("dropped", result.Dropped).
		Int64("company_id", companyID).
		Msg("Parsed upload")

	// 5. Persist when a company was given
	if companyID > 0 {
		if err := h.reports.Save(c.Context(), companyID, result.Report); err != nil {
			logger.Log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to store upload")
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to store upload")
		}
		h.archive(companyID, fileHeader.Filename, data)
	}

	return c.JSON(result.Report)
}

// LastUpload returns the report of the company's newest batch, or 204 when there is none
// GET /api/companies/:id/last-upload
func (h *UploadHandler) LastUpload(c fiber.Ctx) error {
	companyID, ok := middleware.GetCompanyID(c)
	if !ok {
		return utils.NewBadRequestError("invalid company id", nil)
	}

	report, err := h.reports.Latest(c.Context(), companyID)
	switch {
	case errors.Is(err, services.ErrNoUpload):
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, db.ErrNotFound):
		return utils.NewNotFoundError("company")
	case err != nil:
		logger.Log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to load last upload")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to load last upload")
	}

	return c.JSON(report)
}

// resolveCompany reads company_id from the form or the query string and checks access.
// Returns 0 when no company was given.
func (h *UploadHandler) resolveCompany(c fiber.Ctx) (int64, error) {
	raw := strings.TrimSpace(c.FormValue("company_id"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("company_id"))
	}
	if raw == "" {
		return 0, nil
	}

	companyID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || companyID <= 0 {
		return 0, utils.NewBadRequestError("invalid company_id", nil)
	}

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return 0, utils.NewUnauthorizedError("unauthorized - identity not found")
	}

	if !identity.IsAdmin {
		allowed, err := h.access.UserHasCompany(c.Context(), identity.UserID, companyID)
		if err != nil {
			return 0, utils.NewInternalError(err)
		}
		if !allowed {
			return 0, utils.NewForbiddenError("no access to this company")
		}
	}

	if _, err := h.companies.GetCompany(c.Context(), companyID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, utils.NewNotFoundError("company")
		}
		return 0, utils.NewInternalError(err)
	}

	return companyID, nil
}

// archive stores the raw file in the background; the response never waits on it
func (h *UploadHandler) archive(companyID int64, filename string, data []byte) {
	if h.archiver == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		key, err := h.archiver.ArchiveUpload(ctx, companyID, filename, data)
		if err != nil {
			logger.Log.Warn().Err(err).Int64("company_id", companyID).Str("filename", filename).Msg("Failed to archive upload")
			return
		}
		logger.Log.Info().Str("key", key).Int64("company_id", companyID).Msg("Archived upload")
	}()
}
