package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/ashmitsharp/classtrib-api/pkg/logger"
	"github.com/gofiber/fiber/v3"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportLoader returns the latest report of a company
type ReportLoader interface {
	Latest(ctx context.Context, companyID int64) (*models.Report, error)
}

// ReportHandler serves the grouped, filtered view of a company's latest batch
type ReportHandler struct {
	reports ReportLoader
}

func NewReportHandler(reports ReportLoader) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GetReport returns one page of NCM groups
// GET /api/companies/:id/report?status=ALL|OK|MISSING|UNRESOLVED_SECONDARY&q=&page=1
func (h *ReportHandler) GetReport(c fiber.Ctx) error {
	report, filter, err := h.load(c)
	if err != nil {
		return err
	}

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		page = 1
	}

	return c.JSON(services.BuildGroupedPage(report, filter, page))
}

// ExportReport downloads every filtered group as xlsx
// GET /api/companies/:id/report/export?status=&q=
func (h *ReportHandler) ExportReport(c fiber.Ctx) error {
	report, filter, err := h.load(c)
	if err != nil {
		return err
	}

	groups := services.GroupByNCM(services.FilterItems(report.TabelaConsolidada, filter, report.CFOPsNA))
	content, err := services.ExportGroups(groups)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to build export")
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "failed to build export")
	}

	companyID, _ := middleware.GetCompanyID(c)
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="analise_empresa_%d.xlsx"`, companyID))
	return c.Send(content)
}

// load fetches the latest report and parses the shared filter params.
// A company without uploads yields an empty report.
func (h *ReportHandler) load(c fiber.Ctx) (*models.Report, services.ReportFilter, error) {
	companyID, ok := middleware.GetCompanyID(c)
	if !ok {
		return nil, services.ReportFilter{}, utils.NewBadRequestError("invalid company id", nil)
	}

	status, ok := services.ParseStatusFilter(c.Query("status"))
	if !ok {
		return nil, services.ReportFilter{}, utils.NewBadRequestError("invalid status filter", fiber.Map{
			"allowed": []models.StatusFilter{
				models.StatusFilterAll,
				models.StatusFilterOK,
				models.StatusFilterMissing,
				models.StatusFilterUnresolvedSecondary,
			},
		})
	}
	filter := services.ReportFilter{Status: status, Query: c.Query("q")}

	report, err := h.reports.Latest(c.Context(), companyID)
	switch {
	case errors.Is(err, services.ErrNoUpload):
		report = services.BuildReport(nil, nil)
	case errors.Is(err, db.ErrNotFound):
		return nil, filter, utils.NewNotFoundError("company")
	case err != nil:
		logger.Log.Error().Err(err).Int64("company_id", companyID).Msg("Failed to load report")
		return nil, filter, utils.NewInternalError(err)
	}

	return report, filter, nil
}
