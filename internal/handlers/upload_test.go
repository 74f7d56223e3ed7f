package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "NCM,CFOP,cClasstrib,Status\n1001,5102,1,OK\n2002,6108,N/A,AUSENTE\n"

type uploadFixture struct {
	store    *MockStore
	reports  *MockReportManager
	parser   *MockParser
	archiver *MockArchiver
}

func newUploadFixture() *uploadFixture {
	return &uploadFixture{
		store:    &MockStore{},
		reports:  &MockReportManager{},
		parser:   &MockParser{},
		archiver: &MockArchiver{},
	}
}

func (f *uploadFixture) app(identity *models.Identity) *fiber.App {
	handler := NewUploadHandler(f.parser, services.NewFileValidator(1024*1024), f.reports, f.store, f.store, f.archiver)
	app := newTestApp(identity)
	app.Post("/upload", handler.Upload)
	app.Get("/companies/:id/last-upload", middleware.CompanyAccess(f.store), handler.LastUpload)
	return app
}

func postUpload(t *testing.T, app *fiber.App, filename string, content []byte, fields map[string]string, query string) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, fields)
	req := httptest.NewRequest("POST", "/upload"+query, body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// TestUpload_WithoutCompany parses and returns the report without persisting
func TestUpload_WithoutCompany(t *testing.T) {
	f := newUploadFixture()
	saved := false
	f.reports.SaveFunc = func(ctx context.Context, companyID int64, report *models.Report) error {
		saved = true
		return nil
	}

	resp := postUpload(t, f.app(userIdentity), "itens.csv", []byte(sampleCSV), nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, saved, "nothing is stored without a company")

	var report models.Report
	decodeJSON(t, resp, &report)
	assert.Equal(t, 2, report.Resumo.TotalCombinacoes)
	assert.Equal(t, 1, report.Resumo.TotalOK)
	assert.Equal(t, 1, report.Resumo.TotalAusente)
	assert.Equal(t, []string{"6108"}, report.CFOPsNA)
	require.Len(t, report.CasosAusentes, 1)
	assert.Equal(t, "2002", report.CasosAusentes[0].NCM)
}

// TestUpload_WithCompany stores the batch and archives the raw file
func TestUpload_WithCompany(t *testing.T) {
	f := newUploadFixture()

	var savedCompany int64
	var savedReport *models.Report
	f.reports.SaveFunc = func(ctx context.Context, companyID int64, report *models.Report) error {
		savedCompany, savedReport = companyID, report
		return nil
	}

	archived := make(chan string, 1)
	f.archiver.ArchiveUploadFunc = func(ctx context.Context, companyID int64, filename string, data []byte) (string, error) {
		archived <- filename
		return "uploads/companies/7/x-itens.csv", nil
	}

	resp := postUpload(t, f.app(adminIdentity), "itens.csv", []byte(sampleCSV), map[string]string{"company_id": "7"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(7), savedCompany)
	require.NotNil(t, savedReport)
	assert.Len(t, savedReport.TabelaConsolidada, 2)

	select {
	case name := <-archived:
		assert.Equal(t, "itens.csv", name)
	case <-time.After(2 * time.Second):
		t.Fatal("upload was not archived")
	}
}

func TestUpload_CompanyFromQuery(t *testing.T) {
	f := newUploadFixture()
	f.store.UserHasCompanyFunc = func(ctx context.Context, userID, companyID int64) (bool, error) {
		return userID == 2 && companyID == 9, nil
	}

	var savedCompany int64
	f.reports.SaveFunc = func(ctx context.Context, companyID int64, report *models.Report) error {
		savedCompany = companyID
		return nil
	}

	resp := postUpload(t, f.app(userIdentity), "itens.csv", []byte(sampleCSV), nil, "?company_id=9")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(9), savedCompany)
}

// TestUpload_ArchiveFailureDoesNotFailUpload checks the archive is best-effort
func TestUpload_ArchiveFailureDoesNotFailUpload(t *testing.T) {
	f := newUploadFixture()
	f.archiver.ArchiveUploadFunc = func(ctx context.Context, companyID int64, filename string, data []byte) (string, error) {
		return "", errors.New("s3 unavailable")
	}

	resp := postUpload(t, f.app(adminIdentity), "itens.csv", []byte(sampleCSV), map[string]string{"company_id": "7"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		identity   *models.Identity
		filename   string
		content    []byte
		fields     map[string]string
		setup      func(f *uploadFixture)
		wantStatus int
	}{
		{
			name:       "missing file",
			identity:   adminIdentity,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "unsupported extension",
			identity:   adminIdentity,
			filename:   "nota.pdf",
			content:    []byte("%PDF-1.4"),
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "extension does not match content",
			identity:   adminIdentity,
			filename:   "itens.xlsx",
			content:    []byte(sampleCSV),
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "invalid company id",
			identity:   adminIdentity,
			filename:   "itens.csv",
			content:    []byte(sampleCSV),
			fields:     map[string]string{"company_id": "abc"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "company not linked to user",
			identity:   userIdentity,
			filename:   "itens.csv",
			content:    []byte(sampleCSV),
			fields:     map[string]string{"company_id": "3"},
			wantStatus: fiber.StatusForbidden,
		},
		{
			name:     "unknown company",
			identity: adminIdentity,
			filename: "itens.csv",
			content:  []byte(sampleCSV),
			fields:   map[string]string{"company_id": "404"},
			setup: func(f *uploadFixture) {
				f.store.GetCompanyFunc = func(ctx context.Context, id int64) (models.Company, error) {
					return models.Company{}, db.ErrNotFound
				}
			},
			wantStatus: fiber.StatusNotFound,
		},
		{
			name:     "parse failure",
			identity: adminIdentity,
			filename: "itens.csv",
			content:  []byte(sampleCSV),
			setup: func(f *uploadFixture) {
				f.parser.ParseFileFunc = func(file io.Reader, filename string) (*services.ParseResult, error) {
					return nil, services.ErrNoSheets
				}
			},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:     "store failure",
			identity: adminIdentity,
			filename: "itens.csv",
			content:  []byte(sampleCSV),
			fields:   map[string]string{"company_id": "7"},
			setup: func(f *uploadFixture) {
				f.reports.SaveFunc = func(ctx context.Context, companyID int64, report *models.Report) error {
					return errors.New("copy failed")
				}
			},
			wantStatus: fiber.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUploadFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			resp := postUpload(t, f.app(tt.identity), tt.filename, tt.content, tt.fields, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestLastUpload(t *testing.T) {
	stored := services.BuildReport([]models.ConsolidatedItem{
		{NCM: "1001", CFOP: "5102", QtdRegistros: 3, Status: "OK"},
	}, &models.CompanyMeta{Nome: "ACME", CNPJ: "12.345.678/0001-90"})

	tests := []struct {
		name       string
		identity   *models.Identity
		path       string
		latest     func(ctx context.Context, companyID int64) (*models.Report, error)
		wantStatus int
	}{
		{
			name:     "report",
			identity: adminIdentity,
			path:     "/companies/5/last-upload",
			latest: func(ctx context.Context, companyID int64) (*models.Report, error) {
				return stored, nil
			},
			wantStatus: fiber.StatusOK,
		},
		{
			name:     "no uploads yet",
			identity: adminIdentity,
			path:     "/companies/5/last-upload",
			latest: func(ctx context.Context, companyID int64) (*models.Report, error) {
				return nil, services.ErrNoUpload
			},
			wantStatus: fiber.StatusNoContent,
		},
		{
			name:     "unknown company",
			identity: adminIdentity,
			path:     "/companies/5/last-upload",
			latest: func(ctx context.Context, companyID int64) (*models.Report, error) {
				return nil, db.ErrNotFound
			},
			wantStatus: fiber.StatusNotFound,
		},
		{
			name:       "user without access",
			identity:   userIdentity,
			path:       "/companies/5/last-upload",
			wantStatus: fiber.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUploadFixture()
			f.reports.LatestFunc = tt.latest

			resp, err := f.app(tt.identity).Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == fiber.StatusOK {
				var report models.Report
				decodeJSON(t, resp, &report)
				require.NotNil(t, report.Empresa)
				assert.Equal(t, "ACME", report.Empresa.Nome)
				assert.Equal(t, 1, report.Resumo.TotalCombinacoes)
			}
		})
	}
}
