package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/middleware"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"
)

// MockParser is a mock implementation of Parser for testing
type MockParser struct {
	ParseFileFunc func(file io.Reader, filename string) (*services.ParseResult, error)
}

func (m *MockParser) ParseFile(file io.Reader, filename string) (*services.ParseResult, error) {
	if m.ParseFileFunc != nil {
		return m.ParseFileFunc(file, filename)
	}
	return services.NewParser().ParseFile(file, filename)
}

// MockReportManager is a mock implementation of ReportManager and ReportForgetter
type MockReportManager struct {
	SaveFunc   func(ctx context.Context, companyID int64, report *models.Report) error
	LatestFunc func(ctx context.Context, companyID int64) (*models.Report, error)
	Forgotten  []int64
}

func (m *MockReportManager) Save(ctx context.Context, companyID int64, report *models.Report) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, companyID, report)
	}
	return nil
}

func (m *MockReportManager) Latest(ctx context.Context, companyID int64) (*models.Report, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, companyID)
	}
	return nil, services.ErrNoUpload
}

func (m *MockReportManager) Forget(ctx context.Context, companyID int64) {
	m.Forgotten = append(m.Forgotten, companyID)
}

// MockArchiver is a mock implementation of Archiver for testing
type MockArchiver struct {
	ArchiveUploadFunc func(ctx context.Context, companyID int64, filename string, data []byte) (string, error)
}

func (m *MockArchiver) ArchiveUpload(ctx context.Context, companyID int64, filename string, data []byte) (string, error) {
	if m.ArchiveUploadFunc != nil {
		return m.ArchiveUploadFunc(ctx, companyID, filename, data)
	}
	return "uploads/companies/mock", nil
}

// MockPurger is a mock implementation of ArchivePurger for testing
type MockPurger struct {
	PurgeCompanyUploadsFunc func(ctx context.Context, companyID int64) (int, error)
}

func (m *MockPurger) PurgeCompanyUploads(ctx context.Context, companyID int64) (int, error) {
	if m.PurgeCompanyUploadsFunc != nil {
		return m.PurgeCompanyUploadsFunc(ctx, companyID)
	}
	return 0, nil
}

// MockStore implements every store interface the handlers use
type MockStore struct {
	UserHasCompanyFunc        func(ctx context.Context, userID, companyID int64) (bool, error)
	GetCompanyFunc            func(ctx context.Context, id int64) (models.Company, error)
	GetUserByUsernameFunc     func(ctx context.Context, username string) (models.User, error)
	GetUserByIDFunc           func(ctx context.Context, id int64) (models.User, error)
	ListUsersFunc             func(ctx context.Context, search string) ([]models.User, error)
	CreateUserFunc            func(ctx context.Context, arg db.CreateUserParams) (models.User, error)
	DeleteUserFunc            func(ctx context.Context, id int64) error
	CreateCompanyFunc         func(ctx context.Context, arg db.CreateCompanyParams) (models.Company, error)
	ListCompaniesFunc         func(ctx context.Context) ([]models.Company, error)
	ListCompaniesForUserFunc  func(ctx context.Context, userID int64) ([]models.Company, error)
	DeleteCompanyFunc         func(ctx context.Context, id int64) error
	AddUserToCompanyFunc      func(ctx context.Context, userID, companyID int64) error
	RemoveUserFromCompanyFunc func(ctx context.Context, userID, companyID int64) error
	ListCompanyUsersFunc      func(ctx context.Context, companyID int64) ([]models.User, error)
	CountNBSFunc              func(ctx context.Context, search string) (int64, error)
	SearchNBSFunc             func(ctx context.Context, arg db.SearchNBSParams) ([]models.NBSEntry, error)
}

func (m *MockStore) UserHasCompany(ctx context.Context, userID, companyID int64) (bool, error) {
	if m.UserHasCompanyFunc != nil {
		return m.UserHasCompanyFunc(ctx, userID, companyID)
	}
	return false, nil
}

func (m *MockStore) GetCompany(ctx context.Context, id int64) (models.Company, error) {
	if m.GetCompanyFunc != nil {
		return m.GetCompanyFunc(ctx, id)
	}
	return models.Company{ID: id, Name: "ACME"}, nil
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	if m.GetUserByUsernameFunc != nil {
		return m.GetUserByUsernameFunc(ctx, username)
	}
	return models.User{}, db.ErrNotFound
}

func (m *MockStore) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(ctx, id)
	}
	return models.User{}, db.ErrNotFound
}

func (m *MockStore) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, search)
	}
	return []models.User{}, nil
}

func (m *MockStore) CreateUser(ctx context.Context, arg db.CreateUserParams) (models.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, arg)
	}
	return models.User{ID: 1, Username: arg.Username, PasswordHash: arg.PasswordHash, IsAdmin: arg.IsAdmin}, nil
}

func (m *MockStore) DeleteUser(ctx context.Context, id int64) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) CreateCompany(ctx context.Context, arg db.CreateCompanyParams) (models.Company, error) {
	if m.CreateCompanyFunc != nil {
		return m.CreateCompanyFunc(ctx, arg)
	}
	return models.Company{ID: 1, Name: arg.Name, Address: arg.Address, CNPJ: arg.CNPJ}, nil
}

func (m *MockStore) ListCompanies(ctx context.Context) ([]models.Company, error) {
	if m.ListCompaniesFunc != nil {
		return m.ListCompaniesFunc(ctx)
	}
	return []models.Company{}, nil
}

func (m *MockStore) ListCompaniesForUser(ctx context.Context, userID int64) ([]models.Company, error) {
	if m.ListCompaniesForUserFunc != nil {
		return m.ListCompaniesForUserFunc(ctx, userID)
	}
	return []models.Company{}, nil
}

func (m *MockStore) DeleteCompany(ctx context.Context, id int64) error {
	if m.DeleteCompanyFunc != nil {
		return m.DeleteCompanyFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) AddUserToCompany(ctx context.Context, userID, companyID int64) error {
	if m.AddUserToCompanyFunc != nil {
		return m.AddUserToCompanyFunc(ctx, userID, companyID)
	}
	return nil
}

func (m *MockStore) RemoveUserFromCompany(ctx context.Context, userID, companyID int64) error {
	if m.RemoveUserFromCompanyFunc != nil {
		return m.RemoveUserFromCompanyFunc(ctx, userID, companyID)
	}
	return nil
}

func (m *MockStore) ListCompanyUsers(ctx context.Context, companyID int64) ([]models.User, error) {
	if m.ListCompanyUsersFunc != nil {
		return m.ListCompanyUsersFunc(ctx, companyID)
	}
	return []models.User{}, nil
}

func (m *MockStore) CountNBS(ctx context.Context, search string) (int64, error) {
	if m.CountNBSFunc != nil {
		return m.CountNBSFunc(ctx, search)
	}
	return 0, nil
}

func (m *MockStore) SearchNBS(ctx context.Context, arg db.SearchNBSParams) ([]models.NBSEntry, error) {
	if m.SearchNBSFunc != nil {
		return m.SearchNBSFunc(ctx, arg)
	}
	return []models.NBSEntry{}, nil
}

// MockTokenIssuer is a mock implementation of TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(identity models.Identity) (string, time.Time, error)
}

func (m *MockTokenIssuer) Issue(identity models.Identity) (string, time.Time, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(identity)
	}
	return "mock-token", time.Now().Add(time.Hour), nil
}

var (
	adminIdentity = &models.Identity{UserID: 1, Username: "admin", IsAdmin: true}
	userIdentity  = &models.Identity{UserID: 2, Username: "ana"}
)

// newTestApp builds an app with the production error handler and a fixed caller
func newTestApp(identity *models.Identity) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	app.Use(func(c fiber.Ctx) error {
		if identity != nil {
			middleware.SetIdentity(c, identity)
		}
		return c.Next()
	})
	return app
}

// multipartBody builds a multipart form with one file part and extra fields
func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
