package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ashmitsharp/classtrib-api/internal/database/db"
	"github.com/ashmitsharp/classtrib-api/internal/models"
	"github.com/ashmitsharp/classtrib-api/internal/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthApp(t *testing.T, identity *models.Identity, store *MockStore) *fiber.App {
	t.Helper()
	handler := NewAuthHandler(store, &MockTokenIssuer{})
	app := newTestApp(identity)
	app.Post("/login", handler.Login)
	app.Get("/me", handler.Me)
	return app
}

func TestLogin(t *testing.T) {
	hash, err := services.HashPassword("segredo1")
	require.NoError(t, err)

	store := &MockStore{
		GetUserByUsernameFunc: func(ctx context.Context, username string) (models.User, error) {
			switch username {
			case "maria":
				return models.User{ID: 3, Username: "maria", PasswordHash: hash, IsAdmin: true}, nil
			case "broken":
				return models.User{}, errors.New("db down")
			}
			return models.User{}, db.ErrNotFound
		},
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid credentials", `{"username":"maria","password":"segredo1"}`, fiber.StatusOK},
		{"wrong password", `{"username":"maria","password":"errada"}`, fiber.StatusUnauthorized},
		{"unknown user", `{"username":"ghost","password":"segredo1"}`, fiber.StatusUnauthorized},
		{"missing password", `{"username":"maria"}`, fiber.StatusBadRequest},
		{"malformed body", `{"username":`, fiber.StatusBadRequest},
		{"store failure", `{"username":"broken","password":"x"}`, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := newAuthApp(t, nil, store).Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == fiber.StatusOK {
				var body struct {
					Token string          `json:"token"`
					User  models.Identity `json:"user"`
				}
				decodeJSON(t, resp, &body)
				assert.Equal(t, "mock-token", body.Token)
				assert.Equal(t, int64(3), body.User.UserID)
				assert.True(t, body.User.IsAdmin)
			}
		})
	}
}

func TestMe(t *testing.T) {
	store := &MockStore{
		GetUserByIDFunc: func(ctx context.Context, id int64) (models.User, error) {
			switch id {
			case 1:
				return models.User{ID: 1, Username: "admin", IsAdmin: true}, nil
			case 2:
				return models.User{ID: 2, Username: "ana"}, nil
			}
			return models.User{}, db.ErrNotFound
		},
		ListCompaniesFunc: func(ctx context.Context) ([]models.Company, error) {
			return []models.Company{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}, nil
		},
		ListCompaniesForUserFunc: func(ctx context.Context, userID int64) ([]models.Company, error) {
			return []models.Company{{ID: 2, Name: "B"}}, nil
		},
	}

	tests := []struct {
		name          string
		identity      *models.Identity
		wantStatus    int
		wantCompanies int
	}{
		{"admin sees every company", adminIdentity, fiber.StatusOK, 2},
		{"user sees associated companies", userIdentity, fiber.StatusOK, 1},
		{"deleted user", &models.Identity{UserID: 50}, fiber.StatusUnauthorized, 0},
		{"anonymous", nil, fiber.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := newAuthApp(t, tt.identity, store).Test(httptest.NewRequest("GET", "/me", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == fiber.StatusOK {
				var body struct {
					User      map[string]interface{} `json:"user"`
					Companies []models.Company       `json:"companies"`
				}
				decodeJSON(t, resp, &body)
				assert.Len(t, body.Companies, tt.wantCompanies)
				assert.NotContains(t, body.User, "password_hash")
			}
		})
	}
}
