package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus-market/internal/auth"
	"campus-market/internal/marketerrors"
	model "campus-market/internal/models"
	"campus-market/services/marketplace/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

type adminMocks struct {
	admin    *MockAdminServiceInterface
	sessions *MockSessionManager
}

func setupAdminRouter(t *testing.T) (adminMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)
	m := adminMocks{
		admin:    NewMockAdminServiceInterface(ctrl),
		sessions: NewMockSessionManager(ctrl),
	}
	h := NewAdminHandler(m.admin, m.sessions)

	router := newTestRouter()
	router.POST("/admin/login", h.LoginHandler)
	router.POST("/admin/logout", h.LogoutHandler)
	router.GET("/admin/stats", h.StatsHandler)
	router.GET("/admin/products", h.ListProductsHandler)
	router.POST("/admin/products/:id/ban", h.BanProductHandler)
	router.GET("/admin/reports", h.ListReportsHandler)
	return m, router
}

// Test LoginHandler
func TestLoginHandler(t *testing.T) {
	expires := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m adminMocks)
		expectedStatus int
		validate       func(t *testing.T, resp envelope)
	}{
		{
			name:        "success",
			requestBody: helpers.LoginRequest{Username: "admin", Password: "admin123"},
			mockSetup: func(m adminMocks) {
				m.sessions.EXPECT().Login(gomock.Any(), "admin", "admin123").
					Return(auth.Session{Token: "signed.jwt.token", ExpiresAt: expires}, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, resp envelope) {
				var login helpers.LoginResponse
				require.NoError(t, json.Unmarshal(resp.Data, &login))
				require.Equal(t, "signed.jwt.token", login.Token)
				require.Equal(t, "2025-01-16T00:00:00Z", login.ExpiresAt)
			},
		},
		{
			name:        "wrong_password",
			requestBody: helpers.LoginRequest{Username: "admin", Password: "guess"},
			mockSetup: func(m adminMocks) {
				m.sessions.EXPECT().Login(gomock.Any(), "admin", "guess").
					Return(auth.Session{}, fmt.Errorf("auth: invalid username or password: %w", marketerrors.ErrUnauthorized))
			},
			expectedStatus: http.StatusUnauthorized,
			validate: func(t *testing.T, resp envelope) {
				require.Equal(t, "unauthorized", resp.Error)
			},
		},
		{
			name:           "missing_password",
			requestBody:    `{"username":"admin"}`,
			mockSetup:      func(m adminMocks) {},
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, resp envelope) {
				require.Equal(t, "missing required fields: password", resp.Error)
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, router := setupAdminRouter(t)
			tc.mockSetup(m)

			w, resp := doRequest(t, router, http.MethodPost, "/admin/login", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			tc.validate(t, resp)
		})
	}
}

// Test LogoutHandler
func TestLogoutHandler(t *testing.T) {
	m, router := setupAdminRouter(t)
	m.sessions.EXPECT().Logout(gomock.Any(), "abc.def.ghi").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

// Test StatsHandler
func TestStatsHandler(t *testing.T) {
	m, router := setupAdminRouter(t)

	m.admin.EXPECT().Stats(gomock.Any()).Return(model.Stats{
		TotalListings:   3,
		PopularCategory: "Cycles",
		Categories:      []model.CategoryStats{{Name: "Cycles", Count: 2, Percentage: 66.7}},
	}, nil)

	w, resp := doRequest(t, router, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.Stats
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	require.Equal(t, 3, stats.TotalListings)
	require.Equal(t, "Cycles", stats.PopularCategory)

	m.admin.EXPECT().Stats(gomock.Any()).Return(model.Stats{}, errors.New("db down"))
	w, _ = doRequest(t, router, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

// Test admin listing and reports
func TestAdminListHandlers(t *testing.T) {
	m, router := setupAdminRouter(t)

	m.admin.EXPECT().ListListings(gomock.Any(), model.ProductFilter{IsSold: boolPtr(true)}, "reported").
		Return([]model.AdminListing{{Product: model.Product{ID: "p1", IsSold: true}, ReportCount: 2, Status: model.StatusReported}}, nil)
	m.admin.EXPECT().ListReports(gomock.Any()).Return([]model.Report{{ID: "r1"}, {ID: "r2"}}, nil)

	w, resp := doRequest(t, router, http.MethodGet, "/admin/products?is_sold=true&status=reported", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listings []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &listings))
	require.Len(t, listings, 1)
	// product fields are flattened next to the moderation fields
	require.Equal(t, "p1", listings[0]["id"])
	require.Equal(t, float64(2), listings[0]["report_count"])
	require.Equal(t, "reported", listings[0]["status"])

	w, resp = doRequest(t, router, http.MethodGet, "/admin/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []model.Report
	require.NoError(t, json.Unmarshal(resp.Data, &reports))
	require.Len(t, reports, 2)
}

// Test BanProductHandler
func TestBanProductHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m adminMocks)
		expectedStatus int
		expectedError  string
	}{
		{
			name:        "ban",
			requestBody: `{"is_banned": true}`,
			mockSetup: func(m adminMocks) {
				m.admin.EXPECT().BanProduct(gomock.Any(), "p1", boolPtr(true)).Return(model.Product{ID: "p1", IsBanned: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "missing_flag",
			requestBody: `{}`,
			mockSetup: func(m adminMocks) {
				m.admin.EXPECT().BanProduct(gomock.Any(), "p1", nil).
					Return(model.Product{}, fmt.Errorf("service: %w", marketerrors.Invalid("is_banned", "must be a boolean value")))
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "is_banned must be a boolean value",
		},
		{
			name:           "string_flag",
			requestBody:    `{"is_banned": "yes"}`,
			mockSetup:      func(m adminMocks) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "is_banned must be a boolean value",
		},
		{
			name:        "unknown_product",
			requestBody: `{"is_banned": true}`,
			mockSetup: func(m adminMocks) {
				m.admin.EXPECT().BanProduct(gomock.Any(), "p1", boolPtr(true)).
					Return(model.Product{}, fmt.Errorf("service: %w", marketerrors.ErrProductNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "product not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, router := setupAdminRouter(t)
			tc.mockSetup(m)

			w, resp := doRequest(t, router, http.MethodPost, "/admin/products/p1/ban", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedError != "" {
				require.Equal(t, tc.expectedError, resp.Error)
				return
			}
			var p model.Product
			require.NoError(t, json.Unmarshal(resp.Data, &p))
			require.True(t, p.IsBanned)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}

	gin.SetMode(gin.TestMode)
	for _, tc := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", tc.header)
		require.Equal(t, tc.want, BearerToken(c), tc.header)
	}
}
