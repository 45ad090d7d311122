package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"campus-market/internal/auth"
	model "campus-market/internal/models"
	"campus-market/services/marketplace/helpers"
	"campus-market/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=admin_handler.go -destination=mock_admin_service.go -package=handler

type AdminServiceInterface interface {
	ListListings(ctx context.Context, filter model.ProductFilter, status string) ([]model.AdminListing, error)
	BanProduct(ctx context.Context, productID string, isBanned *bool) (model.Product, error)
	ListReports(ctx context.Context) ([]model.Report, error)
	Stats(ctx context.Context) (model.Stats, error)
}

type SessionManager interface {
	Login(ctx context.Context, username, password string) (auth.Session, error)
	Logout(ctx context.Context, token string) error
}

// AdminHandler serves the moderation endpoints
type AdminHandler struct {
	admin    AdminServiceInterface
	sessions SessionManager
}

func NewAdminHandler(admin AdminServiceInterface, sessions SessionManager) *AdminHandler {
	return &AdminHandler{admin: admin, sessions: sessions}
}

// LoginHandler handles POST /admin/login
func (h *AdminHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		helpers.RespondError(c, "LoginHandler", err, nil)
		return
	}

	session, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
	}, "logged in successfully")
	helpers.LogSuccess("LoginHandler", "admin logged in", map[string]any{"username": req.Username})
}

// LogoutHandler handles POST /admin/logout
func (h *AdminHandler) LogoutHandler(c *gin.Context) {
	token := BearerToken(c)
	if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
		helpers.RespondError(c, "LogoutHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "logged out successfully")
	helpers.LogSuccess("LogoutHandler", "admin logged out", map[string]any{"admin": c.GetString(ContextAdminKey)})
}

// StatsHandler handles GET /admin/stats
func (h *AdminHandler) StatsHandler(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "StatsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, stats, "stats retrieved successfully")
}

// ListProductsHandler handles GET /admin/products?status=all|active|sold|reported|banned
func (h *AdminHandler) ListProductsHandler(c *gin.Context) {
	filter, err := helpers.ParseProductFilter(c)
	if err != nil {
		helpers.RespondError(c, "AdminListProductsHandler", err, nil)
		return
	}

	status := c.Query("status")
	listings, err := h.admin.ListListings(c.Request.Context(), filter, status)
	if err != nil {
		helpers.RespondError(c, "AdminListProductsHandler", err, map[string]any{"status": status})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listings, "products retrieved successfully")
}

// BanProductHandler handles POST /admin/products/:id/ban
func (h *AdminHandler) BanProductHandler(c *gin.Context) {
	productID := c.Param("id")

	var req helpers.BanRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		helpers.RespondError(c, "BanProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	updated, err := h.admin.BanProduct(c.Request.Context(), productID, req.IsBanned)
	if err != nil {
		helpers.RespondError(c, "BanProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, updated, "product moderation updated successfully")
	helpers.LogSuccess("BanProductHandler", "product moderation updated successfully", map[string]any{
		"product_id": updated.ID,
		"is_banned":  updated.IsBanned,
		"admin":      c.GetString(ContextAdminKey),
	})
}

// ListReportsHandler handles GET /admin/reports
func (h *AdminHandler) ListReportsHandler(c *gin.Context) {
	reports, err := h.admin.ListReports(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "ListReportsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, reports, "reports retrieved successfully")
	helpers.LogSuccess("ListReportsHandler", "reports retrieved successfully", map[string]any{"count": len(reports)})
}

// ContextAdminKey is where the auth middleware stores the admin's username
const ContextAdminKey = "admin_subject"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
