package handler

import (
	"context"
	"net/http"

	admin "campus-market/internal/adminService"
	model "campus-market/internal/models"
	product "campus-market/internal/productService"
	"campus-market/services/marketplace/helpers"
	"campus-market/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=product_handler.go -destination=mock_services.go -package=handler

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, in product.CreateInput) (model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	ToggleSold(ctx context.Context, productID string, isSold *bool) (model.Product, error)
}

type ReportServiceInterface interface {
	ReportProduct(ctx context.Context, productID string, in admin.ReportInput) (model.Report, error)
}

type ProductHandler struct {
	service ProductServiceInterface
	reports ReportServiceInterface
}

func NewProductHandler(service ProductServiceInterface, reports ReportServiceInterface) *ProductHandler {
	return &ProductHandler{service: service, reports: reports}
}

// ListProductsHandler handles GET /products
func (h *ProductHandler) ListProductsHandler(c *gin.Context) {
	filter, err := helpers.ParseProductFilter(c)
	if err != nil {
		helpers.RespondError(c, "ListProductsHandler", err, nil)
		return
	}

	products, err := h.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		helpers.RespondError(c, "ListProductsHandler", err, map[string]any{"category": filter.Category})
		return
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
	helpers.LogSuccess("ListProductsHandler", "products retrieved successfully", map[string]any{
		"category": filter.Category,
		"search":   filter.Search,
		"count":    len(products),
	})
}

// CreateProductHandler handles POST /products
func (h *ProductHandler) CreateProductHandler(c *gin.Context) {
	var req helpers.CreateProductRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		helpers.RespondError(c, "CreateProductHandler", err, nil)
		return
	}

	created, err := h.service.CreateProduct(c.Request.Context(), product.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Price:         req.Price,
		SellerContact: req.SellerContact,
		Location:      req.Location,
		IsCoupon:      req.IsCoupon,
		MessName:      req.MessName,
		MealType:      req.MealType,
		Quantity:      req.Quantity,
	})
	if err != nil {
		helpers.RespondError(c, "CreateProductHandler", err, map[string]any{"title": req.Title})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, created, "product created successfully")
	helpers.LogSuccess("CreateProductHandler", "product created successfully", map[string]any{
		"product_id": created.ID,
		"category":   created.Category,
		"is_coupon":  created.IsCoupon,
	})
}

// GetProductHandler handles GET /products/:id
func (h *ProductHandler) GetProductHandler(c *gin.Context) {
	productID := c.Param("id")
	p, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "GetProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, p, "product retrieved successfully")
}

// ToggleSoldHandler handles POST /products/:id/sold
func (h *ProductHandler) ToggleSoldHandler(c *gin.Context) {
	productID := c.Param("id")

	var req helpers.ToggleSoldRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		helpers.RespondError(c, "ToggleSoldHandler", err, map[string]any{"product_id": productID})
		return
	}

	updated, err := h.service.ToggleSold(c.Request.Context(), productID, req.IsSold)
	if err != nil {
		helpers.RespondError(c, "ToggleSoldHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, updated, "product status updated successfully")
	helpers.LogSuccess("ToggleSoldHandler", "product status updated successfully", map[string]any{
		"product_id": updated.ID,
		"is_sold":    updated.IsSold,
	})
}

// ReportProductHandler handles POST /products/:id/reports
func (h *ProductHandler) ReportProductHandler(c *gin.Context) {
	productID := c.Param("id")

	var req helpers.ReportRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		helpers.RespondError(c, "ReportProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	report, err := h.reports.ReportProduct(c.Request.Context(), productID, admin.ReportInput{
		Reason:          req.Reason,
		ReporterContact: req.ReporterContact,
	})
	if err != nil {
		helpers.RespondError(c, "ReportProductHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, report, "report submitted successfully")
	helpers.LogSuccess("ReportProductHandler", "report submitted successfully", map[string]any{
		"report_id":  report.ID,
		"product_id": productID,
	})
}
