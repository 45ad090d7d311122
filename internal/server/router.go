package server

import (
	"context"
	"net/http"
	"time"

	admin "campus-market/internal/adminService"
	"campus-market/internal/auth"
	bidding "campus-market/internal/biddingService"
	product "campus-market/internal/productService"
	"campus-market/internal/repository"
	handler "campus-market/services/marketplace/handler"
	"campus-market/services/marketplace/helpers"
	"campus-market/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer is built from
type Dependencies struct {
	Store    repository.MarketDB
	Products *product.ProductService
	Bidding  *bidding.BiddingService
	Admin    *admin.AdminService
	Auth     *auth.Authenticator
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	helpers.UseJSONFieldNames()

	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	productHandler := handler.NewProductHandler(deps.Products, deps.Admin)
	biddingHandler := handler.NewBiddingHandler(deps.Bidding)
	adminHandler := handler.NewAdminHandler(deps.Admin, deps.Auth)

	router.GET("/healthz", healthHandler(deps.Store))

	products := router.Group("/products")
	{
		products.GET("", productHandler.ListProductsHandler)
		products.POST("", productHandler.CreateProductHandler)
		products.GET("/:id", productHandler.GetProductHandler)
		products.POST("/:id/sold", productHandler.ToggleSoldHandler)
		products.POST("/:id/reports", productHandler.ReportProductHandler)
		products.GET("/:id/bids", biddingHandler.ListBidsHandler)
		products.GET("/:id/bids/highest", biddingHandler.HighestBidHandler)
	}

	bids := router.Group("/bids")
	{
		bids.GET("", biddingHandler.ListBidsHandler)
		bids.POST("", biddingHandler.PlaceBidHandler)
	}

	router.POST("/admin/login", adminHandler.LoginHandler)

	adminGroup := router.Group("/admin", AdminAuthMiddleware(deps.Auth))
	{
		adminGroup.POST("/logout", adminHandler.LogoutHandler)
		adminGroup.GET("/stats", adminHandler.StatsHandler)
		adminGroup.GET("/products", adminHandler.ListProductsHandler)
		adminGroup.POST("/products/:id/sold", productHandler.ToggleSoldHandler)
		adminGroup.POST("/products/:id/ban", adminHandler.BanProductHandler)
		adminGroup.GET("/reports", adminHandler.ListReportsHandler)
	}

	return router
}

func healthHandler(store repository.MarketDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			utils.JSONError(c, http.StatusServiceUnavailable, err, "store unavailable")
			utils.Error("healthz: store ping failed", map[string]any{"error": err.Error()})
			return
		}
		utils.JSONResponse(c, http.StatusOK, gin.H{"store": "ok"}, "healthy")
	}
}
