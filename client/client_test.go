package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	admin "campus-market/internal/adminService"
	"campus-market/internal/auth"
	bidding "campus-market/internal/biddingService"
	"campus-market/internal/clock"
	model "campus-market/internal/models"
	product "campus-market/internal/productService"
	"campus-market/internal/repository"
	"campus-market/internal/server"
	"campus-market/services/marketplace/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	clk := clock.NewSteppingClock(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC), time.Second)
	router := server.SetupRouter(server.Dependencies{
		Store:    repo,
		Products: product.NewProductService(repo, clk),
		Bidding:  bidding.NewBiddingService(repo, clk),
		Admin:    admin.NewAdminService(repo, clk),
		Auth:     auth.NewAuthenticator("admin", []byte("unused"), []byte("secret"), time.Hour, auth.NewMemoryTokenStore()),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestMarketClient_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	c := NewMarketClientWithHTTP(srv.URL+"/", srv.Client())
	ctx := context.Background()

	cycle, err := c.CreateProduct(ctx, helpers.CreateProductRequest{
		Title:         "Hero Cycle",
		Category:      "Cycles",
		Price:         2500,
		SellerContact: "919876543210",
		Location:      "Sarayu Hostel",
	})
	require.NoError(t, err)
	require.False(t, cycle.IsSold)
	require.Contains(t, cycle.WhatsAppLink, "https://wa.me/919876543210?text=")

	_, err = c.CreateProduct(ctx, helpers.CreateProductRequest{
		Title:         "Dinner coupon",
		Category:      "Mess Coupons",
		Price:         60,
		SellerContact: "919000000000",
		Location:      "SGR Mess",
		IsCoupon:      true,
		MessName:      "SGR",
		MealType:      "Dinner",
	})
	require.NoError(t, err)

	coupon := true
	coupons, err := c.ListProducts(ctx, model.ProductFilter{IsCoupon: &coupon})
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	require.Equal(t, "SGR", coupons[0].MessName)

	all, err := c.ListProducts(ctx, model.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Dinner coupon", all[0].Title)

	_, err = c.PlaceBid(ctx, helpers.PlaceBidRequest{ProductID: cycle.ID, BidderName: "Ravi", BidderContact: "91", BidPrice: 150})
	require.NoError(t, err)

	_, err = c.PlaceBid(ctx, helpers.PlaceBidRequest{ProductID: cycle.ID, BidderName: "Asha", BidderContact: "92", BidPrice: 100})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Contains(t, apiErr.Message, "150")

	_, err = c.PlaceBid(ctx, helpers.PlaceBidRequest{ProductID: cycle.ID, BidderName: "Asha", BidderContact: "92", BidPrice: 200})
	require.NoError(t, err)

	bids, err := c.ListBids(ctx, cycle.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.Equal(t, 200.0, bids[0].BidPrice)

	sold, err := c.ToggleSold(ctx, cycle.ID, true)
	require.NoError(t, err)
	require.True(t, sold.IsSold)

	_, err = c.PlaceBid(ctx, helpers.PlaceBidRequest{ProductID: cycle.ID, BidderName: "Asha", BidderContact: "92", BidPrice: 500})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "cannot bid on a sold product", apiErr.Message)

	_, err = c.ToggleSold(ctx, "ghost", true)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestMarketClient_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("non_json_error_body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad gateway", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewMarketClient(srv.URL).ListBids(ctx, "p1")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "HTTP error! status: 502", apiErr.Error())
	})

	t.Run("service_unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewMarketClient(url).ListProducts(ctx, model.ProductFilter{})
		require.True(t, errors.Is(err, ErrServiceUnavailable))
	})

	t.Run("query_is_encoded", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":200,"message":"ok","data":[]}`))
		}))
		defer srv.Close()

		sold := false
		products, err := NewMarketClient(srv.URL).ListProducts(ctx, model.ProductFilter{Category: "Mess Coupons", IsSold: &sold})
		require.NoError(t, err)
		require.Empty(t, products)
		require.Equal(t, "category=Mess+Coupons&is_sold=false", gotQuery)
	})
}
