package integrationtests

import (
	"bytes"
	"encoding/json"
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

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminUser     = "admin"
	adminPassword = "admin123"
)

var baseTime = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

// testApp bundles the router with the store behind it
type testApp struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepo
}

// SetupTestApp initializes the router with in-memory repository for integration testing.
func SetupTestApp(t *testing.T, products ...model.Product) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	for _, p := range products {
		repo.AddProduct(p)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash admin password: %v", err)
	}

	clk := clock.NewSteppingClock(baseTime, time.Second)
	router := server.SetupRouter(server.Dependencies{
		Store:    repo,
		Products: product.NewProductService(repo, clk),
		Bidding:  bidding.NewBiddingService(repo, clk),
		Admin:    admin.NewAdminService(repo, clk),
		Auth:     auth.NewAuthenticator(adminUser, hash, []byte("integration-secret"), time.Hour, auth.NewMemoryTokenStore()),
	})
	return &testApp{Router: router, Repo: repo}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any, headers ...string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// DataMap returns the envelope's data as an object
func DataMap(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected object data, got %T", resp["data"])
	}
	return data
}

// DataList returns the envelope's data as a list of objects
func DataList(t *testing.T, resp map[string]any) []map[string]any {
	t.Helper()
	raw, ok := resp["data"].([]any)
	if !ok {
		t.Fatalf("expected list data, got %T", resp["data"])
	}
	out := make([]map[string]any, len(raw))
	for i, v := range raw {
		out[i] = v.(map[string]any)
	}
	return out
}

func seedProduct(id, category string, sold bool, created time.Time) model.Product {
	return model.Product{
		ID:            id,
		Title:         "Listing " + id,
		Category:      category,
		Price:         500,
		SellerContact: "919000000000",
		Location:      "Campus",
		CreatedAt:     created,
		IsSold:        sold,
	}
}
