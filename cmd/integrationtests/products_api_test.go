package integrationtests

import (
	"net/http"
	"testing"
	"time"

	"campus-market/services/marketplace/helpers"

	"github.com/stretchr/testify/require"
)

// CreateProductHandler Tests
func TestCreateProduct(t *testing.T) {
	tests := []struct {
		name       string
		request    any
		wantStatus int
		wantError  string
	}{
		{
			name: "Valid_Listing",
			request: helpers.CreateProductRequest{
				Title:         "Hero Cycle",
				Category:      "Cycles",
				Price:         2500,
				SellerContact: "919876543210",
				Location:      "Sarayu Hostel",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Missing_Price",
			request:    map[string]any{"title": "Hero Cycle", "category": "Cycles", "seller_contact": "91", "location": "A"},
			wantStatus: http.StatusBadRequest,
			wantError:  "missing required fields: price",
		},
		{
			name:       "Blank_Title",
			request:    map[string]any{"title": "   ", "category": "Cycles", "price": 10, "seller_contact": "91", "location": "A"},
			wantStatus: http.StatusBadRequest,
			wantError:  "missing required fields: title",
		},
		{
			name:       "Invalid_JSON",
			request:    "{title: 'missing quotes'}",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := SetupTestApp(t)
			resp, w := ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products", tt.request)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus != http.StatusCreated {
				require.Contains(t, resp["error"], tt.wantError)
				return
			}

			data := DataMap(t, resp)
			require.NotEmpty(t, data["id"])
			require.Equal(t, false, data["is_sold"])
			require.Equal(t, false, data["is_coupon"])
			require.Equal(t,
				"https://wa.me/919876543210?text=Hey%20I'm%20contacting%20you%20to%20talk%20about%20your%20Hero%20Cycle",
				data["whatsapp_link"])
			_, err := time.Parse(time.RFC3339, data["created_at"].(string))
			require.NoError(t, err)
		})
	}
}

// ListProductsHandler Tests
func TestListProducts(t *testing.T) {
	app := SetupTestApp(t,
		seedProduct("old-cycle", "Cycles", false, baseTime.Add(-3*time.Hour)),
		seedProduct("book", "Books", false, baseTime.Add(-2*time.Hour)),
		seedProduct("new-cycle", "Cycles", true, baseTime.Add(-1*time.Hour)),
	)

	tests := []struct {
		name       string
		query      string
		wantIDs    []string
		wantStatus int
	}{
		{name: "All_Newest_First", query: "", wantIDs: []string{"new-cycle", "book", "old-cycle"}, wantStatus: http.StatusOK},
		{name: "Category_Cycles", query: "?category=Cycles", wantIDs: []string{"new-cycle", "old-cycle"}, wantStatus: http.StatusOK},
		{name: "Active_Cycles", query: "?category=Cycles&is_sold=false", wantIDs: []string{"old-cycle"}, wantStatus: http.StatusOK},
		{name: "Empty_Is_Sold_Means_Unsold", query: "?category=Cycles&is_sold=", wantIDs: []string{"old-cycle"}, wantStatus: http.StatusOK},
		{name: "Empty_Is_Coupon_Ignored", query: "?is_coupon=", wantIDs: []string{"new-cycle", "book", "old-cycle"}, wantStatus: http.StatusOK},
		{name: "Search_Case_Insensitive", query: "?search=LISTING%20BOOK", wantIDs: []string{"book"}, wantStatus: http.StatusOK},
		{name: "No_Match", query: "?category=Furniture", wantIDs: []string{}, wantStatus: http.StatusOK},
		{name: "Malformed_Boolean", query: "?is_coupon=sometimes", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, w := ExecuteRequestAndParse(t, app.Router, http.MethodGet, "/products"+tt.query, nil)
			require.Equal(t, tt.wantStatus, w.Code)
			if w.Code != http.StatusOK {
				return
			}

			ids := []string{}
			for _, p := range DataList(t, resp) {
				ids = append(ids, p["id"].(string))
			}
			require.Equal(t, tt.wantIDs, ids)
		})
	}
}

// ToggleSoldHandler Tests
func TestToggleSold(t *testing.T) {
	app := SetupTestApp(t, seedProduct("p1", "Cycles", false, baseTime))

	resp, w := ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/p1/sold", map[string]any{"is_sold": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, DataMap(t, resp)["is_sold"])

	resp, w = ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/p1/sold", map[string]any{"is_sold": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, DataMap(t, resp)["is_sold"])

	resp, w = ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/p1/sold", map[string]any{"is_sold": "yes"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "is_sold must be a boolean value", resp["error"])

	resp, w = ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/p1/sold", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "is_sold must be a boolean value", resp["error"])

	_, w = ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/unknown/sold", map[string]any{"is_sold": true})
	require.Equal(t, http.StatusNotFound, w.Code)

	_, w = ExecuteRequestAndParse(t, app.Router, http.MethodGet, "/products/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

// ReportProductHandler Tests
func TestReportProduct(t *testing.T) {
	app := SetupTestApp(t, seedProduct("p1", "Cycles", false, baseTime))

	resp, w := ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/p1/reports", map[string]any{"reason": "fake listing"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "p1", DataMap(t, resp)["product_id"])

	_, w = ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/p1/reports", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, w = ExecuteRequestAndParse(t, app.Router, http.MethodPost, "/products/ghost/reports", map[string]any{"reason": "x"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	app := SetupTestApp(t)
	_, w := ExecuteRequestAndParse(t, app.Router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
