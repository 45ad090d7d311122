package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	model "campus-market/internal/models"
	"campus-market/services/marketplace/helpers"
	"campus-market/utils"
)

// ErrServiceUnavailable is returned when the marketplace API cannot be reached
var ErrServiceUnavailable = errors.New("marketplace service unavailable")

// APIError is a non-2xx answer from the marketplace API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return e.Message
}

// MarketClient talks to the marketplace HTTP API
type MarketClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMarketClient(baseURL string) *MarketClient {
	return NewMarketClientWithHTTP(baseURL, &http.Client{Timeout: 10 * time.Second})
}

// NewMarketClientWithHTTP uses the given http.Client, e.g. one from httptest
func NewMarketClientWithHTTP(baseURL string, httpClient *http.Client) *MarketClient {
	return &MarketClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ListProducts fetches listings matching filter, newest first
func (c *MarketClient) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	params := url.Values{}
	setParam := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	setParam("category", filter.Category)
	setParam("mess_name", filter.MessName)
	setParam("meal_type", filter.MealType)
	setParam("location", filter.Location)
	setParam("search", filter.Search)
	if filter.IsCoupon != nil {
		params.Set("is_coupon", strconv.FormatBool(*filter.IsCoupon))
	}
	if filter.IsSold != nil {
		params.Set("is_sold", strconv.FormatBool(*filter.IsSold))
	}

	endpoint := "/products"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var products []model.Product
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct publishes a new listing
func (c *MarketClient) CreateProduct(ctx context.Context, req helpers.CreateProductRequest) (model.Product, error) {
	var p model.Product
	err := c.do(ctx, http.MethodPost, "/products", req, &p)
	return p, err
}

// ToggleSold marks a listing sold or active again
func (c *MarketClient) ToggleSold(ctx context.Context, productID string, isSold bool) (model.Product, error) {
	var p model.Product
	err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(productID)+"/sold", helpers.ToggleSoldRequest{IsSold: &isSold}, &p)
	return p, err
}

// ListBids fetches the bids on a product, highest first
func (c *MarketClient) ListBids(ctx context.Context, productID string) ([]model.Bid, error) {
	var bids []model.Bid
	if err := c.do(ctx, http.MethodGet, "/bids?product_id="+url.QueryEscape(productID), nil, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

// PlaceBid submits a bid
func (c *MarketClient) PlaceBid(ctx context.Context, req helpers.PlaceBidRequest) (model.Bid, error) {
	var bid model.Bid
	err := c.do(ctx, http.MethodPost, "/bids", req, &bid)
	return bid, err
}

func (c *MarketClient) do(ctx context.Context, method, endpoint string, body, out any) error {
	target := c.baseURL + endpoint

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request to marketplace service: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		utils.Warn("MarketClient: request failed", map[string]any{"method": method, "url": target, "error": err.Error()})
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	var env utils.Envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		utils.Debug("MarketClient: non-2xx response", map[string]any{"method": method, "url": target, "status": resp.StatusCode})
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Error
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode marketplace response: %w", decodeErr)
	}

	if err := env.DecodeData(out); err != nil {
		return fmt.Errorf("failed to decode marketplace response data: %w", err)
	}
	return nil
}
