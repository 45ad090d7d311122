package handler

import (
	"context"
	"net/http"

	bidding "campus-market/internal/biddingService"
	"campus-market/internal/marketerrors"
	model "campus-market/internal/models"
	"campus-market/services/marketplace/helpers"
	"campus-market/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, in bidding.PlaceBidInput) (model.Bid, error)
	GetBidsForProduct(ctx context.Context, productID string) ([]model.Bid, error)
	GetHighestBid(ctx context.Context, productID string) (model.Bid, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// PlaceBidHandler handles POST /bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := helpers.BindJSON(c, &req); err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, nil)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), bidding.PlaceBidInput{
		ProductID:     req.ProductID,
		BidderName:    req.BidderName,
		BidderContact: req.BidderContact,
		BidPrice:      req.BidPrice,
	})
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"product_id": req.ProductID,
			"bidder":     req.BidderName,
			"bid_price":  req.BidPrice,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, bid, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.ID,
		"product_id": bid.ProductID,
		"bid_price":  bid.BidPrice,
	})
}

// ListBidsHandler handles GET /bids?product_id= and GET /products/:id/bids
func (h *BiddingHandler) ListBidsHandler(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		productID = c.Query("product_id")
	}
	if productID == "" {
		helpers.RespondError(c, "ListBidsHandler", marketerrors.Missing("product_id"), nil)
		return
	}

	bids, err := h.service.GetBidsForProduct(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "ListBidsHandler", err, map[string]any{"product_id": productID})
		return
	}
	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("ListBidsHandler", "bids retrieved successfully", map[string]any{
		"product_id": productID,
		"count":      len(bids),
	})
}

// HighestBidHandler handles GET /products/:id/bids/highest
func (h *BiddingHandler) HighestBidHandler(c *gin.Context) {
	productID := c.Param("id")
	bid, err := h.service.GetHighestBid(c.Request.Context(), productID)
	if err != nil {
		helpers.RespondError(c, "HighestBidHandler", err, map[string]any{"product_id": productID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, bid, "highest bid retrieved successfully")
}
