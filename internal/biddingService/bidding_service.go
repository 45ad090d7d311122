package bidding

import (
	"campus-market/internal/clock"
	"campus-market/internal/marketerrors"
	"campus-market/internal/models"
	"campus-market/internal/repository"
	"campus-market/utils"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// PlaceBidInput carries a bidder's offer on a product
type PlaceBidInput struct {
	ProductID     string
	BidderName    string
	BidderContact string
	BidPrice      float64
}

// BiddingService defines the business logic for bids on listings
type BiddingService struct {
	repo  repository.MarketDB
	clock clock.Clock
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.MarketDB, clk clock.Clock) *BiddingService {
	return &BiddingService{
		repo:  repo,
		clock: clk,
	}
}

// PlaceBid validates and records a bid. The product must exist, be unsold and
// not banned, and the price must beat the current highest bid.
func (s *BiddingService) PlaceBid(ctx context.Context, in PlaceBidInput) (models.Bid, error) {
	if err := validateInput(in); err != nil {
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}
	if err := s.checkBidRules(ctx, in); err != nil {
		return models.Bid{}, err
	}

	bid := models.Bid{
		ID:            utils.GenerateID(),
		ProductID:     in.ProductID,
		BidderName:    strings.TrimSpace(in.BidderName),
		BidderContact: strings.TrimSpace(in.BidderContact),
		BidPrice:      in.BidPrice,
		CreatedAt:     s.clock.Now(),
	}

	// the store re-checks the rules atomically, so a bid that raced past
	// checkBidRules is still rejected here
	if err := s.repo.RecordBid(ctx, bid); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid on product %s by %s: %w", in.ProductID, bid.BidderName, err)
	}

	return bid, nil
}

func validateInput(in PlaceBidInput) error {
	var missing []string
	if in.ProductID == "" {
		missing = append(missing, "product_id")
	}
	if strings.TrimSpace(in.BidderName) == "" {
		missing = append(missing, "bidder_name")
	}
	if strings.TrimSpace(in.BidderContact) == "" {
		missing = append(missing, "bidder_contact")
	}
	if in.BidPrice == 0 {
		missing = append(missing, "bid_price")
	}
	if len(missing) > 0 {
		return marketerrors.Missing(missing...)
	}
	if in.BidPrice < 0 || math.IsNaN(in.BidPrice) || math.IsInf(in.BidPrice, 0) {
		return marketerrors.Invalid("bid_price", "must be a positive number")
	}
	return nil
}

// checkBidRules checks the product state and the current highest bid
func (s *BiddingService) checkBidRules(ctx context.Context, in PlaceBidInput) error {
	product, err := s.repo.GetProduct(ctx, in.ProductID)
	if err != nil {
		return fmt.Errorf("service: failed to look up product %s: %w", in.ProductID, err)
	}
	if product.IsBanned {
		return fmt.Errorf("service: product %s: %w", in.ProductID, marketerrors.ErrProductBanned)
	}
	if product.IsSold {
		return fmt.Errorf("service: product %s: %w", in.ProductID, marketerrors.ErrProductSold)
	}

	highest, err := s.repo.GetHighestBid(ctx, in.ProductID)
	if err == nil {
		if in.BidPrice <= highest.BidPrice {
			return fmt.Errorf("service: %w", &marketerrors.BidTooLowError{Highest: highest.BidPrice})
		}
	} else if !errors.Is(err, marketerrors.ErrNoBids) {
		return fmt.Errorf("service: failed to check highest bid: %w", err)
	}

	return nil
}

// GetBidsForProduct returns all bids for a product, highest price first
func (s *BiddingService) GetBidsForProduct(ctx context.Context, productID string) ([]models.Bid, error) {
	if productID == "" {
		return nil, fmt.Errorf("service: %w", marketerrors.Missing("product_id"))
	}

	bids, err := s.repo.GetBidsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for product %s: %w", productID, err)
	}
	if bids == nil {
		bids = []models.Bid{}
	}
	return bids, nil
}

// GetHighestBid returns the current highest bid for a product
func (s *BiddingService) GetHighestBid(ctx context.Context, productID string) (models.Bid, error) {
	if productID == "" {
		return models.Bid{}, fmt.Errorf("service: %w", marketerrors.Missing("product_id"))
	}

	highest, err := s.repo.GetHighestBid(ctx, productID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get highest bid for product %s: %w", productID, err)
	}
	return highest, nil
}
