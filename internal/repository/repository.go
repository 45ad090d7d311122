package repository

import (
	"campus-market/internal/marketerrors"
	model "campus-market/internal/models"
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// MarketDB defines the storage interface for products, bids and reports
type MarketDB interface {
	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	// SetProductSold stamps sold_at with at when isSold is true and clears it otherwise
	SetProductSold(ctx context.Context, productID string, isSold bool, at time.Time) (model.Product, error)
	SetProductBanned(ctx context.Context, productID string, isBanned bool) (model.Product, error)

	// RecordBid stores the bid only if the product exists, is unsold, is not
	// banned and the bid beats the current highest bid. The check and the
	// insert are atomic.
	RecordBid(ctx context.Context, bid model.Bid) error
	GetBidsByProduct(ctx context.Context, productID string) ([]model.Bid, error)
	GetHighestBid(ctx context.Context, productID string) (model.Bid, error)
	CountBids(ctx context.Context) (int, error)

	CreateReport(ctx context.Context, report model.Report) error
	ListReports(ctx context.Context) ([]model.Report, error)
	// CountReportsByProduct maps product id to report count; unreported products are absent
	CountReportsByProduct(ctx context.Context) (map[string]int, error)

	Ping(ctx context.Context) error
}

var (
	_ MarketDB = (*MemoryRepo)(nil)
	_ MarketDB = (*PostgresRepo)(nil)
	_ MarketDB = (*MongoRepo)(nil)
)

// MemoryRepo is a concurrency-safe in-memory implementation of MarketDB
type MemoryRepo struct {
	mu       sync.RWMutex
	products map[string]model.Product // key: productID
	order    []string                 // productIDs in insertion order
	bids     map[string][]model.Bid   // key: productID -> bids on that product
	reports  []model.Report
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		products: make(map[string]model.Product),
		bids:     make(map[string][]model.Bid),
	}
}

// CreateProduct stores a new product
func (r *MemoryRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		return fmt.Errorf("create product: empty product id")
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("create product %s: duplicate id", product.ID)
	}

	r.products[product.ID] = product
	r.order = append(r.order, product.ID)
	return nil
}

// GetProduct returns a product by id
func (r *MemoryRepo) GetProduct(_ context.Context, productID string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, marketerrors.ErrProductNotFound)
	}
	return product, nil
}

// ListProducts returns the products matching filter, newest first
func (r *MemoryRepo) ListProducts(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]model.Product, 0, len(r.order))
	for _, id := range r.order {
		if p := r.products[id]; filter.Matches(p) {
			products = append(products, p)
		}
	}

	// newest first; ties keep the most recently inserted first
	slices.Reverse(products)
	slices.SortStableFunc(products, func(a, b model.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return products, nil
}

// SetProductSold updates the sold flag and returns the updated product
func (r *MemoryRepo) SetProductSold(_ context.Context, productID string, isSold bool, at time.Time) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("set sold on product %s: %w", productID, marketerrors.ErrProductNotFound)
	}
	product.IsSold = isSold
	product.SoldAt = nil
	if isSold {
		product.SoldAt = &at
	}
	r.products[productID] = product
	return product, nil
}

// SetProductBanned updates the banned flag and returns the updated product
func (r *MemoryRepo) SetProductBanned(_ context.Context, productID string, isBanned bool) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("set banned on product %s: %w", productID, marketerrors.ErrProductNotFound)
	}
	product.IsBanned = isBanned
	r.products[productID] = product
	return product, nil
}

// RecordBid records a bid on a product
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[bid.ProductID]
	if !ok {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductNotFound)
	}
	if product.IsBanned {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductBanned)
	}
	if product.IsSold {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, marketerrors.ErrProductSold)
	}
	if highest, found := highestOf(r.bids[bid.ProductID]); found && bid.BidPrice <= highest.BidPrice {
		return fmt.Errorf("record bid for product %s: %w", bid.ProductID, &marketerrors.BidTooLowError{Highest: highest.BidPrice})
	}

	r.bids[bid.ProductID] = append(r.bids[bid.ProductID], bid)
	return nil
}

// GetBidsByProduct returns all bids for a product, highest price first
func (r *MemoryRepo) GetBidsByProduct(_ context.Context, productID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids := append([]model.Bid{}, r.bids[productID]...)
	SortBidsByPrice(bids)
	return bids, nil
}

// GetHighestBid returns the highest bid for a product
func (r *MemoryRepo) GetHighestBid(_ context.Context, productID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	highest, found := highestOf(r.bids[productID])
	if !found {
		return model.Bid{}, fmt.Errorf("get highest bid for product %s: %w", productID, marketerrors.ErrNoBids)
	}
	return highest, nil
}

// CountBids returns the number of bids across all products
func (r *MemoryRepo) CountBids(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, bids := range r.bids {
		total += len(bids)
	}
	return total, nil
}

// CreateReport stores a report against an existing product
func (r *MemoryRepo) CreateReport(_ context.Context, report model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[report.ProductID]; !ok {
		return fmt.Errorf("create report for product %s: %w", report.ProductID, marketerrors.ErrProductNotFound)
	}
	r.reports = append(r.reports, report)
	return nil
}

// ListReports returns all reports, newest first
func (r *MemoryRepo) ListReports(_ context.Context) ([]model.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reports := append([]model.Report{}, r.reports...)
	slices.Reverse(reports)
	slices.SortStableFunc(reports, func(a, b model.Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return reports, nil
}

// CountReportsByProduct returns the number of reports per product
func (r *MemoryRepo) CountReportsByProduct(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, rep := range r.reports {
		counts[rep.ProductID]++
	}
	return counts, nil
}

// Ping always succeeds for the in-memory store
func (r *MemoryRepo) Ping(_ context.Context) error { return nil }

// AddProduct adds a product without validation. This method is intended for seeding and tests.
func (r *MemoryRepo) AddProduct(product model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[product.ID]; !exists {
		r.order = append(r.order, product.ID)
	}
	r.products[product.ID] = product
}

// SortBidsByPrice orders bids by price descending; equal prices keep the earlier bid first.
func SortBidsByPrice(bids []model.Bid) {
	slices.SortStableFunc(bids, func(a, b model.Bid) int {
		if c := cmp.Compare(b.BidPrice, a.BidPrice); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func highestOf(bids []model.Bid) (model.Bid, bool) {
	if len(bids) == 0 {
		return model.Bid{}, false
	}
	highest := bids[0]
	for _, b := range bids[1:] {
		if b.BidPrice > highest.BidPrice || (b.BidPrice == highest.BidPrice && b.CreatedAt.Before(highest.CreatedAt)) {
			highest = b
		}
	}
	return highest, true
}
