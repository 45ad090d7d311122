package product

import (
	"campus-market/internal/clock"
	"campus-market/internal/marketerrors"
	"campus-market/internal/models"
	"campus-market/internal/repository"
	"campus-market/utils"
	"context"
	"fmt"
	"math"
	"strings"
)

// CreateInput carries the seller-supplied fields of a new listing
type CreateInput struct {
	Title         string
	Description   string
	Category      string
	Price         float64
	SellerContact string
	Location      string
	IsCoupon      bool
	MessName      string
	MealType      string
	Quantity      *int
}

// ProductService defines the business logic for marketplace listings
type ProductService struct {
	repo  repository.MarketDB
	clock clock.Clock
}

// NewProductService creates a new ProductService instance
func NewProductService(repo repository.MarketDB, clk clock.Clock) *ProductService {
	return &ProductService{
		repo:  repo,
		clock: clk,
	}
}

// CreateProduct validates a listing, derives its WhatsApp link and stores it unsold
func (s *ProductService) CreateProduct(ctx context.Context, in CreateInput) (models.Product, error) {
	if err := validateCreate(in); err != nil {
		return models.Product{}, fmt.Errorf("service: %w", err)
	}

	title := strings.TrimSpace(in.Title)
	contact := strings.TrimSpace(in.SellerContact)
	product := models.Product{
		ID:            utils.GenerateID(),
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		Price:         in.Price,
		SellerContact: contact,
		WhatsAppLink:  utils.WhatsAppLink(contact, title),
		Location:      strings.TrimSpace(in.Location),
		IsCoupon:      in.IsCoupon,
		CreatedAt:     s.clock.Now(),
		IsSold:        false,
	}
	if in.IsCoupon {
		product.MessName = strings.TrimSpace(in.MessName)
		product.MealType = strings.TrimSpace(in.MealType)
		product.Quantity = in.Quantity
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return models.Product{}, fmt.Errorf("service: failed to create product %q: %w", title, err)
	}
	return product, nil
}

func validateCreate(in CreateInput) error {
	var missing []string
	if blank(in.Title) {
		missing = append(missing, "title")
	}
	if blank(in.Category) {
		missing = append(missing, "category")
	}
	if in.Price == 0 {
		missing = append(missing, "price")
	}
	if blank(in.SellerContact) {
		missing = append(missing, "seller_contact")
	}
	if blank(in.Location) {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return marketerrors.Missing(missing...)
	}

	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return marketerrors.Invalid("price", "must be a positive number")
	}
	if in.IsCoupon && in.Quantity != nil && *in.Quantity < 0 {
		return marketerrors.Invalid("quantity", "must not be negative")
	}
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ListProducts returns the public listings matching filter, newest first.
// Banned listings are never included. No match yields an empty slice.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	visible := false
	filter.IsBanned = &visible

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProduct returns a single public listing. A banned listing reads as not found.
func (s *ProductService) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	if productID == "" {
		return models.Product{}, fmt.Errorf("service: %w", marketerrors.Missing("id"))
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to get product %s: %w", productID, err)
	}
	if product.IsBanned {
		return models.Product{}, fmt.Errorf("service: product %s is banned: %w", productID, marketerrors.ErrProductNotFound)
	}
	return product, nil
}

// ToggleSold moves a listing between the active and sold states
func (s *ProductService) ToggleSold(ctx context.Context, productID string, isSold *bool) (models.Product, error) {
	if productID == "" {
		return models.Product{}, fmt.Errorf("service: %w", marketerrors.Missing("id"))
	}
	if isSold == nil {
		return models.Product{}, fmt.Errorf("service: %w", marketerrors.Invalid("is_sold", "must be a boolean value"))
	}

	product, err := s.repo.SetProductSold(ctx, productID, *isSold, s.clock.Now())
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to set sold=%t on product %s: %w", *isSold, productID, err)
	}
	return product, nil
}
