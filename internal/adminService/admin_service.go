package admin

import (
	"campus-market/internal/clock"
	"campus-market/internal/marketerrors"
	"campus-market/internal/models"
	"campus-market/internal/repository"
	"campus-market/utils"
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const statusAll = "all"

var listingStatuses = []string{statusAll, models.StatusActive, models.StatusSold, models.StatusReported, models.StatusBanned}

// activityWindow is the span the dashboard's weekly numbers cover
const activityWindow = 7 * 24 * time.Hour

// ReportInput is a moderation complaint about a listing
type ReportInput struct {
	Reason          string
	ReporterContact string
}

// AdminService defines the moderation logic behind the admin panel
type AdminService struct {
	repo  repository.MarketDB
	clock clock.Clock
}

// NewAdminService creates a new AdminService instance
func NewAdminService(repo repository.MarketDB, clk clock.Clock) *AdminService {
	return &AdminService{
		repo:  repo,
		clock: clk,
	}
}

// ReportProduct files a report against an existing listing
func (s *AdminService) ReportProduct(ctx context.Context, productID string, in ReportInput) (models.Report, error) {
	var missing []string
	if productID == "" {
		missing = append(missing, "product_id")
	}
	if strings.TrimSpace(in.Reason) == "" {
		missing = append(missing, "reason")
	}
	if len(missing) > 0 {
		return models.Report{}, fmt.Errorf("service: %w", marketerrors.Missing(missing...))
	}

	report := models.Report{
		ID:              utils.GenerateID(),
		ProductID:       productID,
		Reason:          strings.TrimSpace(in.Reason),
		ReporterContact: strings.TrimSpace(in.ReporterContact),
		CreatedAt:       s.clock.Now(),
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return models.Report{}, fmt.Errorf("service: failed to report product %s: %w", productID, err)
	}
	return report, nil
}

// ListReports returns every report, newest first
func (s *AdminService) ListReports(ctx context.Context) ([]models.Report, error) {
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list reports: %w", err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// BanProduct sets or lifts a moderator ban on a listing
func (s *AdminService) BanProduct(ctx context.Context, productID string, isBanned *bool) (models.Product, error) {
	if productID == "" {
		return models.Product{}, fmt.Errorf("service: %w", marketerrors.Missing("id"))
	}
	if isBanned == nil {
		return models.Product{}, fmt.Errorf("service: %w", marketerrors.Invalid("is_banned", "must be a boolean value"))
	}

	product, err := s.repo.SetProductBanned(ctx, productID, *isBanned)
	if err != nil {
		return models.Product{}, fmt.Errorf("service: failed to set banned=%t on product %s: %w", *isBanned, productID, err)
	}
	return product, nil
}

// ListListings returns every listing matching filter, banned ones included,
// with its report count and moderation status. An empty status means all.
func (s *AdminService) ListListings(ctx context.Context, filter models.ProductFilter, status string) ([]models.AdminListing, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		status = statusAll
	}
	if !slices.Contains(listingStatuses, status) {
		return nil, fmt.Errorf("service: %w",
			marketerrors.Invalid("status", "must be one of "+strings.Join(listingStatuses, ", ")))
	}
	filter.Search = strings.TrimSpace(filter.Search)

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	counts, err := s.repo.CountReportsByProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count reports: %w", err)
	}

	listings := make([]models.AdminListing, 0, len(products))
	for _, p := range products {
		listing := models.AdminListing{
			Product:     p,
			ReportCount: counts[p.ID],
			Status:      models.ListingStatus(p, counts[p.ID]),
		}
		if status != statusAll && listing.Status != status {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// Stats aggregates the dashboard numbers from the store
func (s *AdminService) Stats(ctx context.Context) (models.Stats, error) {
	products, err := s.repo.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return models.Stats{}, fmt.Errorf("service: failed to list products for stats: %w", err)
	}
	reports, err := s.repo.ListReports(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("service: failed to list reports for stats: %w", err)
	}
	totalBids, err := s.repo.CountBids(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("service: failed to count bids for stats: %w", err)
	}

	stats := models.Stats{
		TotalListings: len(products),
		TotalBids:     totalBids,
		TotalReports:  len(reports),
		Categories:    []models.CategoryStats{},
	}

	now := s.clock.Now()
	weekStart := now.Add(-activityWindow)

	counts := make(map[string]int)
	for _, p := range products {
		switch {
		case p.IsBanned:
			stats.BannedListings++
		case p.IsSold:
			stats.SoldListings++
		default:
			stats.ActiveListings++
		}
		if p.IsCoupon {
			stats.CouponListings++
		}
		if !p.CreatedAt.Before(weekStart) {
			stats.Weekly.NewListings++
		}
		if p.IsSold && p.SoldAt != nil && !p.SoldAt.Before(weekStart) {
			stats.Weekly.ItemsSold++
		}
		counts[p.Category]++
	}

	y, m, d := now.UTC().Date()
	for _, r := range reports {
		ry, rm, rd := r.CreatedAt.UTC().Date()
		if ry == y && rm == m && rd == d {
			stats.ReportsToday++
		}
		if !r.CreatedAt.Before(weekStart) {
			stats.Weekly.ReportsFiled++
		}
	}

	for name, count := range counts {
		stats.Categories = append(stats.Categories, models.CategoryStats{
			Name:       name,
			Count:      count,
			Percentage: math.Round(float64(count)*1000/float64(len(products))) / 10,
		})
	}
	slices.SortFunc(stats.Categories, func(a, b models.CategoryStats) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(stats.Categories) > 0 {
		stats.PopularCategory = stats.Categories[0].Name
	}

	return stats, nil
}
