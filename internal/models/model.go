package models

import (
	"strings"
	"time"
)

// Product represents a marketplace listing. Coupon listings carry the mess
// fields; for other categories they stay empty.
type Product struct {
	ID            string     `json:"id" bson:"_id"`
	Title         string     `json:"title" bson:"title"`
	Description   string     `json:"description,omitempty" bson:"description,omitempty"`
	Category      string     `json:"category" bson:"category"`
	Price         float64    `json:"price" bson:"price"`
	SellerContact string     `json:"seller_contact" bson:"seller_contact"`
	WhatsAppLink  string     `json:"whatsapp_link" bson:"whatsapp_link"`
	Location      string     `json:"location" bson:"location"`
	IsCoupon      bool       `json:"is_coupon" bson:"is_coupon"`
	MessName      string     `json:"mess_name,omitempty" bson:"mess_name,omitempty"`
	MealType      string     `json:"meal_type,omitempty" bson:"meal_type,omitempty"`
	Quantity      *int       `json:"quantity,omitempty" bson:"quantity,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	IsSold        bool       `json:"is_sold" bson:"is_sold"`
	SoldAt        *time.Time `json:"sold_at,omitempty" bson:"sold_at,omitempty"`
	// IsBanned hides the listing from the public catalogue and blocks bids
	IsBanned bool `json:"is_banned" bson:"is_banned"`
}

// Bid represents an offer placed on a product
type Bid struct {
	ID            string    `json:"id" bson:"_id"`
	ProductID     string    `json:"product_id" bson:"product_id"`
	BidderName    string    `json:"bidder_name" bson:"bidder_name"`
	BidderContact string    `json:"bidder_contact" bson:"bidder_contact"`
	BidPrice      float64   `json:"bid_price" bson:"bid_price"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Report is a moderation complaint raised against a listing
type Report struct {
	ID              string    `json:"id" bson:"_id"`
	ProductID       string    `json:"product_id" bson:"product_id"`
	Reason          string    `json:"reason" bson:"reason"`
	ReporterContact string    `json:"reporter_contact,omitempty" bson:"reporter_contact,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

// ProductFilter narrows a product listing. Nil or empty fields are ignored,
// set fields are ANDed together.
type ProductFilter struct {
	Category string
	IsCoupon *bool
	MessName string
	MealType string
	Location string
	IsSold   *bool
	IsBanned *bool
	// Search matches title or description, case-insensitively
	Search string
}

// Matches reports whether p satisfies every set field of the filter.
func (f ProductFilter) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.IsCoupon != nil && p.IsCoupon != *f.IsCoupon {
		return false
	}
	if f.MessName != "" && p.MessName != f.MessName {
		return false
	}
	if f.MealType != "" && p.MealType != f.MealType {
		return false
	}
	if f.Location != "" && p.Location != f.Location {
		return false
	}
	if f.IsSold != nil && p.IsSold != *f.IsSold {
		return false
	}
	if f.IsBanned != nil && p.IsBanned != *f.IsBanned {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	return true
}

// Stats summarises the marketplace for the admin dashboard
type Stats struct {
	TotalListings   int             `json:"total_listings"`
	ActiveListings  int             `json:"active_listings"`
	SoldListings    int             `json:"sold_listings"`
	BannedListings  int             `json:"banned_listings"`
	CouponListings  int             `json:"coupon_listings"`
	TotalBids       int             `json:"total_bids"`
	TotalReports    int             `json:"total_reports"`
	ReportsToday    int             `json:"reports_today"`
	PopularCategory string          `json:"popular_category"`
	Categories      []CategoryStats `json:"categories"`
	Weekly          WeeklyActivity  `json:"weekly_activity"`
}

// WeeklyActivity counts what happened in the seven days before the stats were taken
type WeeklyActivity struct {
	NewListings  int `json:"new_listings"`
	ItemsSold    int `json:"items_sold"`
	ReportsFiled int `json:"reports_filed"`
}

// CategoryStats is the listing count of one category
type CategoryStats struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Listing moderation states shown in the admin panel
const (
	StatusActive   = "active"
	StatusSold     = "sold"
	StatusReported = "reported"
	StatusBanned   = "banned"
)

// ListingStatus derives the moderation state of a product. A ban wins over
// open reports, and open reports win over the sold flag.
func ListingStatus(p Product, reportCount int) string {
	switch {
	case p.IsBanned:
		return StatusBanned
	case reportCount > 0:
		return StatusReported
	case p.IsSold:
		return StatusSold
	default:
		return StatusActive
	}
}

// AdminListing is a product as the moderation table shows it
type AdminListing struct {
	Product
	ReportCount int    `json:"report_count"`
	Status      string `json:"status"`
}
