package helpers

// Request DTOs. Field order matches the order missing fields are reported in.
type CreateProductRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	Category      string  `json:"category" binding:"required"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	SellerContact string  `json:"seller_contact" binding:"required"`
	Location      string  `json:"location" binding:"required"`
	IsCoupon      bool    `json:"is_coupon"`
	MessName      string  `json:"mess_name"`
	MealType      string  `json:"meal_type"`
	Quantity      *int    `json:"quantity"`
}

// ToggleSoldRequest leaves is_sold optional so the service can report a missing value itself
type ToggleSoldRequest struct {
	IsSold *bool `json:"is_sold"`
}

// BanRequest is the admin moderation toggle; is_banned is checked by the service like is_sold
type BanRequest struct {
	IsBanned *bool `json:"is_banned"`
}

type PlaceBidRequest struct {
	ProductID     string  `json:"product_id" binding:"required"`
	BidderName    string  `json:"bidder_name" binding:"required"`
	BidderContact string  `json:"bidder_contact" binding:"required"`
	BidPrice      float64 `json:"bid_price" binding:"required,gt=0"`
}

type ReportRequest struct {
	Reason          string `json:"reason" binding:"required"`
	ReporterContact string `json:"reporter_contact"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the admin session token
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
