package listing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing types.
const (
	TypeProduct = "product"
	TypeDigital = "digital_product"
	TypeDeal    = "deal"
)

// Listing is a marketplace ad. It is stored in the seller's shard.
type Listing struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`

	// OriginalPrice is shown struck-through for discounts; zero means unset.
	OriginalPrice decimal.Decimal `json:"original_price,omitempty"`

	Type string `json:"type"`

	IsPinned  bool       `json:"is_pinned"`
	PinExpiry *time.Time `json:"pin_expiry,omitempty"`

	// DealExpiry is set only for deal-type listings; the sweeper retires the
	// listing once it passes.
	DealExpiry *time.Time `json:"deal_expiry,omitempty"`

	// ImagePath and FilePath are object-storage paths. FilePath is the
	// private digital asset, present only for digital products.
	ImagePath string `json:"image_path,omitempty"`
	FilePath  string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// SweepResult reports what one shard sweep retired.
type SweepResult struct {
	DealsDeleted int
	PinsCleared  int
}
