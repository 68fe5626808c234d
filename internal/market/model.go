package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction statuses. There is no cancelled or failed terminal state; a
// pending transaction settles exactly once or stays pending.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Transaction is one purchase claim. It is stored in the buyer's shard; at
// most one pending or completed transaction exists per (ad, buyer) pair.
type Transaction struct {
	ID            string          `json:"id"`
	AdID          string          `json:"ad_id"`
	BuyerID       string          `json:"buyer_id"`
	SellerID      string          `json:"seller_id"`
	Amount        decimal.Decimal `json:"amount"`
	Commission    decimal.Decimal `json:"commission"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
