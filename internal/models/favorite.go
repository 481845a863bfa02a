package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FavoriteStock is a stock symbol a user has favourited, with optional
// purchase metadata once they mark it as bought.
//
// Invariants:
//   - (Owner, Symbol) is unique: a user favourites a symbol at most once.
//   - Bought == false implies every purchase-detail field is nil/empty.
//
// ID is always server-assigned; Owner is always the authenticated identity.
type FavoriteStock struct {
	ID          string           `json:"id"`
	Owner       string           `json:"owner"`
	Symbol      string           `json:"symbol"`
	Bought      bool             `json:"bought"`
	BoughtDate  *string          `json:"bought_date,omitempty"`
	BoughtPrice *decimal.Decimal `json:"bought_price,omitempty"`
	StopLoss    *decimal.Decimal `json:"stop_loss,omitempty"`
	TargetPrice *decimal.Decimal `json:"target_price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ClearPurchaseDetails nils out every purchase-detail field. Called whenever
// a favourite is saved with Bought == false, regardless of what the client
// supplied.
func (f *FavoriteStock) ClearPurchaseDetails() {
	f.BoughtDate = nil
	f.BoughtPrice = nil
	f.StopLoss = nil
	f.TargetPrice = nil
	f.Quantity = nil
	f.Notes = ""
}

// FavoriteUpdate carries the updatable fields of a favourite. ID, Owner,
// Symbol and CreatedAt are never client-writable.
type FavoriteUpdate struct {
	Bought      bool             `json:"bought"`
	BoughtDate  *string          `json:"bought_date"`
	BoughtPrice *decimal.Decimal `json:"bought_price"`
	StopLoss    *decimal.Decimal `json:"stop_loss"`
	TargetPrice *decimal.Decimal `json:"target_price"`
	Quantity    *int             `json:"quantity"`
	Notes       string           `json:"notes"`
}
