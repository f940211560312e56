package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Role is the playing role a lot is grouped under in the auction queue.
type Role string

const (
	RoleBatsman    Role = "batsman"
	RoleAllRounder Role = "all_rounder"
	RoleBowler     Role = "bowler"
)

// RoleOrder is the fixed order role groups appear in a queue.
var RoleOrder = []Role{RoleBatsman, RoleAllRounder, RoleBowler}

// MinBasePrice is the pricing floor of every lot.
var MinBasePrice = decimal.RequireFromString("0.5")

// Lot is one catalog player put up for bidding. Lots are built once per auction start and
// only gain SoldPrice/Winner when they are resolved.
type Lot struct {
	Name        string          `json:"name"`
	Role        Role            `json:"role"`
	Nationality string          `json:"nationality,omitempty"`
	IsForeign   bool            `json:"isForeign"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	PriceTag    string          `json:"price,omitempty"` // historical tag from the mega dataset

	// Role-specific statistics, carried for display only
	Stats        json.RawMessage `json:"stats,omitempty"`
	BattingStats json.RawMessage `json:"batting_stats,omitempty"`
	BowlingStats json.RawMessage `json:"bowling_stats,omitempty"`

	SoldPrice *decimal.Decimal `json:"soldPrice,omitempty"`
	WinnerID  string           `json:"winner_id,omitempty"`
}

// OwnedLot is a lot won by a participant together with the price paid.
type OwnedLot struct {
	Lot       Lot             `json:"lot"`
	PricePaid decimal.Decimal `json:"price"`
}
