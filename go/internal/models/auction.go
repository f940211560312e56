package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionMode selects the pricing policy of a room.
type AuctionMode string

const (
	AuctionModeMega   AuctionMode = "mega"
	AuctionModeLegend AuctionMode = "legend"
)

// ParseAuctionMode validates a mode string; an empty string selects mega.
func ParseAuctionMode(s string) (AuctionMode, bool) {
	switch AuctionMode(s) {
	case "", AuctionModeMega:
		return AuctionModeMega, true
	case AuctionModeLegend:
		return AuctionModeLegend, true
	default:
		return "", false
	}
}

// AuctionStatus is the phase of a room's auction.
type AuctionStatus string

const (
	AuctionStatusWaiting AuctionStatus = "waiting"
	AuctionStatusActive  AuctionStatus = "active"
	AuctionStatusPaused  AuctionStatus = "paused"
	AuctionStatusEnded   AuctionStatus = "ended"
)

// Timer bounds in seconds.
const (
	MinTimerDuration     = 5
	MaxTimerDuration     = 30
	DefaultTimerDuration = 15
)

// NormalizeTimerDuration clamps a requested countdown into the allowed range.
func NormalizeTimerDuration(seconds int) int {
	if seconds < MinTimerDuration {
		return MinTimerDuration
	}
	if seconds > MaxTimerDuration {
		return MaxTimerDuration
	}
	return seconds
}

// BidRecord is one accepted bid on the current lot.
type BidRecord struct {
	ParticipantID   string          `json:"player_id"`
	ParticipantName string          `json:"player_name"`
	Amount          decimal.Decimal `json:"amount"`
	Timestamp       time.Time       `json:"timestamp"`
}

// SoldRecord is the ledger entry written when a lot is sold.
type SoldRecord struct {
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Winner     string          `json:"winner"`
	WinnerID   string          `json:"winner_id"`
	WinnerTeam string          `json:"winner_team"`
	Role       Role            `json:"role"`
}

// AuctionState is the mutable bidding state of a room.
type AuctionState struct {
	Status           AuctionStatus   `json:"status"`
	Queue            []Lot           `json:"auction_queue"`
	CurrentPlayerIdx int             `json:"current_player_idx"`
	CurrentBid       decimal.Decimal `json:"current_bid"`
	CurrentBidderID  string          `json:"current_bidder_id"`
	TimeLeft         int             `json:"time_left"`
	BidHistory       []BidRecord     `json:"bid_history"`
	SoldPlayers      []SoldRecord    `json:"sold_players"`
	UnsoldPlayers    []Lot           `json:"unsold_players"`
	PausedBy         string          `json:"paused_by,omitempty"`
	IsReauction      bool            `json:"is_reauction"`
}

// CurrentLot returns the lot under the hammer, if any.
func (s *AuctionState) CurrentLot() (Lot, bool) {
	if s.CurrentPlayerIdx < 0 || s.CurrentPlayerIdx >= len(s.Queue) {
		return Lot{}, false
	}
	return s.Queue[s.CurrentPlayerIdx], true
}

// Remaining returns the number of lots not yet resolved, including the current one.
func (s *AuctionState) Remaining() int {
	if s.CurrentPlayerIdx >= len(s.Queue) {
		return 0
	}
	return len(s.Queue) - s.CurrentPlayerIdx
}

// Clone returns a deep copy of the state.
func (s AuctionState) Clone() AuctionState {
	cp := s
	cp.Queue = append([]Lot(nil), s.Queue...)
	cp.BidHistory = append([]BidRecord(nil), s.BidHistory...)
	cp.SoldPlayers = append([]SoldRecord(nil), s.SoldPlayers...)
	cp.UnsoldPlayers = append([]Lot(nil), s.UnsoldPlayers...)
	return cp
}
