package settlement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mcdev12/bidroom/go/internal/models"
	"github.com/shopspring/decimal"
)

// NoWinner is the winner name broadcast for a lot that timed out without bids.
const NoWinner = "UNSOLD"

var (
	ErrNotActive   = errors.New("auction not active")
	ErrStaleLot    = errors.New("lot already settled")
	ErrNotUnsold   = errors.New("player is not in the unsold list")
	ErrNoSelection = errors.New("select at least one player to re-auction")
)

// Outcome describes how a lot was resolved.
type Outcome struct {
	LotIndex   int
	Lot        models.Lot
	Sold       bool
	WinnerID   string
	WinnerName string
	FinalPrice decimal.Decimal
	// Ended is true when this was the last lot of the queue.
	Ended bool
}

// Settle resolves the lot under the hammer. When lotIndex is non-negative it must name the
// current lot, which makes re-delivered settlements for an already resolved lot harmless.
func Settle(room *models.Room, lotIndex int) (Outcome, error) {
	st := &room.AuctionState
	if st.Status != models.AuctionStatusActive {
		return Outcome{}, ErrNotActive
	}
	lot, ok := st.CurrentLot()
	if !ok {
		return Outcome{}, ErrNotActive
	}
	if lotIndex >= 0 && lotIndex != st.CurrentPlayerIdx {
		return Outcome{}, fmt.Errorf("%w: lot %d, current %d", ErrStaleLot, lotIndex, st.CurrentPlayerIdx)
	}

	out := Outcome{LotIndex: st.CurrentPlayerIdx, Lot: lot, WinnerName: NoWinner, FinalPrice: decimal.Zero}

	// A winner who left the room before the hammer cannot be charged.
	if winner, ok := room.Players[st.CurrentBidderID]; ok && st.CurrentBidderID != "" {
		price := st.CurrentBid
		winner.Purse = winner.Purse.Sub(price)

		sold := lot
		sold.SoldPrice = &price
		sold.WinnerID = winner.ID
		st.Queue[st.CurrentPlayerIdx] = sold

		winner.Players = append(winner.Players, models.OwnedLot{Lot: sold, PricePaid: price})
		if sold.IsForeign {
			winner.ForeignCount++
		}
		st.SoldPlayers = append(st.SoldPlayers, models.SoldRecord{
			Name:       sold.Name,
			Price:      price,
			Winner:     winner.Name,
			WinnerID:   winner.ID,
			WinnerTeam: winner.Team,
			Role:       sold.Role,
		})

		out.Sold = true
		out.Lot = sold
		out.WinnerID = winner.ID
		out.WinnerName = winner.Name
		out.FinalPrice = price
	} else {
		st.UnsoldPlayers = append(st.UnsoldPlayers, lot)
	}

	st.CurrentBidderID = ""
	st.BidHistory = nil
	st.CurrentPlayerIdx++

	if next, ok := st.CurrentLot(); ok {
		st.CurrentBid = next.BasePrice
		st.TimeLeft = room.TimerDuration
	} else {
		st.CurrentBid = decimal.Zero
		st.TimeLeft = 0
		st.Status = models.AuctionStatusEnded
		out.Ended = true
	}
	return out, nil
}

// PriceBucket groups unsold lots sharing a base price.
type PriceBucket struct {
	BasePrice decimal.Decimal `json:"base_price"`
	Lots      []models.Lot    `json:"lots"`
}

// GroupByBasePrice buckets unsold lots by base price, highest first, preserving lot order
// inside a bucket.
func GroupByBasePrice(unsold []models.Lot) []PriceBucket {
	var buckets []PriceBucket
	for _, lot := range unsold {
		idx := -1
		for i := range buckets {
			if buckets[i].BasePrice.Equal(lot.BasePrice) {
				idx = i
				break
			}
		}
		if idx < 0 {
			buckets = append(buckets, PriceBucket{BasePrice: lot.BasePrice})
			idx = len(buckets) - 1
		}
		buckets[idx].Lots = append(buckets[idx].Lots, lot)
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].BasePrice.GreaterThan(buckets[j].BasePrice)
	})
	return buckets
}

// SelectUnsold picks lots by name from the unsold collection for a re-auction. It returns the
// selected lots in selection order and the lots left unselected.
func SelectUnsold(unsold []models.Lot, names []string) (selected, remaining []models.Lot, err error) {
	if len(names) == 0 {
		return nil, nil, ErrNoSelection
	}
	taken := make([]bool, len(unsold))
	for _, name := range names {
		found := false
		for i, lot := range unsold {
			if !taken[i] && lot.Name == name {
				taken[i] = true
				selected = append(selected, lot)
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotUnsold, name)
		}
	}
	for i, lot := range unsold {
		if !taken[i] {
			remaining = append(remaining, lot)
		}
	}
	return selected, remaining, nil
}
