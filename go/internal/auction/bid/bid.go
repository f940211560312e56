package bid

import (
	"errors"
	"time"

	"github.com/mcdev12/bidroom/go/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrAuctionNotActive  = errors.New("auction not active")
	ErrAmountMismatch    = errors.New("bid amount does not match next legal bid")
	ErrInsufficientPurse = errors.New("insufficient purse")
	ErrSelfOutbid        = errors.New("you already hold the highest bid")
	ErrSquadFull         = errors.New("squad is full")
	ErrForeignLimit      = errors.New("foreign player limit reached")
)

var (
	smallStep = decimal.RequireFromString("0.10")
	largeStep = decimal.RequireFromString("0.25")
	stepLimit = decimal.NewFromInt(5)
)

// NextLegalBid returns the only amount a participant may bid next.
// Below 5.0 the increment is 0.10, from 5.0 upwards it is 0.25.
func NextLegalBid(current decimal.Decimal) decimal.Decimal {
	if current.LessThan(stepLimit) {
		return current.Add(smallStep).Round(2)
	}
	return current.Add(largeStep).Round(2)
}

// Limits are the squad caps a bid must respect. Zero values disable a cap.
type Limits struct {
	MaxSquad   int
	MaxForeign int
	// ForeignCapApplies is true in mega mode only.
	ForeignCapApplies bool
}

// Validate checks whether participant may bid amount on the current lot. It never mutates.
func Validate(participant *models.Participant, amount decimal.Decimal, state *models.AuctionState, limits Limits) error {
	if state.Status != models.AuctionStatusActive {
		return ErrAuctionNotActive
	}
	lot, ok := state.CurrentLot()
	if !ok {
		return ErrAuctionNotActive
	}
	if !amount.Equal(NextLegalBid(state.CurrentBid)) {
		return ErrAmountMismatch
	}
	if participant.Purse.LessThan(amount) {
		return ErrInsufficientPurse
	}
	if participant.ID == state.CurrentBidderID {
		return ErrSelfOutbid
	}
	if limits.MaxSquad > 0 && len(participant.Players) >= limits.MaxSquad {
		return ErrSquadFull
	}
	if limits.ForeignCapApplies && lot.IsForeign && limits.MaxForeign > 0 && participant.ForeignCount >= limits.MaxForeign {
		return ErrForeignLimit
	}
	return nil
}

// Place validates and, on success, records the bid as the current high bid.
// The purse is not debited here; that happens at settlement.
func Place(participant *models.Participant, amount decimal.Decimal, state *models.AuctionState, limits Limits, at time.Time) error {
	if err := Validate(participant, amount, state, limits); err != nil {
		return err
	}
	state.CurrentBid = amount
	state.CurrentBidderID = participant.ID
	state.BidHistory = append(state.BidHistory, models.BidRecord{
		ParticipantID:   participant.ID,
		ParticipantName: participant.Name,
		Amount:          amount,
		Timestamp:       at,
	})
	return nil
}
