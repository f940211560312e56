package bid

import (
	"testing"
	"time"

	"github.com/mcdev12/bidroom/go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNextLegalBid(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"0.5", "0.6"},
		{"4.80", "4.90"},
		{"4.95", "5.05"},
		{"5.00", "5.25"},
		{"5.25", "5.50"},
		{"12.75", "13.00"},
	}
	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			got := NextLegalBid(d(tt.current))
			assert.True(t, d(tt.want).Equal(got), "want %s got %s", tt.want, got)
			assert.True(t, got.Equal(NextLegalBid(d(tt.current))), "must be stable for the same input")
		})
	}
}

func activeState() *models.AuctionState {
	return &models.AuctionState{
		Status:     models.AuctionStatusActive,
		Queue:      []models.Lot{{Name: "Lot A", Role: models.RoleBatsman, BasePrice: d("2")}, {Name: "Lot B", Role: models.RoleBowler, BasePrice: d("1"), IsForeign: true}},
		CurrentBid: d("2"),
	}
}

func participant(id string) *models.Participant {
	return &models.Participant{ID: id, Name: id, Purse: d("120")}
}

func TestPlace_Accepts(t *testing.T) {
	st := activeState()
	p := participant("b")
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, Place(p, d("2.1"), st, Limits{}, at))

	assert.True(t, d("2.1").Equal(st.CurrentBid))
	assert.Equal(t, "b", st.CurrentBidderID)
	require.Len(t, st.BidHistory, 1)
	assert.Equal(t, at, st.BidHistory[0].Timestamp)
	assert.True(t, d("120").Equal(p.Purse), "bidding must not debit the purse")
}

func TestPlace_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(st *models.AuctionState, p *models.Participant, l *Limits)
		amount  string
		wantErr error
	}{
		{
			name: "paused",
			mutate: func(st *models.AuctionState, _ *models.Participant, _ *Limits) {
				st.Status = models.AuctionStatusPaused
			},
			amount:  "2.1",
			wantErr: ErrAuctionNotActive,
		},
		{
			name:    "queue exhausted",
			mutate:  func(st *models.AuctionState, _ *models.Participant, _ *Limits) { st.CurrentPlayerIdx = 2 },
			amount:  "2.1",
			wantErr: ErrAuctionNotActive,
		},
		{
			name:    "arbitrary amount",
			mutate:  func(*models.AuctionState, *models.Participant, *Limits) {},
			amount:  "3",
			wantErr: ErrAmountMismatch,
		},
		{
			name:    "purse too small",
			mutate:  func(_ *models.AuctionState, p *models.Participant, _ *Limits) { p.Purse = d("2.05") },
			amount:  "2.1",
			wantErr: ErrInsufficientPurse,
		},
		{
			name:    "self outbid",
			mutate:  func(st *models.AuctionState, p *models.Participant, _ *Limits) { st.CurrentBidderID = p.ID },
			amount:  "2.1",
			wantErr: ErrSelfOutbid,
		},
		{
			name: "squad full",
			mutate: func(_ *models.AuctionState, p *models.Participant, l *Limits) {
				l.MaxSquad = 1
				p.Players = []models.OwnedLot{{Lot: models.Lot{Name: "x"}}}
			},
			amount:  "2.1",
			wantErr: ErrSquadFull,
		},
		{
			name: "foreign cap",
			mutate: func(st *models.AuctionState, p *models.Participant, l *Limits) {
				st.CurrentPlayerIdx = 1
				st.CurrentBid = d("1")
				l.ForeignCapApplies = true
				l.MaxForeign = 1
				p.ForeignCount = 1
			},
			amount:  "1.1",
			wantErr: ErrForeignLimit,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := activeState()
			p := participant("b")
			var limits Limits
			tt.mutate(st, p, &limits)
			before := st.Clone()

			err := Place(p, d(tt.amount), st, limits, time.Now())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, before.CurrentBid.Equal(st.CurrentBid))
			assert.Equal(t, before.CurrentBidderID, st.CurrentBidderID)
			assert.Len(t, st.BidHistory, len(before.BidHistory))
		})
	}
}

func TestPlace_ConsecutiveBidsAlternate(t *testing.T) {
	st := activeState()
	a, b := participant("a"), participant("b")

	require.NoError(t, Place(a, NextLegalBid(st.CurrentBid), st, Limits{}, time.Now()))
	assert.ErrorIs(t, Place(a, NextLegalBid(st.CurrentBid), st, Limits{}, time.Now()), ErrSelfOutbid)
	require.NoError(t, Place(b, NextLegalBid(st.CurrentBid), st, Limits{}, time.Now()))
	require.NoError(t, Place(a, NextLegalBid(st.CurrentBid), st, Limits{}, time.Now()))

	assert.True(t, d("2.3").Equal(st.CurrentBid))
	assert.Len(t, st.BidHistory, 3)
}
