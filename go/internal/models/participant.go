package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPurse is the budget every participant starts a room with.
var DefaultPurse = decimal.NewFromInt(120)

// Participant is one connected team owner inside a room.
type Participant struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Team         string          `json:"team"`
	Purse        decimal.Decimal `json:"purse"`
	Players      []OwnedLot      `json:"players"`
	ForeignCount int             `json:"foreign_count"`
	IsHost       bool            `json:"is_host"`
	Connected    bool            `json:"connected"`
	JoinedAt     time.Time       `json:"joined_at"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (p *Participant) Clone() *Participant {
	cp := *p
	cp.Players = append([]OwnedLot(nil), p.Players...)
	return &cp
}
