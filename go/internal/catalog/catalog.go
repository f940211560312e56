package catalog

import (
	"context"
	"encoding/json"

	"github.com/mcdev12/bidroom/go/internal/models"
)

// Entry is one player record as it appears in either dataset.
type Entry struct {
	Name         string          `json:"name"`
	Price        string          `json:"price,omitempty"`
	Nationality  string          `json:"nationality,omitempty"`
	Stats        json.RawMessage `json:"stats,omitempty"`
	BattingStats json.RawMessage `json:"batting_stats,omitempty"`
	BowlingStats json.RawMessage `json:"bowling_stats,omitempty"`
}

// Dataset is a catalog partitioned by role.
type Dataset struct {
	Batsmen     []Entry `json:"batsmen"`
	AllRounders []Entry `json:"all_rounders"`
	Bowlers     []Entry `json:"bowlers"`
}

// Group returns the entries of one role group in catalog order.
func (d Dataset) Group(role models.Role) []Entry {
	switch role {
	case models.RoleBatsman:
		return d.Batsmen
	case models.RoleAllRounder:
		return d.AllRounders
	case models.RoleBowler:
		return d.Bowlers
	default:
		return nil
	}
}

// Len returns the total number of entries.
func (d Dataset) Len() int {
	return len(d.Batsmen) + len(d.AllRounders) + len(d.Bowlers)
}

func (d *Dataset) add(role models.Role, e Entry) {
	switch role {
	case models.RoleBatsman:
		d.Batsmen = append(d.Batsmen, e)
	case models.RoleAllRounder:
		d.AllRounders = append(d.AllRounders, e)
	case models.RoleBowler:
		d.Bowlers = append(d.Bowlers, e)
	}
}

// Catalog holds both static datasets: the role-categorized one with price tags used in mega
// mode, and the career-statistics one used in legend mode.
type Catalog struct {
	Categorized Dataset
	WithStats   Dataset
}

// For returns the dataset a pricing mode draws from.
func (c Catalog) For(mode models.AuctionMode) Dataset {
	if mode == models.AuctionModeLegend {
		return c.WithStats
	}
	return c.Categorized
}

// Source loads the read-only player catalog.
type Source interface {
	Load(ctx context.Context) (Catalog, error)
}
