package queue

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mcdev12/bidroom/go/internal/catalog"
	"github.com/mcdev12/bidroom/go/internal/models"
	"github.com/shopspring/decimal"
)

// Price ladder shared by both pricing modes.
var (
	PriceTop    = decimal.NewFromInt(2)
	PriceMiddle = decimal.NewFromInt(1)
	PriceFloor  = models.MinBasePrice
)

// Mega mode tag thresholds, in crore.
const (
	topTagThreshold    = 14.0
	middleTagThreshold = 4.0
)

// DefaultHomeNation is the nationality that is not flagged foreign.
const DefaultHomeNation = "India"

// Options tune queue construction.
type Options struct {
	HomeNation string
}

// tagAmount captures an amount and the unit written next to it. A bare number is crore.
var tagAmount = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(crores?|crs?|lakhs?|lacs?|l)?\b`)

// Build turns a catalog dataset into the ordered auction queue for a mode: batsmen, then
// all-rounders, then bowlers, each lot carrying its base price. The result depends only on
// its inputs.
func Build(ds catalog.Dataset, mode models.AuctionMode, opts Options) []models.Lot {
	if opts.HomeNation == "" {
		opts.HomeNation = DefaultHomeNation
	}

	lots := make([]models.Lot, 0, ds.Len())
	for _, role := range models.RoleOrder {
		group := ds.Group(role)
		if mode == models.AuctionModeLegend {
			lots = append(lots, priceLegendGroup(group, role)...)
		} else {
			lots = append(lots, priceMegaGroup(group, role, opts.HomeNation)...)
		}
	}
	return lots
}

func priceMegaGroup(entries []catalog.Entry, role models.Role, home string) []models.Lot {
	lots := make([]models.Lot, 0, len(entries))
	for _, e := range entries {
		lot := newLot(e, role)
		lot.BasePrice = MegaBasePrice(e.Price)
		lot.IsForeign = IsForeign(e.Nationality, home)
		lots = append(lots, lot)
	}
	return lots
}

// MegaBasePrice maps a historical price tag such as "₹18 Cr" or "₹75 L" onto the price ladder.
// Tags without a usable amount fall back to the floor.
func MegaBasePrice(tag string) decimal.Decimal {
	amount, ok := parseTagCrore(tag)
	if !ok {
		return PriceFloor
	}
	switch {
	case amount >= topTagThreshold:
		return PriceTop
	case amount >= middleTagThreshold:
		return PriceMiddle
	default:
		return PriceFloor
	}
}

func parseTagCrore(tag string) (float64, bool) {
	match := tagAmount.FindStringSubmatch(tag)
	if match == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if unit := strings.ToLower(match[2]); unit != "" && !strings.HasPrefix(unit, "cr") {
		amount /= 100
	}
	return amount, true
}

// IsForeign reports whether a recorded nationality differs from the home designation.
// An empty nationality is never foreign.
func IsForeign(nationality, home string) bool {
	if nationality == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(nationality), strings.ToLower(home))
}

func priceLegendGroup(entries []catalog.Entry, role models.Role) []models.Lot {
	ranked := make([]catalog.Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankingStat(ranked[i], role) > rankingStat(ranked[j], role)
	})

	third := int(math.Ceil(float64(len(ranked)) / 3))
	lots := make([]models.Lot, 0, len(ranked))
	for i, e := range ranked {
		lot := newLot(e, role)
		switch {
		case i < third:
			lot.BasePrice = PriceTop
		case i < third*2:
			lot.BasePrice = PriceMiddle
		default:
			lot.BasePrice = PriceFloor
		}
		lots = append(lots, lot)
	}
	return lots
}

func rankingStat(e catalog.Entry, role models.Role) float64 {
	if role == models.RoleAllRounder {
		return catalog.StatValue(e.BattingStats, "matches")
	}
	return catalog.StatValue(e.Stats, "runs_or_wickets")
}

func newLot(e catalog.Entry, role models.Role) models.Lot {
	return models.Lot{
		Name:         e.Name,
		Role:         role,
		Nationality:  e.Nationality,
		PriceTag:     e.Price,
		Stats:        e.Stats,
		BattingStats: e.BattingStats,
		BowlingStats: e.BowlingStats,
	}
}

var ErrEmptyQueue = errors.New("auction queue is empty")

// Validate checks a queue supplied from outside the builder.
func Validate(lots []models.Lot) error {
	if len(lots) == 0 {
		return ErrEmptyQueue
	}
	for i, lot := range lots {
		if lot.Name == "" {
			return fmt.Errorf("lot %d has no name", i)
		}
		if lot.BasePrice.LessThan(PriceFloor) {
			return fmt.Errorf("lot %q base price %s is below the floor %s", lot.Name, lot.BasePrice, PriceFloor)
		}
	}
	return nil
}
