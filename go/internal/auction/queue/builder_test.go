package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/bidroom/go/internal/catalog"
	"github.com/mcdev12/bidroom/go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMegaBasePrice(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"₹18 Cr", "2"},
		{"₹14 Cr", "2"},
		{"₹10 Cr", "1"},
		{"₹4 Cr", "1"},
		{"₹2 Cr", "0.5"},
		{"₹75 L", "0.5"},
		{"₹75L", "0.5"},
		{"₹40L", "0.5"},
		{"₹75 Lakh", "0.5"},
		{"₹16.3 Cr", "1"},
		{"₹4Cr", "1"},
		{"18 crore", "2"},
		{"₹20", "2"},
		{"Retained", "0.5"},
		{"", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, MegaBasePrice(tt.tag).String())
		})
	}
}

func TestIsForeign(t *testing.T) {
	assert.False(t, IsForeign("India", DefaultHomeNation))
	assert.False(t, IsForeign("INDIAN", DefaultHomeNation))
	assert.True(t, IsForeign("Australia", DefaultHomeNation))
	assert.False(t, IsForeign("", DefaultHomeNation))
}

func megaDataset() catalog.Dataset {
	return catalog.Dataset{
		Bowlers:     []catalog.Entry{{Name: "Rashid Khan", Price: "₹18 Cr", Nationality: "Afghanistan"}},
		Batsmen:     []catalog.Entry{{Name: "Rohit Sharma", Price: "₹16.3 Cr", Nationality: "India"}, {Name: "Unknown Bat"}},
		AllRounders: []catalog.Entry{{Name: "Andre Russell", Price: "₹12 Cr", Nationality: "West Indies"}},
	}
}

func TestBuild_MegaOrdersByRole(t *testing.T) {
	lots := Build(megaDataset(), models.AuctionModeMega, Options{})

	require.Len(t, lots, 4)
	names := []string{lots[0].Name, lots[1].Name, lots[2].Name, lots[3].Name}
	assert.Equal(t, []string{"Rohit Sharma", "Unknown Bat", "Andre Russell", "Rashid Khan"}, names)

	assert.Equal(t, models.RoleBatsman, lots[0].Role)
	assert.Equal(t, "2", lots[0].BasePrice.String())
	assert.False(t, lots[0].IsForeign)
	assert.Equal(t, "0.5", lots[1].BasePrice.String())
	assert.Equal(t, models.RoleAllRounder, lots[2].Role)
	assert.Equal(t, "1", lots[2].BasePrice.String())
	assert.True(t, lots[2].IsForeign)
	assert.Equal(t, models.RoleBowler, lots[3].Role)
	assert.True(t, lots[3].IsForeign)
}

func statsEntry(name, key string, v int) catalog.Entry {
	raw := json.RawMessage(fmt.Sprintf(`{%q: %d}`, key, v))
	if key == "matches" {
		return catalog.Entry{Name: name, BattingStats: raw}
	}
	return catalog.Entry{Name: name, Stats: raw}
}

func TestBuild_LegendTiers(t *testing.T) {
	ds := catalog.Dataset{
		Batsmen: []catalog.Entry{
			statsEntry("B1", "runs_or_wickets", 100),
			statsEntry("B2", "runs_or_wickets", 900),
			statsEntry("B3", "runs_or_wickets", 500),
			statsEntry("B4", "runs_or_wickets", 500),
			statsEntry("B5", "runs_or_wickets", 50),
			statsEntry("B6", "runs_or_wickets", 700),
		},
		AllRounders: []catalog.Entry{
			statsEntry("A1", "matches", 10),
			statsEntry("A2", "matches", 200),
			{Name: "A3", Nationality: "England"},
		},
		Bowlers: []catalog.Entry{statsEntry("W1", "runs_or_wickets", 150)},
	}

	lots := Build(ds, models.AuctionModeLegend, Options{})

	got := make([]string, 0, len(lots))
	for _, l := range lots {
		got = append(got, l.Name+"="+l.BasePrice.String())
		assert.False(t, l.IsForeign, "legend mode never flags foreign lots")
	}
	want := []string{
		"B2=2", "B6=2", "B3=1", "B4=1", "B1=0.5", "B5=0.5",
		"A2=2", "A1=1", "A3=0.5",
		"W1=2",
	}
	assert.Equal(t, want, got)
}

func TestBuild_Deterministic(t *testing.T) {
	ds := megaDataset()
	for _, mode := range []models.AuctionMode{models.AuctionModeMega, models.AuctionModeLegend} {
		first := Build(ds, mode, Options{})
		for i := 0; i < 5; i++ {
			if diff := cmp.Diff(first, Build(ds, mode, Options{})); diff != "" {
				t.Fatalf("%s queue changed between builds (-first +again):\n%s", mode, diff)
			}
		}
		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(Build(ds, mode, Options{}))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate(nil), ErrEmptyQueue)
	assert.Error(t, Validate([]models.Lot{{Name: "x", BasePrice: decimal.RequireFromString("0.2")}}))
	assert.Error(t, Validate([]models.Lot{{BasePrice: PriceTop}}))
	assert.NoError(t, Validate([]models.Lot{{Name: "x", BasePrice: PriceFloor}}))
}

type countingSource struct {
	cat   catalog.Catalog
	loads int
	err   error
}

func (s *countingSource) Load(context.Context) (catalog.Catalog, error) {
	s.loads++
	return s.cat, s.err
}

func TestProvider_CachesPerMode(t *testing.T) {
	src := &countingSource{cat: catalog.Catalog{Categorized: megaDataset(), WithStats: megaDataset()}}
	p, err := NewProvider(src, Options{}, 4)
	require.NoError(t, err)

	first, err := p.Queue(t.Context(), models.AuctionModeMega)
	require.NoError(t, err)
	first[0].Name = "mutated by a room"

	again, err := p.Queue(t.Context(), models.AuctionModeMega)
	require.NoError(t, err)
	assert.Equal(t, "Rohit Sharma", again[0].Name)
	assert.Equal(t, 1, src.loads)

	_, err = p.Queue(t.Context(), models.AuctionModeLegend)
	require.NoError(t, err)
	assert.Equal(t, 2, src.loads)
}

func TestProvider_SourceError(t *testing.T) {
	p, err := NewProvider(&countingSource{err: errors.New("boom")}, Options{}, 4)
	require.NoError(t, err)

	_, err = p.Queue(t.Context(), models.AuctionModeMega)
	assert.Error(t, err)
}
