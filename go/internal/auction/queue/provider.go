package queue

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mcdev12/bidroom/go/internal/catalog"
	"github.com/mcdev12/bidroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Provider builds queues from a catalog source and memoizes them per mode. The catalog is
// static and Build is deterministic, so every room of a mode gets the same queue.
type Provider struct {
	source catalog.Source
	opts   Options
	cache  *lru.Cache
	mu     sync.Mutex
}

// NewProvider creates a caching queue provider.
func NewProvider(source catalog.Source, opts Options, cacheSize int) (*Provider, error) {
	c, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue cache: %w", err)
	}
	return &Provider{source: source, opts: opts, cache: c}, nil
}

// Queue returns a fresh copy of the queue for a mode.
func (p *Provider) Queue(ctx context.Context, mode models.AuctionMode) ([]models.Lot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, ok := p.cache.Get(mode); ok {
		return append([]models.Lot(nil), cached.([]models.Lot)...), nil
	}

	cat, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	lots := Build(cat.For(mode), mode, p.opts)
	if err := Validate(lots); err != nil {
		return nil, fmt.Errorf("catalog produced an unusable %s queue: %w", mode, err)
	}
	p.cache.Add(mode, lots)

	log.Info().
		Str("auction_mode", string(mode)).
		Int("lots", len(lots)).
		Msg("built auction queue")

	return append([]models.Lot(nil), lots...), nil
}
