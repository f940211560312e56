package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/bidroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Dataset names as stored in the catalog_players table.
const (
	DatasetCategorized = "categorized"
	DatasetWithStats   = "with_stats"
)

// Querier is the subset of pgxpool.Pool the catalog needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads the catalog from the catalog_players table.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource creates a Postgres-backed catalog source.
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

const selectCatalog = `
SELECT dataset, role, name, price_tag, nationality,
       COALESCE(stats::text, ''), COALESCE(batting_stats::text, ''), COALESCE(bowling_stats::text, '')
FROM catalog_players
ORDER BY dataset, role, position`

// Load implements Source.
func (s *PostgresSource) Load(ctx context.Context) (Catalog, error) {
	rows, err := s.db.Query(ctx, selectCatalog)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var cat Catalog
	for rows.Next() {
		var (
			dataset, role           string
			e                       Entry
			stats, batting, bowling string
		)
		if err := rows.Scan(&dataset, &role, &e.Name, &e.Price, &e.Nationality, &stats, &batting, &bowling); err != nil {
			return Catalog{}, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		e.Stats = rawOrNil(stats)
		e.BattingStats = rawOrNil(batting)
		e.BowlingStats = rawOrNil(bowling)

		switch dataset {
		case DatasetCategorized:
			cat.Categorized.add(models.Role(role), e)
		case DatasetWithStats:
			cat.WithStats.add(models.Role(role), e)
		default:
			log.Warn().Str("dataset", dataset).Str("name", e.Name).Msg("skipping catalog row with unknown dataset")
		}
	}
	if err := rows.Err(); err != nil {
		return Catalog{}, fmt.Errorf("failed to iterate catalog rows: %w", err)
	}

	log.Info().
		Int("categorized", cat.Categorized.Len()).
		Int("with_stats", cat.WithStats.Len()).
		Msg("loaded catalog from postgres")

	return cat, nil
}

func rawOrNil(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
