package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/bidroom/go/internal/catalog"
	"github.com/mcdev12/bidroom/go/internal/dbconfig"
	"github.com/mcdev12/bidroom/go/internal/models"
)

const createTable = `
CREATE TABLE IF NOT EXISTS catalog_players (
  dataset       TEXT    NOT NULL,
  role          TEXT    NOT NULL,
  position      INTEGER NOT NULL,
  name          TEXT    NOT NULL,
  price_tag     TEXT    NOT NULL DEFAULT '',
  nationality   TEXT    NOT NULL DEFAULT '',
  stats         JSONB,
  batting_stats JSONB,
  bowling_stats JSONB,
  PRIMARY KEY (dataset, name)
)`

const upsertPlayer = `
INSERT INTO catalog_players (
  dataset, role, position, name, price_tag, nationality, stats, batting_stats, bowling_stats
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (dataset, name) DO UPDATE SET
  role = EXCLUDED.role,
  position = EXCLUDED.position,
  price_tag = EXCLUDED.price_tag,
  nationality = EXCLUDED.nationality,
  stats = EXCLUDED.stats,
  batting_stats = EXCLUDED.batting_stats,
  bowling_stats = EXCLUDED.bowling_stats`

func main() {
	dir := flag.String("dir", "data", "directory holding the catalog JSON files")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(context.Background(), *dir); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func run(ctx context.Context, dir string) error {
	datasets := map[string]string{
		catalog.DatasetCategorized: catalog.CategorizedFile,
		catalog.DatasetWithStats:   catalog.WithStatsFile,
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := cfg.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create catalog table: %w", err)
	}

	for name, file := range datasets {
		ds, err := catalog.ReadDatasetFile(filepath.Join(dir, file))
		if err != nil {
			return err
		}

		n, err := seedDataset(ctx, pool, name, ds)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", name, err)
		}
		log.Info().Str("dataset", name).Int("rows", n).Msg("seeded catalog dataset")
	}
	return nil
}

type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func seedDataset(ctx context.Context, db beginner, dataset string, ds catalog.Dataset) (int, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := 0
	for _, role := range models.RoleOrder {
		for i, e := range ds.Group(role) {
			if _, err := tx.Exec(ctx, upsertPlayer,
				dataset, string(role), i, e.Name, e.Price, e.Nationality,
				e.Stats, e.BattingStats, e.BowlingStats,
			); err != nil {
				return 0, fmt.Errorf("failed to insert %q: %w", e.Name, err)
			}
			rows++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return rows, nil
}
