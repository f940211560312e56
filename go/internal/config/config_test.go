package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Gateway.Port)
	assert.Equal(t, 1024, cfg.Gateway.MaxConnections)
	assert.Equal(t, CatalogSourceFile, cfg.Catalog.Source)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())

	opts, err := cfg.RoomOptions()
	require.NoError(t, err)
	assert.Equal(t, "120", opts.Purse.String())
	assert.Equal(t, 15, opts.DefaultTimer)
	assert.Equal(t, 10, opts.MaxParticipants)
	assert.Equal(t, 25, opts.MaxSquad)
	assert.Equal(t, 8, opts.MaxForeign)
	assert.Equal(t, 30*time.Second, opts.ReconnectGrace)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auction.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
gateway:
  port: "9000"
auction:
  purse: "100"
  default_timer: 45
  reconnect_grace: 10s
catalog:
  source: postgres
`), 0o600))

	t.Setenv("GATEWAY_PORT", "9100")
	t.Setenv("AUCTION_MAX_FOREIGN", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Gateway.Port)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, CatalogSourcePostgres, cfg.Catalog.Source)

	opts, err := cfg.RoomOptions()
	require.NoError(t, err)
	assert.Equal(t, "100", opts.Purse.String())
	assert.Equal(t, 30, opts.DefaultTimer)
	assert.Equal(t, 4, opts.MaxForeign)
	assert.Equal(t, 10*time.Second, opts.ReconnectGrace)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("AUCTION_PURSE", "lots")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_UnknownCatalogSource(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", "s3")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown catalog source")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
