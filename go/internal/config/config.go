// Package config loads the gateway's settings from an optional YAML file and the environment.
// Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/bidroom/go/internal/auction/room"
	"github.com/mcdev12/bidroom/go/internal/models"
)

const (
	CatalogSourceFile     = "file"
	CatalogSourcePostgres = "postgres"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	Gateway struct {
		Port           string   `yaml:"port"`
		MaxConnections int      `yaml:"max_connections"`
		MessageRate    float64  `yaml:"message_rate"`
		MessageBurst   int      `yaml:"message_burst"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"gateway"`

	Auction struct {
		Purse           string        `yaml:"purse"`
		DefaultTimer    int           `yaml:"default_timer"`
		MaxParticipants int           `yaml:"max_participants"`
		MaxSquad        int           `yaml:"max_squad"`
		MaxForeign      int           `yaml:"max_foreign"`
		ReconnectGrace  time.Duration `yaml:"reconnect_grace"`
		HomeNation      string        `yaml:"home_nation"`
	} `yaml:"auction"`

	Catalog struct {
		Source    string `yaml:"source"`
		Dir       string `yaml:"dir"`
		CacheSize int    `yaml:"cache_size"`
	} `yaml:"catalog"`

	Events struct {
		NATSURL       string `yaml:"nats_url"`
		StreamName    string `yaml:"stream_name"`
		SubjectPrefix string `yaml:"subject_prefix"`
		Buffer        int    `yaml:"buffer"`
	} `yaml:"events"`
}

// Default returns the stock configuration.
func Default() Config {
	var c Config
	c.LogLevel = "info"

	c.Gateway.Port = "8080"
	c.Gateway.MaxConnections = 1024
	c.Gateway.MessageRate = 20
	c.Gateway.MessageBurst = 40
	c.Gateway.AllowedOrigins = []string{"*"}

	c.Auction.Purse = models.DefaultPurse.String()
	c.Auction.DefaultTimer = models.DefaultTimerDuration
	c.Auction.MaxParticipants = 10
	c.Auction.MaxSquad = 25
	c.Auction.MaxForeign = 8
	c.Auction.ReconnectGrace = 30 * time.Second
	c.Auction.HomeNation = "India"

	c.Catalog.Source = CatalogSourceFile
	c.Catalog.Dir = "data"
	c.Catalog.CacheSize = 4

	c.Events.StreamName = "AUCTION_EVENTS"
	c.Events.SubjectPrefix = "auction.events"
	c.Events.Buffer = 256
	return c
}

// Load reads the YAML file at path (skipped when path is empty), then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(c *Config) {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Gateway.Port = getEnv("GATEWAY_PORT", c.Gateway.Port)
	c.Gateway.MaxConnections = getEnvAsInt("GATEWAY_MAX_CONNECTIONS", c.Gateway.MaxConnections)
	c.Gateway.MessageRate = getEnvAsFloat("GATEWAY_MSG_RATE", c.Gateway.MessageRate)
	c.Gateway.MessageBurst = getEnvAsInt("GATEWAY_MSG_BURST", c.Gateway.MessageBurst)
	if v := os.Getenv("GATEWAY_ALLOWED_ORIGINS"); v != "" {
		c.Gateway.AllowedOrigins = strings.Split(v, ",")
	}

	c.Auction.Purse = getEnv("AUCTION_PURSE", c.Auction.Purse)
	c.Auction.DefaultTimer = getEnvAsInt("AUCTION_DEFAULT_TIMER", c.Auction.DefaultTimer)
	c.Auction.MaxParticipants = getEnvAsInt("AUCTION_MAX_PARTICIPANTS", c.Auction.MaxParticipants)
	c.Auction.MaxSquad = getEnvAsInt("AUCTION_MAX_SQUAD", c.Auction.MaxSquad)
	c.Auction.MaxForeign = getEnvAsInt("AUCTION_MAX_FOREIGN", c.Auction.MaxForeign)
	c.Auction.ReconnectGrace = getEnvAsDuration("AUCTION_RECONNECT_GRACE", c.Auction.ReconnectGrace)
	c.Auction.HomeNation = getEnv("AUCTION_HOME_NATION", c.Auction.HomeNation)

	c.Catalog.Source = getEnv("CATALOG_SOURCE", c.Catalog.Source)
	c.Catalog.Dir = getEnv("CATALOG_DIR", c.Catalog.Dir)

	c.Events.NATSURL = getEnv("NATS_URL", c.Events.NATSURL)
}

// Validate rejects settings the gateway cannot run with.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if _, err := decimal.NewFromString(c.Auction.Purse); err != nil {
		return fmt.Errorf("invalid auction purse %q: %w", c.Auction.Purse, err)
	}
	if c.Auction.MaxParticipants < 2 {
		return fmt.Errorf("max participants must be at least 2, got %d", c.Auction.MaxParticipants)
	}
	switch c.Catalog.Source {
	case CatalogSourceFile, CatalogSourcePostgres:
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// RoomOptions converts the auction section into per-room options.
func (c Config) RoomOptions() (room.Options, error) {
	purse, err := decimal.NewFromString(c.Auction.Purse)
	if err != nil {
		return room.Options{}, fmt.Errorf("invalid auction purse %q: %w", c.Auction.Purse, err)
	}

	opts := room.DefaultOptions()
	opts.Purse = purse
	opts.DefaultTimer = models.NormalizeTimerDuration(c.Auction.DefaultTimer)
	opts.MaxParticipants = c.Auction.MaxParticipants
	opts.MaxSquad = c.Auction.MaxSquad
	opts.MaxForeign = c.Auction.MaxForeign
	opts.ReconnectGrace = c.Auction.ReconnectGrace
	return opts, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
