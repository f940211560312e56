package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/bidroom/go/internal/auction/identity"
	"github.com/mcdev12/bidroom/go/internal/auction/participant"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8080/ws", "gateway websocket URL")
		name      = flag.String("name", "", "participant display name")
		team      = flag.String("team", "", "franchise abbreviation, e.g. MI")
		roomCode  = flag.String("room", "", "room code to join")
		create    = flag.Bool("create", false, "create a new room instead of joining one")
		mode      = flag.String("mode", "mega", "auction mode when creating: mega or legend")
		timerSecs = flag.Int("timer", 15, "countdown seconds when creating")
		idPath    = flag.String("identity", "", "bbolt file for the saved session identity")
		bidUntil  = flag.String("bid-until", "", "bid automatically while the next bid is at most this amount")
		retry     = flag.Duration("retry", 2*time.Second, "delay between reconnect attempts")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	decimal.MarshalJSONWithoutQuotes = true

	if *name == "" || *team == "" {
		log.Fatal().Msg("-name and -team are required")
	}

	cfg := participant.Config{
		Name:          *name,
		Team:          *team,
		RoomCode:      *roomCode,
		Create:        *create,
		AuctionMode:   *mode,
		TimerDuration: *timerSecs,
		RetryDelay:    *retry,
	}
	if *bidUntil != "" {
		limit, err := decimal.NewFromString(*bidUntil)
		if err != nil {
			log.Fatal().Err(err).Str("bid_until", *bidUntil).Msg("invalid bid limit")
		}
		cfg.BidUntil = limit
	}

	var store identity.Store = identity.NewMemoryStore()
	if *idPath != "" {
		bolt, err := identity.OpenBoltStore(*idPath, *name)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open identity store")
		}
		defer bolt.Close()
		store = bolt
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent := participant.New(cfg, participant.WebSocketDialer(*url), store, clockwork.NewRealClock())

	log.Info().
		Str("name", *name).
		Str("team", *team).
		Str("room_code", *roomCode).
		Bool("create", *create).
		Msg("auction bot starting")

	if err := agent.Run(ctx); err != nil {
		log.Error().Err(err).Msg("auction bot stopped")
		return
	}

	if r := agent.Room(); r != nil {
		log.Info().
			Str("room_code", r.Code).
			Str("status", string(r.AuctionState.Status)).
			Msg("auction bot exited")
	}
}
