package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mcdev12/bidroom/go/internal/auction/events"
	"github.com/mcdev12/bidroom/go/internal/auction/gateway"
	"github.com/mcdev12/bidroom/go/internal/auction/lobby"
	"github.com/mcdev12/bidroom/go/internal/auction/queue"
	"github.com/mcdev12/bidroom/go/internal/catalog"
	"github.com/mcdev12/bidroom/go/internal/config"
	"github.com/mcdev12/bidroom/go/internal/dbconfig"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Getenv("AUCTION_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	// Browser clients read bids and purses as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("auction gateway failed")
	}
	log.Info().Msg("auction gateway shutdown complete")
}

func run(ctx context.Context, cfg config.Config) error {
	roomOpts, err := cfg.RoomOptions()
	if err != nil {
		return err
	}

	source, closeSource, err := catalogSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	queues, err := queue.NewProvider(source, queue.Options{HomeNation: cfg.Auction.HomeNation}, cfg.Catalog.CacheSize)
	if err != nil {
		return err
	}

	publisher, closePublisher, err := eventPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()
	dispatcher := events.NewDispatcher(publisher, cfg.Events.Buffer)

	g, gctx := errgroup.WithContext(ctx)

	rooms := lobby.New(gctx, roomOpts, lobby.Deps{
		Queues: queues,
		Events: dispatcher,
	})

	gwCfg := gateway.DefaultConfig()
	gwCfg.AllowedOrigins = cfg.Gateway.AllowedOrigins
	gwCfg.ConnectionConfig.MessageRate = rate.Limit(cfg.Gateway.MessageRate)
	gwCfg.ConnectionConfig.MessageBurst = cfg.Gateway.MessageBurst
	svc := gateway.NewService(gctx, rooms, gwCfg)

	server := &http.Server{
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Gateway.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	listener = netutil.LimitListener(listener, cfg.Gateway.MaxConnections)

	log.Info().
		Str("port", cfg.Gateway.Port).
		Str("catalog_source", cfg.Catalog.Source).
		Bool("event_feed", cfg.Events.NATSURL != "").
		Int("max_connections", cfg.Gateway.MaxConnections).
		Msg("starting auction gateway")

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		log.Info().Str("addr", listener.Addr().String()).Msg("HTTP server starting")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down auction gateway")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc.Stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		return nil
	})

	return g.Wait()
}

func catalogSource(ctx context.Context, cfg config.Config) (catalog.Source, func(), error) {
	if cfg.Catalog.Source != config.CatalogSourcePostgres {
		return catalog.NewFileSource(cfg.Catalog.Dir), func() {}, nil
	}

	dbCfg := dbconfig.NewConfigFromEnv()
	pool, err := dbCfg.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("database", dbCfg.Database).Msg("reading player catalog from postgres")
	return catalog.NewPostgresSource(pool), pool.Close, nil
}

func eventPublisher(ctx context.Context, cfg config.Config) (events.Publisher, func(), error) {
	if cfg.Events.NATSURL == "" {
		return events.LogPublisher{}, func() {}, nil
	}

	jsCfg := events.DefaultJetStreamConfig()
	jsCfg.URL = cfg.Events.NATSURL
	jsCfg.StreamName = cfg.Events.StreamName
	jsCfg.SubjectPrefix = cfg.Events.SubjectPrefix

	pub, err := events.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	}, nil
}
