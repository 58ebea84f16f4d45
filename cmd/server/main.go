package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/quantrelay/quantrelay/internal/brokerage"
	"github.com/quantrelay/quantrelay/internal/config"
	"github.com/quantrelay/quantrelay/internal/engine"
	"github.com/quantrelay/quantrelay/internal/exchange"
	"github.com/quantrelay/quantrelay/internal/exchange/binanceconn"
	"github.com/quantrelay/quantrelay/internal/exchange/restconn"
	"github.com/quantrelay/quantrelay/internal/logger"
	"github.com/quantrelay/quantrelay/internal/notify"
	"github.com/quantrelay/quantrelay/internal/server"
	"github.com/quantrelay/quantrelay/internal/store"
	"github.com/quantrelay/quantrelay/internal/types"
	"github.com/quantrelay/quantrelay/pkg/errors"
)

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	logr, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer logr.Sync()

	tokens, err := store.NewTokenStore(cfg.TokenStorePath)
	if err != nil {
		return err
	}
	defer tokens.Close()

	registry := exchange.NewRegistry(adapterFactory(cfg, tokens, logr))
	executor := engine.NewExecutor(engine.DefaultExecutorConfig(), logr)
	eng := engine.New(registry, configCreds{cfg}, executor, logr)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL, logr)
	}

	srv := server.New(eng, notifier, cfg.Password, cfg.AllowedIPs, logr)

	logr.Info("starting server",
		zap.String("addr", cfg.ListenAddr),
		zap.Int("venues", len(cfg.Venues)),
		zap.Int("brokerage_accounts", len(cfg.KISAccounts)),
	)

	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}

// configCreds resolves venue credentials from the loaded configuration.
// For brokerage venues the key material identifies the numbered account
// slot; crypto venues read the per-venue credential block.
type configCreds struct {
	cfg *config.Config
}

func (c configCreds) Credentials(venue types.Venue, account int) (exchange.Credentials, error) {
	if venue.IsStock() {
		acct, ok := c.cfg.KISAccount(account)
		if !ok {
			return exchange.Credentials{}, errors.Newf(errors.ErrCodeUnsupportedVenue,
				"brokerage account %d is not configured", account)
		}

		return exchange.Credentials{Key: acct.AppKey, Secret: acct.AppSecret, Account: account}, nil
	}

	creds, ok := c.cfg.VenueCreds(string(venue))
	if !ok {
		return exchange.Credentials{}, errors.Newf(errors.ErrCodeUnsupportedVenue,
			"venue %s is not configured", venue)
	}

	return exchange.Credentials{
		Key:        creds.Key,
		Secret:     creds.Secret,
		Passphrase: creds.Passphrase,
		Account:    account,
	}, nil
}

// defaultBias leaves percent headroom on venues where fees settle from the
// funding balance. Upbit charges its fee on top of the spent notional.
func defaultBias(venue types.Venue) float64 {
	switch venue {
	case types.VenueUpbit:
		return 1.0
	case types.VenueBinance, types.VenueBybit, types.VenueBitget, types.VenueOKX:
		return 0.5
	default:
		return 0
	}
}

func adapterFactory(cfg *config.Config, tokens *store.TokenStore, logr *logger.Logger) exchange.AdapterFactory {
	return func(venue types.Venue, creds exchange.Credentials) (exchange.Adapter, error) {
		traits := exchange.VenueTraits{
			Venue:       venue,
			PercentBias: decimal.NewFromFloat(cfg.BiasFor(string(venue), defaultBias(venue))),
			CallTimeout: cfg.CallTimeout,
		}

		switch venue {
		case types.VenueBinance:
			return exchange.NewBinanceAdapter(binanceconn.New(creds.Key, creds.Secret), traits, logr), nil
		case types.VenueBybit:
			return exchange.NewBybitAdapter(restconn.NewBybit(creds.Key, creds.Secret), traits, logr), nil
		case types.VenueOKX:
			return exchange.NewOKXAdapter(restconn.NewOKX(creds.Key, creds.Secret, creds.Passphrase), traits, logr), nil
		case types.VenueBitget:
			return exchange.NewBitgetAdapter(restconn.NewBitget(creds.Key, creds.Secret, creds.Passphrase), traits, logr), nil
		case types.VenueUpbit:
			return exchange.NewUpbitAdapter(restconn.NewUpbit(creds.Key, creds.Secret), traits, logr), nil
		case types.VenueKRX, types.VenueNasdaq, types.VenueNYSE, types.VenueAmex:
			return brokerageAdapter(cfg, tokens, venue, creds.Account, logr)
		default:
			return nil, errors.Newf(errors.ErrCodeUnsupportedVenue, "no adapter for venue %s", venue)
		}
	}
}

func brokerageAdapter(cfg *config.Config, tokens *store.TokenStore, venue types.Venue,
	account int, logr *logger.Logger) (exchange.Adapter, error) {
	acct, ok := cfg.KISAccount(account)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedVenue,
			"brokerage account %d is not configured", account)
	}

	client := brokerage.NewKISClient(brokerage.KISConfig{
		AppKey:             acct.AppKey,
		AppSecret:          acct.AppSecret,
		AccountNumber:      acct.AccountNumber,
		AccountProductCode: acct.AccountProductCode,
	}, venue)
	session := brokerage.NewCachingSessionProvider(client, tokens, account, logr)

	// KRX quotes come from the brokerage itself; polygon has no Korean
	// market data and only serves the US venues.
	var quotes brokerage.QuoteSource
	if venue == types.VenueKRX {
		quotes = brokerage.NewBrokerQuotes(client, session)
	} else {
		if cfg.PolygonAPIKey == "" {
			return nil, errors.New(errors.ErrCodeUnsupportedVenue,
				"US stock venues require polygon_api_key for quotes")
		}

		quotes = brokerage.NewPolygonQuotes(cfg.PolygonAPIKey)
	}

	return brokerage.NewAdapter(venue, client, session, quotes, logr), nil
}

func main() {
	cmd := &cli.Command{
		Name:  "quantrelay",
		Usage: "Webhook-driven order relay across crypto and stock venues",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the yaml configuration file",
				Sources: cli.EnvVars("QR_CONFIG"),
			},
		},
		Action: serveAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
