package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"signal-bridge/internal/api"
	"signal-bridge/internal/bridge"
	"signal-bridge/internal/events"
	"signal-bridge/internal/notify"
	"signal-bridge/internal/status"
	"signal-bridge/pkg/config"
	"signal-bridge/pkg/exchange/common"
	"signal-bridge/pkg/exchange/pionex"
	"signal-bridge/pkg/exchange/sign"
)

var buildVersion = "dev"

// simulatedVenue backs dry-run mode when no credentials are configured. It
// answers every balance query with a comfortable paper balance; orders never
// reach it because the bridge fabricates fills in dry-run.
type simulatedVenue struct{}

func (simulatedVenue) FreeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return decimal.NewFromInt(10000), nil
}

func (simulatedVenue) PlaceMarketOrder(ctx context.Context, req pionex.OrderRequest) (*pionex.OrderOutcome, error) {
	return &pionex.OrderOutcome{Kind: pionex.OutcomeFilled, OrderID: "sim"}, nil
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		logrus.Fatalf("exchange profile: %v", err)
	}

	schemeName := profile.Scheme
	if schemeName == "" {
		schemeName = cfg.SigningScheme
	}
	scheme, err := sign.ByName(schemeName)
	if err != nil {
		logrus.Fatalf("signing: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var venue bridge.Venue
	if cfg.APIKey != "" && cfg.APISecret != "" {
		// Credential presence was validated at config load; a failure here
		// would be a programming error, not a runtime condition.
		var client *pionex.Client
		timeSync := common.NewTimeSync(func(ctx context.Context) (int64, error) {
			return client.GetServerTime(ctx)
		})
		signer, err := sign.New(cfg.APIKey, cfg.APISecret, scheme, timeSync.Now)
		if err != nil {
			logrus.Fatalf("signing: %v", err)
		}
		client = pionex.New(profile, signer, pionex.WithTimeout(cfg.RequestTimeout))
		timeSync.Start(ctx)
		venue = client

		logrus.WithFields(logrus.Fields{
			"exchange": profile.Name,
			"scheme":   scheme.Name(),
			"key":      cfg.APIKey[:min(5, len(cfg.APIKey))],
		}).Info("exchange client ready")
	} else {
		venue = simulatedVenue{}
		logrus.Info("no credentials; running against simulated venue")
	}

	store := status.NewStore()
	bus := events.NewBus()

	var sinks notify.Multi
	if cfg.SMTPHost != "" {
		sinks = append(sinks, notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPTo, cfg.SMTPPassword))
	}
	if cfg.NotifyWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.NotifyWebhookURL))
	}
	var notifier notify.Notifier = sinks
	if len(sinks) == 0 {
		notifier = notify.Nop{}
		logrus.Warn("no notifier configured; outcomes will only be logged")
	}

	var dedup *bridge.DedupStore
	if cfg.DedupWindow > 0 {
		dedup = bridge.NewDedupStore(cfg.DedupWindow)
		logrus.WithField("window", cfg.DedupWindow).Info("duplicate-signal suppression enabled")
	}

	handler := bridge.NewHandler(venue, store, notifier, bus, dedup, bridge.Config{
		QuoteAsset:  profile.QuoteAsset,
		MinNotional: profile.MinNotionalDecimal(),
		DryRun:      cfg.DryRun,
	})

	server := api.NewServer(handler, store, bus, cfg.WebhookSecret, api.SystemMeta{
		Exchange: profile.Name,
		DryRun:   cfg.DryRun,
		Version:  buildVersion,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server.Router}
	go func() {
		logrus.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("http server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logrus.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("shutdown incomplete")
	}
}
