package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shanehull/racealert/internal/ai"
	"github.com/shanehull/racealert/internal/config"
	"github.com/shanehull/racealert/internal/history"
	"github.com/shanehull/racealert/internal/logging"
	"github.com/shanehull/racealert/internal/metrics"
	"github.com/shanehull/racealert/internal/notify"
	"github.com/shanehull/racealert/internal/poller"
	"github.com/shanehull/racealert/internal/source"
	"github.com/shanehull/racealert/internal/tracker"
	"github.com/shanehull/racealert/internal/watch"
)

type app struct {
	cfg        *config.Config
	store      *history.Store
	dispatcher *notify.Dispatcher
	metrics    *metrics.Metrics
	poller     *poller.Poller
}

func loadConfig() (*config.Config, error) {
	if *configFile != "" {
		if err := os.Setenv(config.FileEnv, *configFile); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		return nil, err
	}

	attrs := []any{"mode", cfg.ChannelMode}
	for k, v := range cfg.Diagnostics() {
		attrs = append(attrs, k, v)
	}
	slog.Debug("credential diagnostics", attrs...)
	return cfg, nil
}

func newDispatcher(cfg *config.Config, m *metrics.Metrics) *notify.Dispatcher {
	var sms, email notify.Sender
	if smsCfg := cfg.SMS(); smsCfg.Enabled() {
		sms = notify.NewSMSSender(smsCfg)
	} else {
		slog.Warn("sms channel not configured")
	}
	if emailCfg := cfg.SMTP(); emailCfg.Enabled() {
		email = notify.NewEmailSender(emailCfg)
	} else {
		slog.Warn("email channel not configured")
	}

	d := notify.NewDispatcher(cfg.Mode(), sms, email)
	if b := ai.NewBriefer(cfg.GeminiAPIKey, cfg.GeminiModel); b != nil {
		d.Briefer = b
	}
	if m != nil {
		d.Recorder = m
	}
	return d
}

func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := history.Load(cfg.CacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seen set: %w", err)
	}

	wl := watch.NewWatchlist(cfg.TrackedNames)
	slog.Info("watching", "names", wl.Names(), "mode", cfg.Mode(), "interval", cfg.PollInterval)

	m := metrics.New()
	m.SetSeenKeys(store.Len())
	dispatcher := newDispatcher(cfg, m)

	p := poller.New(poller.Options{
		UpcomingURL: cfg.UpcomingURL,
		EntriesURL:  cfg.EntriesURL,
		MaxPages:    cfg.MaxPages,
		Interval:    cfg.PollInterval,
	}, source.NewClient(cfg.RequestTimeout), tracker.New(wl, store), dispatcher)
	p.Recorder = m
	p.SeenCount = store.Len
	p.HistoryPath = store.Path()

	return &app{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		metrics:    m,
		poller:     p,
	}, nil
}
