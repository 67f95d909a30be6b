package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gorm.io/gorm"

	"cosmatiqa/internal/ai"
	"cosmatiqa/internal/analysis"
	"cosmatiqa/internal/config"
	"cosmatiqa/internal/db"
	"cosmatiqa/internal/db/mock"
	applog "cosmatiqa/internal/log"
	"cosmatiqa/internal/server"
)

// serverLifecycle abstracts the HTTP server for testing.
type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	newAdvisorFunc = func(cfg config.AIConfig) (analysis.Advisor, error) {
		client, err := ai.NewClient(ai.Config{
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			FallbackModel: cfg.FallbackModel,
			BaseURL:       cfg.BaseURL,
			Temperature:   cfg.Temperature,
			Timeout:       cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		return sigCh, func() { signal.Stop(sigCh) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}

	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "error", err, "level", cfg.Logging.Level)
		return 1
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	var advisor analysis.Advisor
	if strings.TrimSpace(cfg.AI.APIKey) != "" {
		advisor, err = newAdvisorFunc(cfg.AI)
		if err != nil {
			applog.Error(ctx, "failed to configure advisory client", "error", err)
			return 1
		}
	} else {
		applog.Info(ctx, "advisory model not configured, running rule-based detection only")
	}

	analyzer := analysis.NewAnalyzer(database, advisor)
	analyzer.SetResearchTTL(cfg.Cache.TTLDays)

	srv, err := newServerFunc(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Session.Lifetime,
			CookieName:   cfg.Session.CookieName,
			CookieDomain: cfg.Session.CookieDomain,
			CookieSecure: cfg.Session.CookieSecure,
		},
		Database:      database,
		Analyzer:      analyzer,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	sigCh, cancelSignals := subscribeShutdownSig()
	defer cancelSignals()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case <-sigCh:
		applog.Info(ctx, "shutting down http server")
		if err := srv.Stop(); err != nil {
			applog.Error(ctx, "graceful shutdown failed", "error", err)
			return 1
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server exited with error", "error", err)
			return 1
		}
		return 0
	}
}
