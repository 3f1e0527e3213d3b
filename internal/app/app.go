// Package app wires configuration, storage, clients and services into a
// runnable marketgate instance.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/marketgate/internal/clients/alphavantage"
	"github.com/bobmcallan/marketgate/internal/clients/edgar"
	"github.com/bobmcallan/marketgate/internal/clients/newsapi"
	"github.com/bobmcallan/marketgate/internal/clients/stooq"
	"github.com/bobmcallan/marketgate/internal/clients/yahoo"
	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/interfaces"
	"github.com/bobmcallan/marketgate/internal/models"
	"github.com/bobmcallan/marketgate/internal/services/fetcher"
	"github.com/bobmcallan/marketgate/internal/storage/badger"
)

// App holds the initialized configuration, storage and fetch service.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	Cache        interfaces.CacheStorage
	FetchService interfaces.FetchService
	StartupTime  time.Time

	refreshCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, provider clients and the fetch service.
// configPath may be empty, in which case the default resolution is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Config resolution: explicit path, MARKETGATE_CONFIG, binary dir,
	// then the development fallback.
	if configPath == "" {
		configPath = os.Getenv("MARKETGATE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "marketgate.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/marketgate.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path against the binary directory.
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewFileLogger(config.Logging)

	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	cache := badger.NewCacheStorage(store, logger)

	service := buildFetchService(config, cache, logger)

	logger.Info().
		Str("environment", config.Environment).
		Dur("startup", time.Since(startupStart)).
		Msg("marketgate initialized")

	return &App{
		Config:       config,
		Logger:       logger,
		Cache:        cache,
		FetchService: service,
		StartupTime:  time.Now(),
	}, nil
}

// buildFetchService assembles the provider chain from configuration.
func buildFetchService(config *common.Config, cache interfaces.CacheStorage, logger *common.Logger) *fetcher.Service {
	p := config.Providers

	opts := []fetcher.ServiceOption{
		fetcher.WithLogger(logger),
		fetcher.WithEngine(config.Engine.GetMaxWorkers(), config.Engine.GetBatchTimeout()),
	}

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(p.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(p.Yahoo.RateLimit),
		yahoo.WithTimeout(p.Yahoo.GetTimeout()),
	)
	opts = append(opts, fetcher.WithProvider(yahooClient, descriptor("yahoo", p.Yahoo, false,
		models.KindPrices)))

	stooqClient := stooq.NewClient(
		stooq.WithBaseURL(p.Stooq.BaseURL),
		stooq.WithLogger(logger),
		stooq.WithRateLimit(p.Stooq.RateLimit),
		stooq.WithTimeout(p.Stooq.GetTimeout()),
	)
	opts = append(opts, fetcher.WithProvider(stooqClient, descriptor("stooq", p.Stooq, false,
		models.KindPrices)))

	avClient := alphavantage.NewClient(p.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(p.AlphaVantage.BaseURL),
		alphavantage.WithLogger(logger),
		alphavantage.WithRateLimit(p.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(p.AlphaVantage.GetTimeout()),
	)
	opts = append(opts, fetcher.WithProvider(avClient, descriptor("alpha_vantage", p.AlphaVantage, true,
		models.KindPrices, models.KindFundamentals, models.KindAnalysis)))

	edgarClient := edgar.NewClient(
		edgar.WithBaseURL(p.Edgar.BaseURL),
		edgar.WithLogger(logger),
		edgar.WithRateLimit(p.Edgar.RateLimit),
		edgar.WithTimeout(p.Edgar.GetTimeout()),
	)
	opts = append(opts, fetcher.WithProvider(edgarClient, descriptor("edgar", p.Edgar, false,
		models.KindFilings)))

	newsClient := newsapi.NewClient(p.NewsAPI.APIKey,
		newsapi.WithBaseURL(p.NewsAPI.BaseURL),
		newsapi.WithLogger(logger),
		newsapi.WithRateLimit(p.NewsAPI.RateLimit),
		newsapi.WithTimeout(p.NewsAPI.GetTimeout()),
	)
	opts = append(opts, fetcher.WithProvider(newsClient, descriptor("newsapi", p.NewsAPI, true,
		models.KindNews)))

	return fetcher.NewService(cache, opts...)
}

// descriptor builds a ProviderDescriptor from one provider's config.
func descriptor(name string, cfg common.ProviderConfig, requiresKey bool, kinds ...models.DataKind) models.ProviderDescriptor {
	return models.ProviderDescriptor{
		Name:        name,
		Kinds:       kinds,
		Priority:    cfg.Priority,
		Status:      models.ProviderOnline,
		Timeout:     cfg.GetTimeout(),
		MaxRetries:  cfg.MaxRetries,
		WindowLimit: cfg.WindowLimit,
		MaxInFlight: cfg.MaxInFlight,
		RequiresKey: requiresKey,
		HasKey:      cfg.APIKey != "",
	}
}

// StartRefresh launches the background refresh loop over the configured
// watchlist.
func (a *App) StartRefresh() {
	if len(a.Config.Watchlist) == 0 {
		a.Logger.Info().Msg("Empty watchlist, background refresh disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.refreshCancel = cancel

	if svc, ok := a.FetchService.(*fetcher.Service); ok {
		svc.StartRefreshLoop(ctx, a.Config.Watchlist, time.Minute)
		a.Logger.Info().Strs("watchlist", a.Config.Watchlist).Msg("Background refresh started")
	}
}

// Close stops background work and releases storage.
func (a *App) Close() {
	if a.refreshCancel != nil {
		a.refreshCancel()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close cache store")
		}
	}
}
