package pipeline

import (
	"context"
	"fmt"
	"time"

	"PriceOracle/internal/failure"
	"PriceOracle/internal/forecast"
	"PriceOracle/internal/history"
	"PriceOracle/internal/model"
	"PriceOracle/internal/steam"
)

// Outer stage names prefixed to every failure.
const (
	itemStage     = "get_market_item"
	forecastStage = "get_forecast"
)

// Config is the read-only configuration of a pipeline. It is built once at
// start-up and never mutated.
type Config struct {
	Lags    int
	Horizon int
	// MinTrainingRows is the minimum number of lag rows; 0 means Lags+1.
	MinTrainingRows int
	Model           forecast.ModelKind
	Seed            uint64

	// FallbackRate is used whenever the live rate lookup is disabled or fails.
	FallbackRate    float64
	LiveRateURL     string
	LiveRatePath    string
	LiveRateTimeout time.Duration

	Steam steam.ClientConfig
}

// Defaults fills zero values.
func (c Config) Defaults() Config {
	if c.Lags <= 0 {
		c.Lags = 7
	}
	if c.Horizon <= 0 {
		c.Horizon = 7
	}
	if c.Model == "" {
		c.Model = forecast.ModelBoosting
	}
	if c.Seed == 0 {
		c.Seed = forecast.DefaultSeed
	}
	if c.LiveRatePath == "" {
		c.LiveRatePath = "RUB.0.0"
	}
	return c
}

// Validate rejects settings Defaults cannot repair.
func (c Config) Validate() error {
	if _, err := forecast.NewRegressor(c.Model, c.Seed); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	if c.MinTrainingRows < 0 {
		return fmt.Errorf("pipeline config: negative min training rows %d", c.MinTrainingRows)
	}
	return nil
}

// RateProvider builds the currency rate source described by the config.
func (c Config) RateProvider() steam.RateProvider {
	r := steam.FallbackRate{Fallback: c.FallbackRate}
	if c.LiveRateURL != "" {
		r.Live = steam.NewLiveRate(c.LiveRateURL, c.LiveRatePath, c.LiveRateTimeout)
	}
	return r
}

// Pipeline turns a chat message carrying a listing link into a forecast.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	cfg     Config
	fetcher steam.ItemFetcher
	closer  func() error
	now     func() time.Time
}

// New creates a pipeline fetching listings from Steam.
func New(cfg Config) (*Pipeline, error) {
	cfg = cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := steam.NewClient(cfg.Steam, cfg.RateProvider())
	p, err := NewWithFetcher(cfg, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	p.closer = client.Close
	return p, nil
}

// NewWithFetcher creates a pipeline over an arbitrary item source.
func NewWithFetcher(cfg Config, fetcher steam.ItemFetcher) (*Pipeline, error) {
	cfg = cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		now:     time.Now,
	}, nil
}

// WithClock overrides the clock used for forecast dates.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Close releases the underlying HTTP connections.
func (p *Pipeline) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// Run executes one request end to end. On failure the returned error is a
// *failure.Error whose message is prefixed with the failing stage names.
func (p *Pipeline) Run(ctx context.Context, text string) (*model.Result, error) {
	item, err := p.marketItem(ctx, text)
	if err != nil {
		return nil, err
	}
	summary, values, err := p.forecast(item)
	if err != nil {
		return nil, err
	}
	return &model.Result{
		Item:     item.Info(),
		Summary:  summary,
		Forecast: forecast.Assemble(values, p.now()),
	}, nil
}

func (p *Pipeline) marketItem(ctx context.Context, text string) (*model.MarketItem, error) {
	listing, err := steam.ParseMessage(text)
	if err != nil {
		return nil, failure.Wrap(itemStage, err, failure.MalformedURL)
	}
	item, err := p.fetcher.FetchItem(ctx, listing)
	if err != nil {
		return nil, failure.Wrap(itemStage, err, failure.FetchFailed)
	}
	return item, nil
}

func (p *Pipeline) forecast(item *model.MarketItem) (model.HistorySummary, []float64, error) {
	series, err := history.Normalize(item.PriceHistory)
	if err != nil {
		return model.HistorySummary{}, nil, failure.Wrap(forecastStage, err, failure.MalformedHistory)
	}

	f := forecast.Forecaster{
		Lags:         p.cfg.Lags,
		Horizon:      p.cfg.Horizon,
		MinRows:      p.cfg.MinTrainingRows,
		NewRegressor: p.newRegressor,
	}
	values, err := f.Predict(series)
	if err != nil {
		return model.HistorySummary{}, nil, failure.Wrap(forecastStage, err, failure.ModelFitError)
	}
	return history.Summarize(len(item.PriceHistory), series), values, nil
}

func (p *Pipeline) newRegressor() forecast.Regressor {
	// the kind was checked by Validate
	r, _ := forecast.NewRegressor(p.cfg.Model, p.cfg.Seed)
	return r
}
