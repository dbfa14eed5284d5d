package steam

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"resty.dev/v3"

	"PriceOracle/internal/failure"
)

const rateStage = "get_rate"

// RateProvider supplies the multiplier converting market prices into the
// display currency.
type RateProvider interface {
	Rate(ctx context.Context) (float64, error)
}

// FixedRate always returns the same multiplier.
type FixedRate float64

func (r FixedRate) Rate(_ context.Context) (float64, error) {
	if !validRate(float64(r)) {
		return 0, failure.New(rateStage, failure.RateUnavailable, "invalid fixed rate %v", float64(r))
	}
	return float64(r), nil
}

// LiveRate looks the multiplier up from an external JSON endpoint. Path is a
// gjson path selecting the number (or numeric string) in the response body.
type LiveRate struct {
	URL    string
	Path   string
	client *resty.Client
}

// NewLiveRate creates a live rate source with a bounded request timeout.
func NewLiveRate(rawURL, path string, timeout time.Duration) *LiveRate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LiveRate{
		URL:  rawURL,
		Path: path,
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (r *LiveRate) Rate(ctx context.Context) (float64, error) {
	resp, err := r.client.R().SetContext(ctx).Get(r.URL)
	if err != nil {
		return 0, fmt.Errorf("request rate: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("rate endpoint returned status %d", resp.StatusCode())
	}
	value := gjson.GetBytes(resp.Bytes(), r.Path)
	if !value.Exists() {
		return 0, fmt.Errorf("rate not found at %q", r.Path)
	}
	rate := value.Float()
	if !validRate(rate) {
		return 0, fmt.Errorf("invalid rate %q", value.Raw)
	}
	return rate, nil
}

// FallbackRate asks Live first and masks any live failure with Fallback.
// A nil Live source means the live lookup is disabled.
type FallbackRate struct {
	Live     RateProvider
	Fallback float64
}

func (r FallbackRate) Rate(ctx context.Context) (float64, error) {
	if r.Live != nil {
		rate, err := r.Live.Rate(ctx)
		if err == nil && validRate(rate) {
			return rate, nil
		}
		if err == nil {
			err = fmt.Errorf("invalid rate %v", rate)
		}
		if !validRate(r.Fallback) {
			return 0, failure.Newf(rateStage, failure.RateUnavailable, err, "live rate failed and no fallback: %v", err)
		}
		log.Warn().Err(err).Float64("fallback", r.Fallback).Msg("live currency rate failed, using fallback")
		return r.Fallback, nil
	}
	if !validRate(r.Fallback) {
		return 0, failure.New(rateStage, failure.RateUnavailable, "no currency rate configured")
	}
	return r.Fallback, nil
}

func validRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
