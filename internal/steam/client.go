package steam

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"resty.dev/v3"

	"PriceOracle/internal/failure"
	"PriceOracle/internal/model"
)

const itemStage = "get_item"

// DefaultBaseURL is the Steam Community host serving listing pages.
const DefaultBaseURL = "https://steamcommunity.com"

// ItemFetcher loads a listing together with its price history.
type ItemFetcher interface {
	FetchItem(ctx context.Context, l Listing) (*model.MarketItem, error)
}

// ClientConfig controls how listing pages are requested.
type ClientConfig struct {
	BaseURL  string
	Country  string
	Language string
	Currency string
	Timeout  time.Duration
	Proxy    string
}

// Client fetches listing pages and extracts the embedded item data.
type Client struct {
	cfg   ClientConfig
	http  *resty.Client
	rates RateProvider
}

// NewClient creates a listing client with optional proxy support.
func NewClient(cfg ClientConfig, rates RateProvider) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Country == "" {
		cfg.Country = "EU"
	}
	if cfg.Language == "" {
		cfg.Language = "english"
	}
	if cfg.Currency == "" {
		cfg.Currency = "1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetHeader("Accept", "text/html")
	if cfg.Proxy != "" {
		hc.SetProxy(cfg.Proxy)
	}
	return &Client{cfg: cfg, http: hc, rates: rates}
}

// Close releases idle connections.
func (c *Client) Close() error { return c.http.Close() }

// ListingURL returns the canonical page URL for a listing.
func (c *Client) ListingURL(l Listing) string {
	return c.cfg.BaseURL + "/market/listings/" + strconv.Itoa(l.AppID) + "/" + url.PathEscape(l.Name)
}

// FetchItem downloads the listing page and builds a fully populated item.
// Either the whole item is returned or nil with a failure.
func (c *Client) FetchItem(ctx context.Context, l Listing) (*model.MarketItem, error) {
	rate, err := c.rates.Rate(ctx)
	if err != nil {
		return nil, failure.Wrap(itemStage, err, failure.RateUnavailable)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("appID", strconv.Itoa(l.AppID)).
		SetPathParam("name", l.Name).
		SetQueryParams(map[string]string{
			"country":  c.cfg.Country,
			"language": c.cfg.Language,
			"currency": c.cfg.Currency,
		}).
		Get("/market/listings/{appID}/{name}")
	if err != nil {
		if isTimeout(err) {
			return nil, failure.NewFetchTimeout(itemStage, err)
		}
		return nil, failure.Newf(itemStage, failure.FetchFailed, err, "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, failure.NewFetchStatus(itemStage, resp.StatusCode())
	}
	return parseListingPage(resp.Bytes(), l, rate, c.ListingURL(l))
}

// parseListingPage extracts the item metadata and price history from a page.
func parseListingPage(page []byte, l Listing, rate float64, pageURL string) (*model.MarketItem, error) {
	scripts, err := inlineScripts(page)
	if err != nil {
		return nil, failure.Newf(itemStage, failure.EmbeddedDataMalformed, err, "unreadable page: %v", err)
	}

	assetsRaw, err := embeddedPayload(scripts, assetsMarker, "asset data")
	if err != nil {
		return nil, err
	}
	asset, err := parseAsset(assetsRaw, l.AppID)
	if err != nil {
		return nil, err
	}

	historyRaw, err := embeddedPayload(scripts, historyMarker, "price history")
	if err != nil {
		return nil, err
	}
	history, err := parsePriceHistory(historyRaw, rate)
	if err != nil {
		return nil, err
	}

	return &model.MarketItem{
		AppID:        l.AppID,
		Name:         asset.Name,
		Type:         asset.Type,
		IconURL:      iconBaseURL + asset.IconURL,
		URL:          pageURL,
		PriceHistory: history,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
