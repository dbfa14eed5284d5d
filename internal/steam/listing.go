package steam

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"PriceOracle/internal/failure"
)

// ListingPrefix is the URL prefix every listing link starts with.
const ListingPrefix = "https://steamcommunity.com/market/listings/"

var listingPattern = regexp.MustCompile(`^https?://steamcommunity\.com/market/listings/(\d+)/([^?#]+?)/?(?:[?#].*)?$`)

// Listing identifies one market listing.
type Listing struct {
	AppID int
	Name  string // percent-decoded market hash name
}

// ExtractURL returns the first whitespace-delimited token of text.
func ExtractURL(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", failure.New("get_url_from_message", failure.NoURLFound,
			"no market link found in the message")
	}
	return fields[0], nil
}

// ParseListingURL decomposes a listing URL into app id and item name.
func ParseListingURL(raw string) (Listing, error) {
	const stage = "get_params_from_url"

	m := listingPattern.FindStringSubmatch(raw)
	if m == nil {
		return Listing{}, failure.New(stage, failure.MalformedURL, "not a market listing url: %q", raw)
	}
	appID, err := strconv.Atoi(m[1])
	if err != nil {
		return Listing{}, failure.Newf(stage, failure.MalformedURL, err, "invalid app id %q", m[1])
	}
	name, err := url.PathUnescape(m[2])
	if err != nil {
		return Listing{}, failure.Newf(stage, failure.MalformedURL, err, "invalid item name %q", m[2])
	}
	if strings.TrimSpace(name) == "" {
		return Listing{}, failure.New(stage, failure.MalformedURL, "empty item name")
	}
	return Listing{AppID: appID, Name: name}, nil
}

// ParseMessage extracts and parses the listing URL leading a chat message.
func ParseMessage(text string) (Listing, error) {
	raw, err := ExtractURL(text)
	if err != nil {
		return Listing{}, err
	}
	return ParseListingURL(raw)
}
