package steam

import (
	"net/url"
	"testing"

	"PriceOracle/internal/failure"
)

func TestParseMessage_Valid(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		appID int
		item  string
	}{
		{
			name:  "encoded name",
			text:  "https://steamcommunity.com/market/listings/730/AK-47%20%7C%20Redline%20%28Field-Tested%29",
			appID: 730,
			item:  "AK-47 | Redline (Field-Tested)",
		},
		{
			name:  "trailing text and query",
			text:  "https://steamcommunity.com/market/listings/570/Inscribed%20Gem?l=english  please forecast",
			appID: 570,
			item:  "Inscribed Gem",
		},
		{
			name:  "plain name",
			text:  "  https://steamcommunity.com/market/listings/440/Mann%20Co.%20Supply%20Crate%20Key",
			appID: 440,
			item:  "Mann Co. Supply Crate Key",
		},
		{
			name:  "trailing slash",
			text:  "https://steamcommunity.com/market/listings/730/Operation%20Breakout%20Weapon%20Case/",
			appID: 730,
			item:  "Operation Breakout Weapon Case",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseMessage(tt.text)
			if err != nil {
				t.Fatalf("ParseMessage() returned unexpected error: %v", err)
			}
			if l.AppID != tt.appID {
				t.Errorf("AppID = %d, want %d", l.AppID, tt.appID)
			}
			if l.Name != tt.item {
				t.Errorf("Name = %q, want %q", l.Name, tt.item)
			}
		})
	}
}

func TestParseMessage_DecodeIdempotent(t *testing.T) {
	names := []string{
		"AK-47 | Redline (Field-Tested)",
		"★ Karambit | Doppler (Factory New)",
		"Sticker | Team Liquid (Holo) | Katowice 2015",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			once, err := ParseListingURL(ListingPrefix + "730/" + url.PathEscape(name))
			if err != nil {
				t.Fatalf("ParseListingURL() returned unexpected error: %v", err)
			}
			twice, err := ParseListingURL(ListingPrefix + "730/" + once.Name)
			if err != nil {
				t.Fatalf("ParseListingURL() on decoded name returned unexpected error: %v", err)
			}
			if once.Name != name || twice.Name != name {
				t.Errorf("decode not idempotent: once=%q twice=%q want %q", once.Name, twice.Name, name)
			}
		})
	}
}

func TestParseMessage_NoURL(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := ParseMessage(text)
		if !failure.Is(err, failure.NoURLFound) {
			t.Errorf("ParseMessage(%q) error = %v, want NoUrlFound", text, err)
		}
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"wrong host", "https://example.com/market/listings/730/AK-47"},
		{"lookalike host", "https://steamcommunity.com.evil.io/market/listings/730/AK-47"},
		{"missing name", "https://steamcommunity.com/market/listings/730/"},
		{"missing id", "https://steamcommunity.com/market/listings/AK-47"},
		{"non-numeric id", "https://steamcommunity.com/market/listings/abc/AK-47"},
		{"wrong path", "https://steamcommunity.com/market/search/730/AK-47"},
		{"not a url", "hello there"},
		{"bad escape", "https://steamcommunity.com/market/listings/730/AK%ZZ47"},
		{"overflowing id", "https://steamcommunity.com/market/listings/99999999999999999999999/AK-47"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage(tt.text)
			if !failure.Is(err, failure.MalformedURL) {
				t.Errorf("ParseMessage(%q) error = %v, want MalformedUrl", tt.text, err)
			}
		})
	}
}
