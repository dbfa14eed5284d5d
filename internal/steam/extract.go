package steam

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"PriceOracle/internal/failure"
	"PriceOracle/internal/model"
)

// Markers preceding the JSON payloads embedded in the listing page scripts.
const (
	assetsMarker  = "var g_rgAssets = "
	historyMarker = "var line1="
)

const iconBaseURL = "https://community.cloudflare.steamstatic.com/economy/image/"

type assetInfo struct {
	Name    string
	IconURL string
	Type    string
}

// inlineScripts returns the body of every inline <script> element.
func inlineScripts(page []byte) ([]string, error) {
	var scripts []string
	z := html.NewTokenizer(bytes.NewReader(page))
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return scripts, nil
			}
			return nil, z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = string(name) == "script"
		case html.TextToken:
			if inScript {
				scripts = append(scripts, string(z.Text()))
			}
		case html.EndTagToken, html.SelfClosingTagToken:
			inScript = false
		}
	}
}

func findScript(scripts []string, marker string) (string, bool) {
	for _, s := range scripts {
		if strings.Contains(s, marker) {
			return s, true
		}
	}
	return "", false
}

// isolateJSON decodes exactly one JSON value following marker, leaving the
// rest of the script untouched.
func isolateJSON(script, marker string) (json.RawMessage, error) {
	idx := strings.Index(script, marker)
	if idx < 0 {
		return nil, errors.New("marker not found")
	}
	dec := json.NewDecoder(strings.NewReader(script[idx+len(marker):]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// embeddedPayload finds the script carrying marker and isolates its payload.
func embeddedPayload(scripts []string, marker, what string) (json.RawMessage, error) {
	script, ok := findScript(scripts, marker)
	if !ok {
		return nil, failure.New(itemStage, failure.EmbeddedDataNotFound, "%s not found on the page", what)
	}
	raw, err := isolateJSON(script, marker)
	if err != nil {
		return nil, failure.Newf(itemStage, failure.EmbeddedDataMalformed, err, "%s is not valid json: %v", what, err)
	}
	return raw, nil
}

// firstValue returns the first member of a JSON object in document order.
func firstValue(obj gjson.Result) (gjson.Result, bool) {
	if !obj.IsObject() {
		return gjson.Result{}, false
	}
	var out gjson.Result
	found := false
	obj.ForEach(func(_, value gjson.Result) bool {
		out, found = value, true
		return false
	})
	return out, found
}

// parseAsset unwraps the asset description from g_rgAssets.
//
// The page nests assets as {appid: {contextid: {assetid: {...}}}}. A listing
// page only ever carries one context and the first asset describes the item,
// so the context and asset levels are resolved by taking their first key.
// This mirrors the current page layout and breaks if Steam changes it.
func parseAsset(raw json.RawMessage, appID int) (assetInfo, error) {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return assetInfo{}, failure.New(itemStage, failure.EmbeddedDataMalformed, "asset data is not an object")
	}
	app := root.Get(strconv.Itoa(appID))
	if !app.Exists() {
		return assetInfo{}, failure.New(itemStage, failure.EmbeddedDataMalformed, "no assets for app %d", appID)
	}
	ctx, ok := firstValue(app)
	if !ok {
		return assetInfo{}, failure.New(itemStage, failure.EmbeddedDataMalformed, "no asset context for app %d", appID)
	}
	asset, ok := firstValue(ctx)
	if !ok {
		return assetInfo{}, failure.New(itemStage, failure.EmbeddedDataMalformed, "no asset in context")
	}

	var info assetInfo
	fields := []struct {
		key string
		dst *string
	}{
		{"market_hash_name", &info.Name},
		{"icon_url", &info.IconURL},
		{"type", &info.Type},
	}
	for _, f := range fields {
		v := asset.Get(f.key)
		if v.Type != gjson.String {
			return assetInfo{}, failure.New(itemStage, failure.EmbeddedDataMalformed, "asset field %q missing", f.key)
		}
		*f.dst = v.Str
	}
	return info, nil
}

// parsePriceHistory converts the line1 tuples, multiplying prices by rate.
func parsePriceHistory(raw json.RawMessage, rate float64) ([]model.PriceHistoryEntry, error) {
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return nil, failure.New(itemStage, failure.EmbeddedDataMalformed, "price history is not an array")
	}
	multiplier := decimal.NewFromFloat(rate)
	rows := root.Array()
	entries := make([]model.PriceHistoryEntry, 0, len(rows))
	for i, row := range rows {
		cols := row.Array()
		if !row.IsArray() || len(cols) != 3 {
			return nil, failure.New(itemStage, failure.EmbeddedDataMalformed, "price entry %d is not a 3-tuple", i)
		}
		if cols[0].Type != gjson.String {
			return nil, failure.New(itemStage, failure.EmbeddedDataMalformed, "price entry %d: bad timestamp", i)
		}
		price, err := decimal.NewFromString(scalar(cols[1]))
		if err != nil {
			return nil, failure.Newf(itemStage, failure.EmbeddedDataMalformed, err, "price entry %d: bad price %s", i, cols[1].Raw)
		}
		volume := scalar(cols[2])
		if volume == "" {
			return nil, failure.New(itemStage, failure.EmbeddedDataMalformed, "price entry %d: bad volume", i)
		}
		entries = append(entries, model.PriceHistoryEntry{
			Timestamp: cols[0].Str,
			Price:     price.Mul(multiplier).Round(3),
			Volume:    volume,
		})
	}
	return entries, nil
}

// scalar returns a string or number cell as text; anything else yields "".
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}
