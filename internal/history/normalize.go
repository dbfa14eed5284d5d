package history

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"PriceOracle/internal/failure"
	"PriceOracle/internal/model"
)

const stage = "normalize_history"

// timestampLayout matches the part of "Dec 01 2023 01: +0" before the colon.
// The trailing offset is always +0, so timestamps are taken as UTC.
const timestampLayout = "Jan _2 2006 15"

const day = 24 * time.Hour

// ParseTimestamp converts a raw history timestamp to a UTC time.
func ParseTimestamp(raw string) (time.Time, error) {
	head, _, _ := strings.Cut(raw, ":")
	return time.ParseInLocation(timestampLayout, strings.TrimSpace(head), time.UTC)
}

type bucket struct {
	price, volume float64
	n             int
}

// Normalize converts raw history entries into a gap-free daily series.
//
// Entries are grouped by UTC calendar date and averaged. The series spans
// the first to the last observed day; missing days are filled by linear
// interpolation between the nearest known neighbours. Values are never
// extrapolated past either end.
func Normalize(entries []model.PriceHistoryEntry) (model.Series, error) {
	if len(entries) == 0 {
		return model.Series{}, failure.New(stage, failure.EmptyHistory, "price history is empty")
	}

	buckets := make(map[time.Time]*bucket)
	for i, e := range entries {
		ts, err := ParseTimestamp(e.Timestamp)
		if err != nil {
			return model.Series{}, failure.Newf(stage, failure.MalformedHistory, err,
				"entry %d: bad timestamp %q", i, e.Timestamp)
		}
		volume, err := strconv.ParseFloat(strings.TrimSpace(e.Volume), 64)
		if err != nil {
			return model.Series{}, failure.Newf(stage, failure.MalformedHistory, err,
				"entry %d: bad volume %q", i, e.Volume)
		}
		date := ts.Truncate(day)
		b, ok := buckets[date]
		if !ok {
			b = &bucket{}
			buckets[date] = b
		}
		b.price += e.Price.InexactFloat64()
		b.volume += volume
		b.n++
	}

	known := make([]model.DailyPoint, 0, len(buckets))
	for date, b := range buckets {
		known = append(known, model.DailyPoint{
			Date:   date,
			Price:  b.price / float64(b.n),
			Volume: b.volume / float64(b.n),
		})
	}
	sort.Slice(known, func(i, j int) bool { return known[i].Date.Before(known[j].Date) })

	return model.Series{Points: resample(known)}, nil
}

// resample expands sorted known days into one point per day, interpolating
// linearly across gaps.
func resample(known []model.DailyPoint) []model.DailyPoint {
	first, last := known[0].Date, known[len(known)-1].Date
	out := make([]model.DailyPoint, 0, int(last.Sub(first)/day)+1)
	out = append(out, known[0])
	for i := 1; i < len(known); i++ {
		prev, next := known[i-1], known[i]
		gap := int(next.Date.Sub(prev.Date) / day)
		for k := 1; k < gap; k++ {
			frac := float64(k) / float64(gap)
			out = append(out, model.DailyPoint{
				Date:   prev.Date.Add(time.Duration(k) * day),
				Price:  prev.Price + (next.Price-prev.Price)*frac,
				Volume: prev.Volume + (next.Volume-prev.Volume)*frac,
			})
		}
		out = append(out, next)
	}
	return out
}
