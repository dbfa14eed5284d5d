package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PriceOracle/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRecorder() returned unexpected error: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func count(t *testing.T, r *SQLiteRecorder, table string) int {
	t.Helper()
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestSQLiteRecorder_RecordRequest(t *testing.T) {
	r := openTestRecorder(t)

	ok := &RequestRecord{
		RequestID: "req-1",
		ChatID:    42,
		Username:  "gaben",
		Message:   "https://steamcommunity.com/market/listings/730/AK-47",
		Status:    StatusOK,
		AppID:     730,
		ItemName:  "AK-47",
		Summary:   &model.HistorySummary{Sales: 10, Days: 8, LastPrice: 12.5},
		Forecast: []model.ForecastPoint{
			{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("12.61")},
			{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Value: decimal.RequireFromString("12.70")},
		},
		Duration: 1500 * time.Millisecond,
	}
	if err := r.RecordRequest(ok); err != nil {
		t.Fatalf("RecordRequest() returned unexpected error: %v", err)
	}
	failed := &RequestRecord{
		RequestID:     "req-2",
		ChatID:        42,
		Status:        StatusError,
		FailureKind:   "NetworkError",
		FailureReason: "FetchFailed",
		Error:         "get_market_item - get_item - status 429",
	}
	if err := r.RecordRequest(failed); err != nil {
		t.Fatalf("RecordRequest() returned unexpected error: %v", err)
	}

	if n := count(t, r, "forecast_requests"); n != 2 {
		t.Errorf("forecast_requests rows = %d, want 2", n)
	}
	if n := count(t, r, "forecast_points"); n != 2 {
		t.Errorf("forecast_points rows = %d, want 2", n)
	}

	var value, day string
	if err := r.db.QueryRow(`SELECT day, value FROM forecast_points WHERE request_id = ? AND step = 2`, "req-1").Scan(&day, &value); err != nil {
		t.Fatalf("query point: %v", err)
	}
	if day != "2024-02-02" || value != "12.7" {
		t.Errorf("point = %s %s, want 2024-02-02 12.7", day, value)
	}

	var reason string
	var duration int64
	if err := r.db.QueryRow(`SELECT failure_reason, duration_ms FROM forecast_requests WHERE id = ?`, "req-2").Scan(&reason, &duration); err != nil {
		t.Fatalf("query request: %v", err)
	}
	if reason != "FetchFailed" {
		t.Errorf("failure_reason = %q, want FetchFailed", reason)
	}

	if err := r.RecordRequest(ok); err == nil {
		t.Error("RecordRequest() with duplicate id expected error, got nil")
	}
}

func TestSQLiteRecorder_Prune(t *testing.T) {
	r := openTestRecorder(t)
	now := time.Now()

	old := &RequestRecord{
		RequestID: "old",
		Status:    StatusOK,
		CreatedAt: now.Add(-48 * time.Hour),
		Forecast:  []model.ForecastPoint{{Date: now, Value: decimal.NewFromInt(1)}},
	}
	fresh := &RequestRecord{RequestID: "fresh", Status: StatusOK, CreatedAt: now}
	for _, rec := range []*RequestRecord{old, fresh} {
		if err := r.RecordRequest(rec); err != nil {
			t.Fatalf("RecordRequest() returned unexpected error: %v", err)
		}
	}

	n, err := r.Prune(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("Prune() returned unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if got := count(t, r, "forecast_requests"); got != 1 {
		t.Errorf("forecast_requests rows = %d, want 1", got)
	}
	if got := count(t, r, "forecast_points"); got != 0 {
		t.Errorf("forecast_points rows = %d, want 0", got)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordRequest(&RequestRecord{}); err != nil {
		t.Errorf("RecordRequest() = %v", err)
	}
	if n, err := r.Prune(time.Now()); n != 0 || err != nil {
		t.Errorf("Prune() = %d, %v", n, err)
	}
}
