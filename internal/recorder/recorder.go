package recorder

import (
	"time"

	"PriceOracle/internal/model"
)

// Request outcome statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RequestRecord holds everything worth keeping about one forecast request.
type RequestRecord struct {
	RequestID string
	ChatID    int64
	Username  string
	Message   string
	Status    string

	// Set on success.
	AppID    int
	ItemName string
	Summary  *model.HistorySummary
	Forecast []model.ForecastPoint

	// Set on failure.
	FailureKind   string
	FailureReason string
	Error         string

	Duration  time.Duration
	CreatedAt time.Time
}

// Recorder persists request history for analysis.
type Recorder interface {
	RecordRequest(rec *RequestRecord) error
	// Prune deletes requests created before the cutoff and returns how many were removed.
	Prune(before time.Time) (int64, error)
	Close() error
}
