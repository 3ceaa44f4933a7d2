package weather

import (
	"context"
)

// HistoryProvider abstracts a source of multi-year daily observations
// (e.g. NASA POWER, Open-Meteo archive).
type HistoryProvider interface {
	Name() string
	// FetchDaily returns the aligned daily series for [startYear-01-01, endYear-12-31].
	// Failures are reported as *Error with KindFetchFailed or KindDataUnavailable.
	FetchDaily(ctx context.Context, coord Coordinate, startYear, endYear int) (DailySeries, error)
}
