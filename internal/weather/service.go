package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultStartYear = 1995
	DefaultEndYear   = 2025
)

var validate = validator.New()

// Query is a climatology request for one coordinate and calendar day.
// Zero StartYear/EndYear select the service defaults.
type Query struct {
	Latitude   float64 `validate:"gte=-90,lte=90"`
	Longitude  float64 `validate:"gte=-180,lte=180"`
	TargetDate Date
	StartYear  int `validate:"gte=1900,lte=2100"`
	EndYear    int `validate:"gte=1900,lte=2100,gtefield=StartYear"`
}

// Coordinate returns the query's point.
func (q Query) Coordinate() Coordinate {
	return Coordinate{Latitude: q.Latitude, Longitude: q.Longitude}
}

// Options tunes a Service.
type Options struct {
	StartYear    int
	EndYear      int
	FetchTimeout time.Duration
	// Observe, when set, is called once per Forecast with the outcome kind
	// ("" on success), the number of matched records and the elapsed time.
	Observe func(kind ErrorKind, matched int, elapsed time.Duration)
}

// Service validates queries, fetches the daily history and runs the climatology.
type Service struct {
	provider HistoryProvider
	opts     Options
}

// NewService creates a new Service.
func NewService(provider HistoryProvider, opts Options) *Service {
	if opts.StartYear == 0 {
		opts.StartYear = DefaultStartYear
	}
	if opts.EndYear == 0 {
		opts.EndYear = DefaultEndYear
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &Service{
		provider: provider,
		opts:     opts,
	}
}

// ProviderName returns the name of the configured history provider.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// Normalize fills default years and validates q.
func (s *Service) Normalize(q Query) (Query, error) {
	if q.StartYear == 0 {
		q.StartYear = s.opts.StartYear
	}
	if q.EndYear == 0 {
		q.EndYear = s.opts.EndYear
	}
	if q.TargetDate.IsZero() {
		return q, InvalidInputf("date is required")
	}
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return q, InvalidInputf("%s", describeValidation(verrs[0]))
		}
		return q, InvalidInputf("%v", err)
	}
	return q, nil
}

// Forecast returns the climatology for q's calendar day.
func (s *Service) Forecast(ctx context.Context, q Query) (result ForecastResult, err error) {
	start := time.Now()
	matched := 0
	defer func() {
		if s.opts.Observe != nil {
			s.opts.Observe(KindOf(err), matched, time.Since(start))
		}
	}()

	q, err = s.Normalize(q)
	if err != nil {
		return ForecastResult{}, err
	}
	if s.provider == nil {
		return ForecastResult{}, FetchFailed(0, nil, "no climate provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	coord := q.Coordinate()
	series, err := s.provider.FetchDaily(ctx, coord, q.StartYear, q.EndYear)
	if err != nil {
		log.Printf("ERROR: %s fetch failed for %s (%d-%d): %v", s.provider.Name(), coord, q.StartYear, q.EndYear, err)
		if KindOf(err) == "" {
			err = FetchFailed(0, err, "fetch daily history")
		}
		return ForecastResult{}, err
	}

	result = Analyze(series, q.TargetDate)
	matched = len(result.Temperature.Samples)
	log.Printf("DEBUG: climatology for %s on %02d-%02d: %d of %d records matched",
		coord, int(q.TargetDate.Month), q.TargetDate.Day, matched, len(series))
	return result, nil
}

func describeValidation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
