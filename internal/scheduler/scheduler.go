package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-climatology/internal/metrics"
	"github.com/i474232898/weather-climatology/internal/store"
	"github.com/i474232898/weather-climatology/internal/weather"
)

// probeTimeout bounds a single probe request.
const probeTimeout = 30 * time.Second

// Scheduler periodically probes the climate provider and records the outcome.
// Probe data is discarded; only reachability is kept.
type Scheduler struct {
	scheduler *gocron.Scheduler
	provider  weather.HistoryProvider
	store     *store.MemoryStore
	target    weather.Coordinate
	interval  time.Duration
	now       func() time.Time
}

// New creates a new Scheduler.
func New(provider weather.HistoryProvider, st *store.MemoryStore, target weather.Coordinate, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		provider:  provider,
		store:     st,
		target:    target,
		interval:  interval,
		now:       time.Now,
	}
}

// Start schedules the periodic probe and starts the underlying scheduler.
// A non-positive interval disables probing.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: probe interval is zero; upstream probing disabled")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 1
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		s.ProbeOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// ProbeOnce fetches the last complete year at the probe coordinate and
// stores the result.
func (s *Scheduler) ProbeOnce(ctx context.Context) store.ProbeResult {
	year := s.now().UTC().Year() - 1
	start := time.Now()
	series, err := s.provider.FetchDaily(ctx, s.target, year, year)

	result := store.ProbeResult{
		Provider:  s.provider.Name(),
		Timestamp: s.now().UTC(),
		Latency:   time.Since(start),
		OK:        err == nil,
		Records:   len(series),
	}
	if err != nil {
		result.Kind = string(weather.KindOf(err))
		result.Error = err.Error()
		log.Printf("scheduler: probe of %s failed: %v", result.Provider, err)
		metrics.ProbeUp.WithLabelValues(result.Provider).Set(0)
	} else {
		log.Printf("scheduler: probe of %s ok (%d records in %s)", result.Provider, result.Records, result.Latency)
		metrics.ProbeUp.WithLabelValues(result.Provider).Set(1)
	}

	s.store.Save(result)
	return result
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
