package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/fetch"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/meteo"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/metrics"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/reconcile"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/store"
)

// StationSource abstracts the station feed client.
type StationSource interface {
	FetchStations(ctx context.Context) ([]stations.Record, []stations.Skip, error)
}

// WeatherSource abstracts the one-call weather client.
type WeatherSource interface {
	FetchOneCall(ctx context.Context, lat, lng float64, locationName string) (meteo.Report, error)
}

// Options configures the cycle loop.
type Options struct {
	Interval           time.Duration
	CycleTimeout       time.Duration
	WeatherEnrichment  bool
	WeatherConcurrency int
}

// Scheduler drives fetch-parse-reconcile-sink cycles at a fixed period.
// Cycles never overlap and no cycle failure is fatal to the process.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	stations   StationSource
	weather    WeatherSource
	store      store.Store // nil means file fallback mode
	fileSink   *store.FileSink
	reconciler *reconcile.Reconciler
	opts       Options
}

// New creates a Scheduler. st may be nil, in which case each cycle writes its
// validated batch to fileSink instead of a database.
func New(src StationSource, weather WeatherSource, st store.Store, fileSink *store.FileSink, rec *reconcile.Reconciler, opts Options) *Scheduler {
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = 2 * time.Minute
	}
	if opts.WeatherConcurrency <= 0 {
		opts.WeatherConcurrency = 4
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		stations:   src,
		weather:    weather,
		store:      st,
		fileSink:   fileSink,
		reconciler: rec,
		opts:       opts,
	}
}

// Start schedules the periodic cycle and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.opts.Interval).SingletonMode().Do(s.runScheduled)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future cycles.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runScheduled is the cycle boundary: whatever goes wrong inside a cycle is
// logged here and the loop sleeps until the next tick.
func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.CycleTimeout)
	defer cancel()

	cycleID := uuid.NewString()
	log.Printf("scheduler: cycle %s starting", cycleID)

	if err := s.RunCycle(ctx); err != nil {
		metrics.CyclesTotal.WithLabelValues("failure").Inc()
		if fetch.IsTransient(err) {
			log.Printf("scheduler: cycle %s failed (transient, will retry next period): %v", cycleID, err)
		} else {
			log.Printf("scheduler: cycle %s failed: %v", cycleID, err)
		}
		return
	}

	metrics.CyclesTotal.WithLabelValues("success").Inc()
	log.Printf("scheduler: cycle %s completed", cycleID)
}

// RunCycle executes exactly one fetch-parse-reconcile-sink pass,
// synchronously. A panic inside the cycle is converted into an error so the
// loop survives it.
func (s *Scheduler) RunCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return s.cycle(ctx)
}

func (s *Scheduler) cycle(ctx context.Context) error {
	records, skips, err := s.stations.FetchStations(ctx)
	if err != nil {
		return fmt.Errorf("fetch stations: %w", err)
	}

	for _, skip := range skips {
		log.Printf("scheduler: dropped feed element %d: %s", skip.Index, skip.Reason)
		metrics.RecordsSkipped.Inc()
	}
	metrics.RecordsParsed.Add(float64(len(records)))
	log.Printf("scheduler: loaded %d stations (%d dropped)", len(records), len(skips))

	// Degraded mode: no store configured, capture the validated batch to a
	// file artifact and stop there.
	if s.store == nil {
		path, err := s.fileSink.WriteBatch("stations", records, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("file fallback: %w", err)
		}
		log.Printf("scheduler: no store configured, wrote batch to %s", path)
		return nil
	}

	var reports []meteo.Report
	if s.opts.WeatherEnrichment && s.weather != nil {
		reports = s.enrichWeather(ctx, records)
	}

	// One transaction per cycle: the station batch and the collected weather
	// fan-out commit together, so one successful cycle is one consistent
	// snapshot.
	return s.store.WithTx(ctx, func(tx store.Tx) error {
		stats, err := s.reconciler.Stations(ctx, tx, records)
		if err != nil {
			return err
		}
		log.Printf("scheduler: stations reconciled: %d inserted, %d skipped, %d observations, %d duplicates, %d failed",
			stats.StationsInserted, stats.StationsSkipped, stats.ObservationsInserted, stats.ObservationsDuplicate, stats.RecordsFailed)

		if len(reports) > 0 {
			wstats, err := s.reconciler.Weather(ctx, tx, reports)
			if err != nil {
				return err
			}
			log.Printf("scheduler: weather reconciled: %d inserted, %d duplicates, %d failed",
				wstats.WeatherInserted, wstats.WeatherDuplicate, wstats.RecordsFailed)
		}
		return nil
	})
}

// enrichWeather runs the per-station weather sub-cycle with bounded
// concurrency. A failed sub-fetch for one station never blocks the others;
// results are collected so the outer cycle commits them in one transaction.
func (s *Scheduler) enrichWeather(ctx context.Context, records []stations.Record) []meteo.Report {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports []meteo.Report
	)
	sem := make(chan struct{}, s.opts.WeatherConcurrency)

	for _, rec := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(rec stations.Record) {
			defer wg.Done()
			defer func() { <-sem }()

			report, err := s.weather.FetchOneCall(ctx, rec.Latitude, rec.Longitude, rec.Name)
			if err != nil {
				metrics.WeatherFetchFailures.Inc()
				log.Printf("scheduler: weather fetch failed for station %d: %v", rec.Number, err)
				return
			}

			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
		}(rec)
	}
	wg.Wait()

	return reports
}
