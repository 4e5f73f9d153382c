package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/meteo"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/metrics"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/store"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/timeconv"
)

// Stats summarizes what one reconcile pass did.
type Stats struct {
	StationsInserted      int
	StationsSkipped       int
	ObservationsInserted  int
	ObservationsDuplicate int
	RecordsFailed         int
	WeatherInserted       int
	WeatherDuplicate      int
}

// Reconciler owns the per-record business rules: first-seen-wins for the
// station reference entity, unconditional append for observations. All
// writes go through the store's Tx contract; the Reconciler never talks to
// storage directly.
type Reconciler struct {
	unit timeconv.Unit
}

// New creates a Reconciler for a feed reporting epoch values in the given
// unit.
func New(unit timeconv.Unit) *Reconciler {
	return &Reconciler{unit: unit}
}

// Stations walks the batch in input order. For each record the station row
// is inserted only if its number is unseen; the availability observation is
// always appended, with duplicates absorbed at (number, last_update).
// A per-record store rejection is logged and counted, and the batch
// continues; any other store error aborts the whole batch.
//
// The station insert always precedes the same record's availability append,
// so the foreign key is satisfiable within the transaction.
func (r *Reconciler) Stations(ctx context.Context, tx store.Tx, records []stations.Record) (Stats, error) {
	var stats Stats

	for _, rec := range records {
		exists, err := tx.StationExists(ctx, rec.Number)
		if err != nil {
			return stats, err
		}

		if exists {
			stats.StationsSkipped++
			log.Printf("reconcile: station %d skipped (already exists): %s", rec.Number, rec.Name)
		} else {
			if err := tx.InsertStation(ctx, rec.StationRow()); err != nil {
				if store.IsRecordError(err) {
					stats.RecordsFailed++
					metrics.RecordsSkipped.Inc()
					log.Printf("reconcile: station %d rejected by store, skipping record: %v", rec.Number, err)
					continue
				}
				return stats, err
			}
			stats.StationsInserted++
			metrics.StationsInserted.Inc()
			log.Printf("reconcile: inserted new station %d: %s", rec.Number, rec.Name)
		}

		obs := rec.Observation(r.unit)
		inserted, err := tx.InsertAvailability(ctx, obs)
		if err != nil {
			if store.IsRecordError(err) {
				stats.RecordsFailed++
				metrics.RecordsSkipped.Inc()
				log.Printf("reconcile: availability for station %d rejected by store: %v", rec.Number, err)
				continue
			}
			return stats, err
		}
		if inserted {
			stats.ObservationsInserted++
			metrics.AvailabilityInserted.Inc()
			log.Printf("reconcile: inserted availability for station %d at %s", rec.Number, obs.LastUpdate.Format(time.RFC3339))
		} else {
			stats.ObservationsDuplicate++
			metrics.AvailabilityDuplicates.Inc()
			log.Printf("reconcile: skipped duplicate availability for station %d at %s", rec.Number, obs.LastUpdate.Format(time.RFC3339))
		}
	}

	return stats, nil
}

// Weather appends collected weather reports: one current-conditions row and
// the daily forecast rows per report, duplicates absorbed per the store's
// dedup policy. Per-record rejections are contained the same way as in
// Stations.
func (r *Reconciler) Weather(ctx context.Context, tx store.Tx, reports []meteo.Report) (Stats, error) {
	var stats Stats

	for _, rep := range reports {
		if rep.Current != nil {
			inserted, err := tx.InsertCurrentWeather(ctx, *rep.Current)
			if err != nil {
				if store.IsRecordError(err) {
					stats.RecordsFailed++
					metrics.RecordsSkipped.Inc()
					log.Printf("reconcile: current weather for %s rejected by store: %v", rep.Current.LocationName, err)
				} else {
					return stats, err
				}
			} else if inserted {
				stats.WeatherInserted++
				metrics.WeatherRowsInserted.Inc()
			} else {
				stats.WeatherDuplicate++
			}
		}

		for _, day := range rep.Daily {
			inserted, err := tx.InsertDailyForecast(ctx, day)
			if err != nil {
				if store.IsRecordError(err) {
					stats.RecordsFailed++
					metrics.RecordsSkipped.Inc()
					log.Printf("reconcile: forecast for %s on %s rejected by store: %v", day.LocationName, day.Date.Format("2006-01-02"), err)
					continue
				}
				return stats, err
			}
			if inserted {
				stats.WeatherInserted++
				metrics.WeatherRowsInserted.Inc()
			} else {
				stats.WeatherDuplicate++
			}
		}
	}

	return stats, nil
}
