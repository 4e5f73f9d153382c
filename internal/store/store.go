package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/meteo"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
)

// ErrNotFound is returned by read queries when no row matches.
var ErrNotFound = errors.New("no matching rows")

// Store is the transactional boundary around one cycle's writes: commit on
// normal completion, rollback on error or panic, connection released on all
// exit paths.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the write contract the reconciler drives inside one transaction.
// The boolean results report whether a row was actually inserted, so callers
// can tell an insert from a duplicate-absorbed no-op. Implementations must
// keep the transaction usable after an insert returns a record-level error
// (the Postgres sink scopes each insert in a savepoint for this); only
// connection-level failures leave the transaction unusable.
type Tx interface {
	StationExists(ctx context.Context, number int) (bool, error)
	InsertStation(ctx context.Context, s stations.Station) error
	InsertAvailability(ctx context.Context, a stations.Availability) (bool, error)
	InsertCurrentWeather(ctx context.Context, w meteo.CurrentWeather) (bool, error)
	InsertDailyForecast(ctx context.Context, f meteo.DailyForecast) (bool, error)
}

// IsRecordError reports whether err is a per-record store rejection (a value
// the database refused) rather than a connection-level failure. Data
// exceptions (22xxx) and integrity violations (23xxx) fail only the record
// they belong to; everything else aborts the batch.
func IsRecordError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if len(pgErr.Code) < 2 {
		return false
	}
	class := pgErr.Code[:2]
	return class == "22" || class == "23"
}

// StationStatus joins a station with its most recent availability
// observation, the shape the read API serves.
type StationStatus struct {
	Station             stations.Station `json:"station"`
	AvailableBikes      int              `json:"availableBikes"`
	AvailableBikeStands int              `json:"availableBikeStands"`
	LastUpdate          time.Time        `json:"lastUpdate"`
	Status              string           `json:"status"`
}
