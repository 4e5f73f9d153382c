package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/meteo"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
)

// Postgres implements Store on a pgx connection pool. One transaction per
// cycle; the pool is shared across cycles and never held across a sleep.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Dedup is an explicit per-entity policy: every observation table that
// suppresses duplicate natural keys does it here, not ad hoc per call site.
// The availability table dedups on its composite primary key; the weather
// tables dedup on their (location, time) unique indexes.
const (
	dedupAvailability   = "ON CONFLICT (number, last_update) DO NOTHING"
	dedupCurrentWeather = "ON CONFLICT (latitude, longitude, timestamp) DO NOTHING"
	dedupDailyForecast  = "ON CONFLICT (latitude, longitude, date) DO NOTHING"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS station (
		number INTEGER NOT NULL,
		address VARCHAR(128),
		banking BOOLEAN,
		bike_stands INTEGER,
		name VARCHAR(256),
		status VARCHAR(128),
		position_lat DOUBLE PRECISION,
		position_lng DOUBLE PRECISION,
		PRIMARY KEY (number)
	)`,
	`CREATE TABLE IF NOT EXISTS availability (
		number INTEGER NOT NULL,
		available_bikes INTEGER,
		available_bike_stands INTEGER,
		last_update TIMESTAMPTZ NOT NULL,
		status VARCHAR(128),
		PRIMARY KEY (number, last_update),
		FOREIGN KEY (number) REFERENCES station(number) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS current_weather (
		id SERIAL PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		feels_like DOUBLE PRECISION NOT NULL,
		humidity INTEGER NOT NULL,
		pressure INTEGER NOT NULL,
		wind_speed DOUBLE PRECISION NOT NULL,
		wind_direction INTEGER NOT NULL,
		weather_description VARCHAR(128),
		uvi DOUBLE PRECISION NOT NULL,
		clouds_percentage INTEGER NOT NULL,
		visibility INTEGER NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		timezone VARCHAR(64),
		location_name VARCHAR(128),
		UNIQUE (latitude, longitude, timestamp)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_forecast (
		id SERIAL PRIMARY KEY,
		date TIMESTAMPTZ NOT NULL,
		temperature_day DOUBLE PRECISION NOT NULL,
		temperature_min DOUBLE PRECISION NOT NULL,
		temperature_max DOUBLE PRECISION NOT NULL,
		feels_like_day DOUBLE PRECISION NOT NULL,
		feels_like_night DOUBLE PRECISION NOT NULL,
		humidity INTEGER NOT NULL,
		pressure INTEGER NOT NULL,
		wind_speed DOUBLE PRECISION NOT NULL,
		wind_direction INTEGER NOT NULL,
		weather_description VARCHAR(128),
		clouds_percentage INTEGER NOT NULL,
		precipitation_probability DOUBLE PRECISION NOT NULL,
		uvi DOUBLE PRECISION NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		timezone VARCHAR(64),
		location_name VARCHAR(128),
		UNIQUE (latitude, longitude, date)
	)`,
}

// EnsureSchema creates the pipeline tables if they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// WithTx runs fn inside one transaction. Commit on nil, rollback on error or
// panic; the deferred rollback is a no-op once the commit succeeds.
func (p *Postgres) WithTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

// execRecord runs one insert inside a savepoint. Postgres aborts the whole
// transaction after any statement error, so without the savepoint a single
// rejected record would poison every statement that follows with SQLSTATE
// 25P02. Begin on an open pgx.Tx issues SAVEPOINT; Rollback returns to it,
// leaving the outer cycle transaction usable for the remaining records.
func (t *pgTx) execRecord(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	tag, err := sp.Exec(ctx, sql, args...)
	if err != nil {
		_ = sp.Rollback(ctx)
		return tag, err
	}
	return tag, sp.Commit(ctx)
}

func (t *pgTx) StationExists(ctx context.Context, number int) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM station WHERE number = $1)`, number).Scan(&exists)
	return exists, err
}

func (t *pgTx) InsertStation(ctx context.Context, s stations.Station) error {
	_, err := t.execRecord(ctx,
		`INSERT INTO station (number, address, banking, bike_stands, name, status, position_lat, position_lng)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.Number, s.Address, s.Banking, s.BikeStands, s.Name, s.Status, s.Latitude, s.Longitude)
	return err
}

func (t *pgTx) InsertAvailability(ctx context.Context, a stations.Availability) (bool, error) {
	tag, err := t.execRecord(ctx,
		`INSERT INTO availability (number, available_bikes, available_bike_stands, last_update, status)
		 VALUES ($1, $2, $3, $4, $5) `+dedupAvailability,
		a.Number, a.AvailableBikes, a.AvailableBikeStands, a.LastUpdate, a.Status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) InsertCurrentWeather(ctx context.Context, w meteo.CurrentWeather) (bool, error) {
	tag, err := t.execRecord(ctx,
		`INSERT INTO current_weather (
			timestamp, temperature, feels_like, humidity, pressure, wind_speed,
			wind_direction, weather_description, uvi, clouds_percentage, visibility,
			latitude, longitude, timezone, location_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) `+dedupCurrentWeather,
		w.Timestamp, w.Temperature, w.FeelsLike, w.Humidity, w.Pressure, w.WindSpeed,
		w.WindDirection, w.Description, w.UVI, w.CloudsPct, w.Visibility,
		w.Latitude, w.Longitude, w.Timezone, w.LocationName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *pgTx) InsertDailyForecast(ctx context.Context, f meteo.DailyForecast) (bool, error) {
	tag, err := t.execRecord(ctx,
		`INSERT INTO daily_forecast (
			date, temperature_day, temperature_min, temperature_max, feels_like_day, feels_like_night,
			humidity, pressure, wind_speed, wind_direction, weather_description,
			clouds_percentage, precipitation_probability, uvi, latitude, longitude, timezone, location_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) `+dedupDailyForecast,
		f.Date, f.TempDay, f.TempMin, f.TempMax, f.FeelsLikeDay, f.FeelsLikeNight,
		f.Humidity, f.Pressure, f.WindSpeed, f.WindDirection, f.Description,
		f.CloudsPct, f.Pop, f.UVI, f.Latitude, f.Longitude, f.Timezone, f.LocationName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListStations returns every station joined with its most recent
// availability observation.
func (p *Postgres) ListStations(ctx context.Context) ([]StationStatus, error) {
	rows, err := p.pool.Query(ctx, `
SELECT s.number, s.address, s.banking, s.bike_stands, s.name, s.status, s.position_lat, s.position_lng,
       a.available_bikes, a.available_bike_stands, a.last_update, a.status
FROM station s
JOIN LATERAL (
	SELECT available_bikes, available_bike_stands, last_update, status
	FROM availability
	WHERE number = s.number
	ORDER BY last_update DESC
	LIMIT 1
) a ON true
ORDER BY s.number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StationStatus
	for rows.Next() {
		var st StationStatus
		if err := rows.Scan(
			&st.Station.Number, &st.Station.Address, &st.Station.Banking, &st.Station.BikeStands,
			&st.Station.Name, &st.Station.Status, &st.Station.Latitude, &st.Station.Longitude,
			&st.AvailableBikes, &st.AvailableBikeStands, &st.LastUpdate, &st.Status,
		); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// AvailabilityHistory returns a station's observations between from and to,
// oldest first.
func (p *Postgres) AvailabilityHistory(ctx context.Context, number int, from, to time.Time) ([]stations.Availability, error) {
	rows, err := p.pool.Query(ctx, `
SELECT number, available_bikes, available_bike_stands, last_update, status
FROM availability
WHERE number = $1 AND last_update >= $2 AND last_update <= $3
ORDER BY last_update`, number, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []stations.Availability
	for rows.Next() {
		var a stations.Availability
		if err := rows.Scan(&a.Number, &a.AvailableBikes, &a.AvailableBikeStands, &a.LastUpdate, &a.Status); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// LatestCurrentWeather returns the most recent snapshot nearest the given
// coordinates.
func (p *Postgres) LatestCurrentWeather(ctx context.Context, lat, lng float64) (meteo.CurrentWeather, error) {
	var w meteo.CurrentWeather
	err := p.pool.QueryRow(ctx, `
SELECT timestamp, temperature, feels_like, humidity, pressure, wind_speed,
       wind_direction, weather_description, uvi, clouds_percentage, visibility,
       latitude, longitude, timezone, location_name
FROM current_weather
ORDER BY (latitude - $1) * (latitude - $1) + (longitude - $2) * (longitude - $2), timestamp DESC
LIMIT 1`, lat, lng).Scan(
		&w.Timestamp, &w.Temperature, &w.FeelsLike, &w.Humidity, &w.Pressure, &w.WindSpeed,
		&w.WindDirection, &w.Description, &w.UVI, &w.CloudsPct, &w.Visibility,
		&w.Latitude, &w.Longitude, &w.Timezone, &w.LocationName)
	if errors.Is(err, pgx.ErrNoRows) {
		return meteo.CurrentWeather{}, ErrNotFound
	}
	return w, err
}
