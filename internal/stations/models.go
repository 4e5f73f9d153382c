package stations

import (
	"time"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/timeconv"
)

// Record is one parsed element of the stations feed: the slow-changing
// station reference fields plus the instantaneous availability fields.
// JSON tags keep the feed's field names, so a file-captured batch reads
// like the source payload.
type Record struct {
	Number              int     `json:"number"`
	Address             string  `json:"address"`
	Banking             bool    `json:"banking"`
	BikeStands          int     `json:"bike_stands"`
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	Latitude            float64 `json:"position_lat"`
	Longitude           float64 `json:"position_lng"`
	AvailableBikes      int     `json:"available_bikes"`
	AvailableBikeStands int     `json:"available_bike_stands"`

	// LastUpdate is the raw epoch value as reported by the feed. The feed
	// reports milliseconds; conversion happens at reconcile time.
	LastUpdate int64 `json:"last_update"`
}

// Station is the mutable reference entity, keyed by the provider's stable
// station number. First-seen-wins: once stored it is never overwritten.
type Station struct {
	Number     int     `json:"number"`
	Address    string  `json:"address"`
	Banking    bool    `json:"banking"`
	BikeStands int     `json:"bikeStands"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// Availability is one immutable availability observation, keyed by
// (station number, observation timestamp).
type Availability struct {
	Number              int       `json:"number"`
	AvailableBikes      int       `json:"availableBikes"`
	AvailableBikeStands int       `json:"availableBikeStands"`
	LastUpdate          time.Time `json:"lastUpdate"`
	Status              string    `json:"status"`
}

// StationRow extracts the reference-entity fields from a feed record.
func (r Record) StationRow() Station {
	return Station{
		Number:     r.Number,
		Address:    r.Address,
		Banking:    r.Banking,
		BikeStands: r.BikeStands,
		Name:       r.Name,
		Status:     r.Status,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
	}
}

// Observation builds the availability fact, normalizing the feed's epoch
// timestamp with the given unit.
func (r Record) Observation(unit timeconv.Unit) Availability {
	return Availability{
		Number:              r.Number,
		AvailableBikes:      r.AvailableBikes,
		AvailableBikeStands: r.AvailableBikeStands,
		LastUpdate:          timeconv.FromEpoch(r.LastUpdate, unit),
		Status:              r.Status,
	}
}
