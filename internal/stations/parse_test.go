package stations

import (
	"testing"
	"time"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/timeconv"
)

func TestParseStationsDefaults(t *testing.T) {
	raw := []byte(`[{"number": 42}]`)

	records, skips, err := ParseStations(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %v", skips)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Number != 42 {
		t.Errorf("number: got %d, want 42", rec.Number)
	}
	if rec.Address != "N/A" {
		t.Errorf("address default: got %q, want %q", rec.Address, "N/A")
	}
	if rec.Name != "Unknown" {
		t.Errorf("name default: got %q, want %q", rec.Name, "Unknown")
	}
	if rec.Status != "Unknown" {
		t.Errorf("status default: got %q, want %q", rec.Status, "Unknown")
	}
	if rec.Banking {
		t.Error("banking default: got true, want false")
	}
	if rec.BikeStands != 0 || rec.AvailableBikes != 0 || rec.AvailableBikeStands != 0 {
		t.Errorf("numeric defaults: got %d/%d/%d, want 0/0/0",
			rec.BikeStands, rec.AvailableBikes, rec.AvailableBikeStands)
	}
	if rec.Latitude != 0.0 || rec.Longitude != 0.0 {
		t.Errorf("position defaults: got %f/%f, want 0/0", rec.Latitude, rec.Longitude)
	}
}

func TestParseStationsFullRecord(t *testing.T) {
	raw := []byte(`[{
		"number": 7,
		"address": "High Street",
		"banking": true,
		"bike_stands": 30,
		"name": "HIGH STREET",
		"status": "OPEN",
		"position": {"lat": 53.3498, "lng": -6.2603},
		"available_bikes": 12,
		"available_bike_stands": 18,
		"last_update": 1700000000000
	}]`)

	records, _, err := ParseStations(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if !rec.Banking || rec.BikeStands != 30 || rec.AvailableBikes != 12 || rec.AvailableBikeStands != 18 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Latitude != 53.3498 || rec.Longitude != -6.2603 {
		t.Errorf("position not flattened: %f/%f", rec.Latitude, rec.Longitude)
	}
	if rec.LastUpdate != 1700000000000 {
		t.Errorf("last_update: got %d", rec.LastUpdate)
	}
}

// TestParseStationsSkipsBadRecord verifies a single malformed element is
// dropped with a reason while its siblings survive, in order.
func TestParseStationsSkipsBadRecord(t *testing.T) {
	raw := []byte(`[
		{"number": 1, "name": "First"},
		{"number": "not-a-number", "name": "Broken"},
		{"name": "No number"},
		{"number": 3, "name": "Third"}
	]`)

	records, skips, err := ParseStations(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Number != 1 || records[1].Number != 3 {
		t.Errorf("ordering not preserved: %+v", records)
	}
	if len(skips) != 2 {
		t.Fatalf("expected 2 skips, got %d: %v", len(skips), skips)
	}
	if skips[0].Index != 1 || skips[1].Index != 2 {
		t.Errorf("unexpected skip indexes: %v", skips)
	}
}

func TestParseStationsEmptyInput(t *testing.T) {
	records, skips, err := ParseStations([]byte(`[]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 || len(skips) != 0 {
		t.Errorf("expected empty output, got %d records, %d skips", len(records), len(skips))
	}
}

func TestParseStationsRejectsNonArray(t *testing.T) {
	if _, _, err := ParseStations([]byte(`{"number": 1}`)); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestObservationNormalizesMillis(t *testing.T) {
	rec := Record{Number: 42, AvailableBikes: 10, AvailableBikeStands: 15, LastUpdate: 1700000000000, Status: "OPEN"}
	obs := rec.Observation(timeconv.UnitMillis)

	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	if !obs.LastUpdate.Equal(want) {
		t.Errorf("last_update: got %s, want %s", obs.LastUpdate, want)
	}
	if obs.Number != 42 || obs.AvailableBikes != 10 || obs.AvailableBikeStands != 15 {
		t.Errorf("unexpected observation: %+v", obs)
	}
}
