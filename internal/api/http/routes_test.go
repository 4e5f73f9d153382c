package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/meteo"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/store"
)

type stubReader struct {
	statuses []store.StationStatus
	history  []stations.Availability
	weather  meteo.CurrentWeather
	err      error
}

func (s *stubReader) ListStations(context.Context) ([]store.StationStatus, error) {
	return s.statuses, s.err
}

func (s *stubReader) AvailabilityHistory(_ context.Context, number int, from, to time.Time) ([]stations.Availability, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.history, nil
}

func (s *stubReader) LatestCurrentWeather(_ context.Context, lat, lng float64) (meteo.CurrentWeather, error) {
	if s.err != nil {
		return meteo.CurrentWeather{}, s.err
	}
	return s.weather, nil
}

func newTestApp(reader Reader) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, reader)
	return app
}

func TestListStations(t *testing.T) {
	reader := &stubReader{statuses: []store.StationStatus{
		{Station: stations.Station{Number: 42, Name: "SMITHFIELD NORTH"}, AvailableBikes: 10},
	}}
	app := newTestApp(reader)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Count    int                   `json:"count"`
		Stations []store.StationStatus `json:"stations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Count != 1 || payload.Stations[0].Station.Number != 42 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestHistoryValidation(t *testing.T) {
	app := newTestApp(&stubReader{})

	// Missing bounds should return 400.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/stations/42/history", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// to before from should also return 400.
	req = httptest.NewRequest(http.MethodGet,
		"/api/v1/stations/42/history?from=2023-11-14T00:00:00Z&to=2023-11-13T00:00:00Z", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Unix-seconds bounds are accepted.
	req = httptest.NewRequest(http.MethodGet,
		"/api/v1/stations/42/history?from=1700000000&to=1700003600", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHistoryNotFound(t *testing.T) {
	app := newTestApp(&stubReader{err: store.ErrNotFound})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/stations/42/history?from=1700000000&to=1700003600", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCurrentWeatherRequiresCoordinates(t *testing.T) {
	app := newTestApp(&stubReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/current", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?lat=53.35&lng=-6.26", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
