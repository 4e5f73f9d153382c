package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/meteo"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
	"github.com/dmolloy8/dublinbikes-pipeline/internal/store"
)

var validate = validator.New()

// Reader is the storage surface the read API serves from. The pipeline
// writes; this only reads the resulting tables.
type Reader interface {
	ListStations(ctx context.Context) ([]store.StationStatus, error)
	AvailabilityHistory(ctx context.Context, number int, from, to time.Time) ([]stations.Availability, error)
	LatestCurrentWeather(ctx context.Context, lat, lng float64) (meteo.CurrentWeather, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, reader Reader) {
	v1 := app.Group("/api/v1")

	v1.Get("/stations", func(c *fiber.Ctx) error {
		result, err := reader.ListStations(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list stations")
		}
		return c.JSON(fiber.Map{
			"count":    len(result),
			"stations": result,
		})
	})

	v1.Get("/stations/:number/history", func(c *fiber.Ctx) error {
		number, err := c.ParamsInt("number")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "station number must be an integer")
		}

		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		history, err := reader.AvailabilityHistory(c.Context(), number, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no availability history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch availability history")
		}

		return c.JSON(fiber.Map{
			"number":  number,
			"from":    req.From,
			"to":      req.To,
			"history": history,
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat query parameter is required")
		}
		lng, err := strconv.ParseFloat(c.Query("lng"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lng query parameter is required")
		}

		snapshot, err := reader.LatestCurrentWeather(c.Context(), lat, lng)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}
		return c.JSON(snapshot)
	})
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
