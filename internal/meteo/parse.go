package meteo

import (
	"encoding/json"
	"fmt"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/timeconv"
)

// DefaultDescription is substituted when the payload carries no weather entry.
const DefaultDescription = "Unknown"

type oneCallPayload struct {
	Timezone string      `json:"timezone"`
	Current  *rawCurrent `json:"current"`
	Daily    []rawDaily  `json:"daily"`
}

type rawCurrent struct {
	Dt         int64        `json:"dt"`
	Temp       float64      `json:"temp"`
	FeelsLike  float64      `json:"feels_like"`
	Humidity   int          `json:"humidity"`
	Pressure   int          `json:"pressure"`
	WindSpeed  float64      `json:"wind_speed"`
	WindDeg    int          `json:"wind_deg"`
	UVI        float64      `json:"uvi"`
	Clouds     int          `json:"clouds"`
	Visibility int          `json:"visibility"`
	Weather    []rawWeather `json:"weather"`
}

type rawDaily struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Day float64 `json:"day"`
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	FeelsLike struct {
		Day   float64 `json:"day"`
		Night float64 `json:"night"`
	} `json:"feels_like"`
	Humidity  int          `json:"humidity"`
	Pressure  int          `json:"pressure"`
	WindSpeed float64      `json:"wind_speed"`
	WindDeg   int          `json:"wind_deg"`
	Weather   []rawWeather `json:"weather"`
	Clouds    int          `json:"clouds"`
	Pop       float64      `json:"pop"`
	UVI       float64      `json:"uvi"`
}

type rawWeather struct {
	Description string `json:"description"`
}

func description(items []rawWeather) string {
	if len(items) == 0 || items[0].Description == "" {
		return DefaultDescription
	}
	return items[0].Description
}

// ParseOneCall decodes a one-call payload into current and daily rows tagged
// with the request coordinates and location name. The provider reports epoch
// seconds, so timestamps are normalized with UnitSeconds.
func ParseOneCall(raw []byte, lat, lng float64, locationName string) (Report, error) {
	var payload oneCallPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Report{}, fmt.Errorf("decode weather payload: %w", err)
	}

	tz := payload.Timezone
	if tz == "" {
		tz = "UTC"
	}

	var report Report
	if payload.Current != nil {
		c := payload.Current
		report.Current = &CurrentWeather{
			Timestamp:     timeconv.FromEpoch(c.Dt, timeconv.UnitSeconds),
			Temperature:   c.Temp,
			FeelsLike:     c.FeelsLike,
			Humidity:      c.Humidity,
			Pressure:      c.Pressure,
			WindSpeed:     c.WindSpeed,
			WindDirection: c.WindDeg,
			Description:   description(c.Weather),
			UVI:           c.UVI,
			CloudsPct:     c.Clouds,
			Visibility:    c.Visibility,
			Latitude:      lat,
			Longitude:     lng,
			Timezone:      tz,
			LocationName:  locationName,
		}
	}

	for _, d := range payload.Daily {
		ts := timeconv.FromEpoch(d.Dt, timeconv.UnitSeconds)
		report.Daily = append(report.Daily, DailyForecast{
			Date:           timeconv.DateOf(ts),
			TempDay:        d.Temp.Day,
			TempMin:        d.Temp.Min,
			TempMax:        d.Temp.Max,
			FeelsLikeDay:   d.FeelsLike.Day,
			FeelsLikeNight: d.FeelsLike.Night,
			Humidity:       d.Humidity,
			Pressure:       d.Pressure,
			WindSpeed:      d.WindSpeed,
			WindDirection:  d.WindDeg,
			Description:    description(d.Weather),
			CloudsPct:      d.Clouds,
			Pop:            d.Pop,
			UVI:            d.UVI,
			Latitude:       lat,
			Longitude:      lng,
			Timezone:       tz,
			LocationName:   locationName,
		})
	}

	return report, nil
}
