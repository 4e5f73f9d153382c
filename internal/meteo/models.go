package meteo

import "time"

// CurrentWeather is one current-conditions snapshot for a location,
// append-only, deduped by (latitude, longitude, timestamp).
type CurrentWeather struct {
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feelsLike"`
	Humidity      int       `json:"humidity"`
	Pressure      int       `json:"pressure"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection int       `json:"windDirection"`
	Description   string    `json:"description"`
	UVI           float64   `json:"uvi"`
	CloudsPct     int       `json:"cloudsPercentage"`
	Visibility    int       `json:"visibility"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Timezone      string    `json:"timezone"`
	LocationName  string    `json:"locationName"`
}

// DailyForecast is one forecast day for a location, append-only, deduped
// by (latitude, longitude, date).
type DailyForecast struct {
	Date           time.Time `json:"date"`
	TempDay        float64   `json:"temperatureDay"`
	TempMin        float64   `json:"temperatureMin"`
	TempMax        float64   `json:"temperatureMax"`
	FeelsLikeDay   float64   `json:"feelsLikeDay"`
	FeelsLikeNight float64   `json:"feelsLikeNight"`
	Humidity       int       `json:"humidity"`
	Pressure       int       `json:"pressure"`
	WindSpeed      float64   `json:"windSpeed"`
	WindDirection  int       `json:"windDirection"`
	Description    string    `json:"description"`
	CloudsPct      int       `json:"cloudsPercentage"`
	Pop            float64   `json:"precipitationProbability"`
	UVI            float64   `json:"uvi"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Timezone       string    `json:"timezone"`
	LocationName   string    `json:"locationName"`
}

// Report bundles everything one one-call fetch yields for a location.
type Report struct {
	Current *CurrentWeather
	Daily   []DailyForecast
}
