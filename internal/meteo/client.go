package meteo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/fetch"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/onecall"

// Client fetches one-call weather reports.
type Client struct {
	baseURL string
	apiKey  string
	httpCfg fetch.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a weather client. baseURL may be empty to use the public
// OpenWeather endpoint.
func NewClient(client *http.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpCfg: fetch.ClientConfig{
			Client: client,
			Backoff: fetch.BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: fetch.NewDefaultBreaker("meteo"),
	}
}

// FetchOneCall retrieves current conditions and the daily forecast for the
// given coordinates, skipping hourly/minutely blocks.
func (c *Client) FetchOneCall(ctx context.Context, lat, lng float64, locationName string) (Report, error) {
	if c.apiKey == "" {
		return Report{}, fmt.Errorf("weather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
		values.Set("exclude", "hourly,minutely")
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := fetch.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return Report{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, fmt.Errorf("read weather payload: %w", err)
	}

	return ParseOneCall(body, lat, lng, locationName)
}
