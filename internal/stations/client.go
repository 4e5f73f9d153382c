package stations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/fetch"
)

const defaultBaseURL = "https://api.jcdecaux.com/vls/v1/stations"

// Client fetches the station feed for one contract.
type Client struct {
	baseURL  string
	apiKey   string
	contract string
	httpCfg  fetch.ClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewClient creates a station feed client. baseURL may be empty to use the
// public JCDecaux endpoint.
func NewClient(client *http.Client, baseURL, apiKey, contract string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		contract: contract,
		httpCfg: fetch.ClientConfig{
			Client: client,
			Backoff: fetch.BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: fetch.NewDefaultBreaker("stations"),
	}
}

// FetchStations retrieves and parses the full station list for the contract.
// Skips carry per-element parse failures; they never fail the fetch.
func (c *Client) FetchStations(ctx context.Context) ([]Record, []Skip, error) {
	if c.apiKey == "" {
		return nil, nil, fmt.Errorf("stations api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("apiKey", c.apiKey)
		values.Set("contract", c.contract)

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := fetch.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read stations payload: %w", err)
	}

	return ParseStations(body)
}
