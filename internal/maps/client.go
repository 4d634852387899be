// Package maps wraps the Google Maps web services used by the travel
// estimator: the Distance Matrix API for road travel time and the Geocoding
// API for address resolution.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldline/intake-ai/internal/scheduling"
	"github.com/fieldline/intake-ai/pkg/logging"
)

const defaultBaseURL = "https://maps.googleapis.com"

var (
	ErrNoRoute    = errors.New("maps: no route between addresses")
	ErrNotFound   = errors.New("maps: address could not be resolved")
	ErrAPIFailure = errors.New("maps: api request failed")
)

// Client calls the Google Maps web services. It implements
// scheduling.Mapper and scheduling.Geocoder.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOptions tunes the client; zero values take defaults.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient creates a Google Maps client.
func NewClient(apiKey string, logger *logging.Logger, opts ClientOptions) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("maps: api key is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     logger.Component("maps"),
	}, nil
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Meters int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Seconds int `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
	ErrorMessage string `json:"error_message"`
}

// DistanceTravelTime returns road distance and driving time between two
// addresses.
func (c *Client) DistanceTravelTime(ctx context.Context, origin, destination string) (float64, int, error) {
	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("mode", "driving")
	params.Set("key", c.apiKey)

	var resp distanceMatrixResponse
	if err := c.get(ctx, "/maps/api/distancematrix/json", params, &resp); err != nil {
		return 0, 0, err
	}
	if resp.Status != "OK" {
		return 0, 0, fmt.Errorf("%w: distance matrix status %s: %s", ErrAPIFailure, resp.Status, resp.ErrorMessage)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, 0, ErrNoRoute
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, 0, fmt.Errorf("%w: element status %s", ErrNoRoute, element.Status)
	}

	km := float64(element.Distance.Meters) / 1000.0
	minutes := (element.Duration.Seconds + 59) / 60
	return km, minutes, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves an address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (scheduling.Coordinates, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("region", "au")
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "/maps/api/geocode/json", params, &resp); err != nil {
		return scheduling.Coordinates{}, err
	}
	if resp.Status == "ZERO_RESULTS" || len(resp.Results) == 0 {
		return scheduling.Coordinates{}, ErrNotFound
	}
	if resp.Status != "OK" {
		return scheduling.Coordinates{}, fmt.Errorf("%w: geocode status %s: %s", ErrAPIFailure, resp.Status, resp.ErrorMessage)
	}

	loc := resp.Results[0].Geometry.Location
	return scheduling.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("maps: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("maps: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: http %d", ErrAPIFailure, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("maps: decode response: %w", err)
	}
	return nil
}
