package flightlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://app.goflightlabs.com"
	errorBodyReadLimit   int64 = 1024
	defaultClientTimeout       = 10 * time.Second
)

var (
	errAccessKeyRequired = errors.New("flightlabs access key is required")
)

// Client wraps the FlightLabs airports API used to refresh the location catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured FlightLabs base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a FlightLabs client for the provided access key.
func NewClient(accessKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(accessKey)
	if trimmedKey == "" {
		return nil, errAccessKeyRequired
	}

	client := &Client{
		accessKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Airport is the normalized airport record returned by the airports endpoint.
type Airport struct {
	Name    string
	Country string
	City    string
}

type airportPayload struct {
	AirportName string `json:"airport_name"`
	CountryName string `json:"country_name"`
	Timezone    string `json:"timezone"`
}

// Airports fetches the full airport catalog from FlightLabs.
func (c *Client) Airports(ctx context.Context) ([]Airport, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "flightlabs client not configured")
	}

	endpoint := fmt.Sprintf("%s/airports?%s",
		strings.TrimRight(c.baseURL, "/"),
		url.Values{"access_key": []string{c.accessKey}}.Encode(),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build airports request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute airports request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "airports request failed")
	}

	var payload []airportPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode airports response")
	}

	airports := make([]Airport, 0, len(payload))
	for _, item := range payload {
		name := strings.TrimSpace(item.AirportName)
		if name == "" {
			continue
		}
		airports = append(airports, Airport{
			Name:    name,
			Country: strings.TrimSpace(item.CountryName),
			City:    cityFromTimezone(item.Timezone),
		})
	}

	return airports, nil
}

// cityFromTimezone extracts the city part of an IANA timezone, e.g. "Asia/Amman" -> "Amman".
func cityFromTimezone(tz string) string {
	trimmed := strings.TrimSpace(tz)
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	city := parts[len(parts)-1]
	return strings.ReplaceAll(city, "_", " ")
}
