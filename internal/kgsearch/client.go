// Package kgsearch looks up entity ids in the Google Knowledge Graph Search API.
package kgsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultEndpoint is the Knowledge Graph entity search endpoint
const DefaultEndpoint = "https://kgsearch.googleapis.com/v1/entities:search"

// APIError is returned for non-2xx responses
type APIError struct {
	Query      string
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to fetch for %q: %s", e.Query, e.Status)
}

// Client queries the Knowledge Graph for the best matching entity
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint overrides the search endpoint (used by tests)
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client authenticating with apiKey
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchResponse is the subset of the JSON-LD response we read
type searchResponse struct {
	ItemListElement []struct {
		Result struct {
			ID   string `json:"@id"`
			Name string `json:"name"`
		} `json:"result"`
		ResultScore float64 `json:"resultScore"`
	} `json:"itemListElement"`
}

// Lookup returns the "@id" of the top entity matching query, restricted to
// entityType when it is non-empty. It returns "" with no error when nothing
// matches.
func (c *Client) Lookup(ctx context.Context, query, entityType string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	params := url.Values{}
	params.Set("query", query)
	if entityType != "" {
		params.Set("types", entityType)
	}
	params.Set("key", c.apiKey)
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch for %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &APIError{Query: query, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response for %q: %w", query, err)
	}

	if len(body.ItemListElement) == 0 {
		return "", nil
	}
	return body.ItemListElement[0].Result.ID, nil
}
