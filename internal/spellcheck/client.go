// Package spellcheck talks to the JSpell spell checking API and applies its
// suggestions to text.
package spellcheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultEndpoint is the RapidAPI-hosted JSpell check endpoint
	DefaultEndpoint = "https://jspell-checker.p.rapidapi.com/check"
	// DefaultHost is sent as X-RapidAPI-Host
	DefaultHost = "jspell-checker.p.rapidapi.com"
	// DefaultLanguage is the dictionary used for checks
	DefaultLanguage = "enUS"
)

// Options are the checker switches sent with every request
type Options struct {
	ForceUpperCase         bool `json:"forceUpperCase"`
	IgnoreIrregularCaps    bool `json:"ignoreIrregularCaps"`
	IgnoreFirstCaps        bool `json:"ignoreFirstCaps"`
	IgnoreNumbers          bool `json:"ignoreNumbers"`
	IgnoreUpper            bool `json:"ignoreUpper"`
	IgnoreDouble           bool `json:"ignoreDouble"`
	IgnoreWordsWithNumbers bool `json:"ignoreWordsWithNumbers"`
}

// DefaultOptions returns the switches used by the spellcheck command
func DefaultOptions() Options {
	return Options{
		IgnoreFirstCaps:        true,
		IgnoreNumbers:          true,
		IgnoreWordsWithNumbers: true,
	}
}

// Element is one checked field value and the misspellings found in it
type Element struct {
	Errors []Misspelling `json:"errors"`
}

// Misspelling is a word the checker flagged
type Misspelling struct {
	Word        string   `json:"word"`
	Position    int      `json:"position"`
	Suggestions []string `json:"suggestions"`
}

type checkRequest struct {
	Language    string  `json:"language"`
	FieldValues string  `json:"fieldvalues"`
	Config      Options `json:"config"`
}

type checkResponse struct {
	Elements []Element `json:"elements"`
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Status     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s", e.Status)
}

// Client is a JSpell API client
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	host       string
	language   string
	options    Options
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint overrides the check endpoint (used by tests)
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLanguage sets the dictionary language
func WithLanguage(language string) Option {
	return func(c *Client) {
		if language != "" {
			c.language = language
		}
	}
}

// WithOptions replaces the checker switches
func WithOptions(opts Options) Option {
	return func(c *Client) { c.options = opts }
}

// NewClient creates a client authenticating with a RapidAPI key
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		host:       DefaultHost,
		language:   DefaultLanguage,
		options:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check sends text to the checker. A nil slice means the response carried
// no elements at all, which callers treat as nothing to correct.
func (c *Client) Check(ctx context.Context, text string) ([]Element, error) {
	payload, err := json.Marshal(checkRequest{
		Language:    c.language,
		FieldValues: text,
		Config:      c.options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spell check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode spell check response: %w", err)
	}
	return body.Elements, nil
}
