// Package finnhub provides a client for the Finnhub stock API.
package finnhub

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

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://finnhub.io/api/v1"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 1 // requests per second

	maxBodyBytes = 1 << 20
)

// Client implements domain.QuoteProvider against Finnhub
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithRateLimit sets the sustained request rate. Bursts up to the same count are allowed.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Finnhub client
func NewClient(apiKey string, log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:        log.With().Str("client", "finnhub").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a failed Finnhub request
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finnhub API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Unwrap maps the failure to a domain error kind so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode == http.StatusForbidden, e.StatusCode == http.StatusUnauthorized:
		return domain.ErrAccessDenied
	case strings.Contains(strings.ToLower(e.Message), "access"):
		return domain.ErrAccessDenied
	}
	return nil
}

// Classify returns the domain error kind of err, or nil for generic failures
func Classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return domain.ErrRateLimited
	case errors.Is(err, domain.ErrAccessDenied):
		return domain.ErrAccessDenied
	}
	return nil
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

type profileResponse struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Country  string `json:"country"`
}

// GetQuote fetches the latest quote. A zero CurrentPrice means Finnhub has no data.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	var resp quoteResponse
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &resp); err != nil {
		return nil, err
	}

	q := &domain.Quote{
		CurrentPrice:  decimal.NewFromFloat(resp.Current),
		Change:        decimal.NewFromFloat(resp.Change),
		PercentChange: decimal.NewFromFloat(resp.PercentChange),
		High:          decimal.NewFromFloat(resp.High),
		Low:           decimal.NewFromFloat(resp.Low),
		Open:          decimal.NewFromFloat(resp.Open),
		PreviousClose: decimal.NewFromFloat(resp.PreviousClose),
	}
	if resp.Timestamp > 0 {
		q.Timestamp = time.Unix(resp.Timestamp, 0).UTC()
	}
	return q, nil
}

// GetProfile fetches the company profile. Unknown symbols yield an empty Ticker.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*domain.InstrumentProfile, error) {
	var resp profileResponse
	if err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &resp); err != nil {
		return nil, err
	}

	return &domain.InstrumentProfile{
		Ticker:   resp.Ticker,
		Name:     resp.Name,
		Exchange: resp.Exchange,
		Currency: resp.Currency,
		Country:  resp.Country,
	}, nil
}

// get performs a rate-limited GET request and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("token", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	c.log.Debug().
		Str("endpoint", path).
		Str("symbol", params.Get("symbol")).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Finnhub request")

	// Finnhub reports some failures as {"error": "..."} even with status 200
	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	if resp.StatusCode != http.StatusOK {
		msg := apiErr.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: path}
	}
	if apiErr.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error, Endpoint: path}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
