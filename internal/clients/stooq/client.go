// Package stooq provides a client for the Stooq daily price CSV endpoint
package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/interfaces"
	"github.com/bobmcallan/marketgate/internal/models"
)

const (
	DefaultBaseURL   = "https://stooq.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client fetches daily OHLCV bars from Stooq. Stooq needs no API key.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Stooq client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Stooq API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name returns the provider name
func (c *Client) Name() string {
	return "stooq"
}

// Fetch retrieves data for the query. Stooq serves daily price bars only.
func (c *Client) Fetch(ctx context.Context, query models.Query) (*models.Dataset, error) {
	if query.Kind != models.KindPrices {
		return nil, fmt.Errorf("stooq does not serve %s data", query.Kind)
	}
	return c.GetDailyBars(ctx, query.Symbol, query.Period)
}

// GetDailyBars retrieves daily OHLCV bars for the symbol over the period.
func (c *Client) GetDailyBars(ctx context.Context, symbol, period string) (*models.Dataset, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	from := periodStart(period, time.Now())

	params := url.Values{}
	params.Set("s", stooqSymbol(symbol))
	params.Set("i", "d")
	params.Set("d1", from.Format("20060102"))
	params.Set("d2", time.Now().Format("20060102"))

	reqURL := fmt.Sprintf("%s/q/d/l/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("symbol", symbol).Str("period", period).Msg("Stooq price request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/q/d/l/",
		}
	}

	bars, err := parseCSV(resp.Body)
	if err != nil {
		return nil, err
	}

	return &models.Dataset{
		Symbol:    symbol,
		Kind:      models.KindPrices,
		Bars:      bars,
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}, nil
}

// parseCSV reads Stooq's Date,Open,High,Low,Close,Volume format.
func parseCSV(r io.Reader) ([]models.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	bars := make([]models.Bar, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 6 {
			continue
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(rec[1], 64)
		high, _ := strconv.ParseFloat(rec[2], 64)
		low, _ := strconv.ParseFloat(rec[3], 64)
		closePx, _ := strconv.ParseFloat(rec[4], 64)
		volume, _ := strconv.ParseInt(rec[5], 10, 64)

		bars = append(bars, models.Bar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePx,
			Volume: volume,
		})
	}

	return bars, nil
}

// stooqSymbol maps a ticker to Stooq's naming. Bare numeric codes are
// Tokyo listings and take the .jp suffix.
func stooqSymbol(symbol string) string {
	s := strings.ToLower(symbol)
	if !strings.Contains(s, ".") && isNumeric(s) {
		return s + ".jp"
	}
	return s
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// periodStart converts a lookback period like "1mo" or "1y" to a start date.
// Unknown periods default to one month.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "1d":
		return now.AddDate(0, 0, -1)
	case "5d":
		return now.AddDate(0, 0, -5)
	case "1mo", "":
		return now.AddDate(0, -1, 0)
	case "3mo":
		return now.AddDate(0, -3, 0)
	case "6mo":
		return now.AddDate(0, -6, 0)
	case "1y":
		return now.AddDate(-1, 0, 0)
	case "2y":
		return now.AddDate(-2, 0, 0)
	case "5y":
		return now.AddDate(-5, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// Ensure Client implements the ProviderClient interface
var _ interfaces.ProviderClient = (*Client)(nil)
