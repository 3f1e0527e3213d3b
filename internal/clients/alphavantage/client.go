// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/interfaces"
	"github.com/bobmcallan/marketgate/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 1 // requests per second, the free tier is tight
)

// flexFloat64 handles JSON values that may be either a number or a string.
// Alpha Vantage returns most numerics as strings, with "None" for absent.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "None" || s == "N/A" || s == "-" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client fetches daily prices, company fundamentals and analyst data from
// Alpha Vantage. An API key is required.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name returns the provider name
func (c *Client) Name() string {
	return "alpha_vantage"
}

// Fetch retrieves data for the query, dispatching on the data kind.
func (c *Client) Fetch(ctx context.Context, query models.Query) (*models.Dataset, error) {
	switch query.Kind {
	case models.KindPrices:
		return c.GetDailyBars(ctx, query.Symbol)
	case models.KindFundamentals:
		return c.GetFundamentals(ctx, query.Symbol)
	case models.KindAnalysis:
		return c.GetAnalysis(ctx, query.Symbol)
	default:
		return nil, fmt.Errorf("alpha_vantage does not serve %s data", query.Kind)
	}
}

// get performs a rate-limited GET against the query endpoint.
func (c *Client) get(ctx context.Context, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("function", params.Get("function")).Str("symbol", params.Get("symbol")).Msg("Alpha Vantage request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/query",
		}
	}

	// The API reports quota exhaustion and bad keys with HTTP 200 and a
	// Note or Error Message field.
	var envelope struct {
		Note         string `json:"Note"`
		Information  string `json:"Information"`
		ErrorMessage string `json:"Error Message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.ErrorMessage != "":
			return &APIError{StatusCode: resp.StatusCode, Message: envelope.ErrorMessage, Endpoint: "/query"}
		case envelope.Note != "":
			return &APIError{StatusCode: http.StatusTooManyRequests, Message: envelope.Note, Endpoint: "/query"}
		case envelope.Information != "":
			return &APIError{StatusCode: http.StatusTooManyRequests, Message: envelope.Information, Endpoint: "/query"}
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type dailySeriesResponse struct {
	Series map[string]struct {
		Open   flexFloat64 `json:"1. open"`
		High   flexFloat64 `json:"2. high"`
		Low    flexFloat64 `json:"3. low"`
		Close  flexFloat64 `json:"4. close"`
		Volume flexFloat64 `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

// GetDailyBars retrieves the daily time series for the symbol.
func (c *Client) GetDailyBars(ctx context.Context, symbol string) (*models.Dataset, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", "compact")

	var series dailySeriesResponse
	if err := c.get(ctx, params, &series); err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(series.Series))
	for dateStr, row := range series.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		bars = append(bars, models.Bar{
			Date:   date,
			Open:   float64(row.Open),
			High:   float64(row.High),
			Low:    float64(row.Low),
			Close:  float64(row.Close),
			Volume: int64(row.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return &models.Dataset{
		Symbol:    symbol,
		Kind:      models.KindPrices,
		Bars:      bars,
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}, nil
}

type overviewResponse struct {
	Symbol             string      `json:"Symbol"`
	Sector             string      `json:"Sector"`
	Industry           string      `json:"Industry"`
	MarketCap          flexFloat64 `json:"MarketCapitalization"`
	PERatio            flexFloat64 `json:"PERatio"`
	PriceToBook        flexFloat64 `json:"PriceToBookRatio"`
	EPS                flexFloat64 `json:"EPS"`
	DividendYield      flexFloat64 `json:"DividendYield"`
	Beta               flexFloat64 `json:"Beta"`
	RevenueTTM         flexFloat64 `json:"RevenueTTM"`
	AnalystTargetPrice flexFloat64 `json:"AnalystTargetPrice"`
}

// GetFundamentals retrieves company overview metrics for the symbol.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.Dataset, error) {
	overview, err := c.getOverview(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return &models.Dataset{
		Symbol: symbol,
		Kind:   models.KindFundamentals,
		Fundamentals: &models.Fundamentals{
			Symbol:        symbol,
			MarketCap:     float64(overview.MarketCap),
			PE:            float64(overview.PERatio),
			PB:            float64(overview.PriceToBook),
			EPS:           float64(overview.EPS),
			DividendYield: float64(overview.DividendYield),
			Beta:          float64(overview.Beta),
			Revenue:       float64(overview.RevenueTTM),
			Sector:        overview.Sector,
			Industry:      overview.Industry,
			Source:        c.Name(),
			LastUpdated:   time.Now(),
		},
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}, nil
}

// GetAnalysis retrieves analyst consensus data for the symbol.
func (c *Client) GetAnalysis(ctx context.Context, symbol string) (*models.Dataset, error) {
	overview, err := c.getOverview(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if overview.AnalystTargetPrice == 0 {
		return &models.Dataset{
			Symbol:    symbol,
			Kind:      models.KindAnalysis,
			Source:    c.Name(),
			FetchedAt: time.Now(),
		}, nil
	}

	return &models.Dataset{
		Symbol: symbol,
		Kind:   models.KindAnalysis,
		Analysis: &models.MarketAnalysis{
			Symbol:      symbol,
			TargetPrice: float64(overview.AnalystTargetPrice),
			Source:      c.Name(),
			LastUpdated: time.Now(),
		},
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}, nil
}

func (c *Client) getOverview(ctx context.Context, symbol string) (*overviewResponse, error) {
	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", symbol)

	var overview overviewResponse
	if err := c.get(ctx, params, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// Ensure Client implements the ProviderClient interface
var _ interfaces.ProviderClient = (*Client)(nil)
