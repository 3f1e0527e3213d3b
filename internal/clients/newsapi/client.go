// Package newsapi provides a client for the NewsAPI.org headline search API
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/interfaces"
	"github.com/bobmcallan/marketgate/internal/models"
)

const (
	DefaultBaseURL   = "https://newsapi.org"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second
	DefaultPageSize  = 20
)

// Client fetches recent news articles from NewsAPI.org. An API key is
// required.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
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

// WithPageSize sets the number of articles per request
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		c.pageSize = size
	}
}

// NewClient creates a new NewsAPI client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		pageSize: DefaultPageSize,
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
	return fmt.Sprintf("NewsAPI error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name returns the provider name
func (c *Client) Name() string {
	return "newsapi"
}

// Fetch retrieves data for the query. NewsAPI serves news articles only.
func (c *Client) Fetch(ctx context.Context, query models.Query) (*models.Dataset, error) {
	if query.Kind != models.KindNews {
		return nil, fmt.Errorf("newsapi does not serve %s data", query.Kind)
	}
	return c.GetNews(ctx, query.Symbol)
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// GetNews retrieves recent articles mentioning the symbol, newest first.
func (c *Client) GetNews(ctx context.Context, symbol string) (*models.Dataset, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("q", symbol)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("from", time.Now().AddDate(0, 0, -7).Format("2006-01-02"))

	reqURL := fmt.Sprintf("%s/v2/everything?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	c.logger.Debug().Str("symbol", symbol).Msg("NewsAPI request")

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
			Endpoint:   "/v2/everything",
		}
	}

	var result everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Status != "ok" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s: %s", result.Code, result.Message),
			Endpoint:   "/v2/everything",
		}
	}

	news := make([]*models.NewsItem, 0, len(result.Articles))
	for _, article := range result.Articles {
		publishedAt, _ := time.Parse(time.RFC3339, article.PublishedAt)
		news = append(news, &models.NewsItem{
			Title:       article.Title,
			Content:     article.Description,
			Source:      article.Source.Name,
			URL:         article.URL,
			PublishedAt: publishedAt,
		})
	}

	return &models.Dataset{
		Symbol:    symbol,
		Kind:      models.KindNews,
		News:      news,
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}, nil
}

// Ensure Client implements the ProviderClient interface
var _ interfaces.ProviderClient = (*Client)(nil)
