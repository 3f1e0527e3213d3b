// Package edgar provides a client for the SEC EDGAR filings API
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/interfaces"
	"github.com/bobmcallan/marketgate/internal/models"
)

const (
	DefaultBaseURL       = "https://data.sec.gov"
	DefaultTickerBaseURL = "https://www.sec.gov"
	DefaultTimeout       = 30 * time.Second
	DefaultRateLimit     = 5 // SEC asks for no more than 10 req/s

	// The SEC requires a descriptive User-Agent with contact details.
	userAgent = "marketgate/1.0 (admin@marketgate.local)"
)

// Client fetches regulatory filing references from SEC EDGAR. No API key is
// required, but the SEC's fair-access policy applies.
type Client struct {
	baseURL       string
	tickerBaseURL string
	httpClient    *http.Client
	logger        *common.Logger
	limiter       *rate.Limiter

	mu      sync.Mutex
	tickers map[string]string // upper-case ticker -> zero-padded CIK
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the submissions API
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTickerBaseURL sets the base URL for the ticker-to-CIK mapping file
func WithTickerBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.tickerBaseURL = baseURL
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

// NewClient creates a new EDGAR client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		tickerBaseURL: DefaultTickerBaseURL,
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
	return fmt.Sprintf("EDGAR API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Name returns the provider name
func (c *Client) Name() string {
	return "edgar"
}

// Fetch retrieves data for the query. EDGAR serves filing references only.
func (c *Client) Fetch(ctx context.Context, query models.Query) (*models.Dataset, error) {
	if query.Kind != models.KindFilings {
		return nil, fmt.Errorf("edgar does not serve %s data", query.Kind)
	}
	return c.GetFilings(ctx, query.Symbol)
}

// get performs a rate-limited GET with the required User-Agent.
func (c *Client) get(ctx context.Context, reqURL, endpoint string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// lookupCIK resolves a ticker to a zero-padded CIK, loading and caching the
// SEC's company ticker file on first use.
func (c *Client) lookupCIK(ctx context.Context, symbol string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tickers == nil {
		var raw map[string]struct {
			CIK    int64  `json:"cik_str"`
			Ticker string `json:"ticker"`
		}
		reqURL := c.tickerBaseURL + "/files/company_tickers.json"
		if err := c.get(ctx, reqURL, "/files/company_tickers.json", &raw); err != nil {
			return "", err
		}
		c.tickers = make(map[string]string, len(raw))
		for _, entry := range raw {
			c.tickers[strings.ToUpper(entry.Ticker)] = fmt.Sprintf("%010d", entry.CIK)
		}
		c.logger.Debug().Int("count", len(c.tickers)).Msg("Loaded EDGAR ticker map")
	}

	cik, ok := c.tickers[strings.ToUpper(symbol)]
	if !ok {
		return "", fmt.Errorf("no CIK registered for ticker %s", symbol)
	}
	return cik, nil
}

type submissionsResponse struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
			PrimaryDocDesc  []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// GetFilings retrieves recent filing references for the symbol. Only the
// annual, quarterly and current-event forms are kept.
func (c *Client) GetFilings(ctx context.Context, symbol string) (*models.Dataset, error) {
	cik, err := c.lookupCIK(ctx, symbol)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/submissions/CIK%s.json", cik)
	var subs submissionsResponse
	if err := c.get(ctx, c.baseURL+path, path, &subs); err != nil {
		return nil, err
	}

	recent := subs.Filings.Recent
	filings := make([]models.Filing, 0, len(recent.Form))
	for i, form := range recent.Form {
		if !relevantForm(form) {
			continue
		}
		if i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) {
			break
		}
		filedAt, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}

		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		doc := ""
		if i < len(recent.PrimaryDocument) {
			doc = recent.PrimaryDocument[i]
		}
		title := form
		if i < len(recent.PrimaryDocDesc) && recent.PrimaryDocDesc[i] != "" {
			title = recent.PrimaryDocDesc[i]
		}

		filings = append(filings, models.Filing{
			Symbol:   symbol,
			Type:     form,
			Title:    title,
			URL:      fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s", strings.TrimLeft(cik, "0"), accession, doc),
			FiledAt:  filedAt,
			Source:   c.Name(),
			Document: doc,
		})
		if len(filings) >= 20 {
			break
		}
	}

	return &models.Dataset{
		Symbol:    symbol,
		Kind:      models.KindFilings,
		Filings:   filings,
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}, nil
}

func relevantForm(form string) bool {
	switch form {
	case "10-K", "10-Q", "8-K", "20-F", "6-K", "DEF 14A":
		return true
	}
	return false
}

// Ensure Client implements the ProviderClient interface
var _ interfaces.ProviderClient = (*Client)(nil)
