// Package models defines data structures for marketgate
package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// DataKind identifies a category of market data served by providers.
type DataKind string

const (
	KindPrices        DataKind = "prices"
	KindNews          DataKind = "news"
	KindFundamentals  DataKind = "fundamentals"
	KindFilings       DataKind = "filings"
	KindAnalysis      DataKind = "market_analysis"
	KindComprehensive DataKind = "comprehensive"
)

// Query identifies one unit of fetch work: a symbol, a data kind, and a
// lookback period (e.g. "1mo", "1y").
type Query struct {
	Symbol string   `json:"symbol"`
	Kind   DataKind `json:"kind"`
	Period string   `json:"period,omitempty"`
}

// CacheKey derives the cache key for this query. The key includes a UTC
// date bucket so entries roll over daily regardless of TTL.
func (q Query) CacheKey(bucket time.Time) string {
	raw := fmt.Sprintf("%s_%s_%s_%s", q.Symbol, q.Kind, q.Period, bucket.UTC().Format("2006-01-02"))
	sum := md5.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (q Query) String() string {
	if q.Period == "" {
		return fmt.Sprintf("%s/%s", q.Symbol, q.Kind)
	}
	return fmt.Sprintf("%s/%s/%s", q.Symbol, q.Kind, q.Period)
}

// Bar represents a single day's price data
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close,omitempty"`
	Volume   int64     `json:"volume"`
}

// NewsItem represents a news article
type NewsItem struct {
	Title          string    `json:"title"`
	Content        string    `json:"content,omitempty"`
	Source         string    `json:"source"`
	URL            string    `json:"url"`
	PublishedAt    time.Time `json:"published_at"`
	SentimentScore float64   `json:"sentiment_score"`
	Keywords       []string  `json:"keywords,omitempty"`
}

// Fundamentals contains company financial metrics
type Fundamentals struct {
	Symbol        string    `json:"symbol"`
	MarketCap     float64   `json:"market_cap"`
	PE            float64   `json:"pe_ratio"`
	PB            float64   `json:"pb_ratio"`
	EPS           float64   `json:"eps,omitempty"`
	DividendYield float64   `json:"dividend_yield"`
	Beta          float64   `json:"beta"`
	Revenue       float64   `json:"revenue"`
	NetIncome     float64   `json:"net_income"`
	DebtToEquity  float64   `json:"debt_to_equity"`
	CurrentRatio  float64   `json:"current_ratio"`
	Sector        string    `json:"sector,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	Source        string    `json:"source"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Filing represents a regulatory filing reference
type Filing struct {
	Symbol   string    `json:"symbol"`
	Type     string    `json:"type"` // e.g. "10-K", "10-Q", "8-K"
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	FiledAt  time.Time `json:"filed_at"`
	Source   string    `json:"source"`
	SizeKB   int       `json:"size_kb,omitempty"`
	Document string    `json:"document,omitempty"`
}

// MarketAnalysis holds analyst consensus data for a symbol
type MarketAnalysis struct {
	Symbol          string    `json:"symbol"`
	AnalystRating   string    `json:"analyst_rating,omitempty"`
	TargetPrice     float64   `json:"target_price,omitempty"`
	AnalystCount    int       `json:"analyst_count,omitempty"`
	UpsidePotential float64   `json:"upside_potential,omitempty"`
	Source          string    `json:"source"`
	LastUpdated     time.Time `json:"last_updated"`
}

// Dataset is the payload returned by a provider fetch. Exactly one of the
// kind-specific fields is populated, matching the query's DataKind.
type Dataset struct {
	Symbol       string          `json:"symbol"`
	Kind         DataKind        `json:"kind"`
	Bars         []Bar           `json:"bars,omitempty"`
	News         []*NewsItem     `json:"news,omitempty"`
	Fundamentals *Fundamentals   `json:"fundamentals,omitempty"`
	Filings      []Filing        `json:"filings,omitempty"`
	Analysis     *MarketAnalysis `json:"analysis,omitempty"`
	Source       string          `json:"source"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// Empty reports whether the dataset carries no data for its kind.
// A well-formed but empty dataset is a validation failure, not an error.
func (d *Dataset) Empty() bool {
	if d == nil {
		return true
	}
	switch d.Kind {
	case KindNews:
		return len(d.News) == 0
	case KindFundamentals:
		return d.Fundamentals == nil
	case KindFilings:
		return len(d.Filings) == 0
	case KindAnalysis:
		return d.Analysis == nil
	default:
		return len(d.Bars) == 0
	}
}
