package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/marketgate/internal/models"
)

func TestGetDailyBars_ParsesAndSorts(t *testing.T) {
	body := `{
		"Time Series (Daily)": {
			"2025-08-26": {"1. open": "2540.0", "2. high": "2560.0", "3. low": "2510.0", "4. close": "2520.0", "5. volume": "900000"},
			"2025-08-25": {"1. open": "2500.0", "2. high": "2550.0", "3. low": "2480.0", "4. close": "2540.0", "5. volume": "1200000"}
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "test-key" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	ds, err := client.GetDailyBars(context.Background(), "TM")
	if err != nil {
		t.Fatalf("GetDailyBars failed: %v", err)
	}

	if len(ds.Bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(ds.Bars))
	}
	if !ds.Bars[0].Date.Before(ds.Bars[1].Date) {
		t.Error("expected bars sorted oldest first")
	}
	if ds.Bars[0].Close != 2540.0 {
		t.Errorf("expected close 2540, got %.2f", ds.Bars[0].Close)
	}
}

func TestGet_QuotaNoteIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.GetDailyBars(context.Background(), "TM")
	if err == nil {
		t.Fatal("expected error on quota note")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429 for quota note, got %d", apiErr.StatusCode)
	}
}

func TestGetFundamentals_ParsesOverview(t *testing.T) {
	body := `{
		"Symbol": "TM",
		"Sector": "Consumer Cyclical",
		"Industry": "Auto Manufacturers",
		"MarketCapitalization": "250000000000",
		"PERatio": "9.5",
		"PriceToBookRatio": "1.1",
		"EPS": "21.4",
		"DividendYield": "0.027",
		"Beta": "0.6",
		"RevenueTTM": "300000000000",
		"AnalystTargetPrice": "215.0"
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	ds, err := client.GetFundamentals(context.Background(), "TM")
	if err != nil {
		t.Fatalf("GetFundamentals failed: %v", err)
	}
	if ds.Fundamentals == nil {
		t.Fatal("expected fundamentals payload")
	}
	if ds.Fundamentals.PE != 9.5 {
		t.Errorf("expected PE 9.5, got %.2f", ds.Fundamentals.PE)
	}
	if ds.Fundamentals.Sector != "Consumer Cyclical" {
		t.Errorf("unexpected sector %q", ds.Fundamentals.Sector)
	}

	analysis, err := client.GetAnalysis(context.Background(), "TM")
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if analysis.Analysis == nil || analysis.Analysis.TargetPrice != 215.0 {
		t.Error("expected analyst target price 215.0")
	}
}

func TestFetch_DispatchesOnKind(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.Fetch(context.Background(), models.Query{Symbol: "TM", Kind: models.KindFilings})
	if err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
