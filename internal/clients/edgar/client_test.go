package edgar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/marketgate/internal/models"
)

const tickersBody = `{
	"0": {"cik_str": 1318605, "ticker": "TSLA", "title": "Tesla, Inc."},
	"1": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}
}`

const submissionsBody = `{
	"cik": "320193",
	"name": "Apple Inc.",
	"filings": {
		"recent": {
			"accessionNumber": ["0000320193-25-000001", "0000320193-25-000002", "0000320193-25-000003"],
			"filingDate": ["2025-08-01", "2025-07-15", "2025-07-01"],
			"form": ["10-Q", "4", "8-K"],
			"primaryDocument": ["aapl-10q.htm", "form4.xml", "aapl-8k.htm"],
			"primaryDocDescription": ["Quarterly report", "", "Current report"]
		}
	}
}`

func newEdgarTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "user agent required", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/files/company_tickers.json":
			w.Write([]byte(tickersBody))
		case "/submissions/CIK0000320193.json":
			w.Write([]byte(submissionsBody))
		default:
			http.NotFound(w, r)
		}
	}))
	client := NewClient(WithBaseURL(srv.URL), WithTickerBaseURL(srv.URL))
	return srv, client
}

func TestGetFilings_ResolvesCIKAndFilters(t *testing.T) {
	srv, client := newEdgarTestServer(t)
	defer srv.Close()

	ds, err := client.GetFilings(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetFilings failed: %v", err)
	}

	if ds.Kind != models.KindFilings {
		t.Errorf("expected kind filings, got %s", ds.Kind)
	}
	// Form 4 insider filings are filtered out.
	if len(ds.Filings) != 2 {
		t.Fatalf("expected 2 filings, got %d", len(ds.Filings))
	}
	if ds.Filings[0].Type != "10-Q" {
		t.Errorf("expected 10-Q first, got %s", ds.Filings[0].Type)
	}
	if ds.Filings[0].Title != "Quarterly report" {
		t.Errorf("unexpected title %q", ds.Filings[0].Title)
	}
	if ds.Filings[1].Type != "8-K" {
		t.Errorf("expected 8-K second, got %s", ds.Filings[1].Type)
	}
}

func TestGetFilings_UnknownTicker(t *testing.T) {
	srv, client := newEdgarTestServer(t)
	defer srv.Close()

	_, err := client.GetFilings(context.Background(), "7203")
	if err == nil {
		t.Fatal("expected error for ticker with no CIK")
	}
}

func TestFetch_RejectsUnsupportedKind(t *testing.T) {
	client := NewClient()
	_, err := client.Fetch(context.Background(), models.Query{Symbol: "AAPL", Kind: models.KindPrices})
	if err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
