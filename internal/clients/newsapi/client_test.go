package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/marketgate/internal/models"
)

const everythingBody = `{
	"status": "ok",
	"totalResults": 2,
	"articles": [
		{
			"source": {"name": "Reuters"},
			"title": "Toyota reports strong growth",
			"description": "Quarterly profit increase beats estimates",
			"url": "https://example.com/a",
			"publishedAt": "2025-08-28T09:00:00Z"
		},
		{
			"source": {"name": "Nikkei"},
			"title": "Supplier output declines",
			"description": "",
			"url": "https://example.com/b",
			"publishedAt": "2025-08-27T12:30:00Z"
		}
	]
}`

func TestGetNews_ParsesArticles(t *testing.T) {
	var capturedKey, capturedQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedKey = r.Header.Get("X-Api-Key")
		capturedQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(everythingBody))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	ds, err := client.GetNews(context.Background(), "7203")
	if err != nil {
		t.Fatalf("GetNews failed: %v", err)
	}

	if capturedKey != "test-key" {
		t.Errorf("expected API key header, got %q", capturedKey)
	}
	if capturedQuery != "7203" {
		t.Errorf("expected query 7203, got %q", capturedQuery)
	}
	if len(ds.News) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(ds.News))
	}
	if ds.News[0].Source != "Reuters" {
		t.Errorf("unexpected source %q", ds.News[0].Source)
	}
	if ds.News[0].PublishedAt.IsZero() {
		t.Error("expected parsed publish time")
	}
	if ds.News[0].SentimentScore != 0 {
		t.Error("client must not score sentiment; that happens downstream")
	}
}

func TestGetNews_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.GetNews(context.Background(), "7203")
	if err == nil {
		t.Fatal("expected error on error status envelope")
	}
}

func TestFetch_RejectsUnsupportedKind(t *testing.T) {
	client := NewClient("k")
	_, err := client.Fetch(context.Background(), models.Query{Symbol: "7203", Kind: models.KindPrices})
	if err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}
