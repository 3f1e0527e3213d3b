package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/marketgate/internal/models"
)

func TestScoreSentiment(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"no keywords", "the company held its annual meeting", 0.0},
		{"all positive", "strong growth and profit increase", 1.0},
		{"all negative", "loss widens as sales decline", -1.0},
		{"mixed", "profit up but outlook weak", 0.0},
		{"japanese positive", "トヨタ株が上昇、利益も増加", 1.0},
		{"japanese negative", "業績悪化で株価下落", -1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ScoreSentiment(tc.text), 1e-9)
		})
	}
}

func TestAnnotateSentiment(t *testing.T) {
	news := []*models.NewsItem{
		{Title: "Strong growth reported", Content: "profit increase"},
		{Title: "Quarterly loss", Content: "sales decline and weak outlook"},
		{Title: "New factory opens"},
	}

	summary := AnnotateSentiment(news)

	assert.Equal(t, 3, summary.NewsCount)
	assert.Equal(t, 1.0, news[0].SentimentScore)
	assert.Equal(t, -1.0, news[1].SentimentScore)
	assert.Equal(t, 0.0, news[2].SentimentScore)
	assert.InDelta(t, 0.0, summary.Overall, 1e-9)
	assert.Equal(t, "neutral", summary.Label)
}

func TestAnnotateSentiment_Empty(t *testing.T) {
	summary := AnnotateSentiment(nil)
	assert.Equal(t, "neutral", summary.Label)
	assert.Equal(t, 0, summary.NewsCount)
}

func TestSentimentLabel(t *testing.T) {
	assert.Equal(t, "bullish", sentimentLabel(0.5))
	assert.Equal(t, "slightly_bullish", sentimentLabel(0.2))
	assert.Equal(t, "neutral", sentimentLabel(-0.1))
	assert.Equal(t, "bearish", sentimentLabel(-0.6))
}
