package fetcher

import (
	"strings"

	"github.com/bobmcallan/marketgate/internal/models"
)

// Keyword lexicons for headline sentiment. Japanese terms are matched as
// substrings since Japanese text has no word boundaries.
var (
	positiveWords = []string{"positive", "growth", "profit", "increase", "success", "good", "strong"}
	negativeWords = []string{"negative", "loss", "decline", "decrease", "failure", "bad", "weak"}

	positiveWordsJA = []string{"上昇", "成長", "利益", "増加", "成功", "好調", "強気", "買い", "プラス"}
	negativeWordsJA = []string{"下落", "損失", "減少", "失敗", "不調", "弱気", "売り", "マイナス", "悪化"}
)

// ScoreSentiment rates a piece of text in [-1, 1] from keyword counts.
// Text with no sentiment keywords scores 0.
func ScoreSentiment(text string) float64 {
	lower := strings.ToLower(text)

	positive := 0
	negative := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}
	for _, w := range positiveWordsJA {
		if strings.Contains(text, w) {
			positive++
		}
	}
	for _, w := range negativeWordsJA {
		if strings.Contains(text, w) {
			negative++
		}
	}

	if positive == 0 && negative == 0 {
		return 0.0
	}
	score := float64(positive-negative) / float64(positive+negative)
	if score > 1.0 {
		score = 1.0
	}
	if score < -1.0 {
		score = -1.0
	}
	return score
}

// AnnotateSentiment scores each news item in place and returns the
// aggregate summary across all items.
func AnnotateSentiment(news []*models.NewsItem) models.SentimentSummary {
	if len(news) == 0 {
		return models.SentimentSummary{Label: "neutral"}
	}

	total := 0.0
	for _, item := range news {
		item.SentimentScore = ScoreSentiment(item.Title + " " + item.Content)
		total += item.SentimentScore
	}

	overall := total / float64(len(news))
	return models.SentimentSummary{
		Overall:   overall,
		Label:     sentimentLabel(overall),
		NewsCount: len(news),
	}
}

func sentimentLabel(score float64) string {
	switch {
	case score > 0.3:
		return "bullish"
	case score > 0:
		return "slightly_bullish"
	case score > -0.3:
		return "neutral"
	default:
		return "bearish"
	}
}
