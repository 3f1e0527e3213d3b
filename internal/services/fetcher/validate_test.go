package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobmcallan/marketgate/internal/models"
)

func pricesAt(bars []models.Bar) *models.Dataset {
	return &models.Dataset{Symbol: "7203", Kind: models.KindPrices, Bars: bars, Source: "test"}
}

func cleanBars(n int) []models.Bar {
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	price := 2500.0
	for i := range bars {
		bars[i] = models.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price + 50,
			Low:    price - 50,
			Close:  price + 10,
			Volume: 1000000,
		}
		price += 10
	}
	return bars
}

func TestValidate_CleanSeriesScoresFull(t *testing.T) {
	v := NewValidator()
	result := v.Validate(pricesAt(cleanBars(10)), "yahoo")

	assert.True(t, result.Valid)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Empty(t, result.Inconsistencies)
	assert.Equal(t, "yahoo", result.Source)
}

func TestValidate_EmptyDatasetScoresZero(t *testing.T) {
	v := NewValidator()
	result := v.Validate(pricesAt(nil), "yahoo")

	assert.False(t, result.Valid)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Contains(t, result.Inconsistencies, "empty dataset")
}

func TestValidate_HighBelowLowDeductsTenth(t *testing.T) {
	bars := cleanBars(5)
	bars[2].High = bars[2].Low - 1

	v := NewValidator()
	result := v.Validate(pricesAt(bars), "stooq")

	assert.True(t, result.Valid)
	assert.InDelta(t, 0.90, result.Confidence, 1e-9)
	assert.Contains(t, result.Inconsistencies, "high below low")
}

func TestValidate_ExtremeDailyChange(t *testing.T) {
	bars := cleanBars(5)
	bars[3].Close = bars[2].Close * 2

	v := NewValidator()
	result := v.Validate(pricesAt(bars), "stooq")

	assert.True(t, result.Valid)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
}

func TestValidate_NonPositiveCloseDeductsFifth(t *testing.T) {
	bars := cleanBars(5)
	bars[1].Close = 0

	v := NewValidator()
	result := v.Validate(pricesAt(bars), "stooq")

	// Zero close also trips the extreme-change check against neighbors.
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)
	assert.Contains(t, result.Inconsistencies, "non-positive close price")
}

func TestValidate_BarGapDeducts(t *testing.T) {
	bars := cleanBars(5)
	bars[4].Date = bars[3].Date.AddDate(0, 0, 8)

	v := NewValidator()
	result := v.Validate(pricesAt(bars), "stooq")

	assert.True(t, result.Valid)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.Contains(t, result.Inconsistencies, "gap between bars exceeds 5 days")
}

func TestValidate_DeductionsStack(t *testing.T) {
	bars := cleanBars(6)
	bars[1].High = bars[1].Low - 1            // -0.10
	bars[2].Close = -5                        // -0.20, also extreme change -0.05
	bars[5].Date = bars[4].Date.AddDate(0, 0, 10) // -0.05

	v := NewValidator()
	result := v.Validate(pricesAt(bars), "stooq")

	assert.False(t, result.Valid)
	assert.InDelta(t, 0.60, result.Confidence, 1e-9)
	assert.Len(t, result.Inconsistencies, 4)
}

func TestValidate_EachDeductionAppliesOnce(t *testing.T) {
	bars := cleanBars(6)
	bars[1].High = bars[1].Low - 1
	bars[2].High = bars[2].Low - 1
	bars[3].High = bars[3].Low - 1

	v := NewValidator()
	result := v.Validate(pricesAt(bars), "stooq")

	assert.InDelta(t, 0.90, result.Confidence, 1e-9)
}

func TestValidate_NonPriceKindPassesOnPresence(t *testing.T) {
	v := NewValidator()
	ds := &models.Dataset{
		Symbol: "7203",
		Kind:   models.KindNews,
		News:   []*models.NewsItem{{Title: "headline"}},
		Source: "newsapi",
	}
	result := v.Validate(ds, "newsapi")

	assert.True(t, result.Valid)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestSummary_AggregatesHistory(t *testing.T) {
	v := NewValidator()
	v.Validate(pricesAt(cleanBars(5)), "yahoo") // 1.0, valid
	v.Validate(pricesAt(nil), "yahoo")          // 0.0, invalid

	bars := cleanBars(5)
	bars[0].High = bars[0].Low - 1
	v.Validate(pricesAt(bars), "stooq") // 0.90, valid

	summary := v.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Valid)
	assert.InDelta(t, 2.0/3.0, summary.ValidityRate, 1e-9)
	assert.InDelta(t, (1.0+0.0+0.90)/3.0, summary.AverageConfidence, 1e-9)
}

func TestSummary_EmptyHistory(t *testing.T) {
	v := NewValidator()
	summary := v.Summary()
	assert.Equal(t, models.ValidationSummary{}, summary)
}

func TestHistory_CappedAtLimit(t *testing.T) {
	v := NewValidator()
	ds := pricesAt(cleanBars(2))
	for i := 0; i < maxValidationHistory+50; i++ {
		v.Validate(ds, "yahoo")
	}
	assert.Equal(t, maxValidationHistory, v.Summary().Total)
}
