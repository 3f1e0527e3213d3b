package fetcher

import (
	"math"
	"sync"
	"time"

	"github.com/bobmcallan/marketgate/internal/models"
)

const (
	// Confidence at or above this threshold marks a dataset valid.
	ConfidenceThreshold = 0.70

	// Rolling validation history is capped to bound memory.
	maxValidationHistory = 1000

	// Price moves beyond this fraction in one day are flagged.
	maxDailyChange = 0.50

	// Gaps between consecutive bars beyond this are flagged.
	maxBarGap = 5 * 24 * time.Hour
)

// Validator scores fetched datasets and keeps a rolling history of results
// for the validation summary. Safe for concurrent use.
type Validator struct {
	mu      sync.Mutex
	history []models.ValidationResult
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate scores the dataset and records the result. Scoring starts at
// confidence 1.0 and applies a fixed deduction per inconsistency class;
// an empty dataset scores 0 outright.
func (v *Validator) Validate(ds *models.Dataset, source string) models.ValidationResult {
	result := models.ValidationResult{
		Confidence: 1.0,
		Source:     source,
		Timestamp:  time.Now(),
	}

	result.Confidence, result.Inconsistencies = scoreDataset(ds)
	result.Valid = result.Confidence >= ConfidenceThreshold

	v.mu.Lock()
	v.history = append(v.history, result)
	if len(v.history) > maxValidationHistory {
		v.history = v.history[len(v.history)-maxValidationHistory:]
	}
	v.mu.Unlock()

	return result
}

// scoreDataset computes confidence without recording history. An empty
// dataset scores 0; non-price kinds pass on presence alone.
func scoreDataset(ds *models.Dataset) (float64, []string) {
	if ds.Empty() {
		return 0.0, []string{"empty dataset"}
	}
	if ds.Kind == models.KindPrices || ds.Kind == models.KindComprehensive {
		return scoreBars(ds.Bars)
	}
	return 1.0, nil
}

// scoreBars applies the price-series consistency checks. Each class of
// inconsistency deducts once no matter how many bars trip it.
func scoreBars(bars []models.Bar) (float64, []string) {
	confidence := 1.0
	var inconsistencies []string

	invertedRange := false
	nonPositiveClose := false
	extremeMove := false
	gap := false

	for i := range bars {
		if bars[i].High < bars[i].Low {
			invertedRange = true
		}
		if bars[i].Close <= 0 {
			nonPositiveClose = true
		}
		if i > 0 {
			prev := bars[i-1]
			if prev.Close > 0 {
				change := math.Abs(bars[i].Close-prev.Close) / prev.Close
				if change > maxDailyChange {
					extremeMove = true
				}
			}
			if bars[i].Date.Sub(prev.Date) > maxBarGap {
				gap = true
			}
		}
	}

	if invertedRange {
		confidence -= 0.10
		inconsistencies = append(inconsistencies, "high below low")
	}
	if extremeMove {
		confidence -= 0.05
		inconsistencies = append(inconsistencies, "daily change exceeds 50%")
	}
	if nonPositiveClose {
		confidence -= 0.20
		inconsistencies = append(inconsistencies, "non-positive close price")
	}
	if gap {
		confidence -= 0.05
		inconsistencies = append(inconsistencies, "gap between bars exceeds 5 days")
	}

	if confidence < 0 {
		confidence = 0
	}
	return confidence, inconsistencies
}

// Summary aggregates the rolling validation history.
func (v *Validator) Summary() models.ValidationSummary {
	v.mu.Lock()
	defer v.mu.Unlock()

	summary := models.ValidationSummary{Total: len(v.history)}
	if summary.Total == 0 {
		return summary
	}

	totalConfidence := 0.0
	for _, r := range v.history {
		if r.Valid {
			summary.Valid++
		}
		totalConfidence += r.Confidence
	}
	summary.ValidityRate = float64(summary.Valid) / float64(summary.Total)
	summary.AverageConfidence = totalConfidence / float64(summary.Total)
	return summary
}
