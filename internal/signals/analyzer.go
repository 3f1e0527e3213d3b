package signals

import (
	"github.com/bobmcallan/marketgate/internal/models"
)

// Analyze computes the standard indicator set from a daily bar series.
// Returns nil when the series is empty.
func Analyze(bars []models.Bar) *models.TechnicalSignals {
	if len(bars) == 0 {
		return nil
	}

	current := bars[len(bars)-1].Close
	high, low := HighLow(bars)
	macd, signal := MACD(bars)
	sma20 := SMA(bars, 20)
	sma50 := SMA(bars, 50)
	rsi := RSI(bars, 14)

	return &models.TechnicalSignals{
		Close:      current,
		SMA20:      sma20,
		SMA50:      sma50,
		RSI14:      rsi,
		RSIState:   ClassifyRSI(rsi),
		MACD:       macd,
		MACDSignal: signal,
		PeriodHigh: high,
		PeriodLow:  low,
		AvgVolume:  AverageVolume(bars, 20),
		Crossover:  DetectCrossover(bars, 20, 50),
		Trend:      DetermineTrend(current, sma20, sma50),
	}
}
