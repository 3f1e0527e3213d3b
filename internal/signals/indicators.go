// Package signals provides technical indicator calculations over daily bars
package signals

import (
	"github.com/bobmcallan/marketgate/internal/models"
)

// Bars are ordered oldest first throughout this package.

// SMA calculates the Simple Moving Average over the trailing period
func SMA(bars []models.Bar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period)
}

// EMA calculates the Exponential Moving Average over the trailing period
func EMA(bars []models.Bar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}

	multiplier := 2.0 / float64(period+1)
	ema := SMA(bars[:period], period)

	for i := period; i < len(bars); i++ {
		ema = (bars[i].Close-ema)*multiplier + ema
	}
	return ema
}

// RSI calculates the Relative Strength Index
func RSI(bars []models.Bar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 50 // Neutral default
	}

	var gains, losses float64
	start := len(bars) - period
	for i := start; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD calculates the MACD line and signal line (12/26/9 convention)
func MACD(bars []models.Bar) (macd, signal float64) {
	if len(bars) < 35 {
		return 0, 0
	}

	macd = EMA(bars, 12) - EMA(bars, 26)

	// Signal line: EMA of the MACD series over the last 9 bars
	series := make([]models.Bar, 0, 9)
	for i := len(bars) - 9; i < len(bars); i++ {
		window := bars[:i+1]
		series = append(series, models.Bar{Close: EMA(window, 12) - EMA(window, 26)})
	}
	signal = EMA(series, 9)
	return macd, signal
}

// HighLow returns the highest high and lowest low over the whole series.
func HighLow(bars []models.Bar) (high, low float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	high = bars[0].High
	low = bars[0].Low
	for _, b := range bars[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low && b.Low > 0 {
			low = b.Low
		}
	}
	return high, low
}

// AverageVolume calculates mean volume over the trailing period
func AverageVolume(bars []models.Bar, period int) int64 {
	if period <= 0 || len(bars) < period {
		return 0
	}
	var sum int64
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Volume
	}
	return sum / int64(period)
}

// ClassifyRSI buckets an RSI value into the conventional zones
func ClassifyRSI(rsi float64) string {
	switch {
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	default:
		return "neutral"
	}
}

// DetectCrossover reports the relationship between short and long SMAs
func DetectCrossover(bars []models.Bar, shortPeriod, longPeriod int) string {
	short := SMA(bars, shortPeriod)
	long := SMA(bars, longPeriod)
	if short == 0 || long == 0 {
		return "unknown"
	}
	if short > long {
		return "bullish"
	}
	if short < long {
		return "bearish"
	}
	return "neutral"
}

// DetermineTrend classifies the trend from price position against its SMAs
func DetermineTrend(currentPrice, sma20, sma50 float64) string {
	if sma20 == 0 || sma50 == 0 {
		return "unknown"
	}
	switch {
	case currentPrice > sma20 && sma20 > sma50:
		return "uptrend"
	case currentPrice < sma20 && sma20 < sma50:
		return "downtrend"
	default:
		return "sideways"
	}
}
