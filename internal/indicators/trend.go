// Package indicators derives a compact trend summary from a price
// series for prompt construction and report rendering.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator"

	"github.com/avolkov/tickerscout/pkg/models"
)

// Direction labels the overall price move across the series
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// flatBandPercent is the ± band inside which a move counts as flat
const flatBandPercent = 1.0

const (
	rsiPeriod = 14
	smaPeriod = 20
)

// TrendSummary condenses a price series into the few numbers the
// synthesis prompt and report need
type TrendSummary struct {
	Direction     Direction
	FirstClose    float64
	LatestClose   float64
	ChangePercent float64
	// RSI14 and SMA20 are nil when the series is too short
	RSI14 *float64
	SMA20 *float64
}

// Summarize computes the trend summary for a date-ascending series
func Summarize(prices []models.PricePoint) (*TrendSummary, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("empty price series")
	}

	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close.InexactFloat64()
	}

	first := closes[0]
	latest := closes[len(closes)-1]

	changePct := 0.0
	if first != 0 {
		changePct = (latest - first) / first * 100
	}

	summary := &TrendSummary{
		Direction:     classifyDirection(changePct),
		FirstClose:    first,
		LatestClose:   latest,
		ChangePercent: changePct,
	}

	if len(closes) > rsiPeriod {
		_, rsi := indicator.Rsi(closes)
		// only the trailing value is past the warmup window
		last := rsi[len(rsi)-1]
		summary.RSI14 = &last
	}

	if len(closes) >= smaPeriod {
		sma := indicator.Sma(smaPeriod, closes)
		last := sma[len(sma)-1]
		summary.SMA20 = &last
	}

	return summary, nil
}

func classifyDirection(changePct float64) Direction {
	switch {
	case changePct > flatBandPercent:
		return DirectionUp
	case changePct < -flatBandPercent:
		return DirectionDown
	default:
		return DirectionFlat
	}
}
