// Package price fetches daily OHLCV history from Yahoo Finance.
package price

import (
	"context"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/internal/adapters/fetch"
	"github.com/avolkov/tickerscout/pkg/logger"
	"github.com/avolkov/tickerscout/pkg/models"
)

// YahooAdapter fetches daily price bars for a ticker
type YahooAdapter struct {
	historyDays int
}

// NewYahooAdapter creates a Yahoo price adapter for the given
// lookback window
func NewYahooAdapter(historyDays int) *YahooAdapter {
	return &YahooAdapter{historyDays: historyDays}
}

func (y *YahooAdapter) Name() models.SourceName {
	return models.SourcePrice
}

// Fetch returns the daily bars for the lookback window, in exchange
// order. Sorting and date dedup belong to the aggregator's merge.
func (y *YahooAdapter) Fetch(ctx context.Context, ticker string) ([]models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewSourceError(models.SourcePrice, models.ErrKindTimeout, err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -y.historyDays)

	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	points := make([]models.PricePoint, 0, y.historyDays)
	for iter.Next() {
		bar := iter.Bar()
		points = append(points, models.PricePoint{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: int64(bar.Volume),
		})
	}

	if err := iter.Err(); err != nil {
		return nil, models.NewSourceError(models.SourcePrice, fetch.ClassifyTransport(err), err)
	}

	if len(points) == 0 {
		return nil, models.NewSourceError(models.SourcePrice, models.ErrKindNotFound, nil)
	}

	logger.Debug("fetched price history",
		zap.String("ticker", ticker),
		zap.Int("bars", len(points)),
	)

	return points, nil
}
