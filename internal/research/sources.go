package research

import (
	"context"

	"github.com/avolkov/tickerscout/pkg/models"
)

// Source interfaces are defined here, on the consumer side. Each
// adapter wraps one external data source and returns either its
// normalized payload or a *models.SourceError; adapters never retry
// and hold no state between calls.

// PriceSource fetches daily price history
type PriceSource interface {
	Fetch(ctx context.Context, ticker string) ([]models.PricePoint, error)
}

// InsiderSource fetches recent insider transactions
type InsiderSource interface {
	Fetch(ctx context.Context, ticker string) ([]models.InsiderTransaction, error)
}

// FundamentalsSource fetches key valuation metrics
type FundamentalsSource interface {
	Fetch(ctx context.Context, ticker string) (models.FundamentalMetrics, error)
}

// NewsSource fetches recent headlines, newest first
type NewsSource interface {
	Fetch(ctx context.Context, ticker string) ([]models.NewsItem, error)
}
