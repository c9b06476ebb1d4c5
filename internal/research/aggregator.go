// Package research assembles the per-ticker ResearchRecord from the
// four independent data sources.
package research

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/pkg/logger"
	"github.com/avolkov/tickerscout/pkg/models"
)

const sourceCount = 4

// Aggregator fans a ticker out to all data sources and merges the
// outcomes into one record. Availability beats completeness: partial
// failures degrade the record, only a full failure aborts it.
type Aggregator struct {
	price        PriceSource
	insiders     InsiderSource
	fundamentals FundamentalsSource
	news         NewsSource
}

// NewAggregator creates an aggregator over the four sources
func NewAggregator(price PriceSource, insiders InsiderSource, fundamentals FundamentalsSource, news NewsSource) *Aggregator {
	return &Aggregator{
		price:        price,
		insiders:     insiders,
		fundamentals: fundamentals,
		news:         news,
	}
}

// Aggregate fetches all sources for the ticker and returns the merged
// record. Failed sources are recorded under FetchErrors; if every
// source fails the whole aggregation fails with ErrAllSourcesFailed.
// The record is mutated only here; callers treat it as read-only.
func (a *Aggregator) Aggregate(ctx context.Context, rawTicker string) (*models.ResearchRecord, error) {
	ticker, err := models.ValidateTicker(rawTicker)
	if err != nil {
		return nil, err
	}

	record := &models.ResearchRecord{
		Ticker:      ticker,
		FetchErrors: make(map[models.SourceName]models.ErrorKind),
	}

	type outcome struct {
		apply  func(*models.ResearchRecord)
		err    error
		source models.SourceName
	}

	// One goroutine per source, one slot per outcome. The collect
	// loop below is a join: the record is not returned until all
	// four outcomes are known.
	results := make(chan outcome, sourceCount)

	go func() {
		points, err := a.price.Fetch(ctx, ticker)
		results <- outcome{
			source: models.SourcePrice,
			err:    err,
			apply:  func(r *models.ResearchRecord) { r.Prices = mergePricePoints(points) },
		}
	}()

	go func() {
		transactions, err := a.insiders.Fetch(ctx, ticker)
		results <- outcome{
			source: models.SourceInsider,
			err:    err,
			apply:  func(r *models.ResearchRecord) { r.Insiders = mergeInsiders(transactions) },
		}
	}()

	go func() {
		metrics, err := a.fundamentals.Fetch(ctx, ticker)
		results <- outcome{
			source: models.SourceFundamentals,
			err:    err,
			apply:  func(r *models.ResearchRecord) { r.Fundamentals = metrics },
		}
	}()

	go func() {
		items, err := a.news.Fetch(ctx, ticker)
		results <- outcome{
			source: models.SourceNews,
			err:    err,
			apply:  func(r *models.ResearchRecord) { r.News = items },
		}
	}()

	for i := 0; i < sourceCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrCancelled, err)
		}

		select {
		case <-ctx.Done():
			// In-flight fetches are abandoned; never hand back a
			// half-built record as if it succeeded.
			return nil, fmt.Errorf("%w: %v", models.ErrCancelled, ctx.Err())

		case res := <-results:
			if res.err != nil {
				kind := errorKind(res.err)
				record.FetchErrors[res.source] = kind
				logger.Warn("source fetch failed",
					zap.String("ticker", ticker),
					zap.String("source", string(res.source)),
					zap.String("kind", string(kind)),
					zap.Error(res.err),
				)
				continue
			}
			res.apply(record)
		}
	}

	if len(record.FetchErrors) == sourceCount {
		return nil, fmt.Errorf("%s: %w", ticker, models.ErrAllSourcesFailed)
	}

	logger.Info("research record assembled",
		zap.String("ticker", ticker),
		zap.Int("prices", len(record.Prices)),
		zap.Int("insiders", len(record.Insiders)),
		zap.Int("news", len(record.News)),
		zap.Int("failed_sources", len(record.FetchErrors)),
	)

	return record, nil
}

// errorKind extracts the classified kind from an adapter error
func errorKind(err error) models.ErrorKind {
	var srcErr *models.SourceError
	if errors.As(err, &srcErr) {
		return srcErr.Kind
	}
	return models.ErrKindUnreachable
}

// mergePricePoints dedupes by calendar date (first occurrence wins)
// and sorts ascending, so merging the same payload twice is a no-op
func mergePricePoints(points []models.PricePoint) []models.PricePoint {
	seen := make(map[string]struct{}, len(points))
	merged := make([]models.PricePoint, 0, len(points))

	for _, p := range points {
		key := p.Date.Format("2006-01-02")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, p)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date.Before(merged[j].Date)
	})

	return merged
}

// mergeInsiders dedupes on the (filer, trade date, share count)
// composite key; two filings of the same trade collapse to one entry
func mergeInsiders(transactions []models.InsiderTransaction) []models.InsiderTransaction {
	seen := make(map[string]struct{}, len(transactions))
	merged := make([]models.InsiderTransaction, 0, len(transactions))

	for _, t := range transactions {
		key := t.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, t)
	}

	return merged
}
