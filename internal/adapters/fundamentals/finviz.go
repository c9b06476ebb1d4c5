// Package fundamentals scrapes key valuation metrics from the Finviz
// quote page snapshot table.
package fundamentals

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/internal/adapters/fetch"
	"github.com/avolkov/tickerscout/pkg/logger"
	"github.com/avolkov/tickerscout/pkg/models"
)

const quoteURL = "https://finviz.com/quote.ashx?t=%s"

// FinvizAdapter fetches fundamental metrics for a ticker
type FinvizAdapter struct {
	client *resty.Client
}

// NewFinvizAdapter creates a Finviz fundamentals adapter
func NewFinvizAdapter(client *resty.Client) *FinvizAdapter {
	return &FinvizAdapter{client: client}
}

func (f *FinvizAdapter) Name() models.SourceName {
	return models.SourceFundamentals
}

// Fetch returns the metrics Finviz reports for the ticker. Metrics the
// page marks "-" stay unset; absence is explicit, never zero.
func (f *FinvizAdapter) Fetch(ctx context.Context, ticker string) (models.FundamentalMetrics, error) {
	var metrics models.FundamentalMetrics

	resp, err := f.client.R().SetContext(ctx).Get(fmt.Sprintf(quoteURL, ticker))
	if err != nil {
		return metrics, models.NewSourceError(models.SourceFundamentals, fetch.ClassifyTransport(err), err)
	}
	if resp.StatusCode() != 200 {
		return metrics, models.NewSourceError(models.SourceFundamentals, fetch.ClassifyStatus(resp.StatusCode()),
			fmt.Errorf("HTTP error %d", resp.StatusCode()))
	}

	metrics, found, err := parseSnapshot(strings.NewReader(resp.String()))
	if err != nil {
		return metrics, models.NewSourceError(models.SourceFundamentals, models.ErrKindParseError, err)
	}
	if !found {
		return metrics, models.NewSourceError(models.SourceFundamentals, models.ErrKindNotFound,
			fmt.Errorf("no snapshot table for %s", ticker))
	}

	logger.Debug("fetched fundamentals",
		zap.String("ticker", ticker),
		zap.Bool("empty", metrics.IsEmpty()),
	)

	return metrics, nil
}

// parseSnapshot reads the snapshot-table2 key/value grid. The second
// return value reports whether the table was present at all.
func parseSnapshot(r io.Reader) (models.FundamentalMetrics, bool, error) {
	var metrics models.FundamentalMetrics

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return metrics, false, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find("table.snapshot-table2")
	if table.Length() == 0 {
		return metrics, false, nil
	}

	values := make(map[string]string)
	cells := table.Find("td")
	for i := 0; i+1 < cells.Length(); i += 2 {
		label := strings.TrimSpace(cells.Eq(i).Text())
		value := strings.TrimSpace(cells.Eq(i + 1).Text())
		values[label] = value
	}

	metrics.PERatio = parseMetric(values["P/E"])
	metrics.EPS = parseMetric(values["EPS (ttm)"])
	metrics.MarketCap = parseScaledMetric(values["Market Cap"])
	metrics.DividendYield = parseMetric(strings.TrimSuffix(values["Dividend %"], "%"))

	return metrics, true, nil
}

// parseMetric parses a plain numeric cell; "-" means not reported
func parseMetric(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil
	}
	return &d
}

// parseScaledMetric parses values with a B/M/K magnitude suffix,
// e.g. a market cap of "2850.15B"
func parseScaledMetric(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return nil
	}

	scale := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(raw, "T"):
		scale = decimal.New(1, 12)
		raw = strings.TrimSuffix(raw, "T")
	case strings.HasSuffix(raw, "B"):
		scale = decimal.New(1, 9)
		raw = strings.TrimSuffix(raw, "B")
	case strings.HasSuffix(raw, "M"):
		scale = decimal.New(1, 6)
		raw = strings.TrimSuffix(raw, "M")
	case strings.HasSuffix(raw, "K"):
		scale = decimal.New(1, 3)
		raw = strings.TrimSuffix(raw, "K")
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil
	}
	scaled := d.Mul(scale)
	return &scaled
}
