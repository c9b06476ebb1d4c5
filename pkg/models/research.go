package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceName identifies one of the research data sources
type SourceName string

const (
	SourcePrice        SourceName = "price"
	SourceInsider      SourceName = "insider"
	SourceFundamentals SourceName = "fundamentals"
	SourceNews         SourceName = "news"
)

// TransactionType represents insider buy or sell
type TransactionType string

const (
	TransactionBuy  TransactionType = "buy"
	TransactionSell TransactionType = "sell"
)

// SentimentLabel represents AI sentiment classification
type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
)

// tickerPattern matches exchange symbols like AAPL, BRK.B, BF-B
var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}([.\-][A-Z0-9]{1,4})?$`)

// ValidateTicker normalizes a raw symbol and checks ticker syntax.
// Invalid input returns ErrInvalidTicker before any source is contacted.
func ValidateTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return "", fmt.Errorf("%w: empty symbol", ErrInvalidTicker)
	}
	if !tickerPattern.MatchString(ticker) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}
	return ticker, nil
}

// PricePoint represents one daily OHLCV bar
type PricePoint struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// InsiderTransaction represents a single reported insider trade
type InsiderTransaction struct {
	FilerName       string          `json:"filer_name"`
	Role            string          `json:"role"`
	TransactionType TransactionType `json:"transaction_type"`
	Shares          int64           `json:"share_count"`
	Price           decimal.Decimal `json:"price"`
	Date            time.Time       `json:"date"`
}

// DedupKey identifies logically identical transactions. Two filings of
// the same trade collapse to one entry.
func (t InsiderTransaction) DedupKey() string {
	return fmt.Sprintf("%s|%s|%d", t.FilerName, t.Date.Format("2006-01-02"), t.Shares)
}

// FundamentalMetrics holds key valuation metrics. A nil field means the
// source did not report the metric; zero is a real value, not absence.
type FundamentalMetrics struct {
	PERatio       *decimal.Decimal `json:"pe_ratio,omitempty"`
	EPS           *decimal.Decimal `json:"eps,omitempty"`
	MarketCap     *decimal.Decimal `json:"market_cap,omitempty"`
	DividendYield *decimal.Decimal `json:"dividend_yield,omitempty"`
}

// IsEmpty reports whether no metric was reported at all
func (f FundamentalMetrics) IsEmpty() bool {
	return f.PERatio == nil && f.EPS == nil && f.MarketCap == nil && f.DividendYield == nil
}

// NewsItem represents a single headline, newest first in a series
type NewsItem struct {
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
}

// ResearchRecord is the unified per-ticker snapshot of all fetched
// data. Sources that failed leave their field empty and record the
// failure kind under FetchErrors. A record exists only if at least one
// source succeeded.
type ResearchRecord struct {
	Ticker       string                   `json:"ticker"`
	Prices       []PricePoint             `json:"prices"`
	Insiders     []InsiderTransaction     `json:"insiders"`
	Fundamentals FundamentalMetrics       `json:"fundamentals"`
	News         []NewsItem               `json:"news"`
	FetchErrors  map[SourceName]ErrorKind `json:"fetch_errors"`
}

// SucceededSources returns the sources that populated the record
func (r *ResearchRecord) SucceededSources() []SourceName {
	all := []SourceName{SourcePrice, SourceInsider, SourceFundamentals, SourceNews}
	ok := make([]SourceName, 0, len(all))
	for _, s := range all {
		if _, failed := r.FetchErrors[s]; !failed {
			ok = append(ok, s)
		}
	}
	return ok
}

// SentimentResult is the structured output of one synthesis call
type SentimentResult struct {
	Label       SentimentLabel `json:"sentiment"`
	Rationale   string         `json:"rationale"`
	RiskFactors []string       `json:"risk_factors"`
}
