// Package report renders a ResearchRecord plus its sentiment result
// into a plain text document. Writing the document anywhere is the
// caller's responsibility.
package report

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkov/tickerscout/internal/indicators"
	"github.com/avolkov/tickerscout/pkg/models"
	"github.com/avolkov/tickerscout/pkg/templates"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const reportTemplate = "report.tmpl"

// recentBarCount is how many trailing bars the price section prints
const recentBarCount = 5

// Builder renders text reports
type Builder struct {
	templates templates.Renderer
}

// NewBuilder creates a report builder
func NewBuilder() (*Builder, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}

	mgr, err := templates.NewManagerWithValidation(sub, []string{reportTemplate})
	if err != nil {
		return nil, err
	}

	return &Builder{templates: mgr}, nil
}

type barRow struct {
	Date   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume int64
}

type insiderRow struct {
	Date   string
	Name   string
	Role   string
	Type   string
	Shares int64
	Price  string
}

type metricRow struct {
	Name  string
	Value string
}

type newsRow struct {
	Date     string
	Source   string
	Headline string
	URL      string
}

type reportData struct {
	Ticker          string
	GeneratedAt     string
	Trend           *indicators.TrendSummary
	RecentBars      []barRow
	Insiders        []insiderRow
	Fundamentals    []metricRow
	News            []newsRow
	SentimentLabel  string
	Rationale       string
	RiskFactors     []string
	PriceGap        string
	InsiderGap      string
	FundamentalsGap string
	NewsGap         string
}

// Build renders the report with its fixed section order: header, price
// summary, insider activity, fundamentals, news, AI sentiment, AI risk
// factors. Pure: no I/O beyond returning the text.
func (b *Builder) Build(record *models.ResearchRecord, sentiment *models.SentimentResult) (string, error) {
	if record == nil || sentiment == nil {
		return "", fmt.Errorf("report requires both a research record and a sentiment result")
	}

	return b.templates.ExecuteTemplate(reportTemplate, buildData(record, sentiment))
}

func buildData(record *models.ResearchRecord, sentiment *models.SentimentResult) reportData {
	data := reportData{
		Ticker:          record.Ticker,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		SentimentLabel:  string(sentiment.Label),
		Rationale:       sentiment.Rationale,
		RiskFactors:     sentiment.RiskFactors,
		PriceGap:        gapNote(record, models.SourcePrice),
		InsiderGap:      gapNote(record, models.SourceInsider),
		FundamentalsGap: gapNote(record, models.SourceFundamentals),
		NewsGap:         gapNote(record, models.SourceNews),
	}

	if len(record.Prices) > 0 {
		if trend, err := indicators.Summarize(record.Prices); err == nil {
			data.Trend = trend
		}

		recent := record.Prices
		if len(recent) > recentBarCount {
			recent = recent[len(recent)-recentBarCount:]
		}
		for _, p := range recent {
			data.RecentBars = append(data.RecentBars, barRow{
				Date:   p.Date.Format("2006-01-02"),
				Open:   p.Open.StringFixed(2),
				High:   p.High.StringFixed(2),
				Low:    p.Low.StringFixed(2),
				Close:  p.Close.StringFixed(2),
				Volume: p.Volume,
			})
		}
	}

	for _, t := range sortedByRecency(record.Insiders) {
		data.Insiders = append(data.Insiders, insiderRow{
			Date:   t.Date.Format("2006-01-02"),
			Name:   t.FilerName,
			Role:   t.Role,
			Type:   string(t.TransactionType),
			Shares: t.Shares,
			Price:  t.Price.StringFixed(2),
		})
	}

	f := record.Fundamentals
	if f.PERatio != nil {
		data.Fundamentals = append(data.Fundamentals, metricRow{Name: "PE Ratio (TTM)", Value: f.PERatio.String()})
	}
	if f.EPS != nil {
		data.Fundamentals = append(data.Fundamentals, metricRow{Name: "EPS (TTM)", Value: f.EPS.String()})
	}
	if f.MarketCap != nil {
		data.Fundamentals = append(data.Fundamentals, metricRow{Name: "Market Cap", Value: formatLargeNum(*f.MarketCap)})
	}
	if f.DividendYield != nil {
		data.Fundamentals = append(data.Fundamentals, metricRow{Name: "Dividend Yield", Value: f.DividendYield.String() + "%"})
	}

	for _, n := range record.News {
		data.News = append(data.News, newsRow{
			Date:     n.PublishedAt.Format("2006-01-02 15:04"),
			Source:   n.Source,
			Headline: n.Headline,
			URL:      n.URL,
		})
	}

	return data
}

func gapNote(record *models.ResearchRecord, source models.SourceName) string {
	if kind, failed := record.FetchErrors[source]; failed {
		return string(kind)
	}
	return ""
}

func sortedByRecency(transactions []models.InsiderTransaction) []models.InsiderTransaction {
	sorted := make([]models.InsiderTransaction, len(transactions))
	copy(sorted, transactions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	return sorted
}

// formatLargeNum scales big values to B/M/K for readability
func formatLargeNum(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.New(1, 9)):
		return d.Div(decimal.New(1, 9)).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(decimal.New(1, 6)):
		return d.Div(decimal.New(1, 6)).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(decimal.New(1, 3)):
		return d.Div(decimal.New(1, 3)).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}
