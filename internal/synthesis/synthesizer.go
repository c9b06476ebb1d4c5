// Package synthesis turns a ResearchRecord into a structured sentiment
// judgment via a language-model backend.
package synthesis

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/internal/adapters/ai"
	"github.com/avolkov/tickerscout/internal/indicators"
	"github.com/avolkov/tickerscout/pkg/logger"
	"github.com/avolkov/tickerscout/pkg/models"
	"github.com/avolkov/tickerscout/pkg/templates"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const promptTemplate = "sentiment.tmpl"

// Config bounds the prompt so its size stays deterministic no matter
// how much data the sources returned
type Config struct {
	MaxPricePoints   int
	MaxInsiderTrades int
	MaxNewsItems     int
}

// DefaultConfig returns the standard prompt bounds
func DefaultConfig() Config {
	return Config{
		MaxPricePoints:   10,
		MaxInsiderTrades: 5,
		MaxNewsItems:     5,
	}
}

// Synthesizer builds a bounded prompt from a research record, sends it
// to the backend and strictly parses the structured reply
type Synthesizer struct {
	provider  ai.Provider
	cfg       Config
	templates templates.Renderer
}

// NewSynthesizer creates a synthesizer over the given backend
func NewSynthesizer(provider ai.Provider, cfg Config) (*Synthesizer, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}

	mgr, err := templates.NewManagerWithValidation(sub, []string{promptTemplate})
	if err != nil {
		return nil, err
	}

	if cfg.MaxPricePoints <= 0 {
		cfg = DefaultConfig()
	}

	return &Synthesizer{
		provider:  provider,
		cfg:       cfg,
		templates: mgr,
	}, nil
}

// Synthesize produces a SentimentResult for the record. Failures are
// never recovered into a fabricated sentiment: backend trouble surfaces
// as BackendUnavailable, an unparseable reply as MalformedResponse.
func (s *Synthesizer) Synthesize(ctx context.Context, record *models.ResearchRecord) (*models.SentimentResult, error) {
	if !s.provider.IsEnabled() {
		return nil, &models.SynthesisError{
			Kind: models.SynthesisBackendUnavailable,
			Err:  fmt.Errorf("provider %s is not enabled", s.provider.GetName()),
		}
	}

	prompt, err := s.buildPrompt(record)
	if err != nil {
		return nil, &models.SynthesisError{Kind: models.SynthesisMalformedResponse, Err: err}
	}

	systemPrompt, userPrompt := SplitPrompt(prompt)

	content, err := s.provider.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrCancelled, ctx.Err())
		}
		return nil, &models.SynthesisError{Kind: models.SynthesisBackendUnavailable, Err: err}
	}

	result, err := parseSentimentResponse(content)
	if err != nil {
		return nil, err
	}

	logger.Info("sentiment synthesized",
		zap.String("ticker", record.Ticker),
		zap.String("label", string(result.Label)),
		zap.Int("risk_factors", len(result.RiskFactors)),
	)

	return result, nil
}

func (s *Synthesizer) buildPrompt(record *models.ResearchRecord) (string, error) {
	return s.templates.ExecuteTemplate(promptTemplate, s.promptData(record))
}

type closeRow struct {
	Date  string
	Close string
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
}

type promptData struct {
	Ticker          string
	Trend           *indicators.TrendSummary
	RecentCloses    []closeRow
	Insiders        []insiderRow
	Fundamentals    []metricRow
	News            []newsRow
	PriceGap        string
	InsiderGap      string
	FundamentalsGap string
	NewsGap         string
}

// promptData shapes the record into template rows, applying the
// configured bounds and naming the data gaps for failed sources so the
// model is told, not left to guess
func (s *Synthesizer) promptData(record *models.ResearchRecord) promptData {
	data := promptData{
		Ticker:          record.Ticker,
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
		if len(recent) > s.cfg.MaxPricePoints {
			recent = recent[len(recent)-s.cfg.MaxPricePoints:]
		}
		for _, p := range recent {
			data.RecentCloses = append(data.RecentCloses, closeRow{
				Date:  p.Date.Format("2006-01-02"),
				Close: p.Close.StringFixed(2),
			})
		}
	}

	for _, t := range topInsiders(record.Insiders, s.cfg.MaxInsiderTrades) {
		data.Insiders = append(data.Insiders, insiderRow{
			Date:   t.Date.Format("2006-01-02"),
			Name:   t.FilerName,
			Role:   t.Role,
			Type:   string(t.TransactionType),
			Shares: t.Shares,
			Price:  t.Price.StringFixed(2),
		})
	}

	data.Fundamentals = metricRows(record.Fundamentals)

	news := record.News
	if len(news) > s.cfg.MaxNewsItems {
		news = news[:s.cfg.MaxNewsItems]
	}
	for _, n := range news {
		data.News = append(data.News, newsRow{
			Date:     n.PublishedAt.Format("2006-01-02"),
			Source:   n.Source,
			Headline: n.Headline,
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

// topInsiders returns the k most recent transactions without mutating
// the record's own slice
func topInsiders(transactions []models.InsiderTransaction, k int) []models.InsiderTransaction {
	sorted := make([]models.InsiderTransaction, len(transactions))
	copy(sorted, transactions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// metricRows lists only the metrics the source actually reported
func metricRows(f models.FundamentalMetrics) []metricRow {
	rows := make([]metricRow, 0, 4)
	if f.PERatio != nil {
		rows = append(rows, metricRow{Name: "P/E ratio", Value: f.PERatio.String()})
	}
	if f.EPS != nil {
		rows = append(rows, metricRow{Name: "EPS (ttm)", Value: f.EPS.String()})
	}
	if f.MarketCap != nil {
		rows = append(rows, metricRow{Name: "Market cap", Value: f.MarketCap.String()})
	}
	if f.DividendYield != nil {
		rows = append(rows, metricRow{Name: "Dividend yield %", Value: f.DividendYield.String()})
	}
	return rows
}
