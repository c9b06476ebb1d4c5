package report

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkov/tickerscout/pkg/models"
)

func testRecord() *models.ResearchRecord {
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	pe := decimal.NewFromFloat(28.5)
	mcap := decimal.NewFromInt(2_850_000_000)

	record := &models.ResearchRecord{
		Ticker: "AAPL",
		Fundamentals: models.FundamentalMetrics{
			PERatio:   &pe,
			MarketCap: &mcap,
		},
		News: []models.NewsItem{
			{Headline: "Apple ships new thing", Source: "Reuters", PublishedAt: day, URL: "https://example.com/a"},
		},
		FetchErrors: map[models.SourceName]models.ErrorKind{
			models.SourceInsider: models.ErrKindTimeout,
		},
	}

	for i := 0; i < 8; i++ {
		price := decimal.NewFromInt(int64(190 + i))
		record.Prices = append(record.Prices, models.PricePoint{
			Date: day.AddDate(0, 0, i), Open: price, High: price, Low: price, Close: price, Volume: 100,
		})
	}

	return record
}

func testSentiment() *models.SentimentResult {
	return &models.SentimentResult{
		Label:       models.SentimentBullish,
		Rationale:   "Price trend is up and valuation is reasonable.",
		RiskFactors: []string{"supply chain concentration", "regulatory pressure"},
	}
}

func TestBuild_SectionOrder(t *testing.T) {
	b, err := NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	text, err := b.Build(testRecord(), testSentiment())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	sections := []string{
		"AI Investment Report for AAPL",
		"== Price Summary ==",
		"== Insider Activity ==",
		"== Key Fundamentals ==",
		"== Latest News ==",
		"== AI Sentiment ==",
		"== AI Risk Factors ==",
	}

	last := -1
	for _, section := range sections {
		idx := strings.Index(text, section)
		if idx == -1 {
			t.Fatalf("missing section %q in report:\n%s", section, text)
		}
		if idx < last {
			t.Errorf("section %q out of order", section)
		}
		last = idx
	}
}

func TestBuild_Content(t *testing.T) {
	b, err := NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	text, err := b.Build(testRecord(), testSentiment())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !strings.Contains(text, "Insider data unavailable (timeout)") {
		t.Error("failed source should be annotated with its error kind")
	}
	if !strings.Contains(text, "Market Cap: 2.85B") {
		t.Errorf("market cap should be scaled to billions:\n%s", text)
	}
	if !strings.Contains(text, "PE Ratio (TTM): 28.5") {
		t.Error("present fundamentals should be listed")
	}
	if strings.Contains(text, "EPS") {
		t.Error("absent metrics must not appear")
	}
	if !strings.Contains(text, "bullish") {
		t.Error("sentiment label missing")
	}
	if !strings.Contains(text, "  - supply chain concentration") {
		t.Error("risk factors should be bulleted")
	}

	// Only the trailing bars are printed
	if got := strings.Count(text, "  O "); got != recentBarCount {
		t.Errorf("expected %d recent bars, got %d", recentBarCount, got)
	}
	if !strings.Contains(text, "2026-07-08") || strings.Contains(text, "2026-07-01  O") {
		t.Error("price section should keep the most recent bars")
	}
}

func TestBuild_NoInsidersReported(t *testing.T) {
	b, err := NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	record := testRecord()
	record.FetchErrors = map[models.SourceName]models.ErrorKind{}

	text, err := b.Build(record, testSentiment())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !strings.Contains(text, "No recent insider trading activity found.") {
		t.Error("a successful but empty insider fetch should read as no activity")
	}
}

func TestBuild_RequiresBothInputs(t *testing.T) {
	b, err := NewBuilder()
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	if _, err := b.Build(nil, testSentiment()); err == nil {
		t.Error("nil record must be rejected")
	}
	if _, err := b.Build(testRecord(), nil); err == nil {
		t.Error("nil sentiment must be rejected")
	}
}
