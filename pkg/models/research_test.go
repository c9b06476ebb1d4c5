package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateTicker(t *testing.T) {
	valid := map[string]string{
		"AAPL":   "AAPL",
		"aapl":   "AAPL",
		" msft ": "MSFT",
		"BRK.B":  "BRK.B",
		"BF-B":   "BF-B",
		"A":      "A",
		"GOOG1":  "GOOG1",
	}
	for raw, want := range valid {
		got, err := ValidateTicker(raw)
		if err != nil {
			t.Errorf("ValidateTicker(%q) unexpected error: %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ValidateTicker(%q) = %q, want %q", raw, got, want)
		}
	}

	invalid := []string{"", "   ", "1AAPL", "AA PL", "AAPL$", ".AAPL", "TOOLONGSYMBOLXX"}
	for _, raw := range invalid {
		if _, err := ValidateTicker(raw); !errors.Is(err, ErrInvalidTicker) {
			t.Errorf("ValidateTicker(%q) should fail with ErrInvalidTicker, got %v", raw, err)
		}
	}
}

func TestFundamentalMetrics_IsEmpty(t *testing.T) {
	var empty FundamentalMetrics
	if !empty.IsEmpty() {
		t.Error("zero-value metrics should be empty")
	}

	zero := decimal.Zero
	withZero := FundamentalMetrics{EPS: &zero}
	if withZero.IsEmpty() {
		t.Error("an explicit zero EPS is a reported value, not absence")
	}
}

func TestInsiderTransaction_DedupKey(t *testing.T) {
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	a := InsiderTransaction{FilerName: "Doe Jane", Date: day, Shares: 100, Role: "CEO"}
	b := InsiderTransaction{FilerName: "Doe Jane", Date: day, Shares: 100, Role: "Director",
		Price: decimal.NewFromInt(42), TransactionType: TransactionSell}

	if a.DedupKey() != b.DedupKey() {
		t.Error("transactions identical in (filer, date, shares) must share a dedup key")
	}

	c := InsiderTransaction{FilerName: "Doe Jane", Date: day.AddDate(0, 0, 1), Shares: 100}
	if a.DedupKey() == c.DedupKey() {
		t.Error("different dates must not collide")
	}
}

func TestResearchRecord_SucceededSources(t *testing.T) {
	record := &ResearchRecord{
		Ticker: "AAPL",
		FetchErrors: map[SourceName]ErrorKind{
			SourceInsider: ErrKindTimeout,
			SourceNews:    ErrKindRateLimited,
		},
	}

	got := record.SucceededSources()
	if len(got) != 2 {
		t.Fatalf("expected 2 succeeded sources, got %v", got)
	}
	if got[0] != SourcePrice || got[1] != SourceFundamentals {
		t.Errorf("unexpected succeeded sources: %v", got)
	}
}
