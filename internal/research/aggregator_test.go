package research

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkov/tickerscout/pkg/models"
)

type stubPriceSource struct {
	points []models.PricePoint
	err    error
	calls  int
}

func (s *stubPriceSource) Fetch(_ context.Context, _ string) ([]models.PricePoint, error) {
	s.calls++
	return s.points, s.err
}

type stubInsiderSource struct {
	transactions []models.InsiderTransaction
	err          error
}

func (s *stubInsiderSource) Fetch(_ context.Context, _ string) ([]models.InsiderTransaction, error) {
	return s.transactions, s.err
}

type stubFundamentalsSource struct {
	metrics models.FundamentalMetrics
	err     error
}

func (s *stubFundamentalsSource) Fetch(_ context.Context, _ string) (models.FundamentalMetrics, error) {
	return s.metrics, s.err
}

type stubNewsSource struct {
	items []models.NewsItem
	err   error
}

func (s *stubNewsSource) Fetch(_ context.Context, _ string) ([]models.NewsItem, error) {
	return s.items, s.err
}

func generatePricePoints(n int, startDay time.Time) []models.PricePoint {
	points := make([]models.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		base := decimal.NewFromInt(int64(100 + i))
		points = append(points, models.PricePoint{
			Date:   startDay.AddDate(0, 0, i),
			Open:   base,
			High:   base.Add(decimal.NewFromInt(2)),
			Low:    base.Sub(decimal.NewFromInt(1)),
			Close:  base.Add(decimal.NewFromInt(1)),
			Volume: 1000 + int64(i),
		})
	}
	return points
}

func sourceErr(source models.SourceName, kind models.ErrorKind) error {
	return models.NewSourceError(source, kind, errors.New("boom"))
}

func TestAggregator_PartialFailure(t *testing.T) {
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	pe := decimal.NewFromFloat(28.5)

	agg := NewAggregator(
		&stubPriceSource{points: generatePricePoints(30, day)},
		&stubInsiderSource{err: sourceErr(models.SourceInsider, models.ErrKindTimeout)},
		&stubFundamentalsSource{metrics: models.FundamentalMetrics{PERatio: &pe}},
		&stubNewsSource{items: []models.NewsItem{
			{Headline: "one", Source: "A", PublishedAt: day},
			{Headline: "two", Source: "B", PublishedAt: day},
			{Headline: "three", Source: "C", PublishedAt: day},
		}},
	)

	record, err := agg.Aggregate(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if len(record.Prices) != 30 {
		t.Errorf("expected 30 price points, got %d", len(record.Prices))
	}
	if len(record.Insiders) != 0 {
		t.Errorf("expected empty insiders, got %d", len(record.Insiders))
	}
	if record.Fundamentals.PERatio == nil || !record.Fundamentals.PERatio.Equal(pe) {
		t.Errorf("expected PE 28.5, got %v", record.Fundamentals.PERatio)
	}
	if len(record.News) != 3 {
		t.Errorf("expected 3 news items, got %d", len(record.News))
	}

	if len(record.FetchErrors) != 1 {
		t.Fatalf("expected exactly one fetch error, got %v", record.FetchErrors)
	}
	if kind := record.FetchErrors[models.SourceInsider]; kind != models.ErrKindTimeout {
		t.Errorf("expected insider timeout in fetch errors, got %q", kind)
	}
}

func TestAggregator_AllSourcesFailed(t *testing.T) {
	agg := NewAggregator(
		&stubPriceSource{err: sourceErr(models.SourcePrice, models.ErrKindNotFound)},
		&stubInsiderSource{err: sourceErr(models.SourceInsider, models.ErrKindNotFound)},
		&stubFundamentalsSource{err: sourceErr(models.SourceFundamentals, models.ErrKindNotFound)},
		&stubNewsSource{err: sourceErr(models.SourceNews, models.ErrKindNotFound)},
	)

	record, err := agg.Aggregate(context.Background(), "ZZZZ")
	if !errors.Is(err, models.ErrAllSourcesFailed) {
		t.Fatalf("expected ErrAllSourcesFailed, got %v", err)
	}
	if record != nil {
		t.Error("no partial record should exist when every source failed")
	}
}

func TestAggregator_InvalidTickerFailsFast(t *testing.T) {
	priceSrc := &stubPriceSource{points: generatePricePoints(1, time.Now())}
	agg := NewAggregator(priceSrc, &stubInsiderSource{}, &stubFundamentalsSource{}, &stubNewsSource{})

	for _, raw := range []string{"", "  ", "123ABC", "AAPL!!", "WAYTOOLONGSYMBOL"} {
		if _, err := agg.Aggregate(context.Background(), raw); !errors.Is(err, models.ErrInvalidTicker) {
			t.Errorf("expected ErrInvalidTicker for %q, got %v", raw, err)
		}
	}

	if priceSrc.calls != 0 {
		t.Errorf("invalid ticker must never reach the adapters, got %d calls", priceSrc.calls)
	}
}

func TestAggregator_NormalizesTicker(t *testing.T) {
	agg := NewAggregator(
		&stubPriceSource{points: generatePricePoints(1, time.Now())},
		&stubInsiderSource{},
		&stubFundamentalsSource{},
		&stubNewsSource{},
	)

	record, err := agg.Aggregate(context.Background(), "  aapl ")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if record.Ticker != "AAPL" {
		t.Errorf("expected normalized ticker AAPL, got %q", record.Ticker)
	}
}

func TestAggregator_DeduplicatesInsiders(t *testing.T) {
	day := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	// Same filer, date and share count but different role/price:
	// two filings of the same trade, must collapse to one entry.
	duplicates := []models.InsiderTransaction{
		{FilerName: "Doe Jane", Role: "CEO", TransactionType: models.TransactionBuy, Shares: 5000, Price: decimal.NewFromInt(100), Date: day},
		{FilerName: "Doe Jane", Role: "Director", TransactionType: models.TransactionSell, Shares: 5000, Price: decimal.NewFromInt(90), Date: day},
		{FilerName: "Smith John", Role: "CFO", TransactionType: models.TransactionBuy, Shares: 5000, Price: decimal.NewFromInt(100), Date: day},
	}

	agg := NewAggregator(
		&stubPriceSource{points: generatePricePoints(1, day)},
		&stubInsiderSource{transactions: duplicates},
		&stubFundamentalsSource{},
		&stubNewsSource{},
	)

	record, err := agg.Aggregate(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if len(record.Insiders) != 2 {
		t.Fatalf("expected 2 deduplicated transactions, got %d", len(record.Insiders))
	}
	if record.Insiders[0].FilerName != "Doe Jane" || record.Insiders[0].Role != "CEO" {
		t.Errorf("first occurrence should win the dedup, got %+v", record.Insiders[0])
	}
}

func TestAggregator_PriceMergeIdempotent(t *testing.T) {
	day := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	series := generatePricePoints(10, day)

	// The same payload twice, unsorted
	doubled := make([]models.PricePoint, 0, 20)
	for i := len(series) - 1; i >= 0; i-- {
		doubled = append(doubled, series[i])
	}
	doubled = append(doubled, series...)

	once := mergePricePoints(series)
	twice := mergePricePoints(doubled)

	if len(once) != len(twice) {
		t.Fatalf("merge not idempotent: %d vs %d points", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Date.Equal(twice[i].Date) || !once[i].Close.Equal(twice[i].Close) {
			t.Errorf("point %d differs after double merge", i)
		}
	}
	for i := 1; i < len(twice); i++ {
		if !twice[i-1].Date.Before(twice[i].Date) {
			t.Errorf("merged series not sorted ascending at %d", i)
		}
	}
}

type blockingSource struct{}

func (blockingSource) Fetch(ctx context.Context, _ string) ([]models.PricePoint, error) {
	<-ctx.Done()
	return nil, models.NewSourceError(models.SourcePrice, models.ErrKindTimeout, ctx.Err())
}

type blockingInsiderSource struct{}

func (blockingInsiderSource) Fetch(ctx context.Context, _ string) ([]models.InsiderTransaction, error) {
	<-ctx.Done()
	return nil, models.NewSourceError(models.SourceInsider, models.ErrKindTimeout, ctx.Err())
}

type blockingFundamentalsSource struct{}

func (blockingFundamentalsSource) Fetch(ctx context.Context, _ string) (models.FundamentalMetrics, error) {
	<-ctx.Done()
	return models.FundamentalMetrics{}, models.NewSourceError(models.SourceFundamentals, models.ErrKindTimeout, ctx.Err())
}

type blockingNewsSource struct{}

func (blockingNewsSource) Fetch(ctx context.Context, _ string) ([]models.NewsItem, error) {
	<-ctx.Done()
	return nil, models.NewSourceError(models.SourceNews, models.ErrKindTimeout, ctx.Err())
}

func TestAggregator_Cancelled(t *testing.T) {
	agg := NewAggregator(blockingSource{}, blockingInsiderSource{}, blockingFundamentalsSource{}, blockingNewsSource{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	record, err := agg.Aggregate(ctx, "AAPL")
	if !errors.Is(err, models.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if record != nil {
		t.Error("cancelled aggregation must not return a record")
	}
}
