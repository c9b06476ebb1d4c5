package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/internal/adapters/ai"
	"github.com/avolkov/tickerscout/internal/adapters/config"
	"github.com/avolkov/tickerscout/internal/adapters/fetch"
	"github.com/avolkov/tickerscout/internal/adapters/fundamentals"
	"github.com/avolkov/tickerscout/internal/adapters/insider"
	"github.com/avolkov/tickerscout/internal/adapters/news"
	"github.com/avolkov/tickerscout/internal/adapters/price"
	"github.com/avolkov/tickerscout/internal/report"
	"github.com/avolkov/tickerscout/internal/research"
	"github.com/avolkov/tickerscout/internal/synthesis"
	"github.com/avolkov/tickerscout/pkg/logger"
	"github.com/avolkov/tickerscout/pkg/models"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: %s TICKER", os.Args[0])
	}
	rawTicker := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("tickerscout starting",
		zap.String("ticker", rawTicker),
	)

	aggregator := buildAggregator(cfg)

	synthesizer, err := synthesis.NewSynthesizer(
		ai.NewOpenAIProvider(&cfg.AI.OpenAI),
		synthesis.Config{
			MaxPricePoints:   cfg.Synthesis.MaxPricePoints,
			MaxInsiderTrades: cfg.Synthesis.MaxInsiderTrades,
			MaxNewsItems:     cfg.Synthesis.MaxNewsItems,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to build synthesizer: %w", err)
	}

	builder, err := report.NewBuilder()
	if err != nil {
		return fmt.Errorf("failed to build report renderer: %w", err)
	}

	record, err := aggregator.Aggregate(ctx, rawTicker)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidTicker):
			return fmt.Errorf("not a valid ticker symbol: %q", rawTicker)
		case errors.Is(err, models.ErrAllSourcesFailed):
			return fmt.Errorf("no data source could be reached for %q", rawTicker)
		default:
			return err
		}
	}

	for source, kind := range record.FetchErrors {
		logger.Warn("proceeding with degraded data",
			zap.String("source", string(source)),
			zap.String("kind", string(kind)),
		)
	}

	sentiment, err := synthesizer.Synthesize(ctx, record)
	if err != nil {
		return err
	}

	text, err := builder.Build(record, sentiment)
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("%s_investment_report.txt", record.Ticker)
	if err := os.WriteFile(fileName, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info("report written",
		zap.String("file", fileName),
		zap.String("sentiment", string(sentiment.Label)),
	)

	return nil
}

func buildAggregator(cfg *config.Config) *research.Aggregator {
	client := fetch.NewClient(cfg.Sources.UserAgent, cfg.Sources.FetchTimeout)

	return research.NewAggregator(
		price.NewYahooAdapter(cfg.Sources.PriceHistoryDays),
		insider.NewOpenInsiderAdapter(client, cfg.Sources.InsiderLookbackDays),
		fundamentals.NewFinvizAdapter(client),
		news.NewFinvizAdapter(client, cfg.Sources.MaxNewsItems),
	)
}
