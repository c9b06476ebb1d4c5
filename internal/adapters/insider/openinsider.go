// Package insider scrapes recent insider transactions from the
// OpenInsider screener.
package insider

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/internal/adapters/fetch"
	"github.com/avolkov/tickerscout/pkg/logger"
	"github.com/avolkov/tickerscout/pkg/models"
)

const screenerURL = "http://openinsider.com/screener?s=%s&o=&pl=&ph=&ll=&lh=&fd=0&td=0&fdlyl=&tdlyl=&daysago=%d"

// Screener table column offsets
const (
	colTradeDate   = 2
	colInsiderName = 5
	colTitle       = 6
	colTradeType   = 7
	colPrice       = 8
	colQty         = 9
	minColumns     = 13
)

// OpenInsiderAdapter fetches insider trades for a ticker
type OpenInsiderAdapter struct {
	client       *resty.Client
	lookbackDays int
}

// NewOpenInsiderAdapter creates an OpenInsider adapter
func NewOpenInsiderAdapter(client *resty.Client, lookbackDays int) *OpenInsiderAdapter {
	return &OpenInsiderAdapter{
		client:       client,
		lookbackDays: lookbackDays,
	}
}

func (o *OpenInsiderAdapter) Name() models.SourceName {
	return models.SourceInsider
}

// Fetch returns recent insider transactions. A ticker with no filings
// yields an empty set, which is a successful outcome.
func (o *OpenInsiderAdapter) Fetch(ctx context.Context, ticker string) ([]models.InsiderTransaction, error) {
	url := fmt.Sprintf(screenerURL, ticker, o.lookbackDays)

	resp, err := o.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, models.NewSourceError(models.SourceInsider, fetch.ClassifyTransport(err), err)
	}
	if resp.StatusCode() != 200 {
		return nil, models.NewSourceError(models.SourceInsider, fetch.ClassifyStatus(resp.StatusCode()),
			fmt.Errorf("HTTP error %d", resp.StatusCode()))
	}

	transactions, err := parseScreener(strings.NewReader(resp.String()))
	if err != nil {
		return nil, models.NewSourceError(models.SourceInsider, models.ErrKindParseError, err)
	}

	logger.Debug("fetched insider transactions",
		zap.String("ticker", ticker),
		zap.Int("count", len(transactions)),
	)

	return transactions, nil
}

// parseScreener extracts transactions from the screener's "tinytable".
// A page without the table means no recent filings, not a failure.
// Rows that don't parse cleanly are skipped.
func parseScreener(r io.Reader) ([]models.InsiderTransaction, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	transactions := make([]models.InsiderTransaction, 0)

	doc.Find("table.tinytable tbody tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < minColumns {
			return
		}

		txn, ok := parseRow(cols)
		if !ok {
			return
		}
		transactions = append(transactions, txn)
	})

	return transactions, nil
}

func parseRow(cols *goquery.Selection) (models.InsiderTransaction, bool) {
	var txn models.InsiderTransaction

	date, err := time.Parse("2006-01-02", cellText(cols, colTradeDate))
	if err != nil {
		return txn, false
	}

	txnType, ok := parseTradeType(cellText(cols, colTradeType))
	if !ok {
		return txn, false
	}

	shares, err := parseShareCount(cellText(cols, colQty))
	if err != nil {
		return txn, false
	}

	price, err := decimal.NewFromString(cleanNumber(cellText(cols, colPrice)))
	if err != nil {
		return txn, false
	}

	txn = models.InsiderTransaction{
		FilerName:       cellText(cols, colInsiderName),
		Role:            cellText(cols, colTitle),
		TransactionType: txnType,
		Shares:          shares,
		Price:           price,
		Date:            date,
	}
	return txn, true
}

// parseTradeType maps screener codes like "P - Purchase" and
// "S - Sale" to the transaction type
func parseTradeType(raw string) (models.TransactionType, bool) {
	switch {
	case strings.HasPrefix(raw, "P"):
		return models.TransactionBuy, true
	case strings.HasPrefix(raw, "S"):
		return models.TransactionSell, true
	default:
		return "", false
	}
}

func parseShareCount(raw string) (int64, error) {
	n, err := strconv.ParseInt(cleanNumber(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = -n // sale quantities are reported with a minus sign
	}
	return n, nil
}

func cleanNumber(raw string) string {
	return strings.NewReplacer("$", "", ",", "", "+", "").Replace(strings.TrimSpace(raw))
}

func cellText(cols *goquery.Selection, i int) string {
	return strings.TrimSpace(cols.Eq(i).Text())
}
