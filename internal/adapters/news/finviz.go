// Package news scrapes the latest headlines for a ticker from the
// Finviz quote page news table.
package news

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/internal/adapters/fetch"
	"github.com/avolkov/tickerscout/pkg/logger"
	"github.com/avolkov/tickerscout/pkg/models"
)

const quoteURL = "https://finviz.com/quote.ashx?t=%s"

// FinvizAdapter fetches recent news headlines for a ticker
type FinvizAdapter struct {
	client   *resty.Client
	maxItems int
}

// NewFinvizAdapter creates a Finviz news adapter
func NewFinvizAdapter(client *resty.Client, maxItems int) *FinvizAdapter {
	return &FinvizAdapter{
		client:   client,
		maxItems: maxItems,
	}
}

func (f *FinvizAdapter) Name() models.SourceName {
	return models.SourceNews
}

// Fetch returns up to maxItems headlines, newest first (page order)
func (f *FinvizAdapter) Fetch(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	resp, err := f.client.R().SetContext(ctx).Get(fmt.Sprintf(quoteURL, ticker))
	if err != nil {
		return nil, models.NewSourceError(models.SourceNews, fetch.ClassifyTransport(err), err)
	}
	if resp.StatusCode() != 200 {
		return nil, models.NewSourceError(models.SourceNews, fetch.ClassifyStatus(resp.StatusCode()),
			fmt.Errorf("HTTP error %d", resp.StatusCode()))
	}

	items, err := parseNewsTable(strings.NewReader(resp.String()), time.Now())
	if err != nil {
		return nil, models.NewSourceError(models.SourceNews, models.ErrKindParseError, err)
	}
	if len(items) == 0 {
		return nil, models.NewSourceError(models.SourceNews, models.ErrKindNotFound,
			fmt.Errorf("no news table for %s", ticker))
	}

	if f.maxItems > 0 && len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	logger.Debug("fetched news headlines",
		zap.String("ticker", ticker),
		zap.Int("count", len(items)),
	)

	return items, nil
}

// parseNewsTable extracts headlines from "fullview-news-outer" rows.
// Finviz prints the date only on the first row of each day and just a
// time on the rest, so the parser carries the last seen date forward.
func parseNewsTable(r io.Reader, now time.Time) ([]models.NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	items := make([]models.NewsItem, 0)
	lastDate := now

	doc.Find("table.fullview-news-outer tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.tab-link-news").First()
		if link.Length() == 0 {
			return
		}

		headline := strings.TrimSpace(link.Text())
		url, _ := link.Attr("href")
		if headline == "" || url == "" {
			return
		}

		published, ok := parseNewsTime(strings.TrimSpace(row.Find("td").First().Text()), lastDate)
		if ok {
			lastDate = published
		}

		items = append(items, models.NewsItem{
			Headline:    headline,
			Source:      parseNewsSource(row),
			PublishedAt: published,
			URL:         url,
		})
	})

	return items, nil
}

// parseNewsTime parses "Jan-02-06 03:04PM" or a bare "03:04PM" that
// inherits the date from the previous row
func parseNewsTime(raw string, lastDate time.Time) (time.Time, bool) {
	if ts, err := time.Parse("Jan-02-06 03:04PM", raw); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("03:04PM", raw); err == nil {
		return time.Date(lastDate.Year(), lastDate.Month(), lastDate.Day(),
			ts.Hour(), ts.Minute(), 0, 0, time.UTC), true
	}
	return lastDate, false
}

func parseNewsSource(row *goquery.Selection) string {
	source := strings.TrimSpace(row.Find("div.news-link-right span").First().Text())
	if source == "" {
		source = strings.TrimSpace(row.Find("span").Last().Text())
	}
	return strings.Trim(source, "()")
}
