// Package fetch provides the shared HTTP transport for the scraping
// adapters and classifies transport failures into source error kinds.
package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/avolkov/tickerscout/pkg/models"
)

// NewClient creates the resty client used by all scraping adapters.
// OpenInsider and Finviz reject requests with the default Go user
// agent, so a browser-like one is required.
func NewClient(userAgent string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	return client
}

// ClassifyTransport maps a transport-level error to an ErrorKind
func ClassifyTransport(err error) models.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrKindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.ErrKindTimeout
	}

	return models.ErrKindUnreachable
}

// ClassifyStatus maps a non-200 HTTP status to an ErrorKind
func ClassifyStatus(status int) models.ErrorKind {
	switch {
	case status == http.StatusNotFound:
		return models.ErrKindNotFound
	case status == http.StatusTooManyRequests:
		return models.ErrKindRateLimited
	default:
		return models.ErrKindUnreachable
	}
}
