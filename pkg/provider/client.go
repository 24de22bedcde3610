package provider

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"taxharvest/pkg/harvest"
)

const (
	holdingsPath     = "/api/holdings"
	capitalGainsPath = "/api/capital-gains"

	// maxDiagnosticBody caps how much of an error body is kept.
	maxDiagnosticBody = 2048
)

// ClientOptions configures the HTTP data provider.
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Debug   bool
	Logger  *slog.Logger
}

// Client fetches holdings and capital gains from a remote provider over
// plain JSON GETs.
type Client struct {
	client *resty.Client
	logger *slog.Logger
}

var _ harvest.Source = (*Client)(nil)

// NewClient builds a Client. No retries are configured: a failed fetch stays
// failed until the caller asks again.
func NewClient(opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetDebug(opts.Debug).
		SetTimeout(timeout).
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	return &Client{client: client, logger: logger}
}

// FetchHoldings implements harvest.Source.
func (c *Client) FetchHoldings(ctx context.Context) ([]harvest.Holding, error) {
	body, err := c.get(ctx, harvest.FeedHoldings, holdingsPath)
	if err != nil {
		return nil, err
	}
	holdings, err := harvest.DecodeHoldings(body)
	if err != nil {
		c.logger.Error("can't decode holdings response", "err", err)
		return nil, err
	}
	return holdings, nil
}

// FetchCapitalGains implements harvest.Source.
func (c *Client) FetchCapitalGains(ctx context.Context) (harvest.CapitalGains, error) {
	body, err := c.get(ctx, harvest.FeedCapitalGains, capitalGainsPath)
	if err != nil {
		return harvest.CapitalGains{}, err
	}
	cg, err := harvest.DecodeCapitalGains(body)
	if err != nil {
		c.logger.Error("can't decode capital gains response", "err", err)
		return harvest.CapitalGains{}, err
	}
	return cg, nil
}

func (c *Client) get(ctx context.Context, feed harvest.Feed, path string) ([]byte, error) {
	c.logger.Debug("provider request start", "feed", feed, "path", path)

	resp, err := c.client.R().SetContext(ctx).Get(path)
	if err != nil {
		c.logger.Error("error while dialing provider", "feed", feed, "err", err)
		return nil, harvest.WrapError(harvest.ErrCodeFetch, string(feed), err)
	}
	if !resp.IsSuccess() {
		body := truncate(resp.String(), maxDiagnosticBody)
		c.logger.Error("provider returned non-2xx",
			"feed", feed,
			"status", resp.StatusCode(),
			"status_text", resp.Status(),
			"body", body,
		)
		return nil, harvest.WrapError(harvest.ErrCodeFetch, string(feed), &harvest.FetchError{
			Feed:   feed,
			Status: resp.StatusCode(),
			Body:   body,
		})
	}

	c.logger.Debug("provider request complete", "feed", feed, "duration_ms", resp.Time().Milliseconds())
	return resp.Body(), nil
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
