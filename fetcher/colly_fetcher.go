package fetcher

import (
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// CollyFetcher implements the Fetcher interface using colly
type CollyFetcher struct {
	collector *colly.Collector
	logger    *zap.Logger
}

// NewCollyFetcher creates a new CollyFetcher instance.
// delay is the pause between two requests to the same domain.
func NewCollyFetcher(logger *zap.Logger, delay time.Duration) (*CollyFetcher, error) {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		// Anchor lists on different pages link the same reference pages.
		colly.AllowURLRevisit(),
		// Error statuses reach OnResponse so Fetch decides what counts as success.
		colly.ParseHTTPErrorResponse(),
	)

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set rate limit: %w", err)
	}

	return &CollyFetcher{
		collector: c,
		logger:    logger,
	}, nil
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(url string) (string, error) {
	// Callbacks registered on a collector stay there, so every fetch works on a clone.
	c := cf.collector.Clone()

	var body string
	var status int

	c.OnRequest(func(r *colly.Request) {
		// The pages are read as UTF-8 whatever the server declares.
		r.ResponseCharacterEncoding = "utf-8"
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		cf.logger.Debug("request failed", zap.String("url", url), zap.Int("status", r.StatusCode), zap.Error(err))
	})

	cf.logger.Info("fetching", zap.String("url", url))
	if err := c.Visit(url); err != nil {
		if status != 0 {
			return "", fmt.Errorf("%w: %s: status %d", ErrFetchFailure, url, status)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailure, url, err)
	}
	c.Wait()

	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: %s: status %d", ErrFetchFailure, url, status)
	}

	return body, nil
}
