package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/citelens/citelens-api/internal/models"
)

const fetcherUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher retrieves a lightweight content summary for a URL.
type PageFetcher interface {
	FetchSummary(ctx context.Context, pageURL string, timeout time.Duration) (*models.SiteSummary, error)
}

// CollyFetcher implements PageFetcher using Colly.
type CollyFetcher struct {
	logger *slog.Logger
}

// NewCollyFetcher creates a page fetcher.
func NewCollyFetcher(logger *slog.Logger) *CollyFetcher {
	return &CollyFetcher{logger: logger}
}

// FetchSummary loads one page and extracts title, meta description, heading
// text, and the structured-data block count. It never follows links.
func (f *CollyFetcher) FetchSummary(ctx context.Context, pageURL string, timeout time.Duration) (*models.SiteSummary, error) {
	summary := &models.SiteSummary{URL: pageURL}

	c := colly.NewCollector(
		colly.UserAgent(fetcherUserAgent),
		colly.AllowURLRevisit(),
	)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c.SetRequestTimeout(timeout)

	if err := ctx.Err(); err != nil {
		return nil, &models.CrawlError{URL: pageURL, Err: err}
	}

	c.OnHTML("title", func(e *colly.HTMLElement) {
		if summary.Title == "" {
			summary.Title = strings.TrimSpace(e.Text)
		}
	})

	c.OnHTML(`meta[name="description"]`, func(e *colly.HTMLElement) {
		if summary.MetaDescription == "" {
			summary.MetaDescription = strings.TrimSpace(e.Attr("content"))
		}
	})

	c.OnHTML("h1, h2", func(e *colly.HTMLElement) {
		text := strings.TrimSpace(e.Text)
		if text != "" && len(summary.Headings) < 20 {
			summary.Headings = append(summary.Headings, text)
		}
	})

	c.OnHTML(`script[type="application/ld+json"]`, func(e *colly.HTMLElement) {
		summary.StructuredDataCount++
	})

	if err := c.Visit(pageURL); err != nil {
		if f.logger != nil {
			f.logger.Debug("page fetch failed", "url", pageURL, "error", err)
		}
		return nil, &models.CrawlError{URL: pageURL, Err: err}
	}
	c.Wait()

	return summary, nil
}

// SummaryText flattens a site summary into comparable keyword text.
func SummaryText(s *models.SiteSummary) string {
	if s == nil {
		return ""
	}
	parts := []string{s.Title, s.MetaDescription}
	parts = append(parts, s.Headings...)
	return strings.Join(parts, " ")
}
