// Package duckduckgo implements provider.WebSearcher by scraping DuckDuckGo's
// JavaScript-free HTML endpoint with goquery.
package duckduckgo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dudoxx/dudoxx-api/internal/config"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/provider"
)

// ProviderName labels errors and logs produced by this package.
const ProviderName = "duckduckgo"

// Searcher queries html.duckduckgo.com.
type Searcher struct {
	http       *http.Client
	endpoint   string
	userAgent  string
	maxResults int
	logger     *slog.Logger
}

var _ provider.WebSearcher = (*Searcher)(nil)

// NewSearcher builds a Searcher from cfg.
func NewSearcher(cfg config.SearchConfig, logger *slog.Logger) (*Searcher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid search base url %q", provider.ErrInvalidConfig, cfg.BaseURL)
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	return &Searcher{
		http:       &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(base.String(), "/") + "/html/",
		userAgent:  cfg.UserAgent,
		maxResults: maxResults,
		logger:     logger.With("provider", ProviderName),
	}, nil
}

// Search returns up to maxResults organic hits for query. maxResults <= 0
// uses the configured default. Sponsored results are skipped.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, provider.NewError(ProviderName, "search", provider.ErrMalformedInput, errors.New("query cannot be empty"))
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	form := url.Values{}
	form.Set("q", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, provider.NewError(ProviderName, "search", provider.ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, provider.NewError(ProviderName, "search", provider.CategoryForTransport(err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	// DuckDuckGo answers bot throttling with 202 and an empty result page.
	if resp.StatusCode == http.StatusAccepted {
		return nil, provider.NewError(ProviderName, "search", provider.ErrRateLimited,
			errors.New("search throttled"))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, provider.NewError(ProviderName, "search", provider.CategoryForStatus(resp.StatusCode),
			fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, provider.NewError(ProviderName, "search", provider.ErrUpstream,
			fmt.Errorf("%w: %v", provider.ErrInvalidResponse, err))
	}

	results := parseResults(doc, maxResults)
	s.logger.DebugContext(ctx, "web search finished",
		"query_length", len(query),
		"results", len(results))
	return results, nil
}

func parseResults(doc *goquery.Document, limit int) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, limit)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveLink(href)
		if target == "" {
			return true
		}

		results = append(results, domain.SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     target,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return len(results) < limit
	})
	return results
}

// resolveLink unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
