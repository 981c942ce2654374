package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// Scrape result sources.
const (
	SourceMockData   = "mock_data"
	SourceLiveScrape = "live_scrape"
)

// Page is the outcome of fetching and parsing a single URL. Fetch
// failures are captured here rather than propagated: one bad page never
// aborts the batch.
type Page struct {
	URL         string           `json:"url"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Content     string           `json:"content,omitempty"`
	Headings    []models.Heading `json:"headings,omitempty"`
	Success     bool             `json:"success"`
	StatusCode  int              `json:"status_code,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Result is the full outcome of one company scrape.
type Result struct {
	CompanyName string               `json:"company_name"`
	CompanyURL  string               `json:"company_url"`
	Pages       []Page               `json:"pages"`
	Summary     models.ScrapeSummary `json:"summary"`
	Source      string               `json:"source"`
}

type Config struct {
	Timeout       time.Duration
	RequestDelay  time.Duration
	MaxExtraPages int
	UserAgent     string
}

// Client fetches and aggregates public company pages. Known demo
// companies are served from the canned profile dictionary before any
// network access, so those inputs stay deterministic and offline.
type Client struct {
	cfg        Config
	httpClient *http.Client
	mockData   map[string]models.ScrapeSummary
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxExtraPages == 0 {
		cfg.MaxExtraPages = 2
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; InterviewIQ-Research/1.0)"
	}

	mockData := loadMockCompanies()
	logger.Info("Scraper initialized", zap.Int("mock_companies", len(mockData)))

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		mockData:   mockData,
	}
}

// ScrapeCompany gathers company intelligence for a name and optional
// URL. The canned dictionary is checked first; live fetching runs only
// on a miss. Zero successful pages still yields a valid, mostly empty
// summary; network errors never fail the scrape.
func (c *Client) ScrapeCompany(ctx context.Context, companyName, companyURL string) (*Result, error) {
	if summary, ok := c.lookupMock(companyName); ok {
		logger.Info("Using canned profile", zap.String("company", companyName))
		summary.Name = companyName
		return &Result{
			CompanyName: companyName,
			CompanyURL:  companyURL,
			Pages:       []Page{},
			Summary:     summary,
			Source:      SourceMockData,
		}, nil
	}

	var pages []Page

	if companyURL != "" {
		pages = append(pages, c.fetchPage(ctx, companyURL))

		for _, aboutURL := range secondaryURLs(companyURL, c.cfg.MaxExtraPages) {
			select {
			case <-ctx.Done():
				logger.Warn("Scrape cancelled", zap.String("company", companyName))
			case <-time.After(c.cfg.RequestDelay):
			}
			if ctx.Err() != nil {
				break
			}

			page := c.fetchPage(ctx, aboutURL)
			if page.Success {
				pages = append(pages, page)
			}
		}
	}

	result := &Result{
		CompanyName: companyName,
		CompanyURL:  companyURL,
		Pages:       pages,
		Summary:     aggregate(companyName, pages),
		Source:      SourceLiveScrape,
	}

	logger.Info("Scraping complete",
		zap.String("company", companyName),
		zap.Int("pages", len(pages)),
		zap.Int("pages_scraped", result.Summary.PagesScraped),
	)

	return result, nil
}

// lookupMock matches the normalized company name against the canned
// dictionary using bidirectional substring containment.
func (c *Client) lookupMock(companyName string) (models.ScrapeSummary, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(companyName, " ", "_"))
	for key, summary := range c.mockData {
		key = strings.ToLower(key)
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			return summary, true
		}
	}
	return models.ScrapeSummary{}, false
}

// secondaryURLs builds the conventional about-page probes for a site.
func secondaryURLs(companyURL string, limit int) []string {
	parsed, err := url.Parse(companyURL)
	if err != nil || parsed.Host == "" {
		return nil
	}

	paths := []string{"/about", "/about-us", "/company"}
	if limit < len(paths) {
		paths = paths[:limit]
	}

	urls := make([]string, 0, len(paths))
	for _, p := range paths {
		urls = append(urls, fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, p))
	}
	return urls
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) Page {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{URL: pageURL, Error: err.Error()}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Fetch failed", zap.String("url", pageURL), zap.Error(err))
		return Page{URL: pageURL, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logger.Warn("HTTP error", zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return Page{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}

	page, err := parsePage(resp.Body)
	if err != nil {
		return Page{URL: pageURL, StatusCode: resp.StatusCode, Error: err.Error()}
	}

	page.URL = pageURL
	page.StatusCode = resp.StatusCode
	page.Success = true

	logger.Info("Page scraped", zap.String("url", pageURL), zap.Int("chars", len(page.Content)))
	return page
}

// aggregate folds the successful pages into a single summary.
func aggregate(companyName string, pages []Page) models.ScrapeSummary {
	var contents []string
	headings := []models.Heading{}
	description := ""

	for _, page := range pages {
		if !page.Success {
			continue
		}
		if description == "" {
			description = page.Description
		}
		contents = append(contents, page.Content)
		headings = append(headings, page.Headings...)
	}

	totalLength := 0
	for _, c := range contents {
		totalLength += len(c)
	}

	return models.ScrapeSummary{
		Name:               companyName,
		Description:        description,
		CombinedContent:    strings.Join(contents, "\n\n---\n\n"),
		Headings:           headings,
		PagesScraped:       len(contents),
		TotalContentLength: totalLength,
	}
}
