package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"text-tagger/model"
)

// maxContentLength caps extracted text so one huge page cannot dominate the corpus.
const maxContentLength = 1 << 20

// Scraper turns a web page into a document.
type Scraper interface {
	Scrape(ctx context.Context, pageURL string) (model.Document, error)
}

type httpScraper struct {
	client *http.Client
}

// NewScraper creates a new Scraper with the given timeout for HTTP requests.
func NewScraper(timeout time.Duration) Scraper {
	return NewScraperWithClient(&http.Client{Timeout: timeout})
}

// NewScraperWithClient creates a new Scraper with a custom HTTP client.
func NewScraperWithClient(client *http.Client) Scraper {
	return &httpScraper{
		client: client,
	}
}

// Scrape fetches pageURL and extracts its readable text. The page title
// becomes the first line of the document so it is scored as the title zone.
func (s *httpScraper) Scrape(ctx context.Context, pageURL string) (model.Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return model.Document{}, fmt.Errorf("parsing url %s: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.Document{}, fmt.Errorf("creating scrape request for %s: %w", pageURL, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return model.Document{}, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Document{}, fmt.Errorf("scraping %s returned status %d", pageURL, resp.StatusCode)
	}

	content, err := Extract(resp.Body, parsed)
	if err != nil {
		return model.Document{}, fmt.Errorf("extracting content from %s: %w", pageURL, err)
	}

	return model.Document{
		Filename: DocumentName(parsed),
		Content:  content,
	}, nil
}

// Extract returns the readable text of an HTML page, prefixed with its
// title line when the page has one. pageURL may be nil.
func Extract(r io.Reader, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(article.TextContent)
	if title := strings.TrimSpace(article.Title); title != "" {
		content = title + "\n" + content
	}

	if len(content) > maxContentLength {
		content = strings.ToValidUTF8(content[:maxContentLength], "")
	}
	return content, nil
}

// DocumentName derives a stable document name from a URL: host plus path,
// with slashes flattened, e.g. "example.com_blog_post".
func DocumentName(u *url.URL) string {
	p := strings.Trim(path.Clean("/"+u.Path), "/")
	name := u.Host
	if p != "" {
		name += "_" + strings.ReplaceAll(p, "/", "_")
	}
	if name == "" {
		name = "page"
	}
	return name
}
