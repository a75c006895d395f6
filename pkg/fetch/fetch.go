package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

type FetcherConfig struct {
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// Fetcher downloads a page and extracts its readable text so it can be
// fed to the summarization pipeline like pasted input.
type Fetcher struct {
	config  FetcherConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config FetcherConfig) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Fetcher {
	return NewWithConfig(FetcherConfig{})
}

// FetchText downloads urlStr and returns its main text content with
// paragraph structure preserved.
func (f *Fetcher) FetchText(ctx context.Context, urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", urlStr, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	// Apply rate limiting
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	text := extractMainContent(doc)
	if text == "" {
		return "", fmt.Errorf("no readable content found at %s", urlStr)
	}

	return text, nil
}

// extractMainContent looks for a main content area and collects its
// block-level text, one paragraph per block. Blank-line separation
// matters downstream, where the chunker packs paragraphs.
func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer").Remove()

	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	root := doc.Selection
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			root = selected.First()
			break
		}
	}

	var blocks []string
	root.Find("h1, h2, h3, h4, p, li, pre").Each(func(_ int, sel *goquery.Selection) {
		if text := collapseSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})

	// Fallback to body text if the page has no block structure
	if len(blocks) == 0 {
		return collapseSpace(root.Text())
	}

	return strings.Join(blocks, "\n\n")
}

func collapseSpace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
