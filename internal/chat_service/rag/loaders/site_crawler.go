package loaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"smartchat/internal/chat_service/rag/schema"
	"smartchat/internal/chat_service/rag/splitters"
	"smartchat/pkg/logger"
)

// defaultUserAgent is sent when no user agent is configured.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// skipTags are boilerplate elements removed before text extraction.
var skipTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"footer": true,
	"header": true,
}

// SiteCrawler fetches a bounded set of company pages, strips boilerplate
// markup, and chunks the cleaned text for ingestion. A crawler instance
// never fetches the same URL twice, even across Crawl calls.
type SiteCrawler struct {
	baseURL    string
	candidates []string
	client     *http.Client
	splitter   *splitters.WordSplitter
	userAgent  string
	fetchDelay time.Duration
	log        *logger.Logger

	mu      sync.Mutex
	visited map[string]bool
}

// NewSiteCrawler creates a SiteCrawler over the given base URL and candidate
// paths ("" means the home page).
func NewSiteCrawler(baseURL string, paths []string, splitter *splitters.WordSplitter, fetchTimeout, fetchDelay time.Duration, userAgent string, log *logger.Logger) *SiteCrawler {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	candidates := make([]string, 0, len(paths))
	for _, p := range paths {
		candidates = append(candidates, resolveURL(baseURL, p))
	}
	return &SiteCrawler{
		baseURL:    baseURL,
		candidates: candidates,
		client:     &http.Client{Timeout: fetchTimeout},
		splitter:   splitter,
		userAgent:  userAgent,
		fetchDelay: fetchDelay,
		log:        log,
		visited:    make(map[string]bool),
	}
}

// Crawl fetches at most maxPages unvisited candidate URLs. Individual page
// failures are logged and skipped; the returned slice contains whatever
// subset succeeded, possibly empty.
func (c *SiteCrawler) Crawl(ctx context.Context, maxPages int) []schema.PageDocument {
	targets := c.candidates
	if maxPages >= 0 && maxPages < len(targets) {
		targets = targets[:maxPages]
	}

	var pages []schema.PageDocument
	for i, target := range targets {
		if i > 0 && c.fetchDelay > 0 {
			select {
			case <-time.After(c.fetchDelay):
			case <-ctx.Done():
				return pages
			}
		}

		page, err := c.CrawlPage(ctx, target)
		if err != nil {
			c.log.WithError(err).Warn(fmt.Sprintf("Skipping page %s", target))
			continue
		}
		if page != nil {
			pages = append(pages, *page)
		}
	}
	return pages
}

// CrawlPage fetches and cleans a single page. It returns (nil, nil) when the
// URL was already visited by this crawler instance.
func (c *SiteCrawler) CrawlPage(ctx context.Context, pageURL string) (*schema.PageDocument, error) {
	if !c.markVisited(pageURL) {
		return nil, nil
	}

	c.log.Info(fmt.Sprintf("Crawling %s", pageURL))
	body, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	title, description, text, err := extractPage(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", pageURL, err)
	}
	if title == "" {
		title = pageURL
	}

	return &schema.PageDocument{
		URL:         pageURL,
		Title:       title,
		Description: description,
		Content:     text,
		Chunks:      c.splitter.Split(text, title),
	}, nil
}

// DiscoverLinks fetches a page and returns the set of same-domain links it
// references. Not used by the resolution pipeline; exposed for future
// expansion of the candidate list.
func (c *SiteCrawler) DiscoverLinks(ctx context.Context, pageURL string) ([]string, error) {
	body, err := c.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	seen := make(map[string]bool)
	var links []string
	z := html.NewTokenizer(body)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				return links, nil
			}
			return nil, z.Err()
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if string(name) != "a" || !hasAttr {
			continue
		}
		if href, ok := tagAttr(z, "href"); ok {
			ref, err := url.Parse(href)
			if err != nil {
				continue
			}
			abs := base.ResolveReference(ref)
			if abs.Host != base.Host || seen[abs.String()] {
				continue
			}
			seen[abs.String()] = true
			links = append(links, abs.String())
		}
	}
}

// markVisited records pageURL in the visited set and reports whether it was
// new. This is the reentrancy guard: concurrent Crawl calls on one instance
// cannot fetch the same URL twice.
func (c *SiteCrawler) markVisited(pageURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visited[pageURL] {
		return false
	}
	c.visited[pageURL] = true
	return true
}

func (c *SiteCrawler) fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d", pageURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// extractPage walks the HTML token stream once, collecting the title, the
// meta description, and the visible text with boilerplate elements
// (script/style/nav/footer/header) removed. Lines are trimmed and blank
// lines collapsed.
func extractPage(body io.Reader) (title, description, text string, err error) {
	z := html.NewTokenizer(body)
	var lines []string
	var inTitle bool
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return title, description, strings.Join(lines, "\n"), nil
			}
			return "", "", "", z.Err()

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				skipDepth++
			}
			if tag == "title" {
				inTitle = true
			}
			if tag == "meta" {
				if d, ok := metaDescription(z); ok {
					description = d
				}
			}

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "meta" {
				if d, ok := metaDescription(z); ok {
					description = d
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] && skipDepth > 0 {
				skipDepth--
			}
			if tag == "title" {
				inTitle = false
			}

		case html.TextToken:
			t := strings.TrimSpace(string(z.Text()))
			if t == "" {
				continue
			}
			if inTitle {
				title = t
				continue
			}
			if skipDepth == 0 {
				lines = append(lines, t)
			}
		}
	}
}

// metaDescription reads the current meta tag's attributes and returns its
// content when it is a description tag.
func metaDescription(z *html.Tokenizer) (string, bool) {
	var name, content string
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "name":
			name = string(val)
		case "content":
			content = string(val)
		}
		if !more {
			break
		}
	}
	if strings.EqualFold(name, "description") && content != "" {
		return content, true
	}
	return "", false
}

// tagAttr scans the current tag's attributes for the named one.
func tagAttr(z *html.Tokenizer, attr string) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == attr {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}

func resolveURL(base, path string) string {
	if path == "" {
		return base
	}
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	ref, err := url.Parse(path)
	if err != nil {
		return base
	}
	return b.ResolveReference(ref).String()
}
