package meteoswiss

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// PageContent is a website page reduced to its readable content.
type PageContent struct {
	URL      string
	Title    string
	Markdown string
}

// GetPageContent fetches a MeteoSwiss page and returns its main content as
// markdown. Only URLs on the known MeteoSwiss hosts are fetched.
func (c *Client) GetPageContent(ctx context.Context, rawURL string) (*PageContent, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if !c.allowedHosts[strings.ToLower(parsed.Hostname())] {
		return nil, fmt.Errorf("host %q is not a MeteoSwiss domain", parsed.Hostname())
	}

	html, err := c.fetcher.FetchHTML(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", rawURL, err)
	}

	title, markdown, err := extractPage(html)
	if err != nil {
		return nil, fmt.Errorf("extracting page %s: %w", rawURL, err)
	}

	if title != "" {
		markdown = "# " + title + "\n\n" + markdown
	}
	return &PageContent{URL: rawURL, Title: title, Markdown: markdown}, nil
}
