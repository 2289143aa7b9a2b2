package meteoswiss

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const searchPath = "/service/search.json"

// SearchResult is one hit of the website search.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Search runs the website search for query in the given language.
func (c *Client) Search(ctx context.Context, query, language string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if err := validateLanguage(language); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s%s?query=%s&lang=%s",
		c.baseURL, searchPath, url.QueryEscape(query), language)

	var resp searchResponse
	if err := c.fetcher.FetchJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("searching for %q (language %s): %w", query, language, err)
	}

	c.log.Debug("search completed", "query", query, "language", language, "hits", len(resp.Results))
	return resp.Results, nil
}
