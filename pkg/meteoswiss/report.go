package meteoswiss

import (
	"context"
	"fmt"
)

// WeatherReport is the regional section of the national weather report,
// rendered as markdown.
type WeatherReport struct {
	Region   string
	Language string
	URL      string
	Markdown string
}

// GetWeatherReport fetches the weather-report page for language and returns
// the section covering region. Validation happens before any network I/O.
func (c *Client) GetWeatherReport(ctx context.Context, region, language string) (*WeatherReport, error) {
	if err := validateRegion(region); err != nil {
		return nil, err
	}
	if err := validateLanguage(language); err != nil {
		return nil, err
	}

	url := c.baseURL + reportPaths[language]
	html, err := c.fetcher.FetchHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching weather report (region %s, language %s): %w", region, language, err)
	}

	markdown, err := extractReportSection(html, region)
	if err != nil {
		return nil, fmt.Errorf("extracting weather report (region %s, language %s): %w", region, language, err)
	}

	c.log.Debug("weather report fetched", "region", region, "language", language, "chars", len(markdown))
	return &WeatherReport{
		Region:   region,
		Language: language,
		URL:      url,
		Markdown: markdown,
	}, nil
}
