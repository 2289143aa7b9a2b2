package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type weatherReportInput struct {
	Region   string `json:"region" jsonschema:"report region: north, south or west"`
	Language string `json:"language,omitempty" jsonschema:"report language: de, fr, it or en (default de)"`
}

type searchInput struct {
	Query    string `json:"query" jsonschema:"search terms"`
	Language string `json:"language,omitempty" jsonschema:"result language: de, fr, it or en (default de)"`
}

type pageContentInput struct {
	URL string `json:"url" jsonschema:"absolute URL of a MeteoSwiss page"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_weather_report",
		Description: "Get the current MeteoSwiss weather report for a region of Switzerland " +
			"(north, south or west) as markdown.",
	}, s.getWeatherReport)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_meteoswiss",
		Description: "Search the MeteoSwiss website and return matching pages with titles and URLs.",
	}, s.searchMeteoswiss)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_page_content",
		Description: "Fetch a MeteoSwiss page and return its readable content as markdown.",
	}, s.getPageContent)
}

func (s *Server) getWeatherReport(ctx context.Context, req *mcp.CallToolRequest, in weatherReportInput) (*mcp.CallToolResult, any, error) {
	language := in.Language
	if language == "" {
		language = "de"
	}

	report, err := s.meteo.GetWeatherReport(ctx, in.Region, language)
	if err != nil {
		return errorResult(err), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Weather report (%s)\n\n", report.Region)
	b.WriteString(report.Markdown)
	fmt.Fprintf(&b, "\n\nSource: %s\n", report.URL)
	return textResult(b.String()), nil, nil
}

func (s *Server) searchMeteoswiss(ctx context.Context, req *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
	language := in.Language
	if language == "" {
		language = "de"
	}

	results, err := s.meteo.Search(ctx, in.Query, language)
	if err != nil {
		return errorResult(err), nil, nil
	}
	if len(results) == 0 {
		return textResult(fmt.Sprintf("No results for %q.", in.Query)), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d results for %q:\n\n", len(results), in.Query)
	for _, r := range results {
		fmt.Fprintf(&b, "- [%s](%s)", r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&b, ": %s", r.Description)
		}
		b.WriteByte('\n')
	}
	return textResult(b.String()), nil, nil
}

func (s *Server) getPageContent(ctx context.Context, req *mcp.CallToolRequest, in pageContentInput) (*mcp.CallToolResult, any, error) {
	page, err := s.meteo.GetPageContent(ctx, in.URL)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(page.Markdown), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// errorResult flags the failure to the protocol layer instead of failing the
// whole request; the message keeps the operation context for the caller.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
