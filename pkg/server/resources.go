package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alpweather/meteoswiss-mcp/pkg/meteoswiss"
)

const reportResourcePrefix = "meteoswiss://weather-report/"

func (s *Server) registerResources() {
	for _, region := range meteoswiss.Regions() {
		s.mcp.AddResource(&mcp.Resource{
			URI:         reportResourcePrefix + region,
			Name:        "weather-report-" + region,
			Description: fmt.Sprintf("Current weather report for the %s of Switzerland", region),
			MIMEType:    "text/markdown",
		}, s.readWeatherReport)
	}
}

func (s *Server) readWeatherReport(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	region := strings.TrimPrefix(req.Params.URI, reportResourcePrefix)

	report, err := s.meteo.GetWeatherReport(ctx, region, "de")
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     report.Markdown,
		}},
	}, nil
}
