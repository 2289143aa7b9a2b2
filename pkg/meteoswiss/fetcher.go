package meteoswiss

import (
	"context"

	"github.com/alpweather/meteoswiss-mcp/pkg/client"
)

// Fetcher is the slice of the fetch client this package needs.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string, opts ...client.FetchOption) (string, error)
	FetchJSON(ctx context.Context, url string, v any, opts ...client.FetchOption) error
}
