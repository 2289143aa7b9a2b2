package meteoswiss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpweather/meteoswiss-mcp/pkg/client"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	fetcher := client.NewFetcher(
		client.WithRetries(0),
		client.WithRequestTimeout(2*time.Second),
	)
	c := NewClient(fetcher,
		WithBaseURL(srv.URL),
		WithAllowedHosts("127.0.0.1"),
	)
	return c, srv
}

func TestGetWeatherReport(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wetter/wetterbericht.html", r.URL.Path)
		w.Write([]byte(`<html><body><main>
<section data-region="north"><p>Sonnig im Norden.</p></section>
<section data-region="south"><p>Regen im Süden.</p></section>
</main></body></html>`))
	}))

	report, err := c.GetWeatherReport(context.Background(), "north", "de")
	require.NoError(t, err)
	assert.Equal(t, "north", report.Region)
	assert.Equal(t, "de", report.Language)
	assert.Contains(t, report.Markdown, "Sonnig im Norden")
	assert.NotContains(t, report.Markdown, "Regen")
}

func TestGetWeatherReport_ValidatesBeforeFetching(t *testing.T) {
	fetched := false
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
	}))

	_, err := c.GetWeatherReport(context.Background(), "east", "de")
	assert.ErrorContains(t, err, "unknown region")

	_, err = c.GetWeatherReport(context.Background(), "north", "rm")
	assert.ErrorContains(t, err, "unknown language")

	assert.False(t, fetched)
}

func TestGetWeatherReport_WrapsFetchErrors(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	_, err := c.GetWeatherReport(context.Background(), "west", "fr")
	require.Error(t, err)
	assert.ErrorContains(t, err, "region west")
	assert.ErrorContains(t, err, "language fr")
}

func TestSearch(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service/search.json", r.URL.Path)
		assert.Equal(t, "hail", r.URL.Query().Get("query"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		w.Write([]byte(`{"results":[{"title":"Hail","url":"/weather/hail.html","description":"About hail"}]}`))
	}))

	results, err := c.Search(context.Background(), "hail", "en")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hail", results[0].Title)
	assert.Equal(t, "/weather/hail.html", results[0].URL)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c, _ := testClient(t, http.NotFoundHandler())

	_, err := c.Search(context.Background(), "   ", "en")
	assert.ErrorContains(t, err, "must not be empty")
}

func TestGetPageContent(t *testing.T) {
	c, srv := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Snow</title></head><body><main><p>Snow forms in clouds.</p></main></body></html>`))
	}))

	page, err := c.GetPageContent(context.Background(), srv.URL+"/weather/snow.html")
	require.NoError(t, err)
	assert.Equal(t, "Snow", page.Title)
	assert.Contains(t, page.Markdown, "# Snow")
	assert.Contains(t, page.Markdown, "Snow forms in clouds")
}

func TestGetPageContent_RejectsForeignHosts(t *testing.T) {
	c, _ := testClient(t, http.NotFoundHandler())

	_, err := c.GetPageContent(context.Background(), "https://evil.example.com/page.html")
	assert.ErrorContains(t, err, "not a MeteoSwiss domain")

	_, err = c.GetPageContent(context.Background(), "ftp://127.0.0.1/page.html")
	assert.ErrorContains(t, err, "unsupported URL scheme")
}

func TestRegionsAndLanguages(t *testing.T) {
	assert.Equal(t, []string{"north", "south", "west"}, Regions())
	assert.Equal(t, []string{"de", "en", "fr", "it"}, Languages())
}
