// Package meteoswiss exposes MeteoSwiss website content (weather reports,
// site search and page content) as plain Go calls over the retrying fetch
// client.
package meteoswiss

import (
	"fmt"
	"log/slog"
	"sort"
)

const defaultBaseURL = "https://www.meteoswiss.admin.ch"

// The website is served under one host per language.
var defaultAllowedHosts = []string{
	"www.meteoswiss.admin.ch",
	"www.meteoschweiz.admin.ch",
	"www.meteosuisse.admin.ch",
	"www.meteosvizzera.admin.ch",
	"meteoswiss.admin.ch",
}

// Regions of the national weather report.
var reportRegions = map[string]bool{
	"north": true,
	"south": true,
	"west":  true,
}

// reportPaths maps a UI language to the weather-report page for it.
var reportPaths = map[string]string{
	"de": "/wetter/wetterbericht.html",
	"fr": "/meteo/bulletin-meteo.html",
	"it": "/meteo/bollettino-meteo.html",
	"en": "/weather/weather-report.html",
}

// Client is the domain-level MeteoSwiss client. It owns no caching or retry
// logic itself; both live in the fetcher.
type Client struct {
	fetcher      Fetcher
	log          *slog.Logger
	baseURL      string
	allowedHosts map[string]bool
}

type Option func(*Client)

// WithBaseURL points the client at a different origin, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithAllowedHosts replaces the page-content host allow-list.
func WithAllowedHosts(hosts ...string) Option {
	return func(c *Client) {
		c.allowedHosts = make(map[string]bool, len(hosts))
		for _, h := range hosts {
			c.allowedHosts[h] = true
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(fetcher Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:      fetcher,
		log:          slog.Default(),
		baseURL:      defaultBaseURL,
		allowedHosts: make(map[string]bool, len(defaultAllowedHosts)),
	}
	for _, h := range defaultAllowedHosts {
		c.allowedHosts[h] = true
	}

	for _, o := range opts {
		o(c)
	}
	return c
}

// Regions returns the valid report regions, sorted.
func Regions() []string {
	out := make([]string, 0, len(reportRegions))
	for r := range reportRegions {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Languages returns the supported languages, sorted.
func Languages() []string {
	out := make([]string, 0, len(reportPaths))
	for l := range reportPaths {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func validateRegion(region string) error {
	if !reportRegions[region] {
		return fmt.Errorf("unknown region %q, expected one of %v", region, Regions())
	}
	return nil
}

func validateLanguage(language string) error {
	if _, ok := reportPaths[language]; !ok {
		return fmt.Errorf("unknown language %q, expected one of %v", language, Languages())
	}
	return nil
}
