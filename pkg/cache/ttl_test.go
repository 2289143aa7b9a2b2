package cache

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseMaxAge(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
		ok     bool
	}{
		{"plain max-age", "max-age=120", 120 * time.Second, true},
		{"with other directives", "public, max-age=3600, must-revalidate", time.Hour, true},
		{"s-maxage", "public, s-maxage=300", 300 * time.Second, true},
		{"case insensitive", "Public, Max-Age=120", 120 * time.Second, true},
		{"zero is invalid", "max-age=0", 0, false},
		{"negative is invalid", "max-age=-5", 0, false},
		{"garbage value", "max-age=abc", 0, false},
		{"no directive", "no-store", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseMaxAge(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderValue_FirstOfMultiValued(t *testing.T) {
	h := http.Header{}
	h.Add("Cache-Control", "max-age=120")
	h.Add("Cache-Control", "max-age=999")

	assert.Equal(t, "max-age=120", headerValue(h, "Cache-Control"))
}

func TestHeaderValue_CaseInsensitiveLookup(t *testing.T) {
	h := http.Header{}
	h.Set("ETag", `"v1"`)

	assert.Equal(t, `"v1"`, headerValue(h, "etag"))
	assert.Equal(t, `"v1"`, headerValue(h, "Etag"))
}

func TestComputeTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("floor when no directives", func(t *testing.T) {
		assert.Equal(t, MinTTL, computeTTL(http.Header{}, now))
	})

	t.Run("floor when expires is in the past", func(t *testing.T) {
		h := http.Header{}
		h.Set("Expires", now.Add(-time.Hour).Format(http.TimeFormat))
		assert.Equal(t, MinTTL, computeTTL(h, now))
	})

	t.Run("floor when expires is malformed", func(t *testing.T) {
		h := http.Header{}
		h.Set("Expires", "not a date")
		assert.Equal(t, MinTTL, computeTTL(h, now))
	})

	t.Run("max-age wins over expires", func(t *testing.T) {
		h := http.Header{}
		h.Set("Cache-Control", "max-age=120")
		h.Set("Expires", now.Add(10*time.Minute).Format(http.TimeFormat))
		assert.Equal(t, 120*time.Second, computeTTL(h, now))
	})

	t.Run("small max-age clamped to floor", func(t *testing.T) {
		h := http.Header{}
		h.Set("Cache-Control", "max-age=5")
		assert.Equal(t, MinTTL, computeTTL(h, now))
	})
}
