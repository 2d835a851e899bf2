//go:build mapbox

package geocode

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/alert-triage/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/geocode/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_Lookup(t *testing.T) {
	c := smokeClient(t)

	fix, err := c.Lookup(context.Background(), "Caracas")
	require.NoError(t, err)

	require.True(t, fix.Found)
	assert.InDelta(t, 10.49, fix.Lat, 0.2, "lat should be near Caracas")
	assert.InDelta(t, -66.88, fix.Lng, 0.2, "lng should be near Caracas")
	assert.Greater(t, fix.Confidence, 0.5)
}

func TestSmoke_Lookup_Nonsense(t *testing.T) {
	c := smokeClient(t)

	// Mapbox's fuzzy matching may still return results for nonsense queries,
	// so we verify the client handles any response gracefully (no error).
	_, err := c.Lookup(context.Background(), "xyznonexistent99")
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	// First call: cache miss → real API call.
	f1, err := cached.Lookup(context.Background(), "Caracas")
	require.NoError(t, err)
	assert.True(t, f1.Found)

	// Second call: cache hit → no API call.
	f2, err := cached.Lookup(context.Background(), "Caracas")
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}
