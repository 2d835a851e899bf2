package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectorize(t *testing.T) {
	assert.Equal(t, "s209_-1338", Sectorize(10.48, -66.90, 0.05))
	assert.Equal(t, "s0_0", Sectorize(0.01, 0.01, 0.05))

	// Nearby points in the same cell share a sector.
	assert.Equal(t,
		Sectorize(10.481, -66.901, 0.05),
		Sectorize(10.482, -66.902, 0.05),
	)
}

func TestSectorCentroid_RoundTrip(t *testing.T) {
	coords := []struct{ lat, lng float64 }{
		{10.4806, -66.9036},
		{0.0, 0.0},
		{-33.45, -70.66},
		{51.51, -0.13},
	}
	const grid = 0.05
	for _, c := range coords {
		id := Sectorize(c.lat, c.lng, grid)
		lat, lng, err := SectorCentroid(id, grid)
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(lat-c.lat), grid, "lat centroid within one cell of %v", c)
		assert.LessOrEqual(t, math.Abs(lng-c.lng), grid, "lng centroid within one cell of %v", c)
		assert.Equal(t, id, Sectorize(lat, lng, grid), "centroid maps back to the same sector")
	}
}

func TestSectorCentroid_Malformed(t *testing.T) {
	_, _, err := SectorCentroid("not-a-sector", 0.05)
	require.Error(t, err)
}
