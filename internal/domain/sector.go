package domain

import (
	"fmt"
	"math"
)

// DefaultSectorGrid is the grid cell size in degrees (~5.5 km of latitude).
const DefaultSectorGrid = 0.05

// Sectorize quantizes a coordinate into a sector id encoding the grid row
// and column, e.g. (10.48, -66.90) with a 0.05° grid → "s209_-1338".
func Sectorize(lat, lng, grid float64) string {
	row := int(math.Floor(lat / grid))
	col := int(math.Floor(lng / grid))
	return fmt.Sprintf("s%d_%d", row, col)
}

// SectorCentroid inverts a sector id back to the center of its grid cell.
func SectorCentroid(sectorID string, grid float64) (lat, lng float64, err error) {
	var row, col int
	if _, err := fmt.Sscanf(sectorID, "s%d_%d", &row, &col); err != nil {
		return 0, 0, fmt.Errorf("malformed sector id %q: %w", sectorID, err)
	}
	return (float64(row) + 0.5) * grid, (float64(col) + 0.5) * grid, nil
}
