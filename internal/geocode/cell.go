package geocode

import "github.com/uber/h3-go/v4"

// CellResolution is the H3 resolution used to compare pipeline points.
// Resolution 8 cells are roughly 0.7 km².
const CellResolution = 8

// Cell returns the H3 cell containing (lat, lon), or "" when the point is invalid.
func Cell(lat, lon float64) string {
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), CellResolution)
	if err != nil {
		return ""
	}
	return cell.String()
}
