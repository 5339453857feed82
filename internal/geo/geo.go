// Package geo provides the geographic coordinate type used across the
// project and the projection between WGS84 lon/lat and the map's
// web-mercator plane (EPSG:3857).
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Point is a geographic coordinate in WGS84.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether p lies in the projectable domain. The poles
// themselves are excluded: their projection is unbounded.
func (p Point) Valid() bool {
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat > -90 && p.Lat < 90
}

const (
	earthRadius = 6378137.0
	tileSize    = 256
)

// WorldExtent is the half-width of the projected world square in
// meters (x and y both span ±WorldExtent).
var WorldExtent = math.Pi * earthRadius

// Project returns p in web-mercator meters. Results for out-of-domain
// latitudes (±90° and beyond) are unbounded or NaN; callers must guard
// with Valid or Finite before use.
func Project(p Point) orb.Point {
	x := earthRadius * p.Lon * math.Pi / 180
	y := earthRadius * math.Log(math.Tan((90+p.Lat)*math.Pi/360))
	return orb.Point{x, y}
}

// Unproject converts a web-mercator point back to lon/lat.
func Unproject(q orb.Point) Point {
	lon := q[0] / earthRadius * 180 / math.Pi
	lat := 180/math.Pi*2*math.Atan(math.Exp(q[1]/earthRadius)) - 90
	return Point{Lon: lon, Lat: lat}
}

// ProjectLine projects an ordered coordinate sequence into a
// web-mercator line string, skipping out-of-domain coordinates.
func ProjectLine(coords []Point) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		if !c.Valid() {
			continue
		}
		ls = append(ls, Project(c))
	}
	return ls
}

// maxResolution is the meters-per-pixel of a 256px world tile at zoom 0.
var maxResolution = 2 * math.Pi * earthRadius / tileSize

// Resolution returns meters per pixel at the given zoom level.
func Resolution(zoom float64) float64 {
	return maxResolution / math.Exp2(zoom)
}

// ZoomForResolution is the inverse of Resolution.
func ZoomForResolution(resolution float64) float64 {
	return math.Log2(maxResolution / resolution)
}

// Finite reports whether both components of a projected point are
// finite numbers.
func Finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) &&
		!math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}
