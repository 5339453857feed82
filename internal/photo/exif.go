// Package photo extracts coordinates from geotagged contribution
// photos.
package photo

import (
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
)

// ErrNoLocation reports a photo without usable GPS tags.
type ErrNoLocation struct {
	cause error
}

func (e *ErrNoLocation) Error() string {
	return fmt.Sprintf("photo has no GPS location: %v", e.cause)
}

func (e *ErrNoLocation) Unwrap() error { return e.cause }

// Coords reads a JPEG's EXIF block and returns the embedded GPS
// position. Photos without EXIF or without GPS tags return
// *ErrNoLocation; the caller falls back to a hand-placed marker.
func Coords(r io.Reader) (geo.Point, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return geo.Point{}, &ErrNoLocation{cause: err}
	}

	lat, lon, err := x.LatLong()
	if err != nil {
		return geo.Point{}, &ErrNoLocation{cause: err}
	}

	p := geo.Point{Lon: lon, Lat: lat}
	if !p.Valid() {
		return geo.Point{}, &ErrNoLocation{cause: fmt.Errorf("position out of range: %v", p)}
	}
	return p, nil
}
