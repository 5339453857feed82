package mapview

import (
	"math"
	"time"

	"github.com/paulmach/orb"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
)

// Pixel is a point in viewport pixel coordinates, origin top-left.
type Pixel struct {
	X float64
	Y float64
}

// centerEpsilon is the projected distance in meters under which two
// centers are considered the same. Re-applying an unchanged center
// (e.g. a notification handler echoing the value back) does not
// re-notify, which is what keeps center updates from looping.
const centerEpsilon = 1e-6

// view owns the map's center, zoom, and viewport dimensions, and
// converts between pixel and projected coordinates. All methods are
// called under the engine lock.
type view struct {
	center orb.Point // projected
	zoom   float64
	width  int
	height int
}

func newView(center geo.Point, zoom float64) *view {
	return &view{
		center: geo.Project(center),
		zoom:   clampZoom(zoom),
	}
}

func clampZoom(z float64) float64 {
	if z < 0 {
		return 0
	}
	return z
}

func (v *view) setSize(w, h int) {
	v.width = w
	v.height = h
}

func (v *view) Center() geo.Point { return geo.Unproject(v.center) }
func (v *view) Zoom() float64     { return v.zoom }

// Resolution is the current meters-per-pixel of the viewport.
func (v *view) Resolution() float64 { return geo.Resolution(v.zoom) }

// setCenter applies a new center and reports whether it changed.
func (v *view) setCenter(c geo.Point) bool {
	p := geo.Project(c)
	if !geo.Finite(p) {
		return false
	}
	if math.Hypot(p[0]-v.center[0], p[1]-v.center[1]) < centerEpsilon {
		return false
	}
	v.center = p
	return true
}

// setZoom applies a new zoom level and reports whether it changed.
func (v *view) setZoom(z float64) bool {
	z = clampZoom(z)
	if z == v.zoom {
		return false
	}
	v.zoom = z
	return true
}

// pixelToCoord converts a viewport pixel to a projected coordinate.
func (v *view) pixelToCoord(px Pixel) orb.Point {
	res := v.Resolution()
	return orb.Point{
		v.center[0] + (px.X-float64(v.width)/2)*res,
		v.center[1] - (px.Y-float64(v.height)/2)*res,
	}
}

// coordToPixel converts a projected coordinate to a viewport pixel.
func (v *view) coordToPixel(p orb.Point) Pixel {
	res := v.Resolution()
	return Pixel{
		X: (p[0]-v.center[0])/res + float64(v.width)/2,
		Y: (v.center[1]-p[1])/res + float64(v.height)/2,
	}
}

// FitOptions tunes fit-to-extent animations.
type FitOptions struct {
	// Padding in pixels applied on every side of the extent.
	Padding float64
	// MaxZoom caps the zoom the fit may reach.
	MaxZoom float64
	// Duration is the ease duration a renderer should apply; the view
	// state itself jumps to the final values.
	Duration time.Duration
}

// fit recenters and rezooms the view so bound is fully visible.
// Returns whether center and zoom changed.
func (v *view) fit(b orb.Bound, opts FitOptions) (centerChanged, zoomChanged bool) {
	if b.IsEmpty() {
		return false, false
	}

	target := clampZoom(opts.MaxZoom)
	w := float64(v.width) - 2*opts.Padding
	h := float64(v.height) - 2*opts.Padding
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]
	if w > 0 && h > 0 && (dx > 0 || dy > 0) {
		res := math.Max(dx/w, dy/h)
		if z := geo.ZoomForResolution(res); z < target {
			target = clampZoom(z)
		}
	}

	zoomChanged = v.setZoom(target)
	centerChanged = v.setCenter(geo.Unproject(b.Center()))
	return centerChanged, zoomChanged
}
