package mapview

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
)

func TestViewPixelTransforms(t *testing.T) {
	v := newView(DefaultCenter, 15)
	v.setSize(800, 600)

	// The viewport center pixel maps to the view center.
	c := v.pixelToCoord(Pixel{X: 400, Y: 300})
	got := geo.Unproject(c)
	if math.Abs(got.Lon-DefaultCenter.Lon) > 1e-9 || math.Abs(got.Lat-DefaultCenter.Lat) > 1e-9 {
		t.Errorf("center pixel unprojects to %+v", got)
	}

	// coordToPixel inverts pixelToCoord.
	for _, px := range []Pixel{{0, 0}, {400, 300}, {799, 599}, {123, 456}} {
		back := v.coordToPixel(v.pixelToCoord(px))
		if math.Abs(back.X-px.X) > 1e-6 || math.Abs(back.Y-px.Y) > 1e-6 {
			t.Errorf("pixel %+v round-tripped to %+v", px, back)
		}
	}

	// Y grows downward: a pixel above the center has a larger
	// projected Y.
	up := v.pixelToCoord(Pixel{X: 400, Y: 100})
	if up[1] <= v.center[1] {
		t.Error("pixel above center should project north of it")
	}
}

func TestViewSetCenterDedupe(t *testing.T) {
	v := newView(DefaultCenter, 15)

	if v.setCenter(DefaultCenter) {
		t.Error("unchanged center reported as changed")
	}
	if !v.setCenter(geo.Point{Lon: -73.6, Lat: 45.52}) {
		t.Error("new center not reported as changed")
	}
	if v.setCenter(geo.Point{Lon: -73.6, Lat: 45.52}) {
		t.Error("re-applied center reported as changed")
	}
}

func TestViewSetCenterRejectsOutOfDomain(t *testing.T) {
	v := newView(DefaultCenter, 15)
	before := v.center
	if v.setCenter(geo.Point{Lon: 0, Lat: 91}) {
		t.Error("out-of-domain center applied")
	}
	if v.center != before {
		t.Error("center mutated by invalid input")
	}
}

func TestViewSetZoom(t *testing.T) {
	v := newView(DefaultCenter, 15)
	if !v.setZoom(16) {
		t.Error("zoom change not reported")
	}
	if v.setZoom(16) {
		t.Error("unchanged zoom reported as changed")
	}
	if v.setZoom(-3); v.zoom != 0 {
		t.Errorf("negative zoom should clamp to 0, got %f", v.zoom)
	}
}

func TestViewFit(t *testing.T) {
	v := newView(DefaultCenter, 15)
	v.setSize(800, 600)

	a := geo.Project(geo.Point{Lon: -73.58, Lat: 45.50})
	b := geo.Project(geo.Point{Lon: -73.54, Lat: 45.52})
	bound := orb.MultiPoint{a, b}.Bound()

	opts := FitOptions{Padding: 100, MaxZoom: 22, Duration: 750 * time.Millisecond}
	centerChanged, zoomChanged := v.fit(bound, opts)
	if !centerChanged || !zoomChanged {
		t.Fatalf("fit reported centerChanged=%v zoomChanged=%v", centerChanged, zoomChanged)
	}

	// Center lands on the bound center.
	if math.Hypot(v.center[0]-bound.Center()[0], v.center[1]-bound.Center()[1]) > 1e-6 {
		t.Errorf("fit center %v, want %v", v.center, bound.Center())
	}

	// The whole bound is inside the padded viewport.
	res := v.Resolution()
	if (bound.Max[0]-bound.Min[0])/res > 800-2*opts.Padding+1e-6 {
		t.Error("bound wider than padded viewport after fit")
	}
	if (bound.Max[1]-bound.Min[1])/res > 600-2*opts.Padding+1e-6 {
		t.Error("bound taller than padded viewport after fit")
	}

	// A degenerate (single point) bound zooms to the ceiling.
	v2 := newView(DefaultCenter, 15)
	v2.setSize(800, 600)
	pt := geo.Project(geo.Point{Lon: -73.55, Lat: 45.51})
	v2.fit(orb.Bound{Min: pt, Max: pt}, opts)
	if v2.zoom != 22 {
		t.Errorf("point fit zoom = %f, want 22", v2.zoom)
	}
}
