package mapview

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	// markerHitRadius is the pixel radius around a marker anchor that
	// counts as a hit, scaled by the group's icon scale.
	markerHitRadius = 16.0
	// lineHitTolerance widens line hit-testing beyond the stroke.
	lineHitTolerance = 4.0
)

// Cluster expansion animation, matching the map UI's feel.
var clusterFit = FitOptions{
	Padding:  100,
	MaxZoom:  22,
	Duration: 750 * time.Millisecond,
}

type hit struct {
	layer   *Layer
	cluster *ClusterFeature // marker layers
	feature *Feature        // line layers
}

// featureAt resolves the topmost feature at a pixel. Later-added
// layers draw higher and win; markers are added after lines, so a
// marker over a line takes priority. Caller holds the lock.
func (e *Engine) featureAt(px Pixel) (hit, bool) {
	coord := e.view.pixelToCoord(px)
	res := e.view.Resolution()

	for i := len(e.layers) - 1; i >= 0; i-- {
		l := e.layers[i]
		switch l.kind {
		case markerLayerKind:
			radius := markerHitRadius
			if l.styles != nil && l.styles.scale > 0 {
				radius *= l.styles.scale
			}
			for j := len(l.clusters) - 1; j >= 0; j-- {
				c := l.clusters[j]
				ap := e.view.coordToPixel(c.Anchor)
				dx, dy := ap.X-px.X, ap.Y-px.Y
				if dx*dx+dy*dy <= radius*radius {
					return hit{layer: l, cluster: c}, true
				}
			}
		case lineLayerKind:
			maxDist := (l.lineWidth/2 + lineHitTolerance) * res
			for j := len(l.features) - 1; j >= 0; j-- {
				f := l.features[j]
				if planar.DistanceFrom(f.Geometry, coord) <= maxDist {
					return hit{layer: l, feature: f}, true
				}
			}
		}
	}
	return hit{}, false
}

// ClickAt dispatches a pointer click at a viewport pixel: a cluster of
// two or more markers expands (the view fits the members' extent), a
// single clickable marker or line invokes the registered callback with
// its attributes, and anything else is a no-op.
func (e *Engine) ClickAt(px Pixel) {
	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		return
	}

	h, ok := e.featureAt(px)
	if !ok {
		e.mu.Unlock()
		return
	}

	if h.cluster != nil && h.cluster.Size() > 1 {
		// Expansion ignores the members' clickable flags.
		centerChanged, zoomChanged := e.view.fit(h.cluster.Bound(), clusterFit)
		if zoomChanged {
			e.reclusterAll()
		}
		notify := e.notifier()
		e.mu.Unlock()

		if centerChanged {
			notify.center()
		}
		if zoomChanged {
			notify.zoom()
		}
		return
	}

	f := h.feature
	if h.cluster != nil {
		f = h.cluster.Members[0]
	}
	var cb func(Attributes)
	if h.cluster != nil {
		cb = e.opts.Callbacks.OnMarkerClick
	} else {
		cb = e.opts.Callbacks.OnLineClick
	}
	clickable := f.Clickable
	attrs := f.Attributes
	e.mu.Unlock()

	if clickable && cb != nil {
		cb(attrs)
	}
}

// HoverAt reports whether the topmost feature at the pixel is
// clickable, for cursor feedback. No dispatch side effects.
func (e *Engine) HoverAt(px Pixel) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return false
	}

	h, ok := e.featureAt(px)
	if !ok {
		return false
	}
	if h.cluster != nil {
		// Multi-member clusters always expand on click.
		return h.cluster.Size() > 1 || h.cluster.Members[0].Clickable
	}
	return h.feature.Clickable
}

// Visible reports whether a projected point is inside the viewport.
// Used by renderers to cull offscreen markers.
func (e *Engine) Visible(p orb.Point) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil {
		return false
	}
	px := e.view.coordToPixel(p)
	return px.X >= 0 && px.Y >= 0 &&
		px.X <= float64(e.view.width) && px.Y <= float64(e.view.height)
}
