// Package mapview implements the interactive map engine behind the
// contribution map: view state, vector layers, marker clustering,
// style caching, and pointer-to-feature click dispatch. The engine is
// headless; a renderer consumes its layers, styles, and tile source
// and feeds pointer events back in.
//
// All exported methods are safe for concurrent use: entry points are
// serialized on an internal mutex, and callbacks fire after the lock
// is released so handlers may re-enter the engine.
package mapview

import (
	"context"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
)

// State is the engine lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

// DefaultCenter is downtown Montréal, the served area.
var DefaultCenter = geo.Point{Lon: -73.561668, Lat: 45.508888}

const (
	defaultZoom               = 15.0
	defaultClusterDistance    = 25.0
	defaultClusterMinDistance = 20.0

	defaultLineColor = "#0000FF"
	defaultLineWidth = 5.0

	locateTimeout = 10 * time.Second
)

// Locator resolves the user's position once. Implementations live in
// internal/locate; a nil Locator means the capability is unavailable.
type Locator interface {
	Locate(ctx context.Context) (geo.Point, error)
}

// Callbacks are the host-supplied handlers. They are part of the
// engine's configuration record, replaced wholesale by SetCallbacks
// and read at dispatch time, so the latest handler always wins. A nil
// handler is a no-op.
type Callbacks struct {
	OnCenterChanged   func(geo.Point)
	OnZoomChanged     func(float64)
	OnPositionRefused func()
	OnMarkerClick     func(Attributes)
	OnLineClick       func(Attributes)
	OnReady           func(*Engine)
}

// Options configure a new engine. Zero values fall back to defaults;
// a (0,0) center and a non-positive zoom are read as unset rather
// than as literal values, so the origin view cannot be requested
// through Options.
type Options struct {
	Center              geo.Point
	Zoom                float64
	DisableInteractions bool
	AskForPosition      bool
	ClusterDistance     float64
	ClusterMinDistance  float64
	Lines               []LineGroup
	Markers             []MarkerGroup
	Tiles               TileConfig
	Locator             Locator
	Callbacks           Callbacks
}

// RenderTarget is the surface the engine attaches to. The engine only
// needs its pixel dimensions; the renderer owns the drawing.
type RenderTarget interface {
	Size() (width, height int)
}

// Engine composes the view, layers, clustering, and hit-testing into
// the map component's external contract.
type Engine struct {
	mu        sync.Mutex
	state     State
	opts      Options
	view      *view
	layers    []*Layer
	baseTiles TileSource
	locating  bool
}

// New creates an engine in the uninitialized state. Attach starts it.
func New(opts Options) *Engine {
	if opts.Center == (geo.Point{}) {
		opts.Center = DefaultCenter
	}
	if opts.Zoom <= 0 {
		opts.Zoom = defaultZoom
	}
	if opts.ClusterDistance <= 0 {
		opts.ClusterDistance = defaultClusterDistance
	}
	if opts.ClusterMinDistance <= 0 {
		opts.ClusterMinDistance = defaultClusterMinDistance
	}
	return &Engine{state: StateUninitialized, opts: opts}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Attach binds the engine to its render target and brings it to the
// ready state. The engine is constructed once per target; attaching a
// disposed or already-attached engine is an error.
func (e *Engine) Attach(target RenderTarget) error {
	e.mu.Lock()
	if e.state != StateUninitialized {
		state := e.state
		e.mu.Unlock()
		return &StateError{Op: "attach", State: state}
	}
	e.state = StateInitializing

	e.baseTiles = ResolveTileSource(e.opts.Tiles)
	e.view = newView(e.opts.Center, e.opts.Zoom)
	w, h := target.Size()
	e.view.setSize(w, h)
	e.rebuildLayers(e.opts.Lines, e.opts.Markers)

	e.state = StateReady
	onReady := e.opts.Callbacks.OnReady
	ask := e.opts.AskForPosition
	e.mu.Unlock()

	if onReady != nil {
		onReady(e)
	}
	if ask {
		e.RequestUserLocation()
	}
	return nil
}

// StateError reports an operation attempted in the wrong lifecycle
// state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return "mapview: cannot " + e.Op + " in state " + e.State.String()
}

// SetCallbacks replaces the full callback record.
func (e *Engine) SetCallbacks(cb Callbacks) {
	e.mu.Lock()
	e.opts.Callbacks = cb
	e.mu.Unlock()
}

// Center returns the current view center in geographic coordinates.
func (e *Engine) Center() geo.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil {
		return e.opts.Center
	}
	return e.view.Center()
}

// Zoom returns the current zoom level.
func (e *Engine) Zoom() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view == nil {
		return e.opts.Zoom
	}
	return e.view.Zoom()
}

// SetCenter recenters the view. The center-changed notification fires
// synchronously, once, and only if the value actually changed.
func (e *Engine) SetCenter(c geo.Point) {
	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		return
	}
	changed := e.view.setCenter(c)
	notify := e.notifier()
	e.mu.Unlock()

	if changed {
		notify.center()
	}
}

// SetZoom changes the zoom level. Marker layers recluster because
// cluster membership depends on resolution.
func (e *Engine) SetZoom(z float64) {
	e.mu.Lock()
	if e.state != StateReady {
		e.mu.Unlock()
		return
	}
	changed := e.view.setZoom(z)
	if changed {
		e.reclusterAll()
	}
	notify := e.notifier()
	e.mu.Unlock()

	if changed {
		notify.zoom()
	}
}

// Pan moves the view by a pixel delta. It is a built-in interaction
// and is suppressed when interactions are disabled.
func (e *Engine) Pan(dx, dy float64) {
	e.mu.Lock()
	if e.state != StateReady || e.opts.DisableInteractions {
		e.mu.Unlock()
		return
	}
	res := e.view.Resolution()
	c := geo.Unproject(orb.Point{
		e.view.center[0] - dx*res,
		e.view.center[1] + dy*res,
	})
	changed := e.view.setCenter(c)
	notify := e.notifier()
	e.mu.Unlock()

	if changed {
		notify.center()
	}
}

// ZoomBy adjusts zoom by a delta. Like Pan, it is a built-in
// interaction subject to DisableInteractions.
func (e *Engine) ZoomBy(delta float64) {
	e.mu.Lock()
	if e.state != StateReady || e.opts.DisableInteractions {
		e.mu.Unlock()
		return
	}
	changed := e.view.setZoom(e.view.Zoom() + delta)
	if changed {
		e.reclusterAll()
	}
	notify := e.notifier()
	e.mu.Unlock()

	if changed {
		notify.zoom()
	}
}

// UpdateData replaces the rendered line and marker groups as one
// atomic swap: when the call returns, the attached layers are exactly
// the layers of the new groups.
func (e *Engine) UpdateData(lines []LineGroup, markers []MarkerGroup) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return
	}
	e.opts.Lines = lines
	e.opts.Markers = markers
	e.rebuildLayers(lines, markers)
}

// Layers returns the attached layers in draw order, lines below
// markers.
func (e *Engine) Layers() []*Layer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Layer, len(e.layers))
	copy(out, e.layers)
	return out
}

// BaseTiles returns the resolved base imagery source.
func (e *Engine) BaseTiles() TileSource {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseTiles
}

// Locating reports whether a geolocation request is in flight.
func (e *Engine) Locating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locating
}

// RequestUserLocation issues a one-shot asynchronous geolocation
// query. On success the view recenters to the resolved position; on
// failure, or when no locator is configured, the position-refused
// callback fires instead. A request made while one is pending is
// ignored.
func (e *Engine) RequestUserLocation() {
	e.mu.Lock()
	if e.state != StateReady || e.locating {
		e.mu.Unlock()
		return
	}
	locator := e.opts.Locator
	if locator == nil {
		refused := e.opts.Callbacks.OnPositionRefused
		e.mu.Unlock()
		if refused != nil {
			refused()
		}
		return
	}
	e.locating = true
	e.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), locateTimeout)
		defer cancel()
		pos, err := locator.Locate(ctx)

		e.mu.Lock()
		e.locating = false
		if e.state != StateReady {
			// Disposed while pending: drop the response.
			e.mu.Unlock()
			return
		}
		if err != nil {
			refused := e.opts.Callbacks.OnPositionRefused
			e.mu.Unlock()
			if refused != nil {
				refused()
			}
			return
		}
		changed := e.view.setCenter(pos)
		notify := e.notifier()
		e.mu.Unlock()

		if changed {
			notify.center()
		}
	}()
}

// Dispose tears the engine down: all layers are released and further
// calls become no-ops. Dispose is idempotent.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDisposed {
		return
	}
	for _, l := range e.layers {
		l.release()
	}
	e.layers = nil
	e.state = StateDisposed
}

// rebuildLayers swaps in the layer set for the new groups. A marker
// group whose geometry and clustering are unchanged keeps its layer,
// so the cluster set stays stable across style-only updates; every
// other old layer is released. Caller holds the lock.
func (e *Engine) rebuildLayers(lines []LineGroup, markers []MarkerGroup) {
	old := e.layers
	e.layers = nil

	defaults := clusterer{
		distance:    e.opts.ClusterDistance,
		minDistance: e.opts.ClusterMinDistance,
	}
	res := e.view.Resolution()

	var oldMarkers []*Layer
	for _, l := range old {
		if l.kind == markerLayerKind {
			oldMarkers = append(oldMarkers, l)
		}
	}

	// Lines first, then markers: markers draw on top and win
	// hit-testing ties.
	for _, g := range lines {
		e.layers = append(e.layers, newLineLayer(g))
	}
	adopted := make(map[*Layer]bool)
	for i, g := range markers {
		if i < len(oldMarkers) && oldMarkers[i].adopt(g, defaults) {
			adopted[oldMarkers[i]] = true
			e.layers = append(e.layers, oldMarkers[i])
			continue
		}
		e.layers = append(e.layers, newMarkerLayer(g, defaults, res))
	}

	for _, l := range old {
		if !adopted[l] {
			l.release()
		}
	}
}

// reclusterAll recomputes marker clusters at the current resolution.
// Caller holds the lock.
func (e *Engine) reclusterAll() {
	res := e.view.Resolution()
	for _, l := range e.layers {
		l.recluster(res)
	}
}

// notifier snapshots the state-change callbacks and current view
// values under the lock, so they can fire after it is released.
type notification struct {
	onCenter  func(geo.Point)
	onZoom    func(float64)
	centerVal geo.Point
	zoomVal   float64
}

func (e *Engine) notifier() notification {
	return notification{
		onCenter:  e.opts.Callbacks.OnCenterChanged,
		onZoom:    e.opts.Callbacks.OnZoomChanged,
		centerVal: e.view.Center(),
		zoomVal:   e.view.Zoom(),
	}
}

func (n notification) center() {
	if n.onCenter != nil {
		n.onCenter(n.centerVal)
	}
}

func (n notification) zoom() {
	if n.onZoom != nil {
		n.onZoom(n.zoomVal)
	}
}
