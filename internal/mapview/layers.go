package mapview

import (
	"github.com/paulmach/orb"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
)

// Attributes is the opaque key/value payload attached to a feature.
// The engine never interprets it; it is handed back verbatim on click.
type Attributes map[string]any

// LineFeature is one polyline of a line group, in geographic
// coordinates.
type LineFeature struct {
	Coords    []geo.Point `json:"coords"`
	Data      Attributes  `json:"data,omitempty"`
	Clickable bool        `json:"clickable"`
}

// LineGroup renders as one vector layer with a shared stroke style.
type LineGroup struct {
	Color    string        `json:"color"`
	Width    float64       `json:"width"`
	Features []LineFeature `json:"features"`
}

// MarkerFeature is one point of a marker group.
type MarkerFeature struct {
	Coords    geo.Point  `json:"coords"`
	Data      Attributes `json:"data,omitempty"`
	Clickable bool       `json:"clickable"`
}

// MarkerGroup renders as one vector layer of (optionally clustered)
// icon markers.
type MarkerGroup struct {
	IconSrc            string          `json:"iconSrc"`
	Scale              float64         `json:"scale"`
	Color              string          `json:"color"`
	ClusterDistance    float64         `json:"clusterDistance,omitempty"`
	ClusterMinDistance float64         `json:"clusterMinDistance,omitempty"`
	WithoutCluster     bool            `json:"withoutCluster,omitempty"`
	Features           []MarkerFeature `json:"features"`
}

// Feature is a single renderable geometry with its attributes, in
// projected coordinates.
type Feature struct {
	Geometry   orb.Geometry
	Attributes Attributes
	Clickable  bool
}

type layerKind int

const (
	lineLayerKind layerKind = iota
	markerLayerKind
)

// Layer owns a feature source and its style resolver. Layers are
// owned exclusively by the engine; removing one releases its features.
type Layer struct {
	kind     layerKind
	features []*Feature

	// Line layers: one static style.
	lineStyle *Style
	lineWidth float64

	// Marker layers: per-cluster-size style cache and current cluster
	// set, recomputed when the resolution changes.
	styles    *styleCache
	clusterer *clusterer // nil when the group opted out
	clusters  []*ClusterFeature
}

// Features exposes the layer's raw feature source.
func (l *Layer) Features() []*Feature { return l.features }

// Style returns the static style of a line layer, nil for markers.
func (l *Layer) Style() *Style { return l.lineStyle }

// StyleFor returns the render style for a cluster on a marker layer.
func (l *Layer) StyleFor(c *ClusterFeature) *Style {
	if l.styles == nil {
		return nil
	}
	return l.styles.get(c.Size())
}

// Clusters returns the current render set of a marker layer.
func (l *Layer) Clusters() []*ClusterFeature { return l.clusters }

func newLineLayer(g LineGroup) *Layer {
	color := g.Color
	if color == "" {
		color = defaultLineColor
	}
	width := g.Width
	if width <= 0 {
		width = defaultLineWidth
	}

	l := &Layer{
		kind:      lineLayerKind,
		lineStyle: &Style{Stroke: &Stroke{Color: color, Width: width}},
		lineWidth: width,
	}
	for _, f := range g.Features {
		ls := geo.ProjectLine(f.Coords)
		if len(ls) < 2 {
			continue
		}
		l.features = append(l.features, &Feature{
			Geometry:   ls,
			Attributes: f.Data,
			Clickable:  f.Clickable,
		})
	}
	return l
}

func newMarkerLayer(g MarkerGroup, defaults clusterer, resolution float64) *Layer {
	l := &Layer{
		kind:   markerLayerKind,
		styles: newStyleCache(g),
	}
	for _, f := range g.Features {
		if !f.Coords.Valid() {
			continue
		}
		l.features = append(l.features, &Feature{
			Geometry:   geo.Project(f.Coords),
			Attributes: f.Data,
			Clickable:  f.Clickable,
		})
	}

	if !g.WithoutCluster {
		c := defaults
		if g.ClusterDistance > 0 {
			c.distance = g.ClusterDistance
		}
		if g.ClusterMinDistance > 0 {
			c.minDistance = g.ClusterMinDistance
		}
		l.clusterer = &c
	}
	l.recluster(resolution)
	return l
}

// adopt reuses a marker layer for a group whose geometry and
// clustering are unchanged: the cluster set survives, attributes
// refresh in place, and the style cache resets only when the group's
// style parameters differ. Reports whether the layer was reused.
func (l *Layer) adopt(g MarkerGroup, defaults clusterer) bool {
	if l.kind != markerLayerKind {
		return false
	}
	if g.WithoutCluster != (l.clusterer == nil) {
		return false
	}
	if l.clusterer != nil {
		c := defaults
		if g.ClusterDistance > 0 {
			c.distance = g.ClusterDistance
		}
		if g.ClusterMinDistance > 0 {
			c.minDistance = g.ClusterMinDistance
		}
		if *l.clusterer != c {
			return false
		}
	}

	valid := make([]MarkerFeature, 0, len(g.Features))
	for _, f := range g.Features {
		if f.Coords.Valid() {
			valid = append(valid, f)
		}
	}
	if len(valid) != len(l.features) {
		return false
	}
	for i, f := range valid {
		pt, ok := l.features[i].Geometry.(orb.Point)
		if !ok || pt != geo.Project(f.Coords) {
			return false
		}
	}

	for i, f := range valid {
		l.features[i].Attributes = f.Data
		l.features[i].Clickable = f.Clickable
	}
	if l.styles.changed(g) {
		l.styles.reset(g)
	}
	return true
}

// recluster rebuilds the render set of a marker layer for the given
// resolution. Line layers and unclustered layers keep a stable set.
func (l *Layer) recluster(resolution float64) {
	if l.kind != markerLayerKind {
		return
	}
	if l.clusterer == nil {
		if l.clusters == nil {
			l.clusters = singletons(l.features)
		}
		return
	}
	l.clusters = l.clusterer.cluster(l.features, resolution)
}

// release drops the layer's feature source.
func (l *Layer) release() {
	l.features = nil
	l.clusters = nil
	l.styles = nil
}
