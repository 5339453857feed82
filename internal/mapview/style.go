package mapview

import "strconv"

// Style describes how a layer or cluster renders. Styles are plain
// values handed to the renderer; the engine only builds and caches
// them.
type Style struct {
	Stroke *Stroke `json:"stroke,omitempty"`
	Icon   *Icon   `json:"icon,omitempty"`
	Text   *Text   `json:"text,omitempty"`
}

// Stroke styles line geometry.
type Stroke struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Icon styles a marker image. Anchor is fractional: 0.5/1 pins the
// bottom-center of the image to the feature position.
type Icon struct {
	Src     string  `json:"src"`
	Scale   float64 `json:"scale"`
	AnchorX float64 `json:"anchorX"`
	AnchorY float64 `json:"anchorY"`
}

// Text styles the cluster count label.
type Text struct {
	Label       string  `json:"label"`
	OffsetX     float64 `json:"offsetX"`
	OffsetY     float64 `json:"offsetY"`
	Scale       float64 `json:"scale"`
	Font        string  `json:"font"`
	FillColor   string  `json:"fillColor"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
}

const clusterLabelFont = "12px Arial"

// styleCache memoizes marker styles per cluster size for one marker
// layer. The first request for a size builds the style; later requests
// return the same *Style. reset discards everything when the group's
// style parameters change.
type styleCache struct {
	iconSrc string
	scale   float64
	color   string
	bySize  map[int]*Style
}

func newStyleCache(g MarkerGroup) *styleCache {
	c := &styleCache{}
	c.reset(g)
	return c
}

func (c *styleCache) reset(g MarkerGroup) {
	c.iconSrc = g.IconSrc
	c.scale = g.Scale
	c.color = g.Color
	c.bySize = make(map[int]*Style)
}

// changed reports whether the group's style-affecting parameters
// differ from the ones the cache was built with.
func (c *styleCache) changed(g MarkerGroup) bool {
	return c.iconSrc != g.IconSrc || c.scale != g.Scale || c.color != g.Color
}

func (c *styleCache) get(size int) *Style {
	if s, ok := c.bySize[size]; ok {
		return s
	}

	s := &Style{
		Icon: &Icon{
			Src:     c.iconSrc,
			Scale:   c.scale,
			AnchorX: 0.5,
			AnchorY: 1,
		},
	}
	if size > 1 {
		s.Text = &Text{
			Label:       strconv.Itoa(size),
			OffsetX:     6,
			OffsetY:     -3,
			Scale:       c.scale * 2,
			Font:        clusterLabelFont,
			FillColor:   "#FFF",
			StrokeColor: c.color,
			StrokeWidth: 5,
		}
	}
	c.bySize[size] = s
	return s
}
