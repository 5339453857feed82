package mapview

import "testing"

func testMarkerGroup() MarkerGroup {
	return MarkerGroup{
		IconSrc: "/icons/contribution.svg",
		Scale:   0.75,
		Color:   "#E02020",
	}
}

func TestStyleCacheReuse(t *testing.T) {
	c := newStyleCache(testMarkerGroup())

	first := c.get(3)
	again := c.get(3)
	if first != again {
		t.Error("same key built a new style object")
	}

	other := c.get(5)
	if other == first {
		t.Error("different keys share a style object")
	}
}

func TestStyleCacheClusterLabel(t *testing.T) {
	c := newStyleCache(testMarkerGroup())

	single := c.get(1)
	if single.Text != nil {
		t.Error("size-1 style should have no count label")
	}
	if single.Icon == nil || single.Icon.Src != "/icons/contribution.svg" {
		t.Fatalf("size-1 style icon = %+v", single.Icon)
	}
	if single.Icon.AnchorX != 0.5 || single.Icon.AnchorY != 1 {
		t.Errorf("icon anchor = %f,%f, want bottom-center", single.Icon.AnchorX, single.Icon.AnchorY)
	}

	multi := c.get(4)
	if multi.Text == nil {
		t.Fatal("size-4 style missing count label")
	}
	if multi.Text.Label != "4" {
		t.Errorf("label = %q, want \"4\"", multi.Text.Label)
	}
	if multi.Text.Scale != 1.5 {
		t.Errorf("label scale = %f, want double the icon scale", multi.Text.Scale)
	}
	if multi.Text.StrokeColor != "#E02020" {
		t.Errorf("label stroke = %q, want the group color", multi.Text.StrokeColor)
	}
}

func TestStyleCacheReset(t *testing.T) {
	g := testMarkerGroup()
	c := newStyleCache(g)
	old := c.get(2)

	if c.changed(g) {
		t.Error("cache reports changed for identical parameters")
	}

	g.Color = "#00A0E0"
	if !c.changed(g) {
		t.Error("cache misses a color change")
	}

	c.reset(g)
	rebuilt := c.get(2)
	if rebuilt == old {
		t.Error("reset kept a stale style object")
	}
	if rebuilt.Text.StrokeColor != "#00A0E0" {
		t.Errorf("rebuilt label stroke = %q", rebuilt.Text.StrokeColor)
	}
}
