package tiler

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/maptile"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
	"github.com/Rock-n-Donuts/infovelo-web/internal/service"
)

var montrealSegments = []service.Segment{
	{
		ID:     "rachel_est",
		Name:   "Rachel Est",
		Status: "cleared",
		Coords: []geo.Point{
			{Lon: -73.58, Lat: 45.525},
			{Lon: -73.56, Lat: 45.527},
		},
	},
	{
		ID:     "berri",
		Name:   "Berri",
		Status: "snowy",
		Coords: []geo.Point{
			{Lon: -73.562, Lat: 45.51},
			{Lon: -73.563, Lat: 45.53},
		},
	},
}

// montrealTile covers downtown Montréal at zoom 11.
func montrealTile() maptile.Tile {
	return maptile.At(orb.Point{-73.57, 45.52}, 11)
}

func TestSegmentTileEncodesIntersecting(t *testing.T) {
	data, err := SegmentTile(montrealSegments, montrealTile())
	if err != nil {
		t.Fatalf("tile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("no tile data for intersecting segments")
	}

	layers := decodeTile(t, data)
	if len(layers) != 1 || layers[0].Name != LayerName {
		t.Fatalf("layers = %v", layers)
	}
	if len(layers[0].Features) != 2 {
		t.Errorf("features = %d, want 2", len(layers[0].Features))
	}

	props := layers[0].Features[0].Properties
	if props["status"] == nil || props["color"] == nil || props["id"] == nil {
		t.Errorf("feature properties = %v", props)
	}
}

func TestSegmentTileEmptyOutsideExtent(t *testing.T) {
	// A tile over the Pacific: nothing intersects.
	pacific := maptile.At(orb.Point{-150, 10}, 11)
	data, err := SegmentTile(montrealSegments, pacific)
	if err != nil {
		t.Fatalf("tile: %v", err)
	}
	if data != nil {
		t.Errorf("got %d bytes for an empty tile", len(data))
	}
}

func TestSegmentTileSkipsDegenerate(t *testing.T) {
	segments := []service.Segment{
		{ID: "dot", Status: "unknown", Coords: []geo.Point{{Lon: -73.57, Lat: 45.52}}},
		{ID: "bad", Status: "unknown", Coords: []geo.Point{
			{Lon: -73.57, Lat: 95}, {Lon: -73.56, Lat: 95},
		}},
	}
	data, err := SegmentTile(segments, montrealTile())
	if err != nil {
		t.Fatalf("tile: %v", err)
	}
	if data != nil {
		t.Error("degenerate segments produced tile data")
	}
}

func decodeTile(t *testing.T, data []byte) mvt.Layers {
	t.Helper()
	layers, err := mvt.UnmarshalGzipped(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return layers
}
