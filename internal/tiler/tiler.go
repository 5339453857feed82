// Package tiler encodes trail segments as Mapbox vector tiles, built
// per request from live data. Segment status changes with every
// contribution, so tiles are not precomputed.
package tiler

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/simplify"

	"github.com/Rock-n-Donuts/infovelo-web/internal/service"
)

// LayerName is the MVT layer carrying the segments.
const LayerName = "segments"

// SegmentTile encodes the segments intersecting the tile as a gzipped
// MVT. An empty tile returns nil data and no error.
func SegmentTile(segments []service.Segment, tile maptile.Tile) ([]byte, error) {
	bound := tile.Bound()

	fc := geojson.NewFeatureCollection()
	for _, seg := range segments {
		ls := lineString(seg)
		if len(ls) < 2 || !ls.Bound().Intersects(bound) {
			continue
		}
		f := geojson.NewFeature(ls)
		f.Properties["id"] = seg.ID
		f.Properties["name"] = seg.Name
		f.Properties["status"] = seg.Status
		f.Properties["color"] = service.StatusColor(seg.Status)
		fc.Append(f)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(LayerName, fc)
	if eps := simplifyEpsilon(tile.Z); eps > 0 {
		layer.Simplify(simplify.DouglasPeucker(eps))
	}
	layer.Clip(bound)
	layer.ProjectToTile(tile)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, fmt.Errorf("encode tile %d/%d/%d: %w", tile.Z, tile.X, tile.Y, err)
	}
	return data, nil
}

// lineString converts a segment's vertices to geographic geometry.
func lineString(seg service.Segment) orb.LineString {
	ls := make(orb.LineString, 0, len(seg.Coords))
	for _, p := range seg.Coords {
		if !p.Valid() {
			continue
		}
		ls = append(ls, orb.Point{p.Lon, p.Lat})
	}
	return ls
}

// simplifyEpsilon returns the simplification tolerance in degrees for
// a zoom level. High zooms keep full detail.
func simplifyEpsilon(z maptile.Zoom) float64 {
	switch {
	case z >= 14:
		return 0
	case z >= 10:
		return 0.0001
	case z >= 6:
		return 0.001
	default:
		return 0.01
	}
}
