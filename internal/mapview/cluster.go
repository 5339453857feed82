package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ClusterFeature aggregates the point features that fall within the
// cluster distance of its anchor at the current resolution. A size-1
// cluster is a plain marker; hit dispatch unwraps it.
type ClusterFeature struct {
	// Anchor is the projected position the cluster renders at, the
	// mean of its member positions.
	Anchor orb.Point
	// Members are the underlying raw features, in input order.
	Members []*Feature
}

// Size returns the number of aggregated features.
func (c *ClusterFeature) Size() int { return len(c.Members) }

// Bound returns the extent of the member positions.
func (c *ClusterFeature) Bound() orb.Bound {
	b := orb.Bound{Min: c.Members[0].Geometry.(orb.Point), Max: c.Members[0].Geometry.(orb.Point)}
	for _, f := range c.Members[1:] {
		b = b.Extend(f.Geometry.(orb.Point))
	}
	return b
}

// clusterer groups point features by projected pixel distance.
// Distances are configured in pixels; the resolution passed to cluster
// converts them to meters, so membership depends on zoom but not pan.
type clusterer struct {
	distance    float64
	minDistance float64
}

// cluster partitions features into clusters at the given resolution.
// Each feature joins the first cluster whose seed it is within
// distance of, scanning in input order, so the output is deterministic
// for a fixed input. Clusters whose anchors end up closer than
// minDistance pixels are merged into the earlier cluster.
func (c *clusterer) cluster(features []*Feature, resolution float64) []*ClusterFeature {
	if len(features) == 0 {
		return nil
	}

	radius := c.distance * resolution
	assigned := make([]bool, len(features))
	var clusters []*ClusterFeature

	for i, f := range features {
		if assigned[i] {
			continue
		}
		seed := f.Geometry.(orb.Point)
		members := make([]*Feature, 0, 1)
		for j := i; j < len(features); j++ {
			if assigned[j] {
				continue
			}
			p := features[j].Geometry.(orb.Point)
			if planar.Distance(seed, p) <= radius {
				assigned[j] = true
				members = append(members, features[j])
			}
		}
		clusters = append(clusters, &ClusterFeature{
			Anchor:  centroid(members),
			Members: members,
		})
	}

	if c.minDistance <= 0 {
		return clusters
	}

	// Merge pass: fold clusters into an earlier cluster when their
	// anchors are within minDistance pixels. The earlier anchor wins.
	minRadius := c.minDistance * resolution
	merged := make([]*ClusterFeature, 0, len(clusters))
	for _, cl := range clusters {
		var host *ClusterFeature
		for _, m := range merged {
			if planar.Distance(m.Anchor, cl.Anchor) < minRadius {
				host = m
				break
			}
		}
		if host != nil {
			host.Members = append(host.Members, cl.Members...)
			continue
		}
		merged = append(merged, cl)
	}
	return merged
}

// singletons wraps each feature in its own size-1 cluster, used when a
// marker group opts out of clustering.
func singletons(features []*Feature) []*ClusterFeature {
	out := make([]*ClusterFeature, 0, len(features))
	for _, f := range features {
		out = append(out, &ClusterFeature{
			Anchor:  f.Geometry.(orb.Point),
			Members: []*Feature{f},
		})
	}
	return out
}

func centroid(features []*Feature) orb.Point {
	var sx, sy float64
	for _, f := range features {
		p := f.Geometry.(orb.Point)
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(features))
	return orb.Point{sx / n, sy / n}
}
