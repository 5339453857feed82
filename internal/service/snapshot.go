package service

import (
	"context"
	"sort"
	"time"

	"github.com/Rock-n-Donuts/infovelo-web/internal/mapview"
)

// Snapshot is one poll result: the full segment inventory plus the
// contributions received after the requested time. Date is echoed back
// by clients as the next poll's since value.
type Snapshot struct {
	Date          time.Time      `json:"date" doc:"Server time of this snapshot"`
	Segments      []Segment      `json:"segments" doc:"Trail segment inventory"`
	Contributions []Contribution `json:"contributions" doc:"Contributions received after the since time"`
}

type segmentLister interface {
	List() []Segment
}

type contributionLister interface {
	ListSince(ctx context.Context, since time.Time) ([]Contribution, error)
}

// SnapshotService assembles map snapshots from the segment and
// contribution stores.
type SnapshotService struct {
	segments      segmentLister
	contributions contributionLister
}

// NewSnapshotService creates a snapshot service over the two stores.
func NewSnapshotService(segments segmentLister, contributions contributionLister) *SnapshotService {
	return &SnapshotService{segments: segments, contributions: contributions}
}

// Snapshot returns the current inventory and the contributions newer
// than since. A zero since returns all contributions.
func (s *SnapshotService) Snapshot(ctx context.Context, since time.Time) (Snapshot, error) {
	contribs, err := s.contributions.ListSince(ctx, since)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Date:          time.Now().UTC(),
		Segments:      s.segments.List(),
		Contributions: contribs,
	}, nil
}

const segmentLineWidth = 5

// Marker halo color by contribution kind, used for the cluster count
// label.
var kindColors = map[string]string{
	"quality": "#4CAF50",
	"issue":   "#F09035",
}

// KindColor returns the marker color for a contribution kind.
func KindColor(kind string) string {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return kindColors["issue"]
}

// MapGroups translates domain records into the map engine's renderable
// groups: one line group per segment status, one marker group per
// contribution kind and type. Group order is deterministic.
func MapGroups(segments []Segment, contributions []Contribution) ([]mapview.LineGroup, []mapview.MarkerGroup) {
	byStatus := make(map[string][]mapview.LineFeature)
	for _, seg := range segments {
		if len(seg.Coords) < 2 {
			continue
		}
		byStatus[seg.Status] = append(byStatus[seg.Status], mapview.LineFeature{
			Coords: seg.Coords,
			Data: mapview.Attributes{
				"id":     seg.ID,
				"name":   seg.Name,
				"status": seg.Status,
			},
			Clickable: true,
		})
	}

	statuses := make([]string, 0, len(byStatus))
	for status := range byStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	var lines []mapview.LineGroup
	for _, status := range statuses {
		lines = append(lines, mapview.LineGroup{
			Color:    StatusColor(status),
			Width:    segmentLineWidth,
			Features: byStatus[status],
		})
	}

	type groupKey struct{ kind, typ string }
	byType := make(map[groupKey][]mapview.MarkerFeature)
	for _, c := range contributions {
		key := groupKey{c.Kind, c.Type}
		byType[key] = append(byType[key], mapview.MarkerFeature{
			Coords: c.Coords,
			Data: mapview.Attributes{
				"id":        c.ID,
				"kind":      c.Kind,
				"type":      c.Type,
				"comment":   c.Comment,
				"photo":     c.Photo,
				"name":      c.Name,
				"createdAt": c.CreatedAt,
			},
			Clickable: true,
		})
	}

	keys := make([]groupKey, 0, len(byType))
	for key := range byType {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].typ < keys[j].typ
	})

	var markers []mapview.MarkerGroup
	for _, key := range keys {
		markers = append(markers, mapview.MarkerGroup{
			IconSrc:  "/icons/" + key.typ + ".svg",
			Scale:    1,
			Color:    KindColor(key.kind),
			Features: byType[key],
		})
	}
	return lines, markers
}
