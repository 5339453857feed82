// Package service contains the business logic of the infovelo
// platform: trail segments, citizen contributions, and the map
// snapshot assembled from both.
package service

import (
	"time"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
)

// Segment is one trail segment of the winter cycling network. Its
// status is maintained from citizen contributions and renders as a
// colored line on the map.
type Segment struct {
	ID        string      `json:"id,omitempty" doc:"Unique segment identifier" example:"rachel_est"`
	Name      string      `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Rachel Est"`
	Side      string      `json:"side,omitempty" doc:"Side of the street, when the path is one-sided" example:"north"`
	Winter    bool        `json:"winter" doc:"Whether the segment is maintained in winter" example:"true"`
	Status    string      `json:"status" enum:"cleared,snowy,icy,unknown" default:"unknown" doc:"Current surface status"`
	UpdatedAt time.Time   `json:"updatedAt,omitempty" doc:"Last status change"`
	Coords    []geo.Point `json:"coords" required:"true" minItems:"2" doc:"Segment geometry, lon/lat vertices"`
}

// Contribution is one citizen report: either a surface-quality report
// on the trail state or a point issue (hazard) on the network.
type Contribution struct {
	ID        int64     `json:"id,omitempty" doc:"Contribution identifier"`
	Kind      string    `json:"kind" required:"true" enum:"quality,issue" doc:"Report kind" example:"quality"`
	Type      string    `json:"type" required:"true" minLength:"1" maxLength:"40" doc:"Report type within the kind" example:"cleared"`
	Coords    geo.Point `json:"coords" required:"true" doc:"Report location, lon/lat"`
	Comment   string    `json:"comment,omitempty" maxLength:"500" doc:"Free-form comment"`
	Photo     string    `json:"photo,omitempty" doc:"Stored photo path"`
	Name      string    `json:"name,omitempty" maxLength:"100" doc:"Reporter display name"`
	CreatedAt time.Time `json:"createdAt,omitempty" doc:"Server receive time"`
}

// Segment status colors, as rendered on the map.
var statusColors = map[string]string{
	"cleared": "#4CAF50",
	"snowy":   "#F44336",
	"icy":     "#2196F3",
	"unknown": "#9E9E9E",
}

// StatusColor returns the line color for a segment status.
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return statusColors["unknown"]
}
