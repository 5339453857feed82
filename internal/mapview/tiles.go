package mapview

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// Base imagery: development uses the public OSM raster tiles,
// production a commercial provider addressed by id and access token.
const (
	osmURLTemplate      = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	providerURLTemplate = "https://tile.jawg.io/{id}/{z}/{x}/{y}.png?access-token={token}"
)

// TileConfig selects the base map imagery at construction time.
type TileConfig struct {
	// Dev switches to the free tile source regardless of credentials.
	Dev bool
	// ProviderID and Token identify the commercial tile set.
	ProviderID string
	Token      string
}

// TileSource is a resolved raster tile endpoint with a {z}/{x}/{y}
// URL template.
type TileSource struct {
	Name        string `json:"name"`
	URLTemplate string `json:"urlTemplate"`
}

// ResolveTileSource picks the tile source for a configuration.
// Missing credentials fall back to the development source.
func ResolveTileSource(cfg TileConfig) TileSource {
	if cfg.Dev || cfg.ProviderID == "" || cfg.Token == "" {
		return TileSource{Name: "osm", URLTemplate: osmURLTemplate}
	}
	tmpl := strings.NewReplacer(
		"{id}", cfg.ProviderID,
		"{token}", cfg.Token,
	).Replace(providerURLTemplate)
	return TileSource{Name: "jawg", URLTemplate: tmpl}
}

// URL expands the template for one tile.
func (s TileSource) URL(t maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.Itoa(int(t.X)),
		"{y}", strconv.Itoa(int(t.Y)),
	).Replace(s.URLTemplate)
}
