// Package server composes the infovelo HTTP surface: the Huma REST
// API, the SSE event stream, tile routes, and static assets.
package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/paulmach/orb/maptile"

	"github.com/Rock-n-Donuts/infovelo-web/internal/api"
	"github.com/Rock-n-Donuts/infovelo-web/internal/api/live"
	"github.com/Rock-n-Donuts/infovelo-web/internal/db"
	"github.com/Rock-n-Donuts/infovelo-web/internal/mapview"
	"github.com/Rock-n-Donuts/infovelo-web/internal/service"
	"github.com/Rock-n-Donuts/infovelo-web/internal/templates"
	"github.com/Rock-n-Donuts/infovelo-web/internal/tiler"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // Path to web/ directory for static files and templates

	// Base imagery credentials. Dev mode falls back to the public OSM
	// tile servers.
	Dev            bool
	TileProviderID string
	TileToken      string
}

// Server is the infovelo HTTP server.
type Server struct {
	config    Config
	mux       *http.ServeMux
	humaAPI   huma.API
	services  *api.Services
	bus       *service.EventBus
	baseTiles mapview.TileSource
}

// New creates a new infovelo server.
func New(cfg Config) (*Server, error) {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("infovelo API", "1.0.0")
	humaConfig.Info.Description = "Citizen-reported winter cycling conditions for Montréal: trail segments, contributions, and the map data they render as."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())
	humaAPI := humago.New(mux, humaConfig)

	bus := service.NewEventBus()

	conn, err := db.Get(db.Config{DataDir: cfg.DataDir, DBName: "infovelo"})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	contributions, err := service.NewContributionService(conn, bus)
	if err != nil {
		return nil, err
	}

	segments := service.NewSegmentService(cfg.DataDir, bus)
	services := &api.Services{
		Segment:      segments,
		Contribution: contributions,
		Snapshot:     service.NewSnapshotService(segments, contributions),
		Photo:        service.NewPhotoService(cfg.DataDir),
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		services: services,
		bus:      bus,
		baseTiles: mapview.ResolveTileSource(mapview.TileConfig{
			Dev:        cfg.Dev,
			ProviderID: cfg.TileProviderID,
			Token:      cfg.TileToken,
		}),
	}
	s.routes(conn)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	return db.Close()
}

// Seed loads a YAML segment inventory into the segment store.
func (s *Server) Seed(path string) (int, error) {
	return s.services.Segment.Seed(path)
}

func (s *Server) routes(conn *sql.DB) {
	// REST API.
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, conn != nil).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(conn).RegisterRoutes(s.humaAPI)

	// SSE data-change stream. Fragment templates are optional; without
	// them the stream carries signals only.
	var renderer *templates.Renderer
	if s.config.WebDir != "" {
		fragmentsDir := filepath.Join(s.config.WebDir, "templates", "fragments")
		if r, err := templates.New(fragmentsDir); err == nil {
			renderer = r
		} else {
			slog.Debug("no fragment templates", "dir", fragmentsDir, "err", err)
		}
	}
	live.NewEventHandler(s.bus, s.services.Snapshot, renderer).RegisterRoutes(s.humaAPI)

	// Tile routes. Base imagery redirects to the resolved provider so
	// tokens stay server-side; segment tiles are built live.
	s.mux.HandleFunc("GET /tiles/base/{z}/{x}/{y}", s.handleBaseTile)
	// The {y} value may carry a .mvt suffix; parseTile strips it.
	s.mux.HandleFunc("GET /tiles/segments/{z}/{x}/{y}", s.handleSegmentTile)

	// Contribution photos.
	s.mux.Handle("/photos/", http.StripPrefix("/photos/",
		http.FileServer(http.Dir(s.services.Photo.PhotosDir()))))

	// Static app shell.
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
}

// parseTile reads the {z}/{x}/{y} path values of a tile request.
func parseTile(r *http.Request) (maptile.Tile, error) {
	z, err := strconv.ParseUint(r.PathValue("z"), 10, 32)
	if err != nil || z > 22 {
		return maptile.Tile{}, fmt.Errorf("bad zoom %q", r.PathValue("z"))
	}
	x, err := strconv.ParseUint(strings.TrimSuffix(r.PathValue("x"), ".mvt"), 10, 32)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("bad x %q", r.PathValue("x"))
	}
	y, err := strconv.ParseUint(strings.TrimSuffix(r.PathValue("y"), ".mvt"), 10, 32)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("bad y %q", r.PathValue("y"))
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

func (s *Server) handleBaseTile(w http.ResponseWriter, r *http.Request) {
	t, err := parseTile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, s.baseTiles.URL(t), http.StatusFound)
}

func (s *Server) handleSegmentTile(w http.ResponseWriter, r *http.Request) {
	t, err := parseTile(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := tiler.SegmentTile(s.services.Segment.List(), t)
	if err != nil {
		slog.Error("segment tile failed", "z", t.Z, "x", t.X, "y", t.Y, "err", err)
		http.Error(w, "tile encoding failed", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.mapbox-vector-tile")
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}
