// Package locate provides the map engine's one-shot geolocation
// backends.
package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
)

// Static always resolves to a fixed position. Useful for kiosks and
// tests.
type Static struct {
	Position geo.Point
}

func (s Static) Locate(ctx context.Context) (geo.Point, error) {
	if !s.Position.Valid() {
		return geo.Point{}, fmt.Errorf("static position out of range: %v", s.Position)
	}
	return s.Position, nil
}

// ipResponse is the subset of an ip-api style lookup response this
// package needs.
type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// HTTP resolves a coarse position from an ip-api style geolocation
// endpoint. The endpoint receives a GET and answers a JSON document
// with status, lat, and lon fields.
type HTTP struct {
	Endpoint string
	Client   *http.Client
}

func (h *HTTP) Locate(ctx context.Context) (geo.Point, error) {
	if h.Endpoint == "" {
		return geo.Point{}, errors.New("locate: no endpoint configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Endpoint, nil)
	if err != nil {
		return geo.Point{}, err
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		slog.Debug("locate request failed", "err", err)
		return geo.Point{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("locate: endpoint returned %s", resp.Status)
	}

	var r ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return geo.Point{}, fmt.Errorf("locate: decode response: %w", err)
	}
	if r.Status != "" && r.Status != "success" {
		return geo.Point{}, fmt.Errorf("locate: lookup failed: %s", r.Message)
	}

	p := geo.Point{Lon: r.Lon, Lat: r.Lat}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("locate: position out of range: %v", p)
	}
	return p, nil
}
