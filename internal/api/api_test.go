package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/Rock-n-Donuts/infovelo-web/internal/geo"
	"github.com/Rock-n-Donuts/infovelo-web/internal/service"
)

type stubContributions struct {
	items []service.Contribution
}

func (s *stubContributions) ListSince(ctx context.Context, since time.Time) ([]service.Contribution, error) {
	var out []service.Contribution
	for _, c := range s.items {
		if c.CreatedAt.After(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func testServices(t *testing.T) (*Services, *stubContributions) {
	t.Helper()
	segments := service.NewSegmentService(t.TempDir(), nil)
	contribs := &stubContributions{}
	return &Services{
		Segment:  segments,
		Snapshot: service.NewSnapshotService(segments, contribs),
		Photo:    service.NewPhotoService(t.TempDir()),
	}, contribs
}

func TestHealth(t *testing.T) {
	_, api := humatest.New(t)
	svc, _ := testServices(t)
	RegisterRoutes(api, svc)

	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}

	var body HealthBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" {
		t.Errorf("health = %+v", body)
	}
}

func TestSegmentsCRUD(t *testing.T) {
	_, api := humatest.New(t)
	svc, _ := testServices(t)
	RegisterRoutes(api, svc)

	resp := api.Post("/api/v1/segments", map[string]any{
		"name":   "Rachel Est",
		"winter": true,
		"status": "unknown",
		"coords": []map[string]float64{
			{"lon": -73.57, "lat": 45.52},
			{"lon": -73.56, "lat": 45.52},
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", resp.Code, resp.Body.String())
	}

	var created service.Segment
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID != "rachel_est" {
		t.Errorf("created ID = %q", created.ID)
	}

	resp = api.Get("/api/v1/segments/rachel_est")
	if resp.Code != http.StatusOK {
		t.Fatalf("get status = %d", resp.Code)
	}

	resp = api.Put("/api/v1/segments/rachel_est/status", map[string]any{
		"status": "cleared",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status update = %d: %s", resp.Code, resp.Body.String())
	}
	var updated service.Segment
	if err := json.Unmarshal(resp.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Status != "cleared" {
		t.Errorf("status after update = %q", updated.Status)
	}

	resp = api.Put("/api/v1/segments/rachel_est/status", map[string]any{
		"status": "flooded",
	})
	if resp.Code == http.StatusOK {
		t.Error("invalid status accepted")
	}

	resp = api.Delete("/api/v1/segments/rachel_est")
	if resp.Code != http.StatusOK {
		t.Fatalf("delete status = %d", resp.Code)
	}
	resp = api.Get("/api/v1/segments/rachel_est")
	if resp.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", resp.Code)
	}
}

func TestGetMap(t *testing.T) {
	_, api := humatest.New(t)
	svc, contribs := testServices(t)
	RegisterRoutes(api, svc)

	if _, err := svc.Segment.Create(service.Segment{
		Name:   "Rachel Est",
		Status: "cleared",
		Coords: []geo.Point{{Lon: -73.57, Lat: 45.52}, {Lon: -73.56, Lat: 45.52}},
	}); err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	contribs.items = []service.Contribution{
		{ID: 1, Kind: "issue", Type: "pothole", Coords: geo.Point{Lon: -73.57, Lat: 45.52}, CreatedAt: now},
		{ID: 2, Kind: "quality", Type: "cleared", Coords: geo.Point{Lon: -73.56, Lat: 45.52}, CreatedAt: now.Add(-2 * time.Hour)},
	}

	resp := api.Get("/api/v1/map")
	if resp.Code != http.StatusOK {
		t.Fatalf("map status = %d: %s", resp.Code, resp.Body.String())
	}
	var body MapBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Segments) != 1 || len(body.Contributions) != 2 {
		t.Errorf("snapshot = %d segments, %d contributions", len(body.Segments), len(body.Contributions))
	}
	if len(body.Lines) != 1 || len(body.Markers) != 2 {
		t.Errorf("groups = %d lines, %d markers", len(body.Lines), len(body.Markers))
	}
	if body.Date.IsZero() {
		t.Error("snapshot date missing")
	}

	// Incremental poll: only the newer contribution comes back.
	since := now.Add(-time.Hour).Format(time.RFC3339)
	resp = api.Get("/api/v1/map?since=" + since)
	if resp.Code != http.StatusOK {
		t.Fatalf("incremental map status = %d", resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Contributions) != 1 || body.Contributions[0].ID != 1 {
		t.Errorf("incremental contributions = %+v", body.Contributions)
	}
}

func TestUploadPhotoWithoutGPS(t *testing.T) {
	_, api := humatest.New(t)
	svc, _ := testServices(t)
	RegisterRoutes(api, svc)

	// A bare JPEG with no EXIF block: stored, but not located.
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	resp := api.Post("/api/v1/photos?filename=pothole.jpg",
		"Content-Type: image/jpeg",
		bytes.NewReader(jpeg),
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", resp.Code, resp.Body.String())
	}

	var body PhotoUploadBody
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Name == "" {
		t.Error("no stored name returned")
	}
	if body.Located || body.Coords != nil {
		t.Errorf("photo without GPS reported located: %+v", body)
	}
}

func TestUploadPhotoRejectsBadName(t *testing.T) {
	_, api := humatest.New(t)
	svc, _ := testServices(t)
	RegisterRoutes(api, svc)

	resp := api.Post("/api/v1/photos?filename=../evil.jpg",
		"Content-Type: image/jpeg",
		bytes.NewReader([]byte{0xFF, 0xD8, 0xFF, 0xD9}),
	)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("path traversal name got status %d", resp.Code)
	}
}
