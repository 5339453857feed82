package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// SegmentService manages the trail segment inventory. Segments change
// rarely (a few hundred records maintained by hand), so they live in a
// JSON file under the data directory rather than the database.
type SegmentService struct {
	dataDir  string
	bus      *EventBus
	segments map[string]Segment
	mu       sync.RWMutex
}

// NewSegmentService creates a segment service backed by
// dataDir/segments.json. A nil bus selects DefaultBus.
func NewSegmentService(dataDir string, bus *EventBus) *SegmentService {
	if bus == nil {
		bus = DefaultBus
	}
	s := &SegmentService{
		dataDir:  dataDir,
		bus:      bus,
		segments: make(map[string]Segment),
	}
	s.loadFromDisk()
	return s
}

// List returns all segments sorted by ID.
func (s *SegmentService) List() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Segment, 0, len(s.segments))
	for _, seg := range s.segments {
		out = append(out, seg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a segment by ID.
func (s *SegmentService) Get(id string) (Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seg, ok := s.segments[id]
	return seg, ok
}

// Create adds a new segment.
func (s *SegmentService) Create(seg Segment) (Segment, error) {
	s.mu.Lock()

	if seg.ID == "" {
		seg.ID = generateID(seg.Name)
	}
	if _, exists := s.segments[seg.ID]; exists {
		s.mu.Unlock()
		return Segment{}, fmt.Errorf("segment %q already exists", seg.ID)
	}
	if seg.Status == "" {
		seg.Status = "unknown"
	}
	seg.UpdatedAt = time.Now().UTC()

	s.segments[seg.ID] = seg
	if err := s.saveToDisk(); err != nil {
		delete(s.segments, seg.ID)
		s.mu.Unlock()
		return Segment{}, err
	}
	s.mu.Unlock()

	s.publish("created", seg.ID)
	return seg, nil
}

// Update replaces a segment by ID.
func (s *SegmentService) Update(id string, seg Segment) (Segment, error) {
	s.mu.Lock()

	if _, exists := s.segments[id]; !exists {
		s.mu.Unlock()
		return Segment{}, fmt.Errorf("segment %q not found", id)
	}
	seg.ID = id
	seg.UpdatedAt = time.Now().UTC()
	s.segments[id] = seg
	if err := s.saveToDisk(); err != nil {
		s.mu.Unlock()
		return Segment{}, err
	}
	s.mu.Unlock()

	s.publish("updated", id)
	return seg, nil
}

// SetStatus changes a segment's surface status, as derived from
// incoming quality contributions.
func (s *SegmentService) SetStatus(id, status string) (Segment, error) {
	if _, ok := statusColors[status]; !ok {
		return Segment{}, fmt.Errorf("unknown segment status %q", status)
	}

	s.mu.Lock()
	seg, exists := s.segments[id]
	if !exists {
		s.mu.Unlock()
		return Segment{}, fmt.Errorf("segment %q not found", id)
	}
	seg.Status = status
	seg.UpdatedAt = time.Now().UTC()
	s.segments[id] = seg
	if err := s.saveToDisk(); err != nil {
		s.mu.Unlock()
		return Segment{}, err
	}
	s.mu.Unlock()

	s.publish("updated", id)
	return seg, nil
}

// Delete removes a segment by ID.
func (s *SegmentService) Delete(id string) error {
	s.mu.Lock()

	if _, exists := s.segments[id]; !exists {
		s.mu.Unlock()
		return fmt.Errorf("segment %q not found", id)
	}
	delete(s.segments, id)
	if err := s.saveToDisk(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish("deleted", id)
	return nil
}

// Seed loads segments from a YAML inventory file, skipping IDs that
// already exist. It returns the number of segments added.
func (s *SegmentService) Seed(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seed []Segment
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, seg := range seed {
		if seg.ID == "" {
			seg.ID = generateID(seg.Name)
		}
		if _, exists := s.segments[seg.ID]; exists {
			continue
		}
		if seg.Status == "" {
			seg.Status = "unknown"
		}
		if seg.UpdatedAt.IsZero() {
			seg.UpdatedAt = time.Now().UTC()
		}
		s.segments[seg.ID] = seg
		added++
	}
	if added > 0 {
		if err := s.saveToDisk(); err != nil {
			return 0, err
		}
	}
	return added, nil
}

func (s *SegmentService) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(Event{Resource: "segments", Action: action, ID: id})
	}
}

// configFile returns the path to the segments file.
func (s *SegmentService) configFile() string {
	return filepath.Join(s.dataDir, "segments.json")
}

// loadFromDisk loads the segment inventory. A missing or unreadable
// file starts the service empty.
func (s *SegmentService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		return
	}

	var segments map[string]Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return
	}
	s.segments = segments
}

// saveToDisk persists the segment inventory. Caller holds the lock.
func (s *SegmentService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.segments, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configFile(), data, 0644)
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, " ", "_")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
