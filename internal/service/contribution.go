package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ContributionService persists citizen reports in DuckDB. Reports are
// append-only; the map snapshot queries them incrementally by receive
// time.
type ContributionService struct {
	db  *sql.DB
	bus *EventBus
}

const contributionSchema = `
CREATE SEQUENCE IF NOT EXISTS contributions_seq;
CREATE TABLE IF NOT EXISTS contributions (
	id         BIGINT PRIMARY KEY DEFAULT nextval('contributions_seq'),
	kind       VARCHAR NOT NULL,
	type       VARCHAR NOT NULL,
	lon        DOUBLE NOT NULL,
	lat        DOUBLE NOT NULL,
	comment    VARCHAR,
	photo      VARCHAR,
	name       VARCHAR,
	created_at TIMESTAMP NOT NULL
);
`

// NewContributionService creates the service and its schema. A nil
// bus selects DefaultBus.
func NewContributionService(db *sql.DB, bus *EventBus) (*ContributionService, error) {
	if bus == nil {
		bus = DefaultBus
	}
	if _, err := db.Exec(contributionSchema); err != nil {
		return nil, fmt.Errorf("create contributions schema: %w", err)
	}
	return &ContributionService{db: db, bus: bus}, nil
}

// Add stores a new contribution and returns it with its assigned ID
// and receive time.
func (s *ContributionService) Add(ctx context.Context, c Contribution) (Contribution, error) {
	if !c.Coords.Valid() {
		return Contribution{}, fmt.Errorf("contribution coordinates out of range: %v", c.Coords)
	}
	if c.Kind != "quality" && c.Kind != "issue" {
		return Contribution{}, fmt.Errorf("unknown contribution kind %q", c.Kind)
	}
	c.CreatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO contributions (kind, type, lon, lat, comment, photo, name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.Kind, c.Type, c.Coords.Lon, c.Coords.Lat,
		c.Comment, c.Photo, c.Name, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return Contribution{}, fmt.Errorf("insert contribution: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(Event{Resource: "contributions", Action: "created", ID: fmt.Sprint(c.ID)})
	}
	return c, nil
}

// Get returns a contribution by ID.
func (s *ContributionService) Get(ctx context.Context, id int64) (Contribution, error) {
	rows, err := s.db.QueryContext(ctx, selectContributions+" WHERE id = ?", id)
	if err != nil {
		return Contribution{}, fmt.Errorf("query contribution: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return Contribution{}, fmt.Errorf("contribution %d not found", id)
	}
	return scanContribution(rows)
}

const selectContributions = `
	SELECT id, kind, type, lon, lat, comment, photo, name, created_at
	FROM contributions`

// ListSince returns contributions received strictly after the given
// time, oldest first. A zero time returns everything.
func (s *ContributionService) ListSince(ctx context.Context, since time.Time) ([]Contribution, error) {
	rows, err := s.db.QueryContext(ctx,
		selectContributions+" WHERE created_at > ? ORDER BY created_at, id", since)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	var out []Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanContribution(rows *sql.Rows) (Contribution, error) {
	var c Contribution
	var comment, photo, name sql.NullString
	err := rows.Scan(&c.ID, &c.Kind, &c.Type, &c.Coords.Lon, &c.Coords.Lat,
		&comment, &photo, &name, &c.CreatedAt)
	if err != nil {
		return Contribution{}, fmt.Errorf("scan contribution: %w", err)
	}
	c.Comment = comment.String
	c.Photo = photo.String
	c.Name = name.String
	return c, nil
}
