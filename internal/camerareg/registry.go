// Package camerareg implements the read-only camera enumeration contract
// from spec.md §6 against a Postgres-backed cameras table. Grounded on the
// teacher's initDatabase/getCameraInfo in main.go — the same sql.Open with
// the lib/pq driver, a single parameterized query, sql.Null* scanning for
// optional columns.
package camerareg

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"faceworker/internal/domain"
)

// Camera is the record spec.md §6 names: {camera_id, rtsp_url, width,
// height, prefix}.
type Camera struct {
	CameraID int
	RTSPURL  string
	Width    int
	Height   int
	Name     string
}

// Registry is the concrete lib/pq-backed implementation of the camera
// repository contract.
type Registry struct {
	db *sql.DB
}

// Open connects to databaseURL and verifies reachability with a Ping,
// matching the teacher's initDatabase. Failure here is a startup failure
// (*domain.ConfigError, exit code 2 per spec.md §6).
func Open(databaseURL string) (*Registry, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, &domain.ConfigError{Field: "database_url", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &domain.ConfigError{Field: "database_url", Err: fmt.Errorf("ping: %w", err)}
	}
	return &Registry{db: db}, nil
}

// List runs a single read-only query against the cameras table filtered by
// a LIKE prefix||'%' predicate, returning every matching Camera. Invoked
// once at Orchestrator startup.
func (r *Registry) List(ctx context.Context, prefix string) ([]Camera, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, rtsp_url, width, height, name FROM cameras WHERE name LIKE $1 || '%'`,
		prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("camerareg: list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []Camera
	for rows.Next() {
		var c Camera
		var name sql.NullString
		if err := rows.Scan(&c.CameraID, &c.RTSPURL, &c.Width, &c.Height, &name); err != nil {
			return nil, fmt.Errorf("camerareg: scan row: %w", err)
		}
		c.Name = name.String
		cameras = append(cameras, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("camerareg: iterate rows: %w", err)
	}
	return cameras, nil
}

// Close releases the underlying database connection pool.
func (r *Registry) Close() error { return r.db.Close() }
