// Package repo loads the marker catalog from a database. Postgres access goes
// through pgx; the embedded SQLite variant goes through gorm. No filtering or
// partitioning lives here, only SQL and type mapping.
package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// db is the read side of *pgxpool.Pool, pgx.Conn and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// MarkerRepo reads the markers table, which the goose migrations create and
// seed. It satisfies catalog.Source.
type MarkerRepo struct {
	db db
}

// NewMarkerRepo constructs a MarkerRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewMarkerRepo(db db) *MarkerRepo {
	return &MarkerRepo{db: db}
}

// Markers returns every marker in catalog order (position, then id).
func (r *MarkerRepo) Markers(ctx context.Context) ([]domain.Marker, error) {
	const q = `
		SELECT id, category, latitude, longitude, title, description
		FROM markers
		ORDER BY position, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.MarkerRepo.Markers: %w", err)
	}
	defer rows.Close()

	markers := []domain.Marker{}
	for rows.Next() {
		m, err := scanMarker(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.MarkerRepo.Markers: scan: %w", err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.MarkerRepo.Markers: rows: %w", err)
	}
	return markers, nil
}

// scanMarker maps one row; an unknown category is a domain.ErrValidation.
func scanMarker(rows pgx.Rows) (domain.Marker, error) {
	var (
		m        domain.Marker
		category string
	)
	if err := rows.Scan(&m.ID, &category, &m.Latitude, &m.Longitude, &m.Title, &m.Description); err != nil {
		return domain.Marker{}, err
	}
	c, err := domain.ParseCategory(category)
	if err != nil {
		return domain.Marker{}, fmt.Errorf("marker %q: %w", m.ID, err)
	}
	m.Category = c
	return m, nil
}
