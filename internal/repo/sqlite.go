package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// markerRow is the gorm model for the SQLite markers table.
type markerRow struct {
	ID          string  `gorm:"primaryKey"`
	Category    string  `gorm:"not null;index"`
	Latitude    float64 `gorm:"not null"`
	Longitude   float64 `gorm:"not null"`
	Title       string  `gorm:"not null"`
	Description string  `gorm:"not null;default:''"`
	Position    int     `gorm:"not null;index"`
}

func (markerRow) TableName() string { return "markers" }

// SQLiteSource serves the catalog from an embedded SQLite file.
type SQLiteSource struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates the
// markers table. Use "file::memory:?cache=shared" for a throwaway database.
func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: %w", err)
	}
	if err := db.AutoMigrate(&markerRow{}); err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: migrate: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Markers returns every marker in catalog order.
func (s *SQLiteSource) Markers(ctx context.Context) ([]domain.Marker, error) {
	var rows []markerRow
	if err := s.db.WithContext(ctx).Order("position, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repo.SQLiteSource.Markers: %w", err)
	}

	markers := make([]domain.Marker, 0, len(rows))
	for _, r := range rows {
		c, err := domain.ParseCategory(r.Category)
		if err != nil {
			return nil, fmt.Errorf("repo.SQLiteSource.Markers: marker %q: %w", r.ID, err)
		}
		markers = append(markers, domain.Marker{
			ID:          r.ID,
			Latitude:    r.Latitude,
			Longitude:   r.Longitude,
			Title:       r.Title,
			Description: r.Description,
			Category:    c,
		})
	}
	return markers, nil
}

// SeedIfEmpty inserts markers in one transaction when the table has no rows.
// It reports whether it wrote anything.
func (s *SQLiteSource) SeedIfEmpty(ctx context.Context, markers []domain.Marker) (bool, error) {
	seeded := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&markerRow{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 || len(markers) == 0 {
			return nil
		}

		rows := make([]markerRow, 0, len(markers))
		for i, m := range markers {
			if !m.Category.Valid() {
				return fmt.Errorf("marker %q: category %d: %w", m.ID, m.Category, domain.ErrValidation)
			}
			rows = append(rows, markerRow{
				ID:          m.ID,
				Category:    m.Category.String(),
				Latitude:    m.Latitude,
				Longitude:   m.Longitude,
				Title:       m.Title,
				Description: m.Description,
				Position:    i + 1,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %w", domain.ErrValidation, err)
			}
			return err
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("repo.SQLiteSource.SeedIfEmpty: %w", err)
	}
	return seeded, nil
}
