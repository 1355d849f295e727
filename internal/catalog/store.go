// Package catalog holds the immutable marker catalog shown on the map screen.
// The catalog is loaded once from a Source and partitioned by category; it is
// read-only afterwards and safe to share between sessions.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// Source supplies the raw markers the catalog is built from.
// Icons on the returned markers are ignored; the Store assigns them.
type Source interface {
	Markers(ctx context.Context) ([]domain.Marker, error)
}

// Store is the marker catalog. The zero value is not usable; call NewStore.
type Store struct {
	source Source
	icons  IconFactory
	log    *slog.Logger

	mu          sync.RWMutex
	initialized bool
	byCategory  map[domain.Category][]domain.Marker
	all         []domain.Marker
}

// NewStore constructs an uninitialized Store. Call Initialize before use;
// until then every query returns an empty list.
func NewStore(source Source, icons IconFactory, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{source: source, icons: icons, log: log}
}

// Initialize loads the catalog. It is idempotent: once it has succeeded,
// further calls return nil without touching the source again.
//
// On failure (icon construction, source error, duplicate id, unknown
// category) the store stays uninitialized and callers see no markers.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	icons := make(map[domain.Category]domain.Icon, len(domain.Categories))
	for _, c := range domain.Categories {
		icon, err := s.icons.Icon(c)
		if err != nil {
			s.log.Error("icon construction failed", "category", c.String(), "error", err)
			return fmt.Errorf("catalog.Store.Initialize: icon for %s: %w", c, err)
		}
		icons[c] = icon
	}

	raw, err := s.source.Markers(ctx)
	if err != nil {
		return fmt.Errorf("catalog.Store.Initialize: %w", err)
	}

	byCategory := make(map[domain.Category][]domain.Marker, len(domain.Categories))
	seen := make(map[string]struct{}, len(raw))
	for _, m := range raw {
		if !m.Category.Valid() {
			return fmt.Errorf("catalog.Store.Initialize: %w: marker %q has unknown category %d",
				domain.ErrValidation, m.ID, int(m.Category))
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("catalog.Store.Initialize: %w: duplicate marker id %q", domain.ErrValidation, m.ID)
		}
		seen[m.ID] = struct{}{}
		m.Icon = icons[m.Category]
		byCategory[m.Category] = append(byCategory[m.Category], m)
	}

	all := make([]domain.Marker, 0, len(raw))
	for _, c := range domain.Categories {
		all = append(all, byCategory[c]...)
	}

	s.byCategory = byCategory
	s.all = all
	s.initialized = true

	s.log.Info("catalog initialized",
		"markers", len(all),
		"people", len(byCategory[domain.CategoryPerson]),
		"activities", len(byCategory[domain.CategoryActivity]),
		"spots", len(byCategory[domain.CategorySpot]),
	)
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// AllMarkers returns the full catalog in category order.
// Always returns a non-nil slice; it is empty until Initialize succeeds.
// The returned slice is a copy and may be modified by the caller.
func (s *Store) AllMarkers() []domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Marker, len(s.all))
	copy(out, s.all)
	return out
}

// ByCategory returns the markers of a single category.
func (s *Store) ByCategory(c domain.Category) []domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.byCategory[c]
	out := make([]domain.Marker, len(src))
	copy(out, src)
	return out
}
