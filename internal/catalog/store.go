// Package catalog holds the immutable brand collection and the pure
// filtering rules used by every view of it.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/probin-johori/sustainable/internal/domain"
	apperrors "github.com/probin-johori/sustainable/pkg/errors"
	"github.com/probin-johori/sustainable/pkg/slug"
)

// Store is a read-only brand collection. It is built once and safe for
// concurrent use without locking.
type Store struct {
	brands []domain.Brand
	bySlug map[string]int
	byID   map[string]int
}

// CategoryCount is a category together with the number of brands tagged
// with it.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// RejectedError explains why a record was left out of the store.
type RejectedError struct {
	Position int
	ID       string
	Reason   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("record %d (id %q): %s", e.Position, e.ID, e.Reason)
}

// New builds a Store from brands, keeping their order. Each record gets a
// slug derived from its name. Records that fail validation, or whose
// identifier or slug collides with an earlier record's identifier or slug,
// are dropped and logged; the first occurrence wins.
func New(brands []domain.Brand, logger *slog.Logger) *Store {
	s, rejected := build(brands)
	for _, err := range rejected {
		logger.Warn("brand record dropped",
			slog.Int("position", err.Position),
			slog.String("id", err.ID),
			slog.String("reason", err.Reason),
		)
	}
	return s
}

// Validate reports every record New would drop. It returns nil for a clean
// dataset.
func Validate(brands []domain.Brand) error {
	_, rejected := build(brands)
	errs := make([]error, 0, len(rejected))
	for _, err := range rejected {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func build(brands []domain.Brand) (*Store, []*RejectedError) {
	s := &Store{
		brands: make([]domain.Brand, 0, len(brands)),
		bySlug: make(map[string]int, len(brands)),
		byID:   make(map[string]int, len(brands)),
	}
	var rejected []*RejectedError
	reject := func(i int, id, format string, args ...any) {
		rejected = append(rejected, &RejectedError{Position: i, ID: id, Reason: fmt.Sprintf(format, args...)})
	}

	for i, b := range brands {
		b = b.Clone().WithDefaults()
		b.ID = strings.TrimSpace(b.ID)
		b.Name = strings.TrimSpace(b.Name)
		b.Slug = slug.Generate(b.Name)

		if err := b.Validate(); err != nil {
			reject(i, b.ID, "invalid: %v", err)
			continue
		}
		if b.Slug == "" {
			reject(i, b.ID, "name %q produces an empty slug", b.Name)
			continue
		}
		if j, ok := s.byID[b.ID]; ok {
			reject(i, b.ID, "duplicate id, first used by %q", s.brands[j].Name)
			continue
		}
		if j, ok := s.bySlug[b.Slug]; ok {
			reject(i, b.ID, "slug %q already used by %q", b.Slug, s.brands[j].Name)
			continue
		}
		if j, ok := s.bySlug[b.ID]; ok {
			reject(i, b.ID, "id equals the slug of %q", s.brands[j].Name)
			continue
		}
		if j, ok := s.byID[b.Slug]; ok {
			reject(i, b.ID, "slug %q equals the id of %q", b.Slug, s.brands[j].Name)
			continue
		}

		s.byID[b.ID] = len(s.brands)
		s.bySlug[b.Slug] = len(s.brands)
		s.brands = append(s.brands, b)
	}
	return s, rejected
}

// Len is the number of brands in the store.
func (s *Store) Len() int { return len(s.brands) }

// All returns every brand in collection order. The result is a copy.
func (s *Store) All() []domain.Brand {
	out := make([]domain.Brand, len(s.brands))
	for i, b := range s.brands {
		out[i] = b.Clone()
	}
	return out
}

// Lookup finds a brand by slug, falling back to its identifier. Unknown
// identifiers yield an AppError wrapping apperrors.ErrNotFound.
func (s *Store) Lookup(identifier string) (domain.Brand, error) {
	if i, ok := s.bySlug[identifier]; ok {
		return s.brands[i].Clone(), nil
	}
	if i, ok := s.byID[identifier]; ok {
		return s.brands[i].Clone(), nil
	}
	return domain.Brand{}, apperrors.NotFound("brand", identifier)
}

// Position returns the collection index of the brand with id, or -1.
func (s *Store) Position(id string) int {
	if i, ok := s.byID[id]; ok {
		return i
	}
	return -1
}

// Categories lists the categories in use with their brand counts, in the
// fixed category order.
func (s *Store) Categories() []CategoryCount {
	counts := make(map[domain.Category]int)
	for _, b := range s.brands {
		for _, c := range b.Categories {
			counts[c]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for _, c := range domain.AllCategories {
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
		}
	}
	return out
}
