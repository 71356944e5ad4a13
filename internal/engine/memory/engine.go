package memory

import (
	"context"
	"sync"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/domain"
)

// Engine answers queries by filtering an in-memory copy of the catalog.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu     sync.RWMutex
	brands []domain.Brand
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{brands: []domain.Brand{}}
}

// Index replaces the indexed brands.
func (e *Engine) Index(_ context.Context, brands []domain.Brand) error {
	cp := make([]domain.Brand, len(brands))
	for i, b := range brands {
		cp[i] = b.Clone()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.brands = cp
	return nil
}

// Search filters the indexed brands.
func (e *Engine) Search(ctx context.Context, q catalog.Query) ([]domain.Brand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	matched := catalog.Filter(e.brands, q)
	for i := range matched {
		matched[i] = matched[i].Clone()
	}
	return matched, nil
}
