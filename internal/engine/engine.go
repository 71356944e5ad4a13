// Package engine abstracts the backend that answers catalog queries.
package engine

import (
	"context"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/domain"
)

// SearchEngine indexes the catalog and answers filter queries with the
// catalog's matching rules. Results keep collection order.
type SearchEngine interface {
	// Index replaces the indexed collection with brands.
	Index(ctx context.Context, brands []domain.Brand) error

	// Search returns the indexed brands matching q. The result is never nil.
	Search(ctx context.Context, q catalog.Query) ([]domain.Brand, error)
}
