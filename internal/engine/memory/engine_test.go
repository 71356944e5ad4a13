package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probin-johori/sustainable/internal/catalog"
	"github.com/probin-johori/sustainable/internal/domain"
)

func testBrands() []domain.Brand {
	return []domain.Brand{
		{ID: "1", Name: "No Nasties", Description: "Organic cotton", Categories: []domain.Category{domain.CategoryClothing}},
		{ID: "2", Name: "Ooo Farms", Description: "Clean food", Categories: []domain.Category{domain.CategoryFood}},
	}
}

func TestEngine_SearchEmptyIndex(t *testing.T) {
	eng := New()

	got, err := eng.Search(context.Background(), catalog.Query{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEngine_SearchByCategory(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Index(ctx, testBrands()))

	got, err := eng.Search(ctx, catalog.Query{Categories: []domain.Category{domain.CategoryFood}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ooo Farms", got[0].Name)
}

func TestEngine_SearchByText(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Index(ctx, testBrands()))

	got, err := eng.Search(ctx, catalog.Query{Text: "COTTON"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "No Nasties", got[0].Name)
}

func TestEngine_IndexReplaces(t *testing.T) {
	ctx := context.Background()
	eng := New()
	require.NoError(t, eng.Index(ctx, testBrands()))
	require.NoError(t, eng.Index(ctx, testBrands()[:1]))

	got, err := eng.Search(ctx, catalog.Query{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEngine_IndexCopiesInput(t *testing.T) {
	ctx := context.Background()
	eng := New()
	brands := testBrands()
	require.NoError(t, eng.Index(ctx, brands))

	brands[0].Name = "Mutated"
	got, err := eng.Search(ctx, catalog.Query{})
	require.NoError(t, err)
	assert.Equal(t, "No Nasties", got[0].Name)

	got[1].Categories[0] = domain.CategoryToys
	again, err := eng.Search(ctx, catalog.Query{Categories: []domain.Category{domain.CategoryFood}})
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestEngine_SearchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Search(ctx, catalog.Query{})
	assert.ErrorIs(t, err, context.Canceled)
}
