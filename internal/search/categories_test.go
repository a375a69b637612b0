package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meeplevault/catalog/internal/search"
)

func setupIndex(t *testing.T) *search.CategoryIndex {
	t.Helper()

	idx, err := search.NewMemOnly()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	docs := map[uint64]search.CategoryDoc{
		1: {Name: "Strategy", Description: "deep thinking games", Status: "public", OwnerID: 10},
		2: {Name: "Party", Description: "loud fun for groups", Status: "public", OwnerID: 11},
		3: {Name: "Cooperative", Description: "strategy together", Status: "pending", OwnerID: 10},
	}
	for id, doc := range docs {
		require.NoError(t, idx.Index(id, doc))
	}
	return idx
}

func ids(hits []search.CategoryHit) []uint64 {
	out := make([]uint64, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestSearchNoFilterReturnsAll(t *testing.T) {
	idx := setupIndex(t)

	hits, total, err := idx.Search(context.Background(), search.Filter{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []uint64{1, 2, 3}, ids(hits))
}

func TestSearchFreeText(t *testing.T) {
	idx := setupIndex(t)

	// matches name on doc 1 and description on doc 3
	hits, _, err := idx.Search(context.Background(), search.Filter{Search: "strategy"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 3}, ids(hits))
}

func TestSearchStatusAndOwnerFilters(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	hits, _, err := idx.Search(ctx, search.Filter{Status: "public"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2}, ids(hits))

	owner := uint64(10)
	hits, _, err = idx.Search(ctx, search.Filter{OwnerID: &owner})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 3}, ids(hits))

	// combined
	hits, _, err = idx.Search(ctx, search.Filter{Status: "public", OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids(hits))
}

func TestSearchReturnsStoredFields(t *testing.T) {
	idx := setupIndex(t)

	owner := uint64(11)
	hits, _, err := idx.Search(context.Background(), search.Filter{OwnerID: &owner})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Party", hits[0].Name)
	assert.Equal(t, "loud fun for groups", hits[0].Description)
	assert.Equal(t, "public", hits[0].Status)
	assert.Equal(t, float64(11), hits[0].OwnerID)
}

func TestSearchPagination(t *testing.T) {
	idx := setupIndex(t)

	hits, total, err := idx.Search(context.Background(), search.Filter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Equal(t, []uint64{2, 3}, ids(hits))
}

// TestUpdateAndDelete verifies the index reflects the latest document and
// that deleted documents stop matching.
func TestUpdateAndDelete(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Update(3, search.CategoryDoc{
		Name: "Cooperative", Description: "strategy together", Status: "public", OwnerID: 10,
	}))

	hits, _, err := idx.Search(ctx, search.Filter{Status: "public"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 2, 3}, ids(hits))

	require.NoError(t, idx.Delete(2))

	hits, _, err = idx.Search(ctx, search.Filter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 3}, ids(hits))
}
