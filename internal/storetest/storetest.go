// Package storetest is a conformance suite for sheetsync.Store implementations.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideamans/go-sheetsync"
)

// Harness describes a store under test
type Harness struct {
	Store      sheetsync.Store
	DocumentID string // id of an existing, accessible document
	MissingID  string // id that does not resolve to a document
}

// Run exercises the Store contract. newHarness is called once per subtest.
func Run(t *testing.T, newHarness func(t *testing.T) Harness) {
	t.Run("open missing document", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.Store.Open(context.Background(), h.MissingID)
		require.Error(t, err)
		assert.ErrorIs(t, err, sheetsync.ErrDocumentNotFound)
		assert.Equal(t, sheetsync.KindDocumentNotFound, sheetsync.KindOf(err))
	})

	t.Run("get or create tab is idempotent", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		doc := open(t, h)

		first, err := doc.GetOrCreateTab(ctx, "Inventory")
		require.NoError(t, err)
		second, err := doc.GetOrCreateTab(ctx, "Inventory")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, "Inventory", first.Name)
	})

	t.Run("write then read round trips", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		doc := open(t, h)

		tab, err := doc.GetOrCreateTab(ctx, "Data")
		require.NoError(t, err)
		require.NoError(t, doc.WriteRange(ctx, tab, sampleRows()))
		require.NoError(t, doc.Flush(ctx))

		got, err := open(t, h).ReadRange(ctx, tab)
		require.NoError(t, err)
		assert.Equal(t, sampleRows(), got)
	})

	t.Run("text that looks numeric stays text", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		doc := open(t, h)

		rows := [][]interface{}{
			{"zip", "flag", "exp"},
			{"02134", "true", "1e3"},
		}
		tab, err := doc.GetOrCreateTab(ctx, "Data")
		require.NoError(t, err)
		require.NoError(t, doc.WriteRange(ctx, tab, rows))
		require.NoError(t, doc.Flush(ctx))

		got, err := open(t, h).ReadRange(ctx, tab)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("clear then smaller write leaves no residue", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		doc := open(t, h)

		tab, err := doc.GetOrCreateTab(ctx, "Data")
		require.NoError(t, err)
		require.NoError(t, doc.WriteRange(ctx, tab, sampleRows()))
		require.NoError(t, doc.FormatHeader(ctx, tab, 3, sheetsync.DefaultConfig().Header))

		smaller := [][]interface{}{{"only"}, {"one"}}
		require.NoError(t, doc.Clear(ctx, tab))
		require.NoError(t, doc.WriteRange(ctx, tab, smaller))
		require.NoError(t, doc.Flush(ctx))

		got, err := open(t, h).ReadRange(ctx, tab)
		require.NoError(t, err)
		assert.Equal(t, smaller, got)
	})

	t.Run("format header on written tab", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		doc := open(t, h)

		tab, err := doc.GetOrCreateTab(ctx, "Data")
		require.NoError(t, err)
		require.NoError(t, doc.WriteRange(ctx, tab, sampleRows()))
		assert.NoError(t, doc.FormatHeader(ctx, tab, 3, sheetsync.DefaultConfig().Header))
		assert.NoError(t, doc.FormatHeader(ctx, tab, 0, sheetsync.DefaultConfig().Header))
	})
}

func open(t *testing.T, h Harness) sheetsync.Document {
	t.Helper()
	doc, err := h.Store.Open(context.Background(), h.DocumentID)
	require.NoError(t, err)
	require.Equal(t, h.DocumentID, doc.ID())
	return doc
}

func sampleRows() [][]interface{} {
	return [][]interface{}{
		{"name", "age", "active"},
		{"Alice", int64(30), true},
		{"Bob", 2.5, false},
	}
}
