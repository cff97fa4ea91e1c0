package memory

import (
	"context"
	"testing"

	"catatan/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTableStoresACopy(t *testing.T) {
	s := New()

	src := core.Table{Columns: []string{"ID", "Jumlah"}, Rows: [][]any{{int64(1), 25000.0}}}
	require.NoError(t, s.WriteTable(context.Background(), "Pengeluaran", src))
	src.Rows[0][1] = 0.0

	got, ok := s.sheets["Pengeluaran"]
	require.True(t, ok)
	assert.Equal(t, []string{"ID", "Jumlah"}, got.Columns)
	assert.Equal(t, 25000.0, got.Rows[0][1], "stored table is a copy")
}

func TestWriteTableReplacesSheet(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.WriteTable(ctx, "Belajar", core.Table{Columns: []string{"ID"}, Rows: [][]any{{int64(1)}, {int64(2)}}}))
	require.NoError(t, s.WriteTable(ctx, "Belajar", core.Table{Columns: []string{"ID"}, Rows: [][]any{}}))

	assert.Len(t, s.sheets, 1)
	assert.Zero(t, s.sheets["Belajar"].Len())
}
