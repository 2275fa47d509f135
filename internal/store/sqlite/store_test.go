package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/provtab/internal/core"
)

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "workbook.db")

	s, err := NewStore(ctx, path)
	require.NoError(t, err)

	tbl, err := s.CreateTable(ctx, "materials", []string{"groupId", "isMiniTableHeader", "materialName"})
	require.NoError(t, err)
	require.NoError(t, tbl.SetValues(ctx, core.RowRange(1, 2, 3), [][]string{
		{"g1", "TRUE", "copper"},
		{"g2", "TRUE", "zinc"},
	}))
	require.NoError(t, tbl.SetStyle(ctx, core.Cell(2, 3), core.StyleHidden))
	require.NoError(t, tbl.SetColumnRule(ctx, 3, core.ColumnRule{Type: core.FieldText, HelpText: "name"}))
	require.NoError(t, s.Set(ctx, "layer.activities", "true"))
	require.NoError(t, s.Close())

	reopened, err := NewStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, path, reopened.Path())

	tables, err := reopened.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"materials"}, tables)

	tbl, err = reopened.Table(ctx, "materials")
	require.NoError(t, err)
	values, err := tbl.Values(ctx, core.RowRange(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"g1", "TRUE", "copper"}, {"g2", "TRUE", "zinc"}}, values)

	styles, err := tbl.Styles(ctx, core.Cell(2, 3))
	require.NoError(t, err)
	assert.Equal(t, core.StyleHidden, styles[0][0])

	rule, ok, err := tbl.ColumnRule(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "name", rule.HelpText)

	v, ok, err := reopened.Get(ctx, "layer.activities")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestStore_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	defer s.Close()

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	_, err = s.Table(ctx, "materials")
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestStore_DropAndDeleteAllPersist(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drop.db")

	s, err := NewStore(ctx, path)
	require.NoError(t, err)
	_, err = s.CreateTable(ctx, "a", []string{"x"})
	require.NoError(t, err)
	_, err = s.CreateTable(ctx, "b", []string{"y"})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.DropTable(ctx, "a"))
	require.NoError(t, s.DeleteAll(ctx))
	require.NoError(t, s.Close())

	reopened, err := NewStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	tables, err := reopened.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, tables)

	_, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	var n int
	require.NoError(t, reopened.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM state`).Scan(&n))
	assert.Equal(t, 2, n)
}
