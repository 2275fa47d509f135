package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/provtab/internal/core"
)

// newTestStore connects to TEST_DATABASE_URL or skips.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url, PoolOptions{MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s, err := New(ctx, pool)
	require.NoError(t, err)
	return s
}

// tableName returns a name no other test run uses, dropped at cleanup.
func tableName(t *testing.T, s *Store) string {
	t.Helper()
	name := "test_" + uuid.NewString()
	t.Cleanup(func() { _ = s.DropTable(context.Background(), name) })
	return name
}

func TestStore_TableLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	name := tableName(t, s)

	_, err := s.Table(ctx, name)
	assert.ErrorIs(t, err, core.ErrTableNotFound)

	tbl, err := s.CreateTable(ctx, name, []string{"groupId", "isMiniTableHeader", "name"})
	require.NoError(t, err)

	_, err = s.CreateTable(ctx, name, []string{"x"})
	assert.ErrorIs(t, err, core.ErrTableExists)

	header, err := tbl.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"groupId", "isMiniTableHeader", "name"}, header)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, name)

	require.NoError(t, s.DropTable(ctx, name))
	assert.ErrorIs(t, s.DropTable(ctx, name), core.ErrTableNotFound)
}

func TestStore_ValuesStylesAndInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	name := tableName(t, s)

	tbl, err := s.CreateTable(ctx, name, []string{"a", "b"})
	require.NoError(t, err)

	require.NoError(t, tbl.SetValues(ctx, core.RowRange(1, 3, 2), [][]string{
		{"1a", "1b"}, {"2a", "2b"}, {"3a", "3b"},
	}))
	assert.ErrorIs(t, tbl.SetValues(ctx, core.RowRange(1, 1, 2), [][]string{{"only one"}}), core.ErrShapeMismatch)
	assert.ErrorIs(t, tbl.SetValues(ctx, core.Range{Row: 1, Col: 1}, nil), core.ErrEmptyRange)

	require.NoError(t, tbl.SetStyle(ctx, core.RowRange(2, 1, 2), core.StyleGenerated))
	require.NoError(t, tbl.InsertRowsAfter(ctx, 1, 2))

	last, err := tbl.LastRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, last)

	values, err := tbl.Values(ctx, core.RowRange(1, 5, 2))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1a", "1b"}, {"", ""}, {"", ""}, {"2a", "2b"}, {"3a", "3b"}}, values)

	styles, err := tbl.Styles(ctx, core.RowRange(1, 5, 1))
	require.NoError(t, err)
	assert.Equal(t, core.StyleDefault, styles[0][0])
	assert.Equal(t, core.StyleDefault, styles[1][0])
	assert.Equal(t, core.StyleGenerated, styles[3][0])

	lastCol, err := tbl.LastColumn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, lastCol)

	assert.ErrorIs(t, tbl.InsertRowsAfter(ctx, 1, 0), core.ErrEmptyRange)
}

func TestStore_RulesAndProperties(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	name := tableName(t, s)

	tbl, err := s.CreateTable(ctx, name, []string{"quantity"})
	require.NoError(t, err)

	_, ok, err := tbl.ColumnRule(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	zero := 0.0
	rule := core.ColumnRule{Type: core.FieldNumeric, Min: &zero, HelpText: "amount"}
	require.NoError(t, tbl.SetColumnRule(ctx, 1, rule))
	got, ok, err := tbl.ColumnRule(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rule, got)
	assert.ErrorIs(t, tbl.SetColumnRule(ctx, 0, rule), core.ErrRangeOutOfBounds)

	require.NoError(t, tbl.SetHeaderStyle(ctx, core.StyleHeader))

	key := "test." + uuid.NewString()
	require.NoError(t, s.Set(ctx, key, "true"))
	v, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}
