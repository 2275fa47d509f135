package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/provtab/internal/audit"
	"github.com/JonMunkholm/provtab/internal/config"
	"github.com/JonMunkholm/provtab/internal/store/memory"
	"github.com/JonMunkholm/provtab/internal/store/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	h, err := Open(context.Background(), config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	defer h.Close()

	assert.IsType(t, &memory.Store{}, h.Backend)
	assert.IsType(t, &audit.Memory{}, h.Journal)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wb.db")

	h, err := Open(ctx, config.StoreConfig{Driver: "SQLite", SQLitePath: path})
	require.NoError(t, err)
	defer h.Close()

	s, ok := h.Backend.(*sqlite.Store)
	require.True(t, ok)
	assert.Equal(t, path, s.Path())

	require.NoError(t, h.Backend.Set(ctx, "layer.activities", "true"))
	v, found, err := h.Backend.Get(ctx, "layer.activities")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", v)

	require.IsType(t, &audit.SQL{}, h.Journal)
	audit.Log(ctx, h.Journal, audit.Entry{Action: audit.ActionLayerEnable, Detail: "activities"})
	entries, err := h.Journal.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "activities", entries[0].Detail)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "redis"})
	assert.ErrorContains(t, err, "unknown store driver")
}
