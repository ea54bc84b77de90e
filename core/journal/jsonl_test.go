package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	big := strings.Repeat("x", 64<<10)
	for i := 0; i < 40; i++ {
		require.NoError(t, store.Append(context.Background(), Record{Timestamp: time.Now(), Kind: KindEvent, Name: "live_update", Message: big}))
	}
	backups, err := filepath.Glob(filepath.Join(filepath.Dir(path), "journal-*.jsonl"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups, "expected rotated files")

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, Record{Timestamp: base, Kind: KindEvent, Name: "connect"}))
	require.NoError(t, store.Append(ctx, Record{Timestamp: base.Add(time.Minute), Kind: KindAction, Name: "generate", Outcome: OutcomeSuccess}))
	require.NoError(t, store.Append(ctx, Record{Timestamp: base.Add(2 * time.Minute), Kind: KindAction, Name: "export", Outcome: OutcomeFailure}))

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "connect", all[0].Name)

	actions, err := store.Query(ctx, Query{Kind: KindAction})
	require.NoError(t, err)
	assert.Len(t, actions, 2)

	recent, err := store.Query(ctx, Query{Start: base.Add(90 * time.Second)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "export", recent[0].Name)

	last, err := store.Query(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "export", last[0].Name)
}

func TestRotatingJSONLStore_QueryEmpty(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "j.jsonl"), 1, 1, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	cfg := Config{Backend: BackendJSONL, Path: filepath.Join(dir, "a.jsonl")}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	s, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	require.NoError(t, s.Close())

	none, err := Open(Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.Error(t, Config{Backend: "csv", Path: "x"}.Validate())

	var def Config
	def.SetDefaults()
	assert.Equal(t, BackendJSONL, def.Backend)
	assert.Equal(t, "kmrl-journal.jsonl", def.Path)
	_, statErr := os.Stat(def.Path)
	assert.True(t, os.IsNotExist(statErr), "SetDefaults must not create files")
}
