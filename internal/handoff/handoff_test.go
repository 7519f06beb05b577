package handoff

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"greywaterbot/internal/config"
	"greywaterbot/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exerciseSet checks the Has/Add contract shared by every backend.
func exerciseSet(t *testing.T, s domain.ConversationSet) {
	t.Helper()
	ctx := context.Background()

	ok, err := s.Has(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Add(ctx, 42))
	require.NoError(t, s.Add(ctx, 42), "adding twice is a no-op")

	ok, err = s.Has(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Has(ctx, 43)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySet(t *testing.T) {
	s := NewMemorySet()
	exerciseSet(t, s)
	assert.Equal(t, 1, s.Len())
}

func TestMemorySet_Concurrent(t *testing.T) {
	s := NewMemorySet()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = s.Add(ctx, id%10)
			_, _ = s.Has(ctx, id%10)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, s.Len())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handoff.db")
	store, err := NewSQLiteStore(path, testLogger())
	require.NoError(t, err)

	exerciseSet(t, store.Set(SetHandedOff))

	// sets are independent
	ok, err := store.Set(SetAnnounced).Has(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Close())

	// and durable across reopen
	reopened, err := NewSQLiteStore(path, testLogger())
	require.NoError(t, err)
	defer reopened.Close()
	ok, err = reopened.Set(SetHandedOff).Has(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "m.db"), testLogger())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, RunMigrations(store.db, testLogger()))
	version, err := GetSchemaVersion(store.db)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, version)
}

func TestSplitSQL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"single", "CREATE TABLE t (id INT)", 1},
		{"multiple", "CREATE TABLE t1 (id INT); CREATE TABLE t2 (id INT)", 2},
		{"trailing semicolon", "CREATE TABLE t (id INT);", 1},
		{"whitespace", "  CREATE TABLE t (id INT)  ;  ", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, splitSQL(tt.input), tt.want)
		})
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, "test:")
	t.Cleanup(func() { store.Close() })

	exerciseSet(t, store.Set(SetHandedOff))

	members, err := mr.Members("test:" + SetHandedOff)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, members)
	assert.False(t, mr.Exists("test:"+SetAnnounced))
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	st, err := New(ctx, config.HandoffConfig{Backend: "memory"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemorySet{}, st.HandedOff)
	assert.NoError(t, st.Close())

	st, err = New(ctx, config.HandoffConfig{Backend: "sqlite", DBPath: filepath.Join(t.TempDir(), "h.db")}, testLogger())
	require.NoError(t, err)
	exerciseSet(t, st.Announced)
	assert.NoError(t, st.Close())

	mr := miniredis.RunT(t)
	cfg := config.HandoffConfig{Backend: "redis"}
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.KeyPrefix = "greywaterbot:"
	st, err = New(ctx, cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, st.HandedOff.Add(ctx, 7))
	assert.True(t, mr.Exists("greywaterbot:"+SetHandedOff))
	assert.NoError(t, st.Close())

	_, err = New(ctx, config.HandoffConfig{Backend: "etcd"}, testLogger())
	assert.ErrorContains(t, err, "unknown handoff backend")
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := config.HandoffConfig{Backend: "redis"}
	cfg.Redis.Addr = addr
	_, err = New(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "ping failed")
}
