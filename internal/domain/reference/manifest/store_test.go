package manifest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"exam-analyzer-go/internal/platform/storage"
)

func newTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:manifest-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := storage.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })
	return db
}

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	mr := miniredis.RunT(t)

	sqlite, err := New(Config{Driver: DriverSQLite}, Dependencies{SQLiteDB: newTestSQLiteDB(t)})
	require.NoError(t, err)
	redisStore, err := New(Config{Driver: DriverRedis, Redis: &RedisConfig{Addr: mr.Addr(), Prefix: "test:refs:"}}, Dependencies{})
	require.NoError(t, err)
	memory, err := New(Config{}, Dependencies{})
	require.NoError(t, err)

	stores := map[string]Store{
		DriverMemory: memory,
		DriverSQLite: sqlite,
		DriverRedis:  redisStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close(context.Background())
		}
	})
	return stores
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	fetched := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "geral", 0)
			assert.True(t, errors.Is(err, ErrNotFound))

			rec := Record{
				ExamType:  "ressonancia_cerebro",
				Index:     1,
				URL:       "https://example.org/brain.jpg",
				Path:      "reference_data/ressonancia_cerebro_normal_1.jpg",
				Size:      2048,
				SHA256:    "abc",
				Headers:   map[string]string{"Content-Type": "image/jpeg"},
				FetchedAt: fetched,
			}
			require.NoError(t, store.Record(ctx, rec))
			require.NoError(t, store.Record(ctx, Record{ExamType: "geral", Index: 0, URL: "u", Path: "p", Size: 10, FetchedAt: fetched}))

			got, err := store.Get(ctx, rec.ExamType, rec.Index)
			require.NoError(t, err)
			assert.Equal(t, rec.URL, got.URL)
			assert.Equal(t, rec.Size, got.Size)
			assert.Equal(t, "image/jpeg", got.Headers["Content-Type"])
			assert.True(t, got.FetchedAt.Equal(fetched))

			// same slot is replaced, not duplicated
			rec.Size = 4096
			require.NoError(t, store.Record(ctx, rec))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "geral", list[0].ExamType)
			assert.Equal(t, "ressonancia_cerebro", list[1].ExamType)
			assert.Equal(t, int64(4096), list[1].Size)

			stats, err := store.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, name, stats["type"])
			assert.EqualValues(t, 2, stats["total"])
			assert.EqualValues(t, 4106, stats["bytes"])

			assert.Error(t, store.Record(ctx, Record{}))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Driver: DriverSQLite}, Dependencies{})
	assert.Error(t, err)

	_, err = New(Config{Driver: DriverRedis}, Dependencies{})
	assert.Error(t, err)

	_, err = New(Config{Driver: "etcd"}, Dependencies{})
	assert.Error(t, err)
}

func TestRedis_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(Config{Redis: &RedisConfig{Addr: addr}})
	assert.Error(t, err)
}
