package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probin-johori/sustainable/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okLoader(brands ...domain.Brand) Func {
	return Func{SourceName: "test", Fn: func(context.Context) ([]domain.Brand, error) { return brands, nil }}
}

func failingLoader(err error) Func {
	return Func{SourceName: "test", Fn: func(context.Context) ([]domain.Brand, error) { return nil, err }}
}

func setupSnapshots(t *testing.T) (*RedisSnapshots, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSnapshots(client), mr
}

func TestSafe_Success(t *testing.T) {
	got := Safe(context.Background(), okLoader(domain.Brand{ID: "a"}), testLogger())
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestSafe_NilBecomesEmpty(t *testing.T) {
	got := Safe(context.Background(), okLoader(), testLogger())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSafe_ErrorIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	got := Safe(context.Background(), failingLoader(errors.New("401 unauthorized")), logger)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), "401 unauthorized")
}

func TestParseCategories_DropsUnknown(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	got := ParseCategories(context.Background(), logger, "sheets", "x", []string{"food", "Spaceships", " Beauty "})

	assert.Equal(t, []domain.Category{domain.CategoryFood, domain.CategoryBeauty}, got)
	assert.Contains(t, buf.String(), "Spaceships")

	assert.NotNil(t, ParseCategories(context.Background(), logger, "sheets", "x", nil))
}

func TestDropUnknownCategories(t *testing.T) {
	b := domain.Brand{ID: "x", Categories: []domain.Category{"Food", "Nope"}}
	got := DropUnknownCategories(context.Background(), testLogger(), "static", b)
	assert.Equal(t, []domain.Category{domain.CategoryFood}, got.Categories)
}

func TestCached_StoresSuccessfulLoad(t *testing.T) {
	store, mr := setupSnapshots(t)
	c := NewCached(okLoader(domain.Brand{ID: "a", Name: "Alpha"}), store, time.Hour, testLogger())

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	raw, err := mr.Get("catalog:snapshot:test")
	require.NoError(t, err)
	assert.Contains(t, raw, `"Alpha"`)
	assert.Equal(t, time.Hour, mr.TTL("catalog:snapshot:test"))
	assert.Equal(t, "test", c.Name())
}

func TestCached_FallsBackToSnapshot(t *testing.T) {
	ctx := context.Background()
	store, _ := setupSnapshots(t)

	_, err := NewCached(okLoader(domain.Brand{ID: "a", Name: "Alpha"}), store, 0, testLogger()).Load(ctx)
	require.NoError(t, err)

	got, err := NewCached(failingLoader(errors.New("boom")), store, 0, testLogger()).Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alpha", got[0].Name)
}

func TestCached_NoSnapshotReturnsError(t *testing.T) {
	store, _ := setupSnapshots(t)
	boom := errors.New("boom")

	_, err := NewCached(failingLoader(boom), store, 0, testLogger()).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCached_CorruptSnapshot(t *testing.T) {
	store, mr := setupSnapshots(t)
	require.NoError(t, mr.Set("catalog:snapshot:test", "{not json"))
	boom := errors.New("boom")

	_, err := NewCached(failingLoader(boom), store, 0, testLogger()).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCached_RedisDown(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisSnapshots(client)
	boom := errors.New("boom")

	got, err := NewCached(okLoader(domain.Brand{ID: "a"}), store, 0, testLogger()).Load(context.Background())
	require.NoError(t, err, "a failed snapshot write must not fail the load")
	assert.Len(t, got, 1)

	_, err = NewCached(failingLoader(boom), store, 0, testLogger()).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRedisSnapshots_Missing(t *testing.T) {
	store, _ := setupSnapshots(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSnapshotMissing)
}
