package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvp-joe/fileindex/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "dir", FileName)
	s, err := NewStore(path, DefaultMaxAge, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func populatedService(t *testing.T) *index.Service {
	t.Helper()
	svc := index.NewService()
	t.Cleanup(svc.Close)

	mod := int64(1700000000)
	size := uint64(12)
	svc.SetRoots([]string{"/data"})
	svc.InsertBatch([]index.Item{
		{Path: "/data", Entry: index.NewEntry("data", nil, true, &mod, nil)},
		{Path: "/data/Notes.TXT", Entry: index.NewEntry("Notes.TXT", index.Extension("Notes.TXT"), false, &mod, &size)},
		{Path: "/data/Makefile", Entry: index.NewEntry("Makefile", nil, false, nil, &size)},
	})
	return svc
}

func TestNewStore_Defaults(t *testing.T) {
	t.Parallel()

	s, err := NewStore("/tmp/x.json", 0)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.json", s.Path())
	assert.Equal(t, DefaultMaxAge, s.maxAge)
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	p, err := DefaultPath()
	if err != nil {
		t.Skipf("no user cache dir: %v", err)
	}
	assert.Equal(t, FileName, filepath.Base(p))
	assert.Equal(t, "fileindex", filepath.Base(filepath.Dir(p)))
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_800_000_000, 0)}
	s := newTestStore(t, clock)
	src := populatedService(t)

	require.NoError(t, s.Save(src))
	_, err := os.Stat(s.Path())
	require.NoError(t, err, "parent directories should be created")

	dst := index.NewService()
	defer dst.Close()
	dst.SetRoots([]string{"/data"})

	clock.t = clock.t.Add(time.Hour)
	require.True(t, s.Load(dst))
	assert.Equal(t, src.Snapshot(), dst.Snapshot())
}

func TestStore_Load_Expired(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_800_000_000, 0)}
	s := newTestStore(t, clock)
	require.NoError(t, s.Save(populatedService(t)))

	dst := index.NewService()
	defer dst.Close()
	dst.Insert("/keep", index.NewEntry("keep", nil, false, nil, nil))

	clock.t = clock.t.Add(25 * time.Hour)
	assert.False(t, s.Load(dst))
	assert.Equal(t, 1, dst.Count(), "expired cache must leave the index untouched")
	_, ok := dst.Get("/keep")
	assert.True(t, ok)
}

func TestStore_Load_ExactlyMaxAge(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_800_000_000, 0)}
	s := newTestStore(t, clock)
	require.NoError(t, s.Save(populatedService(t)))

	dst := index.NewService()
	defer dst.Close()

	clock.t = clock.t.Add(24 * time.Hour)
	assert.True(t, s.Load(dst))
}

func TestStore_Load_Missing(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	s := newTestStore(t, clock)

	dst := index.NewService()
	defer dst.Close()
	assert.False(t, s.Load(dst))
}

func TestStore_Load_Corrupt(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	s := newTestStore(t, clock)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0644))

	dst := index.NewService()
	defer dst.Close()
	assert.False(t, s.Load(dst))

	_, err := s.Info()
	assert.Error(t, err)
}

func TestStore_Load_RootsMismatch(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	s := newTestStore(t, clock)
	require.NoError(t, s.Save(populatedService(t)))

	dst := index.NewService()
	defer dst.Close()
	dst.SetRoots([]string{"/elsewhere"})
	assert.False(t, s.Load(dst))
	assert.Equal(t, 0, dst.Count())
}

func TestStore_Load_LegacyFileWithoutRoots(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_800_000_000, 0)}
	s := newTestStore(t, clock)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0755))

	legacy := `{"timestamp":1800000000,"entries":{"/x/a.txt":{"name":"A.txt","name_lower":"stale","extension":"txt","is_dir":false,"modified":null,"size":3}}}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0644))

	dst := index.NewService()
	defer dst.Close()
	dst.SetRoots([]string{"/x"})
	require.True(t, s.Load(dst))

	e, ok := dst.Get("/x/a.txt")
	require.True(t, ok)
	assert.Equal(t, "a.txt", e.NameLower)
	assert.Nil(t, e.Modified)
	require.NotNil(t, e.Size)
	assert.Equal(t, uint64(3), *e.Size)
}

func TestStore_FileFormat(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_800_000_000, 0)}
	s := newTestStore(t, clock)
	require.NoError(t, s.Save(populatedService(t)))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "timestamp")
	assert.Contains(t, raw, "entries")
	assert.JSONEq(t, "1800000000", string(raw["timestamp"]))

	var entries map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw["entries"], &entries))
	mk := entries["/data/Makefile"]
	require.NotNil(t, mk)
	assert.Nil(t, mk["extension"])
	assert.Equal(t, "makefile", mk["name_lower"])
	assert.Contains(t, mk, "modified")
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	s := newTestStore(t, clock)

	require.NoError(t, s.Clear(), "clearing a missing cache is a no-op")

	require.NoError(t, s.Save(populatedService(t)))
	require.NoError(t, s.Clear())
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestStore_Info(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_800_000_000, 0)}
	s := newTestStore(t, clock)

	info, err := s.Info()
	require.NoError(t, err)
	assert.False(t, info.Exists)

	require.NoError(t, s.Save(populatedService(t)))
	clock.t = clock.t.Add(2 * time.Hour)

	info, err = s.Info()
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.True(t, info.Valid)
	assert.Equal(t, 3, info.Entries)
	assert.Equal(t, 2*time.Hour, info.Age)
	assert.Equal(t, []string{"/data"}, info.Roots)

	clock.t = clock.t.Add(48 * time.Hour)
	info, err = s.Info()
	require.NoError(t, err)
	assert.False(t, info.Valid)
}
