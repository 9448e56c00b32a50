package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/vectorindex"
)

// fakeClock pins the package clock to a mutable instant. Tests that use it
// cannot run in parallel.
func fakeClock(t *testing.T, start time.Time) *time.Time {
	t.Helper()
	now := start
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })
	return &now
}

func newTestStore(t *testing.T, cfg LevelConfig) *LevelStore {
	t.Helper()
	idx, err := vectorindex.NewMemoryIndex(2)
	require.NoError(t, err)
	s, err := NewLevelStore(cfg, idx, zap.NewNop())
	require.NoError(t, err)
	return s
}

func testItem(id string, created time.Time) Item {
	return Item{
		ID:             id,
		Text:           "text " + id,
		Embedding:      []float32{1, 0},
		Level:          LevelShortTerm,
		TokenCount:     2,
		CreatedAt:      created,
		LastAccessedAt: created,
	}
}

func TestLevelStore_PutGetRoundTrip(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelShortTerm, Capacity: 10})
	ctx := context.Background()

	item := testItem("a", base)
	item.Metadata = map[string]string{"source": "test"}
	require.NoError(t, s.Put(ctx, item))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "text a", got.Text)
	assert.Equal(t, map[string]string{"source": "test"}, got.Metadata)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLevelStore_CapacityNeverExceeded(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelShortTerm, Capacity: 2})
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Put(ctx, testItem(id, base.Add(time.Duration(i)*time.Minute))))
		assert.LessOrEqual(t, s.Count(), 2, "capacity invariant after putting %s", id)
	}
}

func TestLevelStore_ImmediateSessionFIFOEviction(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelImmediate, Capacity: 2})
	ctx := context.Background()

	older := testItem("s1-old", base)
	older.SessionID = "s1"
	newer := testItem("s1-new", base.Add(time.Minute))
	newer.SessionID = "s1"
	require.NoError(t, s.Put(ctx, older))
	require.NoError(t, s.Put(ctx, newer))

	incoming := testItem("s1-incoming", base.Add(2*time.Minute))
	incoming.SessionID = "s1"
	require.NoError(t, s.Put(ctx, incoming))

	_, err := s.Get(ctx, "s1-old")
	assert.ErrorIs(t, err, ErrNotFound, "oldest item in the session is evicted first")
	_, err = s.Get(ctx, "s1-new")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "s1-incoming")
	assert.NoError(t, err)
}

func TestLevelStore_LRUEvictionFollowsAccess(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelShortTerm, Capacity: 2})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testItem("a", base)))
	require.NoError(t, s.Put(ctx, testItem("b", base.Add(time.Minute))))

	// Reading "a" makes "b" the least recently used.
	*clock = base.Add(10 * time.Minute)
	_, err := s.Get(ctx, "a")
	require.NoError(t, err)

	*clock = base.Add(11 * time.Minute)
	require.NoError(t, s.Put(ctx, testItem("c", *clock)))

	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestLevelStore_PriorityBreaksLRUTies(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelLongTerm, Capacity: 2})
	ctx := context.Background()

	low := testItem("low", base)
	low.Priority = 1
	high := testItem("high", base)
	high.Priority = 5
	require.NoError(t, s.Put(ctx, low))
	require.NoError(t, s.Put(ctx, high))

	incoming := testItem("incoming", base.Add(time.Minute))
	require.NoError(t, s.Put(ctx, incoming))

	_, err := s.Get(ctx, "low")
	assert.ErrorIs(t, err, ErrNotFound, "equal recency evicts the lowest priority")
	_, err = s.Get(ctx, "high")
	assert.NoError(t, err)
}

func TestLevelStore_TTLExpiry(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelShortTerm, Capacity: 10, TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testItem("a", base)))

	// Within TTL the item is reachable.
	*clock = base.Add(30 * time.Minute)
	_, err := s.Get(ctx, "a")
	require.NoError(t, err)

	// Past TTL it is unreachable even before any sweep runs.
	*clock = base.Add(2 * time.Hour)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	hits, err := s.Search(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits, "search never returns expired items")

	assert.Equal(t, 1, s.Count(), "expired item lingers until swept")
	assert.Equal(t, 1, s.Sweep(ctx))
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 0, s.Sweep(ctx), "sweep is idempotent")
}

func TestLevelStore_SweepWithoutTTLIsNoop(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelLongTerm, Capacity: 10})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testItem("a", base)))
	*clock = base.Add(1000 * time.Hour)
	assert.Equal(t, 0, s.Sweep(ctx))
	assert.Equal(t, 1, s.Count())
}

func TestLevelStore_PutReplacesSameID(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelShortTerm, Capacity: 10})
	ctx := context.Background()

	first := testItem("a", base)
	first.TokenCount = 5
	require.NoError(t, s.Put(ctx, first))

	second := testItem("a", base.Add(time.Minute))
	second.TokenCount = 9
	second.Text = "replaced"
	require.NoError(t, s.Put(ctx, second))

	assert.Equal(t, LevelStats{Items: 1, TotalTokens: 9}, s.Stats())
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "replaced", got.Text)
}

func TestLevelStore_DeleteIdempotent(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelShortTerm, Capacity: 10})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testItem("a", base)))

	found, err := s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = s.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, LevelStats{}, s.Stats())
}

func TestLevelStore_SearchFiltersBySession(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelImmediate, Capacity: 10})
	ctx := context.Background()

	a := testItem("a", base)
	a.SessionID = "s1"
	b := testItem("b", base)
	b.SessionID = "s2"
	require.NoError(t, s.Put(ctx, a))
	require.NoError(t, s.Put(ctx, b))

	hits, err := s.Search(ctx, []float32{1, 0}, 10, vectorindex.Filter{SessionMetadataKey: "s1"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].Item.ID)
}

func TestLevelStore_Clear(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fakeClock(t, base)
	s := newTestStore(t, LevelConfig{Level: LevelShortTerm, Capacity: 10})
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testItem("a", base)))
	require.NoError(t, s.Put(ctx, testItem("b", base)))

	removed, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, s.Count())

	hits, err := s.Search(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
