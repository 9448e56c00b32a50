package memory

import (
	"testing"
	"time"
)

func testRecord(id, session string, priority int, created, accessed time.Time) *record {
	return newRecord(Item{
		ID:             id,
		SessionID:      session,
		Priority:       priority,
		CreatedAt:      created,
		LastAccessedAt: accessed,
	})
}

func TestSessionFIFOPolicy(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		records  map[string]*record
		incoming Item
		want     string
	}{
		{
			name: "oldest in same session goes first",
			records: map[string]*record{
				"s1-old": testRecord("s1-old", "s1", 0, base, base),
				"s1-new": testRecord("s1-new", "s1", 0, base.Add(time.Minute), base),
				"s2-old": testRecord("s2-old", "s2", 0, base.Add(-time.Hour), base),
			},
			incoming: Item{ID: "s1-incoming", SessionID: "s1"},
			want:     "s1-old",
		},
		{
			name: "no session sibling falls back to globally oldest",
			records: map[string]*record{
				"s1-a": testRecord("s1-a", "s1", 0, base, base),
				"s2-a": testRecord("s2-a", "s2", 0, base.Add(-time.Hour), base),
			},
			incoming: Item{ID: "s3-incoming", SessionID: "s3"},
			want:     "s2-a",
		},
		{
			name: "incoming item is never its own victim",
			records: map[string]*record{
				"only":     testRecord("only", "s1", 0, base, base),
				"incoming": testRecord("incoming", "s1", 0, base.Add(-time.Hour), base),
			},
			incoming: Item{ID: "incoming", SessionID: "s1"},
			want:     "only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sessionFIFOPolicy{}.victim(tt.records, &tt.incoming)
			if got != tt.want {
				t.Errorf("victim = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLRUPolicy(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	records := map[string]*record{
		"stale": testRecord("stale", "", 0, base, base),
		"fresh": testRecord("fresh", "", 0, base, base.Add(time.Hour)),
	}
	incoming := Item{ID: "incoming"}

	if got := (lruPolicy{}).victim(records, &incoming); got != "stale" {
		t.Errorf("victim = %q, want %q", got, "stale")
	}

	// A get on the stale item shifts the victim.
	records["stale"].touch(base.Add(2 * time.Hour))
	if got := (lruPolicy{}).victim(records, &incoming); got != "fresh" {
		t.Errorf("after touch: victim = %q, want %q", got, "fresh")
	}
}

func TestPriorityLRUPolicy(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("access recency dominates priority", func(t *testing.T) {
		records := map[string]*record{
			"stale-important": testRecord("stale-important", "", 9, base, base),
			"fresh-trivial":   testRecord("fresh-trivial", "", 0, base, base.Add(time.Hour)),
		}
		got := priorityLRUPolicy{}.victim(records, &Item{ID: "incoming"})
		if got != "stale-important" {
			t.Errorf("victim = %q, want %q", got, "stale-important")
		}
	})

	t.Run("equal recency breaks toward lowest priority", func(t *testing.T) {
		records := map[string]*record{
			"low":  testRecord("low", "", 1, base, base),
			"high": testRecord("high", "", 5, base, base),
		}
		got := priorityLRUPolicy{}.victim(records, &Item{ID: "incoming"})
		if got != "low" {
			t.Errorf("victim = %q, want %q", got, "low")
		}
	})
}

func TestPolicyForLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelImmediate, "session_fifo"},
		{LevelShortTerm, "lru"},
		{LevelLongTerm, "priority_lru"},
	}
	for _, tt := range tests {
		if got := policyForLevel(tt.level).name(); got != tt.want {
			t.Errorf("policyForLevel(%s) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
