package memory

import (
	"testing"
	"time"
)

func scored(id string, score float32, tokens, priority int, created time.Time) ScoredItem {
	return ScoredItem{
		Item: Item{
			ID:         id,
			Level:      LevelShortTerm,
			TokenCount: tokens,
			Priority:   priority,
			CreatedAt:  created,
		},
		Score: score,
	}
}

func TestAssembler_Assemble(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		candidates []ScoredItem
		limit      int
		maxTokens  int
		wantIDs    []string
		wantTokens int
	}{
		{
			name: "orders by score descending",
			candidates: []ScoredItem{
				scored("low", 0.2, 10, 0, base),
				scored("high", 0.9, 10, 0, base),
				scored("mid", 0.5, 10, 0, base),
			},
			wantIDs:    []string{"high", "mid", "low"},
			wantTokens: 30,
		},
		{
			name: "stops at first candidate over budget",
			candidates: []ScoredItem{
				scored("a", 0.9, 100, 0, base),
				scored("b", 0.8, 50, 0, base),
				scored("c", 0.7, 30, 0, base),
			},
			maxTokens:  120,
			wantIDs:    []string{"a"},
			wantTokens: 100,
		},
		{
			name: "limit caps the result count",
			candidates: []ScoredItem{
				scored("a", 0.9, 10, 0, base),
				scored("b", 0.8, 10, 0, base),
				scored("c", 0.7, 10, 0, base),
			},
			limit:      2,
			wantIDs:    []string{"a", "b"},
			wantTokens: 20,
		},
		{
			name: "score tie falls back to priority",
			candidates: []ScoredItem{
				scored("lowpri", 0.5, 10, 1, base),
				scored("highpri", 0.5, 10, 9, base),
			},
			wantIDs:    []string{"highpri", "lowpri"},
			wantTokens: 20,
		},
		{
			name: "score and priority tie falls back to recency",
			candidates: []ScoredItem{
				scored("older", 0.5, 10, 3, base.Add(-time.Hour)),
				scored("newer", 0.5, 10, 3, base),
			},
			wantIDs:    []string{"newer", "older"},
			wantTokens: 20,
		},
		{
			name:       "empty candidates",
			candidates: nil,
			maxTokens:  100,
			wantIDs:    []string{},
			wantTokens: 0,
		},
	}

	var asm Assembler
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asm.Assemble(tt.candidates, tt.limit, tt.maxTokens)

			if len(got.Items) != len(tt.wantIDs) {
				t.Fatalf("got %d items, want %d", len(got.Items), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Items[i].Item.ID != id {
					t.Errorf("position %d: got %q, want %q", i, got.Items[i].Item.ID, id)
				}
			}
			if got.TotalTokens != tt.wantTokens {
				t.Errorf("TotalTokens = %d, want %d", got.TotalTokens, tt.wantTokens)
			}
		})
	}
}

func TestAssembler_Deterministic(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	candidates := []ScoredItem{
		scored("a", 0.5, 10, 2, base),
		scored("b", 0.5, 10, 2, base.Add(time.Minute)),
		scored("c", 0.7, 10, 0, base),
		scored("d", 0.5, 10, 5, base),
	}

	var asm Assembler
	first := asm.Assemble(candidates, 0, 0)
	for i := 0; i < 10; i++ {
		again := asm.Assemble(candidates, 0, 0)
		for j := range first.Items {
			if again.Items[j].Item.ID != first.Items[j].Item.ID {
				t.Fatalf("run %d position %d: got %q, want %q", i, j, again.Items[j].Item.ID, first.Items[j].Item.ID)
			}
		}
	}
}

func TestAssembler_LevelDistribution(t *testing.T) {
	a := scored("a", 0.9, 10, 0, time.Now())
	a.Item.Level = LevelImmediate
	b := scored("b", 0.8, 10, 0, time.Now())
	b.Item.Level = LevelImmediate
	c := scored("c", 0.7, 10, 0, time.Now())
	c.Item.Level = LevelLongTerm

	got := Assembler{}.Assemble([]ScoredItem{a, b, c}, 0, 0)
	if got.LevelDistribution[LevelImmediate] != 2 || got.LevelDistribution[LevelLongTerm] != 1 {
		t.Errorf("LevelDistribution = %v, want Immediate:2 LongTerm:1", got.LevelDistribution)
	}
}
