package memory

import "sort"

// Assembled is the ordered, budget-respecting output of the assembler.
type Assembled struct {
	Items       []ScoredItem
	TotalTokens int

	// LevelDistribution counts included items per level.
	LevelDistribution map[Level]int
}

// Assembler turns merged, unordered candidates into the final result list.
//
// Candidates are ordered by score descending; score ties fall back to
// priority descending, then CreatedAt descending (newest first). Packing is
// strictly greedy top-down: the walk stops at the first candidate that
// would exceed the token budget, never skipping ahead to a smaller
// lower-ranked item to fill the gap. Relevance wins over budget
// utilization.
type Assembler struct{}

// Assemble ranks and packs candidates. limit <= 0 means no item cap;
// maxTokens <= 0 means no token budget. The input slice is not modified.
func (Assembler) Assemble(candidates []ScoredItem, limit, maxTokens int) Assembled {
	ranked := make([]ScoredItem, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Item.Priority != ranked[j].Item.Priority {
			return ranked[i].Item.Priority > ranked[j].Item.Priority
		}
		return ranked[i].Item.CreatedAt.After(ranked[j].Item.CreatedAt)
	})

	out := Assembled{
		Items:             make([]ScoredItem, 0, len(ranked)),
		LevelDistribution: make(map[Level]int),
	}
	for _, candidate := range ranked {
		if limit > 0 && len(out.Items) >= limit {
			break
		}
		if maxTokens > 0 && out.TotalTokens+candidate.Item.TokenCount > maxTokens {
			break
		}
		out.Items = append(out.Items, candidate)
		out.TotalTokens += candidate.Item.TokenCount
		out.LevelDistribution[candidate.Item.Level]++
	}
	return out
}
