package manager

import (
	"time"

	"github.com/fyrsmithlabs/contextmem/internal/memory"
)

// StoreRequest carries the arguments of a store operation.
type StoreRequest struct {
	Text      string
	Level     string
	Metadata  map[string]string
	Priority  int
	SessionID string
}

// SearchRequest carries the arguments of a search operation.
type SearchRequest struct {
	Query string

	// Level scopes the search to one level when set; empty searches all.
	Level string

	// SessionID scopes candidates to one session when set.
	SessionID string

	// Limit is the maximum item count. Defaults to 10.
	Limit int

	// MaxTokens is the token budget across assembled results. Zero means
	// unbounded.
	MaxTokens int
}

// SearchResponse is the ordered, budget-respecting search result.
type SearchResponse struct {
	Items       []memory.ScoredItem  `json:"items"`
	TotalTokens int                  `json:"total_tokens"`
	Levels      map[memory.Level]int `json:"level_distribution"`
	Took        time.Duration        `json:"-"`
}
