package memory

import (
	"fmt"
	"time"
)

// Level identifies one of the three retention scopes. Levels are independent
// keyspaces: the same id string may exist concurrently in two levels.
type Level string

// The fixed level enumeration. Matching is case-sensitive; anything else is
// rejected with ErrValidation.
const (
	LevelImmediate Level = "Immediate"
	LevelShortTerm Level = "ShortTerm"
	LevelLongTerm  Level = "LongTerm"
)

// SessionMetadataKey is the reserved index metadata key carrying an item's
// session id for session-scoped search filtering.
const SessionMetadataKey = "_session_id"

// AllLevels lists every level in search fan-out order.
func AllLevels() []Level {
	return []Level{LevelImmediate, LevelShortTerm, LevelLongTerm}
}

// ParseLevel validates a level string against the fixed enumeration.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelImmediate, LevelShortTerm, LevelLongTerm:
		return Level(s), nil
	default:
		return "", fmt.Errorf("%w: unknown level %q", ErrValidation, s)
	}
}

// Item is the unit of storage. All fields except LastAccessedAt are
// immutable after creation.
type Item struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Embedding      []float32         `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Priority       int               `json:"priority"`
	SessionID      string            `json:"session_id,omitempty"`
	Level          Level             `json:"level"`
	TokenCount     int               `json:"token_count"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
}

// ScoredItem pairs an item with its similarity score for a query.
type ScoredItem struct {
	Item  Item    `json:"item"`
	Score float32 `json:"score"`
}

// LevelConfig holds one level's retention settings, read-only after startup.
type LevelConfig struct {
	Level Level

	// Capacity is the maximum item count. Zero or negative means unbounded.
	Capacity int

	// TTL is the item time-to-live measured from CreatedAt. Zero means no
	// expiry. LongTerm levels run without a TTL.
	TTL time.Duration
}

// LevelStats summarizes one level for the stats endpoint.
type LevelStats struct {
	Items       int `json:"items"`
	TotalTokens int `json:"total_tokens"`
}
