package http

import "github.com/fyrsmithlabs/contextmem/internal/memory"

// storeRequest is the POST /api/v1/context body.
type storeRequest struct {
	Text      string            `json:"text"`
	Level     string            `json:"level"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Priority  int               `json:"priority,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
}

// searchRequest is the POST /api/v1/context/search body.
type searchRequest struct {
	Query     string `json:"query"`
	Level     string `json:"level,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// searchResult is one entry of the search response.
type searchResult struct {
	memory.Item
	Score float32 `json:"score"`
}

// searchResponse is the POST /api/v1/context/search response body.
type searchResponse struct {
	Results           []searchResult       `json:"results"`
	TotalTokens       int                  `json:"total_tokens"`
	LevelDistribution map[memory.Level]int `json:"level_distribution"`
	RetrievalTimeMs   int64                `json:"retrieval_time_ms"`
}

// deleteResponse is the DELETE response body.
type deleteResponse struct {
	Found bool `json:"found"`
}

// clearResponse is the level clear response body.
type clearResponse struct {
	Removed int `json:"removed"`
}

// statsResponse is the GET /api/v1/stats response body.
type statsResponse struct {
	Levels map[memory.Level]memory.LevelStats `json:"levels"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
