// Package tokens provides token counting for context text.
package tokens

import (
	"math"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates the token count of a text.
type Counter interface {
	Count(text string) int
}

// NewCounter returns a tiktoken-backed counter for the given encoding,
// falling back to a character heuristic when the encoding cannot be loaded
// (e.g. offline with no cached BPE files).
func NewCounter(encoding string, charsPerToken float64) Counter {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return HeuristicCounter{CharsPerToken: charsPerToken}
	}
	return tiktokenCounter{enc: enc}
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// HeuristicCounter approximates tokens as ceil(runes / CharsPerToken).
// Roughly matches BPE tokenizers on English prose at ~4 chars per token.
type HeuristicCounter struct {
	CharsPerToken float64
}

func (c HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = 4.0
	}
	runes := 0
	for range text {
		runes++
	}
	return int(math.Ceil(float64(runes) / ratio))
}
