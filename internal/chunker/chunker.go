// Package chunker splits long text into word-boundary chunks for distillation.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/podcaster/internal/model"
)

// DefaultMaxChars is the per-chunk character budget used for distillation.
const DefaultMaxChars = 4000

// ErrInvalidSize is returned when the character budget is not positive.
var ErrInvalidSize = errors.New("chunk size must be positive")

// Chunk splits text on whitespace and greedily packs words into chunks of at
// most maxChars characters. Words are never split: a single word longer than
// maxChars becomes its own chunk. Empty input returns no chunks.
func Chunk(text string, maxChars int) ([]model.Chunk, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, maxChars)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []model.Chunk{}, nil
	}

	var chunks []model.Chunk
	var current []string
	curLen := 0 // characters in current, counting one separator per word

	flush := func() {
		chunks = append(chunks, model.Chunk{Index: len(chunks), Text: strings.Join(current, " ")})
		current = nil
		curLen = 0
	}

	for _, w := range words {
		wordLen := utf8.RuneCountInString(w) + 1
		if curLen+wordLen > maxChars && len(current) > 0 {
			flush()
		}
		current = append(current, w)
		curLen += wordLen
	}
	if len(current) > 0 {
		flush()
	}

	return chunks, nil
}

// Join reassembles chunk texts with single spaces.
func Join(chunks []model.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}
