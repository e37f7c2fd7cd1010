// Package splitter implements fixed-size sliding-window text splitting for
// plain-text documents that carry no structural metadata.
package splitter

import (
	"strings"
	"unicode"
)

// Config controls window splitting.
type Config struct {
	// WindowSize is the target chunk length in runes.
	WindowSize int
	// Overlap is how many runes consecutive chunks share, so content near a
	// boundary stays retrievable from both sides.
	Overlap int
}

// DefaultConfig provides the defaults used for plain-text ingestion.
func DefaultConfig() Config {
	return Config{
		WindowSize: 1000,
		Overlap:    100,
	}
}

// Splitter splits flat text into overlapping windows, preferring to cut at
// whitespace near the window boundary.
type Splitter struct {
	cfg Config
}

func New(cfg Config) *Splitter {
	if cfg.WindowSize <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.Overlap >= cfg.WindowSize {
		cfg.Overlap = cfg.WindowSize / 4
	}
	return &Splitter{cfg: cfg}
}

// Split returns the text's chunks in document order. Empty or whitespace-only
// input yields nil.
func (s *Splitter) Split(text string) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}

	runes := []rune(clean)
	if len(runes) <= s.cfg.WindowSize {
		return []string{clean}
	}

	chunks := make([]string, 0, len(runes)/s.cfg.WindowSize+1)
	start := 0
	for start < len(runes) {
		end := start + s.cfg.WindowSize
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := end - s.cfg.Overlap
			if minCut <= start {
				minCut = start + 1
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end - s.cfg.Overlap
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}
