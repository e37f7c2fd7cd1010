package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("empty input yields nil", func(t *testing.T) {
		s := New(DefaultConfig())
		assert.Nil(t, s.Split(""))
		assert.Nil(t, s.Split("   \n\t  "))
	})

	t.Run("short input is a single chunk", func(t *testing.T) {
		s := New(DefaultConfig())
		chunks := s.Split("a short paragraph")
		require.Len(t, chunks, 1)
		assert.Equal(t, "a short paragraph", chunks[0])
	})

	t.Run("long input produces multiple overlapping chunks", func(t *testing.T) {
		s := New(Config{WindowSize: 100, Overlap: 20})
		words := strings.Repeat("lorem ipsum dolor sit amet ", 50)

		chunks := s.Split(words)
		require.Greater(t, len(chunks), 2)

		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 100)
			assert.NotEmpty(t, c)
		}
	})

	t.Run("consecutive chunks share boundary content", func(t *testing.T) {
		s := New(Config{WindowSize: 50, Overlap: 15})
		text := strings.Repeat("alpha beta gamma delta ", 20)

		chunks := s.Split(text)
		require.Greater(t, len(chunks), 1)

		// The tail of each chunk should reappear at the head of the next.
		for i := 0; i < len(chunks)-1; i++ {
			tail := chunks[i][len(chunks[i])-5:]
			assert.Contains(t, chunks[i+1], strings.TrimSpace(tail))
		}
	})

	t.Run("no content is lost", func(t *testing.T) {
		s := New(Config{WindowSize: 40, Overlap: 10})
		text := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen"

		chunks := s.Split(text)
		joined := strings.Join(chunks, " ")
		for _, word := range strings.Fields(text) {
			assert.Contains(t, joined, word)
		}
	})

	t.Run("zero config falls back to defaults", func(t *testing.T) {
		s := New(Config{})
		assert.Equal(t, 1000, s.cfg.WindowSize)
		assert.Equal(t, 100, s.cfg.Overlap)
	})

	t.Run("oversized overlap is clamped", func(t *testing.T) {
		s := New(Config{WindowSize: 100, Overlap: 200})
		assert.Equal(t, 25, s.cfg.Overlap)
	})

	t.Run("multibyte runes do not split mid-character", func(t *testing.T) {
		s := New(Config{WindowSize: 10, Overlap: 2})
		text := strings.Repeat("日本語テキスト ", 20)

		for _, c := range s.Split(text) {
			assert.True(t, len([]rune(c)) <= 10)
			for _, r := range c {
				assert.NotEqual(t, rune(0xFFFD), r)
			}
		}
	})
}
