package normalizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNewProcessor(t *testing.T) {
	p := NewProcessor()
	assert.Equal(t, DefaultMaxChars, p.MaxChars())

	assert.Equal(t, DefaultMaxChars, NewProcessorWithLimit(0).MaxChars())
	assert.Equal(t, 10, NewProcessorWithLimit(10).MaxChars())
}

func TestProcessor_TruncatesBeforeCleaning(t *testing.T) {
	p := NewProcessor()

	// 1500 characters; the cut at 1000 leaves a lone trailing "a" that the
	// isolated-character step then removes.
	raw := strings.Repeat("ab ", 500)

	got := p.Process(raw)

	want := strings.TrimSpace(strings.Repeat("ab ", 333))
	assert.Equal(t, want, got)
	assert.Equal(t, 998, utf8.RuneCountInString(got))
}

func TestProcessor_CountsCharactersNotBytes(t *testing.T) {
	p := NewProcessorWithLimit(5)

	// Cyrillic letters are two bytes each in UTF-8.
	assert.Equal(t, "приве", p.Process("привет мир"))
}

func TestProcessor_LongBodyNeverExceedsLimit(t *testing.T) {
	p := NewProcessor()

	got := p.Process(strings.Repeat("слово ", 400))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), DefaultMaxChars)
}
