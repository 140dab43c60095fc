package normalizer

import (
	"regexp"
	"strings"
)

// unicodeSpace is the full Unicode whitespace set (str.isspace), not just
// the ASCII \s class of RE2.
const unicodeSpace = `[\t\n\v\f\r \x{1c}-\x{1f}\x{85}\x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}]`

// Transformer applies the text cleanup steps to extracted page text.
type Transformer struct {
	edgeSpacePattern  *regexp.Regexp
	disallowedPattern *regexp.Regexp
	spaceRunPattern   *regexp.Regexp
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{
		// Leading run, single line breaks/tabs, trailing run.
		edgeSpacePattern: regexp.MustCompile(`^` + unicodeSpace + `+|\n|\t|\r|` + unicodeSpace + `+$`),
		// Everything but Russian а-я/А-Я (no ё), Latin, digits and , . ! ? : ; - space.
		disallowedPattern: regexp.MustCompile(`[^а-яА-Яa-zA-Z0-9,.!?:;\- ]`),
		spaceRunPattern:   regexp.MustCompile(`\s+`),
	}
}

// Transform cleans text. Steps run in this order:
//  1. leading/trailing whitespace runs and each \n, \t, \r become one space
//  2. U+00A0 is removed
//  3. characters outside the allowed set become spaces
//  4. single characters bounded by start/space and end/space are removed
//  5. whitespace runs collapse to one space
//  6. the result is trimmed
//
// Transform is idempotent.
func (t *Transformer) Transform(text string) string {
	text = t.edgeSpacePattern.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "\u00a0", "")
	text = t.disallowedPattern.ReplaceAllString(text, " ")
	text = RemoveIsolated(text)
	text = t.spaceRunPattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// RemoveIsolated drops every rune whose left neighbour is the start of text
// or a space and whose right neighbour is the end of text or a space.
// Neighbours are judged on the input, so removals do not cascade.
func RemoveIsolated(text string) string {
	runes := []rune(text)

	var sb strings.Builder

	sb.Grow(len(text))

	for i, r := range runes {
		leftOpen := i == 0 || runes[i-1] == ' '
		rightOpen := i == len(runes)-1 || runes[i+1] == ' '

		if leftOpen && rightOpen && r != '\n' {
			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}

// Truncate returns the first n runes of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}

	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}

		count++
	}

	return text
}
