// Package normalizer turns raw page text into the cleaned, truncated text
// stored in the document table.
package normalizer

// DefaultMaxChars is the number of characters kept from each page.
const DefaultMaxChars = 1000

// Processor truncates and cleans page text.
type Processor struct {
	transformer *Transformer
	maxChars    int
}

// NewProcessor creates a processor keeping DefaultMaxChars characters.
func NewProcessor() *Processor {
	return NewProcessorWithLimit(DefaultMaxChars)
}

// NewProcessorWithLimit creates a processor keeping maxChars characters.
// A non-positive limit falls back to DefaultMaxChars.
func NewProcessorWithLimit(maxChars int) *Processor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	return &Processor{
		transformer: NewTransformer(),
		maxChars:    maxChars,
	}
}

// MaxChars returns the truncation limit.
func (p *Processor) MaxChars() int {
	return p.maxChars
}

// Process truncates raw text to the limit first and cleans it afterwards,
// so the cleaned result is never longer than the limit.
func (p *Processor) Process(raw string) string {
	return p.transformer.Transform(Truncate(raw, p.maxChars))
}
