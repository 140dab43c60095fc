// Package extract turns converted collection documents into cleaned
// (id, text) records.
package extract

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"byweb/internal/models"
	"byweb/internal/normalizer"
	"byweb/internal/xmltree"
)

// Extraction errors.
var (
	ErrFieldDecode     = errors.New("failed to decode document field")
	ErrHTMLParse       = errors.New("failed to parse document html")
	ErrUnknownEncoding = errors.New("unknown fallback encoding")
)

// Options name the document fields and the text limits.
type Options struct {
	IDField          string
	ContentField     string
	FallbackEncoding string
	MaxChars         int
}

// Progress is advanced once per handled document.
type Progress interface {
	Add(n int) error
}

// Batch is the outcome of extracting one shard.
type Batch struct {
	Documents []models.Document
	Dropped   []models.DocumentSkip
}

// Extractor decodes and cleans documents.
type Extractor struct {
	fallback     encoding.Encoding
	processor    *normalizer.Processor
	idField      string
	contentField string
}

// New creates an extractor. An empty FallbackEncoding disables the fallback.
func New(opts Options) (*Extractor, error) {
	e := &Extractor{
		idField:      opts.IDField,
		contentField: opts.ContentField,
		processor:    normalizer.NewProcessorWithLimit(opts.MaxChars),
	}

	if opts.FallbackEncoding != "" {
		enc, err := htmlindex.Get(opts.FallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, opts.FallbackEncoding)
		}

		e.fallback = enc
	}

	return e, nil
}

// Document extracts one record from a converted document value.
func (e *Extractor) Document(doc xmltree.Value) (models.Document, error) {
	id, err := e.documentID(doc)
	if err != nil {
		return models.Document{}, err
	}

	content, ok := doc.Field(e.contentField)
	if !ok {
		return models.Document{}, fmt.Errorf("%w: document %d has no %s", ErrFieldDecode, id, e.contentField)
	}

	raw, err := DecodeBase64(content.Text())
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: document %d %s: %w", ErrFieldDecode, id, e.contentField, err)
	}

	page, _, err := DecodeHTML(raw, e.fallback)
	if err != nil {
		return models.Document{}, fmt.Errorf("document %d: %w", id, err)
	}

	text, err := VisibleText(page)
	if err != nil {
		return models.Document{}, fmt.Errorf("document %d: %w", id, err)
	}

	return models.Document{ID: id, Text: e.processor.Process(text)}, nil
}

// All extracts every document in order. A document that fails is recorded in
// Dropped and the rest are still processed.
func (e *Extractor) All(docs []xmltree.Value, progress Progress) Batch {
	batch := Batch{Documents: make([]models.Document, 0, len(docs))}

	for i, doc := range docs {
		rec, err := e.Document(doc)
		if err != nil {
			batch.Dropped = append(batch.Dropped, models.DocumentSkip{
				Skip:     models.Skip{Stage: models.StageExtract, Reason: err},
				DocID:    e.rawID(doc),
				Position: i,
			})
		} else {
			batch.Documents = append(batch.Documents, rec)
		}

		if progress != nil {
			_ = progress.Add(1)
		}
	}

	return batch
}

func (e *Extractor) documentID(doc xmltree.Value) (int64, error) {
	field, ok := doc.Field(e.idField)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrFieldDecode, e.idField)
	}

	raw := strings.TrimSpace(field.Text())

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrFieldDecode, e.idField, raw)
	}

	return id, nil
}

func (e *Extractor) rawID(doc xmltree.Value) string {
	field, ok := doc.Field(e.idField)
	if !ok {
		return ""
	}

	return strings.TrimSpace(field.Text())
}

// DecodeBase64 decodes standard base64, ignoring line breaks and other
// whitespace inside the payload.
func DecodeBase64(s string) ([]byte, error) {
	compact := strings.Join(strings.Fields(s), "")

	return base64.StdEncoding.DecodeString(compact)
}
