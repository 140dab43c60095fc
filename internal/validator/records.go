// Package validator checks the merged records before they are exported.
package validator

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"byweb/internal/models"
)

// Validation errors.
var (
	ErrNoDocuments     = errors.New("no documents extracted")
	ErrDuplicateID     = errors.New("duplicate document id")
	ErrEmptyText       = errors.New("document text is empty")
	ErrUnknownDocument = errors.New("judged document was not extracted")
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Err     error
	Field   string
	Value   string
	Message string
	Row     int
}

// Error implements error.
func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s=%q: %s", e.Row, e.Field, e.Value, e.Message)
}

// Unwrap returns the sentinel behind the error.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalDocuments     int
	UniqueDocuments    int
	DuplicateDocuments int
	EmptyDocuments     int
	JudgedDocuments    int
	UnknownJudged      int
}

// RecordValidator validates documents and judgments.
type RecordValidator struct {
	// MaxWarnings caps the warnings kept per check; zero keeps all.
	MaxWarnings int
}

// NewRecordValidator creates a new validator.
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{MaxWarnings: 100}
}

// ValidateDocuments drops repeated ids, keeping the first occurrence, and
// reports empty texts. The returned slice is what should be exported.
func (v *RecordValidator) ValidateDocuments(docs []models.Document) ([]models.Document, *ValidationResult) {
	result := &ValidationResult{IsValid: true}
	result.Stats.TotalDocuments = len(docs)

	if len(docs) == 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Err:     ErrNoDocuments,
			Field:   "id",
			Message: ErrNoDocuments.Error(),
		})

		return docs, result
	}

	seen := make(map[int64]int, len(docs))
	kept := make([]models.Document, 0, len(docs))

	var dupWarnings, emptyWarnings int

	for row, doc := range docs {
		if first, ok := seen[doc.ID]; ok {
			result.Stats.DuplicateDocuments++

			if v.keep(dupWarnings) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%v: id %d at row %d, first seen at row %d", ErrDuplicateID, doc.ID, row, first))
			}

			dupWarnings++

			continue
		}

		seen[doc.ID] = row

		if doc.Text == "" {
			result.Stats.EmptyDocuments++

			if v.keep(emptyWarnings) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%v: id %d", ErrEmptyText, doc.ID))
			}

			emptyWarnings++
		}

		kept = append(kept, doc)
	}

	result.Stats.UniqueDocuments = len(kept)

	if dupWarnings > 0 && !v.keep(dupWarnings-1) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d duplicate ids in total", dupWarnings))
	}

	if emptyWarnings > 0 && !v.keep(emptyWarnings-1) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d empty texts in total", emptyWarnings))
	}

	return kept, result
}

// ValidateJudgments adds warnings to result for judged documents that are
// not among docs.
func (v *RecordValidator) ValidateJudgments(judgments models.Judgments, docs []models.Document, result *ValidationResult) {
	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[strconv.FormatInt(d.ID, 10)] = true
	}

	unknown := make([]string, 0)

	for docID := range judgments {
		if !known[docID] {
			unknown = append(unknown, docID)
		}
	}

	sort.Strings(unknown)

	result.Stats.JudgedDocuments = len(judgments)
	result.Stats.UnknownJudged = len(unknown)

	for i, docID := range unknown {
		if !v.keep(i) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%d judged documents were not extracted in total", len(unknown)))

			break
		}

		result.Warnings = append(result.Warnings, fmt.Sprintf("%v: %s", ErrUnknownDocument, docID))
	}
}

func (v *RecordValidator) keep(n int) bool {
	return v.MaxWarnings <= 0 || n < v.MaxWarnings
}
