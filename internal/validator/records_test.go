package validator

import (
	"errors"
	"strings"
	"testing"

	"byweb/internal/models"
)

func TestNewRecordValidator(t *testing.T) {
	v := NewRecordValidator()
	if v == nil {
		t.Fatal("NewRecordValidator returned nil")
	}
}

func TestValidateDocuments_Duplicates(t *testing.T) {
	v := NewRecordValidator()

	docs := []models.Document{
		{ID: 1, Text: "first"},
		{ID: 2, Text: "second"},
		{ID: 1, Text: "first again"},
	}

	kept, result := v.ValidateDocuments(docs)

	if !result.IsValid {
		t.Errorf("Expected valid result, got errors: %v", result.Errors)
	}

	if len(kept) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(kept))
	}

	if kept[0].Text != "first" {
		t.Errorf("Expected first occurrence to be kept, got %q", kept[0].Text)
	}

	if result.Stats.DuplicateDocuments != 1 {
		t.Errorf("Expected 1 duplicate, got %d", result.Stats.DuplicateDocuments)
	}

	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "id 1 at row 2") {
		t.Errorf("Unexpected warnings: %v", result.Warnings)
	}
}

func TestValidateDocuments_EmptyText(t *testing.T) {
	kept, result := NewRecordValidator().ValidateDocuments([]models.Document{
		{ID: 5, Text: ""},
		{ID: 6, Text: "text"},
	})

	if len(kept) != 2 {
		t.Errorf("Empty documents must be kept, got %d", len(kept))
	}

	if result.Stats.EmptyDocuments != 1 {
		t.Errorf("Expected 1 empty document, got %d", result.Stats.EmptyDocuments)
	}

	if result.Stats.UniqueDocuments != 2 {
		t.Errorf("Expected 2 unique documents, got %d", result.Stats.UniqueDocuments)
	}
}

func TestValidateDocuments_None(t *testing.T) {
	_, result := NewRecordValidator().ValidateDocuments(nil)

	if result.IsValid {
		t.Error("Expected invalid result for no documents")
	}

	if len(result.Errors) != 1 || !errors.Is(result.Errors[0], ErrNoDocuments) {
		t.Errorf("Expected ErrNoDocuments, got %v", result.Errors)
	}
}

func TestValidateDocuments_WarningCap(t *testing.T) {
	v := &RecordValidator{MaxWarnings: 2}

	docs := make([]models.Document, 6)
	for i := range docs {
		docs[i] = models.Document{ID: int64(i), Text: ""}
	}

	_, result := v.ValidateDocuments(docs)

	if result.Stats.EmptyDocuments != 6 {
		t.Errorf("Expected 6 empty documents, got %d", result.Stats.EmptyDocuments)
	}

	if len(result.Warnings) != 3 {
		t.Fatalf("Expected 2 warnings plus a total, got %v", result.Warnings)
	}

	if result.Warnings[2] != "6 empty texts in total" {
		t.Errorf("Unexpected summary warning: %q", result.Warnings[2])
	}
}

func TestValidateJudgments(t *testing.T) {
	v := NewRecordValidator()

	docs := []models.Document{{ID: 1, Text: "a"}, {ID: 2, Text: "b"}}
	judgments := models.Judgments{}
	judgments.Add("1", "T1", "vital")
	judgments.Add("99", "T1", "notrelevant")

	_, result := v.ValidateDocuments(docs)
	v.ValidateJudgments(judgments, docs, result)

	if result.Stats.JudgedDocuments != 2 {
		t.Errorf("Expected 2 judged documents, got %d", result.Stats.JudgedDocuments)
	}

	if result.Stats.UnknownJudged != 1 {
		t.Errorf("Expected 1 unknown judged document, got %d", result.Stats.UnknownJudged)
	}

	if len(result.Warnings) != 1 || !strings.HasSuffix(result.Warnings[0], ": 99") {
		t.Errorf("Unexpected warnings: %v", result.Warnings)
	}
}
