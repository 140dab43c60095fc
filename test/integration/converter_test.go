package integration

import (
	"path/filepath"
	"testing"

	"byweb/internal/xmltree"
)

func TestConverter_ShardFixture(t *testing.T) {
	root, err := xmltree.ParseFile(filepath.Join("..", "fixtures", "byweb0.xml"))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	value := xmltree.Convert(root)

	docs, ok := xmltree.Lookup(value, "dataset.document")
	if !ok {
		t.Fatal("dataset.document not found")
	}

	if got := len(docs.Items()); got != 3 {
		t.Fatalf("Expected 3 documents, got %d", got)
	}

	id, ok := xmltree.LookupText(value, "dataset.document.1.docID")
	if !ok || id != "102" {
		t.Errorf("Expected docID 102, got %q (found=%v)", id, ok)
	}

	meta, ok := xmltree.Lookup(value, "dataset.document.0.meta")
	if !ok || !meta.IsNull() {
		t.Errorf("Expected xsi:nil element to convert to null, got %v", meta)
	}

	content, ok := xmltree.Lookup(value, "dataset.document.2.content")
	if !ok {
		t.Fatal("content not found")
	}

	if enc, _ := content.Field("@encoding"); enc.Text() != "base64" {
		t.Errorf("Expected @encoding attribute, got %v", content)
	}

	if content.Text() == "" {
		t.Error("Expected #text to hold the payload")
	}
}

func TestConverter_TaskFixture(t *testing.T) {
	root, err := xmltree.ParseFile(filepath.Join("..", "fixtures", "web2007_adhoc.xml"))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	query, ok := xmltree.LookupText(xmltree.Convert(root), "taskList.task.2.querytext")
	if !ok || query != "hello world" {
		t.Errorf("Expected 'hello world', got %q", query)
	}

	if _, ok := xmltree.Lookup(xmltree.Convert(root), "taskList.task.3"); ok {
		t.Error("Expected out-of-range index to be reported as missing")
	}
}
