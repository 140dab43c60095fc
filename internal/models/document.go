// Package models defines the records produced by the byweb pipeline.
package models

// Document is one cleaned web page from the collection.
type Document struct {
	ID   int64  `json:"id"   parquet:"id"`
	Text string `json:"text" parquet:"text"`
}

// Task is a search query from the task set.
type Task struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

// Judgments maps document id -> task id -> relevance label.
type Judgments map[string]map[string]string

// Add records a label for (docID, taskID). A later label replaces an earlier one.
func (j Judgments) Add(docID, taskID, label string) {
	row, ok := j[docID]
	if !ok {
		row = make(map[string]string)
		j[docID] = row
	}

	row[taskID] = label
}

// Label returns the label for (docID, taskID).
func (j Judgments) Label(docID, taskID string) (string, bool) {
	label, ok := j[docID][taskID]

	return label, ok
}

// Table is a header row plus data rows, ready for CSV export.
type Table struct {
	Header []string
	Rows   [][]string
}
