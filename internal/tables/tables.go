// Package tables projects the task and relevance files into flat tables.
package tables

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"byweb/internal/models"
	"byweb/internal/xmltree"
)

// Table builder errors.
var (
	ErrMissingElement   = errors.New("element not found")
	ErrMissingAttribute = errors.New("required attribute missing")
)

// Column headers of the exported tables.
const (
	TaskIDColumn = "task_id"
	QueryColumn  = "query"
	DocIDColumn  = "doc_id"
	DocIDField   = "id"
	TextField    = "text"
)

// Options name the elements and attributes of the auxiliary files.
type Options struct {
	TaskElement     string
	TaskIDAttr      string
	QueryField      string
	DocumentElement string
	DocumentIDAttr  string
	RelevanceAttr   string
	NoneLabel       string
}

// Builder builds task and relevance tables from converted XML.
type Builder struct {
	opts Options
}

// NewBuilder creates a table builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Tasks reads (id, query) pairs in document order.
func (b *Builder) Tasks(root xmltree.Value) ([]models.Task, error) {
	items, err := b.topLevel(root, b.opts.TaskElement)
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(items))

	for i, item := range items {
		id, err := b.attr(item, b.opts.TaskIDAttr)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", b.opts.TaskElement, i, err)
		}

		var query string
		if q, ok := item.Field(b.opts.QueryField); ok {
			query = q.Text()
		}

		tasks = append(tasks, models.Task{ID: id, Query: query})
	}

	return tasks, nil
}

// Judgments reads the relevance file. It returns the sparse judgments and the
// task ids in the order they first appear.
func (b *Builder) Judgments(root xmltree.Value) (models.Judgments, []string, error) {
	items, err := b.topLevel(root, b.opts.TaskElement)
	if err != nil {
		return nil, nil, err
	}

	judgments := make(models.Judgments)

	var order []string

	seen := make(map[string]bool)

	for i, task := range items {
		taskID, err := b.attr(task, b.opts.TaskIDAttr)
		if err != nil {
			return nil, nil, fmt.Errorf("%s[%d]: %w", b.opts.TaskElement, i, err)
		}

		if !seen[taskID] {
			seen[taskID] = true
			order = append(order, taskID)
		}

		docs, _ := task.Field(b.opts.DocumentElement)

		for j, doc := range docs.Items() {
			docID, err := b.attr(doc, b.opts.DocumentIDAttr)
			if err != nil {
				return nil, nil, fmt.Errorf("%s %s: %s[%d]: %w", b.opts.TaskElement, taskID, b.opts.DocumentElement, j, err)
			}

			label, err := b.attr(doc, b.opts.RelevanceAttr)
			if err != nil {
				return nil, nil, fmt.Errorf("%s %s: %s %s: %w", b.opts.TaskElement, taskID, b.opts.DocumentElement, docID, err)
			}

			judgments.Add(docID, taskID, label)
		}
	}

	return judgments, order, nil
}

// TaskTable renders tasks as a table.
func TaskTable(tasks []models.Task) models.Table {
	t := models.Table{Header: []string{TaskIDColumn, QueryColumn}}

	for _, task := range tasks {
		t.Rows = append(t.Rows, []string{task.ID, task.Query})
	}

	return t
}

// DocumentTable renders documents as a table.
func DocumentTable(docs []models.Document) models.Table {
	t := models.Table{Header: []string{DocIDField, TextField}}

	for _, d := range docs {
		t.Rows = append(t.Rows, []string{strconv.FormatInt(d.ID, 10), d.Text})
	}

	return t
}

// Relevance renders the dense relevance table. Rows are the judged documents
// plus extraDocs, sorted ascending. Columns are the task ids of columns
// followed by any judged task missing from it. Absent judgments hold the
// none label.
func (b *Builder) Relevance(judgments models.Judgments, columns []string, extraDocs []string) models.Table {
	taskIDs := mergeOrder(columns, judgedTasks(judgments))

	rowSet := make(map[string]bool, len(judgments)+len(extraDocs))
	for docID := range judgments {
		rowSet[docID] = true
	}

	for _, docID := range extraDocs {
		rowSet[docID] = true
	}

	docIDs := make([]string, 0, len(rowSet))
	for docID := range rowSet {
		docIDs = append(docIDs, docID)
	}

	sort.Slice(docIDs, func(i, j int) bool { return lessID(docIDs[i], docIDs[j]) })

	t := models.Table{Header: append([]string{DocIDColumn}, taskIDs...)}

	for _, docID := range docIDs {
		row := make([]string, 0, len(taskIDs)+1)
		row = append(row, docID)

		for _, taskID := range taskIDs {
			label, ok := judgments.Label(docID, taskID)
			if !ok {
				label = b.opts.NoneLabel
			}

			row = append(row, label)
		}

		t.Rows = append(t.Rows, row)
	}

	return t
}

// TaskIDs returns the ids of tasks in order.
func TaskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	return ids
}

// topLevel returns the repeated element directly under the root element.
func (b *Builder) topLevel(root xmltree.Value, element string) ([]xmltree.Value, error) {
	top, ok := root.Obj()
	if !ok || top.Len() != 1 {
		return nil, fmt.Errorf("%w: no root element", ErrMissingElement)
	}

	rootTag := top.Keys()[0]
	inner, _ := top.Get(rootTag)

	items, ok := inner.Field(element)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingElement, rootTag, element)
	}

	return items.Items(), nil
}

func (b *Builder) attr(v xmltree.Value, name string) (string, error) {
	a, ok := v.Field(xmltree.AttrPrefix + name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingAttribute, name)
	}

	s, _ := a.Str()

	return s, nil
}

// judgedTasks returns every task id that has a judgment, sorted.
func judgedTasks(j models.Judgments) []string {
	set := make(map[string]bool)
	for _, row := range j {
		for taskID := range row {
			set[taskID] = true
		}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(a, b int) bool { return lessID(ids[a], ids[b]) })

	return ids
}

func mergeOrder(lists ...[]string) []string {
	seen := make(map[string]bool)

	var out []string

	for _, list := range lists {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	return out
}

// lessID orders ids numerically when both are integers, lexicographically
// otherwise. Integers sort before non-integers.
func lessID(a, b string) bool {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)

	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	}

	return a < b
}
