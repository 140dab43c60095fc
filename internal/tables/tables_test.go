package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"byweb/internal/models"
	"byweb/internal/xmltree"
)

func newBuilder() *Builder {
	return NewBuilder(Options{
		TaskElement:     "task",
		TaskIDAttr:      "id",
		QueryField:      "querytext",
		DocumentElement: "document",
		DocumentIDAttr:  "id",
		RelevanceAttr:   "relevance",
		NoneLabel:       "none",
	})
}

func convert(t *testing.T, doc string) xmltree.Value {
	t.Helper()

	root, err := xmltree.ParseString(doc)
	require.NoError(t, err)

	return xmltree.Convert(root)
}

const tasksXML = `<?xml version="1.0" encoding="utf-8"?>
<taskDocumentMatrix xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <task id="T1"><querytext>купить холодильник</querytext></task>
  <task id="T2"><querytext>погода в москве</querytext></task>
</taskDocumentMatrix>`

func TestBuilder_Tasks(t *testing.T) {
	tasks, err := newBuilder().Tasks(convert(t, tasksXML))
	require.NoError(t, err)

	assert.Equal(t, []models.Task{
		{ID: "T1", Query: "купить холодильник"},
		{ID: "T2", Query: "погода в москве"},
	}, tasks)

	table := TaskTable(tasks)
	assert.Equal(t, []string{"task_id", "query"}, table.Header)
	assert.Equal(t, [][]string{{"T1", "купить холодильник"}, {"T2", "погода в москве"}}, table.Rows)
}

func TestBuilder_TasksSingleTask(t *testing.T) {
	tasks, err := newBuilder().Tasks(convert(t, `<tasks><task id="5"><querytext>q</querytext></task></tasks>`))
	require.NoError(t, err)
	assert.Equal(t, []models.Task{{ID: "5", Query: "q"}}, tasks)
}

func TestBuilder_TasksErrors(t *testing.T) {
	_, err := newBuilder().Tasks(convert(t, `<tasks><query id="1"/></tasks>`))
	assert.ErrorIs(t, err, ErrMissingElement)

	_, err = newBuilder().Tasks(convert(t, `<tasks><task><querytext>q</querytext></task></tasks>`))
	assert.ErrorIs(t, err, ErrMissingAttribute)
}

func TestBuilder_Relevance(t *testing.T) {
	b := newBuilder()

	judgments, order, err := b.Judgments(convert(t, `<relevance>
  <task id="T1"><document id="D1" relevance="vital"/></task>
</relevance>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, order)

	table := b.Relevance(judgments, []string{"T1", "T2"}, []string{"D2"})

	assert.Equal(t, []string{"doc_id", "T1", "T2"}, table.Header)
	assert.Equal(t, [][]string{
		{"D1", "vital", "none"},
		{"D2", "none", "none"},
	}, table.Rows)
}

func TestBuilder_RelevanceOrdering(t *testing.T) {
	b := newBuilder()

	judgments, order, err := b.Judgments(convert(t, `<relevance>
  <task id="20">
    <document id="100" relevance="relevant"/>
    <document id="9" relevance="notrelevant"/>
  </task>
  <task id="3">
    <document id="9" relevance="relevant"/>
  </task>
  <task id="20">
    <document id="42" relevance="relevant"/>
  </task>
</relevance>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"20", "3"}, order)

	// Columns start with the task table order, then relevance-only tasks.
	table := b.Relevance(judgments, append([]string{"3", "7"}, order...), nil)

	assert.Equal(t, []string{"doc_id", "3", "7", "20"}, table.Header)
	assert.Equal(t, [][]string{
		{"9", "relevant", "none", "notrelevant"},
		{"42", "none", "none", "relevant"},
		{"100", "none", "none", "relevant"},
	}, table.Rows)
}

func TestBuilder_RelevanceAddsUnlistedJudgedTasks(t *testing.T) {
	judgments := models.Judgments{}
	judgments.Add("1", "b", "x")
	judgments.Add("1", "a", "y")

	table := newBuilder().Relevance(judgments, nil, nil)
	assert.Equal(t, []string{"doc_id", "a", "b"}, table.Header)
	assert.Equal(t, [][]string{{"1", "y", "x"}}, table.Rows)
}

func TestBuilder_JudgmentsMissingAttribute(t *testing.T) {
	_, _, err := newBuilder().Judgments(convert(t, `<r><task id="1"><document id="5"/></task></r>`))
	assert.ErrorIs(t, err, ErrMissingAttribute)
}

func TestDocumentTable(t *testing.T) {
	table := DocumentTable([]models.Document{{ID: 3, Text: "три"}, {ID: 1, Text: ""}})
	assert.Equal(t, []string{"id", "text"}, table.Header)
	assert.Equal(t, [][]string{{"3", "три"}, {"1", ""}}, table.Rows)
}

func TestLessID(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"9", "10", true},
		{"10", "9", false},
		{"abc", "abd", true},
		{"5", "abc", true},
		{"abc", "5", false},
		{"-1", "0", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lessID(tt.a, tt.b), "%s < %s", tt.a, tt.b)
	}
}
