package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"byweb/internal/models"
)

var sample = models.Table{
	Header: []string{"id", "text"},
	Rows: [][]string{
		{"1", "Главная страница"},
		{"2", "text, with comma"},
		{"3", `quoted "word"`},
		{"4", ""},
	},
}

func TestWriteTable(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"plain", "byweb2007.csv"},
		{"gzip", "byweb2007.csv.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "out", tt.file)

			stats, err := WriteTable(path, sample)
			require.NoError(t, err)
			assert.Equal(t, 4, stats.Rows)

			got, err := ReadTable(path)
			require.NoError(t, err)
			assert.Equal(t, sample, got)

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temp files must not remain")
		})
	}
}

func TestWriteTable_PlainLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")

	_, err := WriteTable(path, models.Table{
		Header: []string{"task_id", "query"},
		Rows:   [][]string{{"T1", "погода"}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "task_id,query\nT1,погода\n", string(data))
}

func TestWriteTable_Ragged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")

	_, err := WriteTable(path, models.Table{Header: []string{"a", "b"}, Rows: [][]string{{"1"}}})
	assert.ErrorIs(t, err, ErrRaggedRow)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteTable_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relevance.csv")

	_, err := WriteTable(path, models.Table{Header: []string{"doc_id"}})
	require.NoError(t, err)

	got, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc_id"}, got.Header)
	assert.Empty(t, got.Rows)
}
