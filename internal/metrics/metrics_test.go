package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"byweb/internal/models"
)

func TestMetrics_ObserveShard(t *testing.T) {
	m := New()

	m.ObserveShard(&models.ShardResult{
		Status:    models.ShardProcessed,
		Documents: make([]models.Document, 4),
		Dropped: []models.DocumentSkip{
			{Skip: models.Skip{Stage: models.StageExtract, Reason: errors.New("bad base64")}},
			{Skip: models.Skip{Stage: models.StageExtract, Reason: errors.New("bad id")}},
		},
		Duration: 2 * time.Second,
	})
	m.ObserveShard(&models.ShardResult{Status: models.ShardSkipped})
	m.ObserveShard(&models.ShardResult{Status: models.ShardResumed, Documents: make([]models.Document, 1)})

	assert.InDelta(t, 1, testutil.ToFloat64(m.shardsTotal.WithLabelValues("processed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.shardsTotal.WithLabelValues("skipped")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.shardsTotal.WithLabelValues("resumed")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.documentsTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.documentsSkipped.WithLabelValues("extract")), 0)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var observed uint64

	for _, f := range families {
		if f.GetName() == "byweb_shard_duration_seconds" {
			observed = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}

	assert.Equal(t, uint64(2), observed, "resumed shards are not timed")
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveBytes(100, 4000)

	path := filepath.Join(t.TempDir(), "textfile", "byweb.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `byweb_decompressed_bytes_total{direction="out"} 4000`)
	assert.Contains(t, string(data), "byweb_documents_total 0")
}
