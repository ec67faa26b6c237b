package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordItem("installed", "")
		m.AddAssetBytes(10)
		m.RecordSweepDuration(time.Second)
		assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	})
	assert.NotNil(t, m.Gatherer())
}

func TestRecordItem(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.RecordItem("installed", "")
	m.RecordItem("installed", "")
	m.RecordItem("failed", "not-found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.items.WithLabelValues("installed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.items.WithLabelValues("failed", "not-found")))
}

func TestAddAssetBytes(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.AddAssetBytes(100)
	m.AddAssetBytes(0)
	m.AddAssetBytes(-5)
	m.AddAssetBytes(28)

	assert.Equal(t, 128.0, testutil.ToFloat64(m.assetBytes))
}

func TestWriteTextfile(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.RecordItem("unchanged", "")
	m.RecordSweepDuration(1500 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "brat.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.Contains(out, `brat_sweep_items_total{reason="",status="unchanged"} 1`), out)
	assert.Contains(t, out, "brat_sweep_duration_seconds_count 1")
}
