package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()

	m.FramesProcessed.Inc()
	m.CrossingsCounted.WithLabelValues("line1", "right").Add(2)
	m.RecorderFailures.WithLabelValues("sqlite").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CrossingsCounted.WithLabelValues("line1", "right")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `partcounter_crossings_counted_total{direction="right",line="line1"} 2`)
	assert.Contains(t, string(body), `partcounter_recorder_failures_total{store="sqlite"} 1`)
}
