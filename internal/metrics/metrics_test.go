package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveGeneration("MCQ", "ok", 1500*time.Millisecond)
	m.ObserveGeneration("MCQ", "ok", time.Second)
	m.ObserveGeneration("Summary", "not_ingested", 0)
	m.ObserveIngest("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("MCQ", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationRequests.WithLabelValues("Summary", "not_ingested")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingests.WithLabelValues("ok")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.GenerationDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveIngest("error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `qg_ingests_total{status="error"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
